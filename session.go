package mctraffic

// session.go supports interactive, user-driven stepping.  The Session owns
// its clock, current state and history; the caller decides what to
// inject before each step and may reset at any time.  The clock is an hour
// of the day and wraps at midnight.

import (
	"gonum.org/v1/gonum/floats"
)

// NoBottleneck names the bottleneck of a state with no vehicles in the network
const NoBottleneck = "-"

// StateSummary splits the vehicle count of a state
type StateSummary struct {
	Total     float64 // all vehicles accounted for
	InNetwork float64 // vehicles at transient nodes
	Exited    float64 // vehicles that have reached an absorbing node

	// Bottleneck is the transient node holding the most vehicles right now,
	// or NoBottleneck when every transient node is empty
	Bottleneck string
	Load       float64
}

// Summarize splits the vehicle count of state into transient and absorbed parts
func Summarize(net *Network, state StateVector) StateSummary {
	ss := StateSummary{Bottleneck: NoBottleneck}
	for i, v := range state {
		if net.IsAbsorbing(i) {
			ss.Exited += v
		} else {
			ss.InNetwork += v
		}
	}
	ss.Total = floats.Sum(state)

	transient := net.Transient()
	if len(transient) == 0 {
		return ss
	}
	loads := make([]float64, len(transient))
	for k, i := range transient {
		loads[k] = state[i]
	}
	k := floats.MaxIdx(loads)
	if loads[k] > 0.0 {
		ss.Bottleneck = net.Label(transient[k])
		ss.Load = loads[k]
	}
	return ss
}

// Session is an interactive simulation over one Network
type Session struct {
	sim     *Simulator
	gen     *InflowGenerator
	hour    int
	state   StateVector
	history History
}

// NewSession is a constructor; the session starts at hour 0 from the zero state
func NewSession(sim *Simulator, gen *InflowGenerator) *Session {
	ses := &Session{sim: sim, gen: gen}
	ses.Reset()
	return ses
}

// Reset discards the history and returns to hour 0 and the zero state
func (ses *Session) Reset() {
	ses.hour = 0
	ses.state = ses.sim.ZeroState()
	ses.history = History{}
}

// Hour is the hour of the day of the next step, in [0, HoursPerDay)
func (ses *Session) Hour() int {
	return ses.hour
}

// State returns a copy of the current state
func (ses *Session) State() StateVector {
	rtn := make(StateVector, len(ses.state))
	copy(rtn, ses.state)
	return rtn
}

// History returns a copy of the states recorded since the last reset
func (ses *Session) History() History {
	rtn := make(History, len(ses.history))
	for k := range ses.history {
		rtn[k] = ses.history.At(k)
	}
	return rtn
}

// Summary summarizes the current state
func (ses *Session) Summary() StateSummary {
	return Summarize(ses.sim.net, ses.state)
}

// Step injects a caller-chosen inflow, advances one hour, and returns the new state.
// Inflow outside the volume band of the hour is logged and used as given.
func (ses *Session) Step(inflow InflowVector) StateVector {
	if !ses.gen.InBand(ses.hour, inflow) {
		band := ses.gen.Band(ses.hour)
		logger.Warn("inflow outside volume band", "hour", dayHour(ses.hour),
			"total", inflow.Total(), "min", band.Min, "max", band.Max)
	}
	return ses.advance(inflow)
}

// StepScheduled advances one hour with the scheduled inflow for the current hour
func (ses *Session) StepScheduled() StateVector {
	return ses.advance(ses.gen.Scheduled(ses.hour))
}

func (ses *Session) advance(inflow InflowVector) StateVector {
	ses.state = ses.sim.Step(ses.state, inflow)
	ses.history = append(ses.history, ses.state)
	ses.hour = dayHour(ses.hour + 1)
	return ses.State()
}

// StepCustom advances one hour with one chosen volume per source
func (ses *Session) StepCustom(values ...float64) StateVector {
	return ses.Step(ses.gen.Custom(values...))
}

// Advance takes n steps with the same chosen volumes at each
func (ses *Session) Advance(n int, values ...float64) StateVector {
	inflow := ses.gen.Custom(values...)
	for k := 0; k < n; k++ {
		ses.Step(inflow)
	}
	return ses.State()
}

// SetHour moves the clock to an hour of the day, leaving state and history
// alone, and returns the preset volumes for that hour
func (ses *Session) SetHour(hour int) []float64 {
	ses.hour = dayHour(hour)
	return ses.gen.Preset(ses.hour)
}

// LoadRushHour moves the clock to the earliest peak hour and returns its
// preset volumes.  Without peak hours the clock stays where it is.
func (ses *Session) LoadRushHour() []float64 {
	peaks := ses.gen.PeakHours()
	if len(peaks) == 0 {
		return ses.gen.Preset(ses.hour)
	}
	return ses.SetHour(peaks[0])
}

// Bottleneck applies the transient analysis to the session history
func (ses *Session) Bottleneck() (Bottleneck, bool) {
	return FindBottleneck(ses.sim.net, ses.history)
}
