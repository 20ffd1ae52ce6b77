package mctraffic

// sim.go holds the Simulation Engine, which advances the vehicle state with
// the recurrence x(t+1) = (x(t) + u(t)) P

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// History is the sequence of states produced by a run, one per step
type History []StateVector

// Len is the number of recorded steps
func (h History) Len() int {
	return len(h)
}

// At returns a copy of the state after step t
func (h History) At(t int) StateVector {
	rtn := make(StateVector, len(h[t]))
	copy(rtn, h[t])
	return rtn
}

// Node extracts the time series of the load at node i
func (h History) Node(i int) []float64 {
	series := make([]float64, len(h))
	for t, x := range h {
		series[t] = x[i]
	}
	return series
}

// Simulator applies the recurrence over one Network.  It holds no run state,
// so one Simulator may serve any number of runs and sessions.
type Simulator struct {
	net *Network

	// pt is the transpose of P, so that x P is computed as pt x
	pt mat.Matrix
}

// NewSimulator is a constructor
func NewSimulator(net *Network) *Simulator {
	return &Simulator{net: net, pt: net.p.T()}
}

// Network returns the network the simulator advances over
func (sim *Simulator) Network() *Network {
	return sim.net
}

// ZeroState is the state at time zero
func (sim *Simulator) ZeroState() StateVector {
	return make(StateVector, sim.net.Len())
}

// Step applies one recurrence step to the given state and inflow and
// returns the new state.  Neither argument is modified.
func (sim *Simulator) Step(state StateVector, inflow InflowVector) StateVector {
	n := sim.net.Len()
	loaded := make([]float64, n)
	copy(loaded, state)
	floats.Add(loaded, inflow)

	rtn := make(StateVector, n)
	next := mat.NewVecDense(n, rtn)
	next.MulVec(sim.pt, mat.NewVecDense(n, loaded))
	return rtn
}

// Run simulates horizon steps from the zero state, taking the inflow for
// step t from src.Inflow(t), and returns the full history
func (sim *Simulator) Run(horizon int, src InflowSource) History {
	if horizon <= 0 {
		return History{}
	}
	history := make(History, 0, horizon)
	x := sim.ZeroState()
	for t := 0; t < horizon; t++ {
		x = sim.Step(x, src.Inflow(t))
		history = append(history, x)
	}
	logger.Debug("run complete", "horizon", horizon, "final_total", x.Total())
	return history
}
