package mctraffic

// events.go drives a batch run from the evtm discrete-event manager.  Each
// simulated hour is an event; the handler takes one recurrence step,
// records it, and schedules the next hour's tick.  The history produced is
// identical to that of Run, the event list only serves as the clock, which
// lets a run share an event manager (and its notion of virtual time) with
// other event-driven models.

import (
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// SecondsPerHour converts simulated hours to event-manager virtual time
const SecondsPerHour float64 = 3600.0

// hourClock carries the run state between hourly tick events
type hourClock struct {
	sim     *Simulator
	src     InflowSource
	horizon int
	hour    int
	x       StateVector
	history History
}

// RunEvents produces the same History as Run, with each step scheduled as
// an hourly event on a fresh evtm.EventManager
func (sim *Simulator) RunEvents(horizon int, src InflowSource) History {
	if horizon <= 0 {
		return History{}
	}
	clock := &hourClock{sim: sim, src: src, horizon: horizon,
		x: sim.ZeroState(), history: make(History, 0, horizon)}

	evtMgr := evtm.New()
	scheduleRun(evtMgr, clock)
	evtMgr.Run(float64(horizon) * SecondsPerHour)

	return clock.history
}

// scheduleRun places the first tick of clock on evtMgr, at the manager's current time
func scheduleRun(evtMgr *evtm.EventManager, clock *hourClock) {
	evtMgr.Schedule(clock, nil, hourTick, vrtime.SecondsToTime(0.0))
}

// hourTick is the event handler for the passage of one hour
func hourTick(evtMgr *evtm.EventManager, context any, data any) any {
	clock := context.(*hourClock)

	clock.x = clock.sim.Step(clock.x, clock.src.Inflow(clock.hour))
	clock.history = append(clock.history, clock.x)
	clock.hour += 1

	if clock.hour < clock.horizon {
		evtMgr.Schedule(clock, nil, hourTick, vrtime.SecondsToTime(SecondsPerHour))
	}
	return nil
}
