package mctraffic

// trace.go gathers the record of a simulation run for post-run analysis.
// Nothing in the core writes a trace on its own; the driver decides.

import (
	"os"
)

// StepRecord is the trace of one simulated hour
type StepRecord struct {
	Hour   int       `json:"hour" yaml:"hour"`
	Inflow []float64 `json:"inflow" yaml:"inflow"`
	State  []float64 `json:"state" yaml:"state"`
	Total  float64   `json:"total" yaml:"total"`
	Exited float64   `json:"exited" yaml:"exited"`
}

// RunTrace collects the steps of a run.  When not in use AddStep does nothing,
// so calls can be left in place whether or not a trace is wanted.
type RunTrace struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// node labels, in the order of every Inflow and State vector
	Nodes []string `json:"nodes" yaml:"nodes"`

	Steps []StepRecord `json:"steps" yaml:"steps"`

	// Analysis results, filled by Conclude
	Bottleneck string  `json:"bottleneck,omitempty" yaml:"bottleneck,omitempty"`
	Peak       float64 `json:"peak,omitempty" yaml:"peak,omitempty"`
	Structural string  `json:"structural,omitempty" yaml:"structural,omitempty"`

	net *Network
}

// CreateRunTrace is a constructor
func CreateRunTrace(expName string, net *Network, active bool) *RunTrace {
	rt := new(RunTrace)
	rt.InUse = active
	rt.ExpName = expName
	rt.Nodes = net.Labels()
	rt.Steps = make([]StepRecord, 0)
	rt.net = net
	return rt
}

// Active tells the caller whether the trace is being gathered
func (rt *RunTrace) Active() bool {
	return rt.InUse
}

// AddStep records the inflow injected at an hour and the state it produced
func (rt *RunTrace) AddStep(hour int, inflow InflowVector, state StateVector) {
	if !rt.InUse {
		return
	}
	ss := Summarize(rt.net, state)
	rt.Steps = append(rt.Steps, StepRecord{Hour: hour, Inflow: append([]float64(nil), inflow...),
		State: append([]float64(nil), state...), Total: ss.Total, Exited: ss.Exited})
}

// AddHistory records every step of a run driven by src
func (rt *RunTrace) AddHistory(h History, src InflowSource) {
	for t, x := range h {
		rt.AddStep(t, src.Inflow(t), x)
	}
}

// Conclude stores the results of both analyses of the traced run
func (rt *RunTrace) Conclude(bn Bottleneck, found bool, ss SteadyState) {
	if !rt.InUse {
		return
	}
	if found {
		rt.Bottleneck = bn.Node
		rt.Peak = bn.Peak
	}
	if ss.Found() {
		rt.Structural = ss.Node
	} else {
		rt.Structural = "none"
	}
}

// WriteToFile stores the RunTrace struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
// Nothing is written, and false returned, when the trace is not in use.
func (rt *RunTrace) WriteToFile(filename string) (bool, error) {
	if !rt.InUse {
		return false, nil
	}
	bytes, merr := marshalByExt(filename, *rt)
	if merr != nil {
		return false, merr
	}
	if werr := os.WriteFile(filename, bytes, 0o644); werr != nil {
		return false, werr
	}
	logger.Debug("trace written", "file", filename, "steps", len(rt.Steps))
	return true, nil
}
