package mctraffic

// analysis.go holds the two congestion analyses.  The transient analysis scans
// a run's history for the highest load ever seen at a transient node.  The
// structural analysis works from the transition matrix alone: with Q the
// transient-to-transient block of P, the fundamental matrix N = (I-Q)^-1
// gives in entry (i,j) the expected number of visits to j of a vehicle that
// starts at i, counted until it is absorbed.  The column sums of N rank
// the nodes by expected cumulative occupancy.

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Bottleneck is the transient node with the highest peak load of a run
type Bottleneck struct {
	Node  string
	Index int
	Peak  float64

	// Step is the first step of the history at which Peak was reached
	Step int
}

// FindBottleneck scans the history restricted to transient nodes.  Ties on the
// peak are resolved toward the lower canonical index.  The result is false when
// the history is empty or the network has no transient nodes.
func FindBottleneck(net *Network, h History) (Bottleneck, bool) {
	transient := net.Transient()
	if len(h) == 0 || len(transient) == 0 {
		return Bottleneck{}, false
	}

	peaks := make([]float64, len(transient))
	for k, i := range transient {
		peaks[k] = floats.Max(h.Node(i))
	}

	// MaxIdx returns the first of equal maxima, giving the canonical tie-break
	k := floats.MaxIdx(peaks)
	idx := transient[k]

	step := 0
	for t, x := range h {
		if x[idx] == peaks[k] {
			step = t
			break
		}
	}
	return Bottleneck{Node: net.Label(idx), Index: idx, Peak: peaks[k], Step: step}, true
}

// Outcome tags a SteadyState result
type Outcome int

const (
	NoStructural Outcome = iota
	Structural
)

// SteadyState is the result of the structural analysis.  When Outcome is
// Structural, Node names the node with the largest column sum of the
// fundamental matrix.  When it is NoStructural, Cause says why; that outcome
// is a legitimate finding for topologies where traffic can circulate forever.
type SteadyState struct {
	Outcome Outcome
	Node    string
	Index   int

	// TransientIdx lists the canonical index of each row/column of Fundamental
	TransientIdx []int
	Fundamental  *mat.Dense

	// Visits holds the column sums of Fundamental
	Visits []float64

	Cause *LinearAlgebraError
}

// Found is true when a structural bottleneck was identified
func (ss SteadyState) Found() bool {
	return ss.Outcome == Structural
}

// TransientBlock extracts Q, the transient-to-transient block of P
func (net *Network) TransientBlock() (*mat.Dense, []int) {
	transient := net.Transient()
	m := len(transient)
	if m == 0 {
		return nil, transient
	}
	q := mat.NewDense(m, m, nil)
	for a, i := range transient {
		for b, j := range transient {
			q.Set(a, b, net.p.At(i, j))
		}
	}
	return q, transient
}

// Fundamental computes N = (I-Q)^-1.  The error is a *LinearAlgebraError when
// some transient node cannot drain or I-Q is exactly singular.  An
// ill-conditioned but finite inverse is logged and returned.
func (net *Network) Fundamental() (*mat.Dense, []int, error) {
	if trapped := net.Trapped(); len(trapped) > 0 {
		return nil, nil, &LinearAlgebraError{Trapped: net.labelsOf(trapped)}
	}

	q, transient := net.TransientBlock()
	if q == nil {
		return nil, transient, &LinearAlgebraError{Err: errors.New("network has no transient nodes")}
	}
	m := len(transient)

	// a = I - Q
	var a mat.Dense
	a.Sub(eye(m), q)

	// Inverse fills fund even when it reports a finite condition number
	var fund mat.Dense
	if err := fund.Inverse(&a); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, transient, &LinearAlgebraError{Err: err}
		}
		logger.Warn("fundamental matrix is ill-conditioned", "condition", float64(cond))
	}
	return &fund, transient, nil
}

// AnalyzeSteadyState identifies the structural bottleneck of the network.
// It depends only on the transition matrix and never fails; an absent
// answer is reported through the Outcome.
func AnalyzeSteadyState(net *Network) SteadyState {
	fund, transient, err := net.Fundamental()
	if err != nil {
		var lae *LinearAlgebraError
		if !errors.As(err, &lae) {
			lae = &LinearAlgebraError{Err: err}
		}
		logger.Info("no structural bottleneck", "reason", lae.Error())
		return SteadyState{Outcome: NoStructural, Index: -1, Cause: lae}
	}

	m := len(transient)
	visits := make([]float64, m)
	for b := 0; b < m; b++ {
		visits[b] = mat.Sum(fund.ColView(b))
	}
	k := floats.MaxIdx(visits)

	return SteadyState{
		Outcome:      Structural,
		Node:         net.Label(transient[k]),
		Index:        transient[k],
		TransientIdx: transient,
		Fundamental:  fund,
		Visits:       visits,
	}
}

// eye returns the m x m identity
func eye(m int) *mat.Dense {
	d := make([]float64, m*m)
	for i := 0; i < m; i++ {
		d[i*m+i] = 1.0
	}
	return mat.NewDense(m, m, d)
}
