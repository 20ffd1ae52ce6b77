package mctraffic

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBottleneckDefaultRun(t *testing.T) {
	md := defaultModel(t)
	h := md.Run(24)
	bn, ok := FindBottleneck(md.Net, h)
	require.True(t, ok)
	assert.Equal(t, "N5", bn.Node)
	assert.Equal(t, idx(t, md.Net, "N5"), bn.Index)
	assert.InDelta(t, 5465.1606, bn.Peak, 1e-3)
	assert.Equal(t, bn.Peak, h[bn.Step][bn.Index])
}

func TestBottleneckTieBreak(t *testing.T) {
	net := defaultModel(t).Net
	n4, n7, n10 := idx(t, net, "N4"), idx(t, net, "N7"), idx(t, net, "N10")

	h := make(History, 3)
	for k := range h {
		h[k] = make(StateVector, net.Len())
	}
	h[0][n7] = 250.0
	h[2][n4] = 250.0
	h[1][n4] = 100.0

	// absorbing nodes never count, however loaded
	h[1][n10] = 1e6

	bn, ok := FindBottleneck(net, h)
	require.True(t, ok)
	assert.Equal(t, "N4", bn.Node)
	assert.Equal(t, 250.0, bn.Peak)
	assert.Equal(t, 2, bn.Step)
}

func TestBottleneckLeavesHistoryAlone(t *testing.T) {
	md := defaultModel(t)
	h := md.Run(5)
	before := make(History, len(h))
	for k := range h {
		before[k] = h.At(k)
	}
	FindBottleneck(md.Net, h)
	assert.Equal(t, before, h)
}

func TestBottleneckEmpty(t *testing.T) {
	net := defaultModel(t).Net
	_, ok := FindBottleneck(net, History{})
	assert.False(t, ok)

	allExit, err := BuildNetwork([]string{"A"}, []Rule{{"A", "A", 1}})
	require.NoError(t, err)
	_, ok = FindBottleneck(allExit, History{StateVector{5}})
	assert.False(t, ok)
}

func TestSteadyStateDefault(t *testing.T) {
	net := defaultModel(t).Net
	ss := AnalyzeSteadyState(net)
	require.True(t, ss.Found())
	assert.Nil(t, ss.Cause)
	assert.Equal(t, "N6", ss.Node)
	assert.Equal(t, idx(t, net, "N6"), ss.Index)
	assert.Equal(t, net.Transient(), ss.TransientIdx)

	m, c := ss.Fundamental.Dims()
	assert.Equal(t, 9, m)
	assert.Equal(t, 9, c)

	want := []float64{1, 1, 1, 6.3203, 6.4242, 3.5697, 4.4988, 1, 2}
	require.Len(t, ss.Visits, len(want))
	for k, w := range want {
		assert.InDelta(t, w, ss.Visits[k], 1e-4, net.Label(ss.TransientIdx[k]))
	}

	// a vehicle at N5 revisits it before leaving
	assert.InDelta(t, 1.2225, ss.Fundamental.At(3, 3), 1e-4)
}

func TestFundamentalInvertsIMinusQ(t *testing.T) {
	net := defaultModel(t).Net
	fund, transient, err := net.Fundamental()
	require.NoError(t, err)

	q, _ := net.TransientBlock()
	var a, prod mat.Dense
	a.Sub(eye(len(transient)), q)
	prod.Mul(&a, fund)
	assert.True(t, mat.EqualApprox(&prod, eye(len(transient)), 1e-9))
}

func TestSteadyStateIgnoresRuns(t *testing.T) {
	md := defaultModel(t)
	before := AnalyzeSteadyState(md.Net)
	md.Run(24)
	ses := md.NewSession()
	ses.Advance(5, 9000, 9000, 9000)
	after := AnalyzeSteadyState(md.Net)

	assert.Equal(t, before.Node, after.Node)
	assert.Equal(t, before.Visits, after.Visits)
	assert.True(t, mat.Equal(before.Fundamental, after.Fundamental))
}

func TestSteadyStateNoEscape(t *testing.T) {
	// C and D feed each other with no way out
	net, err := BuildNetwork([]string{"A", "B", "C", "D", "E"}, []Rule{
		{"A", "B", 0.5}, {"A", "C", 0.5},
		{"B", "E", 1},
		{"C", "D", 1}, {"D", "C", 1},
		{"E", "E", 1},
	})
	require.NoError(t, err)

	var ss SteadyState
	require.NotPanics(t, func() { ss = AnalyzeSteadyState(net) })
	assert.False(t, ss.Found())
	assert.Equal(t, NoStructural, ss.Outcome)
	assert.Nil(t, ss.Fundamental)
	require.NotNil(t, ss.Cause)
	assert.Equal(t, []string{"C", "D"}, ss.Cause.Trapped)
	assert.Contains(t, ss.Cause.Error(), "C,D")
}

func TestFundamentalSingularInverse(t *testing.T) {
	// Trapped() is bypassed here to exercise the inversion failure directly
	var q mat.Dense
	q.Sub(eye(2), mat.NewDense(2, 2, []float64{0, 1, 1, 0}))
	var fund mat.Dense
	err := fund.Inverse(&q)
	require.Error(t, err)

	lae := &LinearAlgebraError{Err: err}
	var cond mat.Condition
	assert.True(t, errors.As(lae, &cond))
	assert.Contains(t, lae.Error(), "singular")
}

func TestSteadyStateIllConditioned(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	defer SetLogger(nil)

	// a cycle that leaks one vehicle in 2^53 per lap
	hold := math.Nextafter(1, 0)
	net, err := BuildNetwork([]string{"A", "B", "C", "D", "X"}, []Rule{
		{"A", "B", 1}, {"B", "C", 1}, {"C", "D", 1},
		{"D", "A", hold}, {"D", "X", 1 - hold},
		{"X", "X", 1},
	})
	require.NoError(t, err)
	require.Empty(t, net.Trapped())

	ss := AnalyzeSteadyState(net)
	require.True(t, ss.Found())
	assert.Nil(t, ss.Cause)
	require.NotNil(t, ss.Fundamental)
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			v := ss.Fundamental.At(a, b)
			assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
			assert.Greater(t, v, 1e15)
		}
	}
	assert.Contains(t, buf.String(), "fundamental matrix is ill-conditioned")
}

func TestSteadyStateAllAbsorbing(t *testing.T) {
	net, err := BuildNetwork([]string{"A", "B"}, []Rule{{"A", "A", 1}, {"B", "B", 1}})
	require.NoError(t, err)
	ss := AnalyzeSteadyState(net)
	assert.False(t, ss.Found())
	require.NotNil(t, ss.Cause)
}
