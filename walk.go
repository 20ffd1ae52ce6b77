package mctraffic

// walk.go estimates the fundamental matrix by following individual vehicles.
// Each walk starts at a transient node and moves by sampling the row of P
// it is on, until it lands on an absorbing node.  Averaging visit counts
// over many walks converges to N = (I-Q)^-1, which gives an independent
// check on the inversion.

import (
	"github.com/iti/rngstream"
	"gonum.org/v1/gonum/mat"
)

// MaxWalkSteps bounds a single walk, so trapped vehicles do not walk forever
var MaxWalkSteps int = 100000

// CreateWalkRng returns the random number stream used for vehicle walks
func CreateWalkRng(name string) *rngstream.RngStream {
	return rngstream.New(name)
}

// EstimateVisits runs walks random walks from each transient node and returns
// the mean visit counts, laid out like the Fundamental matrix
func EstimateVisits(net *Network, walks int, rng *rngstream.RngStream) *mat.Dense {
	transient := net.Transient()
	m := len(transient)
	if m == 0 || walks <= 0 {
		return nil
	}

	// position of each canonical index within the transient list, -1 when absorbing
	pos := make([]int, net.Len())
	for i := range pos {
		pos[i] = -1
	}
	for a, i := range transient {
		pos[i] = a
	}

	counts := mat.NewDense(m, m, nil)
	for a, start := range transient {
		for w := 0; w < walks; w++ {
			here := start
			for steps := 0; steps < MaxWalkSteps && pos[here] >= 0; steps++ {
				b := pos[here]
				counts.Set(a, b, counts.At(a, b)+1.0)
				here = net.nextNode(here, rng.RandU01())
			}
		}
	}
	counts.Scale(1.0/float64(walks), counts)
	return counts
}

// nextNode picks the successor of node i given a U(0,1) sample
func (net *Network) nextNode(i int, u01 float64) int {
	n := net.Len()
	acc := 0.0
	last := i
	for j := 0; j < n; j++ {
		pr := net.p.At(i, j)
		if pr == 0.0 {
			continue
		}
		acc += pr
		last = j
		if u01 < acc {
			return j
		}
	}
	// rounding left acc just under one
	return last
}
