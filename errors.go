package mctraffic

// errors.go holds the error types reported by the simulation core

import (
	"fmt"
	"strings"
)

// TopologyError is returned when a network cannot be built from its
// node list and rule table.  Row is the label of the offending row when
// the defect is a row that fails to sum to one, and is empty otherwise.
type TopologyError struct {
	Row    string
	Sum    float64
	Reason string
}

func (te *TopologyError) Error() string {
	if te.Row != "" {
		return fmt.Sprintf("topology: row %s %s (sum %g)", te.Row, te.Reason, te.Sum)
	}
	return "topology: " + te.Reason
}

// LinearAlgebraError describes why no fundamental matrix exists for
// the transient part of a network.  It is carried inside a SteadyState
// result and is never returned as a failure of the analysis itself.
type LinearAlgebraError struct {
	// Trapped lists transient nodes with no path to an absorbing node
	Trapped []string

	// Err is the error reported by the matrix inversion, if it was attempted
	Err error
}

func (lae *LinearAlgebraError) Error() string {
	if len(lae.Trapped) > 0 {
		return "singular fundamental matrix: no path to absorption from " + strings.Join(lae.Trapped, ",")
	}
	if lae.Err != nil {
		return "singular fundamental matrix: " + lae.Err.Error()
	}
	return "singular fundamental matrix"
}

func (lae *LinearAlgebraError) Unwrap() error {
	return lae.Err
}
