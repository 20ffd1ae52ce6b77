package mctraffic

// network.go holds the Network model: the fixed node ordering and the
// stochastic transition matrix built from a rule table

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RowTolerance bounds how far a row sum of the transition matrix may fall from one
const RowTolerance = 1e-9

// A Rule assigns the probability that traffic at From moves to To in one step.
// A self-loop rule with Prob 1.0 declares an absorbing node.
type Rule struct {
	From string
	To   string
	Prob float64
}

// NodeRole classifies a node by its membership, never stored
type NodeRole int

const (
	Transient NodeRole = iota
	Source
	Absorbing
)

var roleToStr map[NodeRole]string = map[NodeRole]string{Transient: "transient", Source: "source", Absorbing: "absorbing"}

func (nr NodeRole) String() string {
	return roleToStr[nr]
}

// Network is the immutable road network.  Once built nothing in the package
// writes to it, so a single Network may back any number of simulations.
type Network struct {
	labels  []string
	idx     map[string]int
	p       *mat.Dense
	absorbs []bool
}

// BuildNetwork constructs a Network whose canonical node order is the order of labels.
// Every row must be completed by the rules; a row that fails to sum to one
// produces a *TopologyError naming it.
func BuildNetwork(labels []string, rules []Rule) (*Network, error) {
	if len(labels) == 0 {
		return nil, &TopologyError{Reason: "no nodes declared"}
	}

	net := new(Network)
	net.labels = make([]string, len(labels))
	copy(net.labels, labels)
	net.idx = make(map[string]int, len(labels))

	for i, label := range labels {
		if label == "" {
			return nil, &TopologyError{Reason: fmt.Sprintf("node %d has an empty label", i)}
		}
		if _, present := net.idx[label]; present {
			return nil, &TopologyError{Reason: fmt.Sprintf("duplicated node label %q", label)}
		}
		net.idx[label] = i
	}

	n := len(labels)
	net.p = mat.NewDense(n, n, nil)

	// later rules for the same pair overwrite earlier ones
	for _, rule := range rules {
		from, present := net.idx[rule.From]
		if !present {
			return nil, &TopologyError{Reason: fmt.Sprintf("rule names unknown source node %q", rule.From)}
		}
		to, present := net.idx[rule.To]
		if !present {
			return nil, &TopologyError{Reason: fmt.Sprintf("rule names unknown destination node %q", rule.To)}
		}
		if math.IsNaN(rule.Prob) || rule.Prob < 0.0 || rule.Prob > 1.0 {
			return nil, &TopologyError{Row: rule.From, Sum: rule.Prob,
				Reason: fmt.Sprintf("has probability outside [0,1] toward %s", rule.To)}
		}
		net.p.Set(from, to, rule.Prob)
	}

	for i := 0; i < n; i++ {
		sum := mat.Sum(net.p.RowView(i))
		if math.Abs(sum-1.0) > RowTolerance {
			return nil, &TopologyError{Row: net.labels[i], Sum: sum, Reason: "does not sum to 1"}
		}
	}

	net.absorbs = make([]bool, n)
	for i := 0; i < n; i++ {
		net.absorbs[i] = net.rowIsSelfLoop(i)
	}

	logger.Debug("network built", "nodes", n, "rules", len(rules), "absorbing", len(net.Absorbing()))
	return net, nil
}

// rowIsSelfLoop is true when row i has P[i,i]=1 and nothing else
func (net *Network) rowIsSelfLoop(i int) bool {
	if net.p.At(i, i) != 1.0 {
		return false
	}
	for j := 0; j < len(net.labels); j++ {
		if j != i && net.p.At(i, j) != 0.0 {
			return false
		}
	}
	return true
}

// Len is the number of nodes
func (net *Network) Len() int {
	return len(net.labels)
}

// Labels returns the node labels in canonical order
func (net *Network) Labels() []string {
	rtn := make([]string, len(net.labels))
	copy(rtn, net.labels)
	return rtn
}

// Label returns the label of the node at index i
func (net *Network) Label(i int) string {
	return net.labels[i]
}

// Index looks up the canonical index of a label
func (net *Network) Index(label string) (int, bool) {
	i, present := net.idx[label]
	return i, present
}

// Prob is the transition probability from node i to node j
func (net *Network) Prob(i, j int) float64 {
	return net.p.At(i, j)
}

// Matrix returns a copy of the transition matrix
func (net *Network) Matrix() *mat.Dense {
	return mat.DenseCopyOf(net.p)
}

// IsAbsorbing reports whether node i never releases the traffic it receives
func (net *Network) IsAbsorbing(i int) bool {
	return net.absorbs[i]
}

// Absorbing lists indices of the absorbing nodes, in canonical order
func (net *Network) Absorbing() []int {
	rtn := []int{}
	for i, abs := range net.absorbs {
		if abs {
			rtn = append(rtn, i)
		}
	}
	return rtn
}

// Transient lists indices of the non-absorbing nodes, in canonical order.
// Source nodes are transient in this sense.
func (net *Network) Transient() []int {
	rtn := []int{}
	for i, abs := range net.absorbs {
		if !abs {
			rtn = append(rtn, i)
		}
	}
	return rtn
}

// labelsOf maps a list of indices to their labels
func (net *Network) labelsOf(indices []int) []string {
	rtn := make([]string, len(indices))
	for k, i := range indices {
		rtn[k] = net.labels[i]
	}
	return rtn
}
