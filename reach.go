package mctraffic

// reach.go converts the transition matrix into a gonum directed graph so that
// the graph package's traversal can tell which transient nodes ever drain.
//   An edge i->j is present when P[i,j] > 0 and i != j; self-loops carry no
// information about escape and the simple graph does not admit them anyway.
// A transient node is 'trapped' when a breadth-first walk from it never
// meets an absorbing node.  Such a node makes I-Q singular.

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// flowGraph returns the support graph of the transition matrix
func (net *Network) flowGraph() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	n := net.Len()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || net.p.At(i, j) == 0.0 {
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
		}
	}
	return g
}

// Trapped lists, in canonical order, the transient nodes from which
// no absorbing node is reachable
func (net *Network) Trapped() []int {
	g := net.flowGraph()
	trapped := []int{}

	for _, i := range net.Transient() {
		// a fresh walker per start, BreadthFirst remembers what it has visited
		var bf traverse.BreadthFirst
		found := bf.Walk(g, simple.Node(i), func(n graph.Node, _ int) bool {
			return net.absorbs[n.ID()]
		})
		if found == nil {
			trapped = append(trapped, i)
		}
	}
	return trapped
}

// Reaches reports whether traffic at node from can ever arrive at node to
func (net *Network) Reaches(from, to int) bool {
	if from == to {
		return true
	}
	g := net.flowGraph()
	var bf traverse.BreadthFirst
	found := bf.Walk(g, simple.Node(from), func(n graph.Node, _ int) bool {
		return n.ID() == int64(to)
	})
	return found != nil
}
