package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/iti/mctraffic"
)

func runBatch(out io.Writer, md *mctraffic.Model, horizon int, events bool, tracePath string) error {
	var history mctraffic.History
	if events {
		history = md.Sim.RunEvents(horizon, md.Gen)
	} else {
		history = md.Sim.Run(horizon, md.Gen)
	}

	printHistory(out, md.Net, history)

	bn, found := mctraffic.FindBottleneck(md.Net, history)
	if found {
		fmt.Fprintf(out, "\nbottleneck: %s peak %.1f at hour %d\n", bn.Node, bn.Peak, bn.Step)
	} else {
		fmt.Fprintln(out, "\nbottleneck: none")
	}

	if tracePath != "" {
		rt := mctraffic.CreateRunTrace(md.Name, md.Net, true)
		rt.AddHistory(history, md.Gen)
		rt.Conclude(bn, found, mctraffic.AnalyzeSteadyState(md.Net))
		if _, err := rt.WriteToFile(tracePath); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		fmt.Fprintf(out, "trace written to %s\n", tracePath)
	}
	return nil
}

func runSteps(out io.Writer, md *mctraffic.Model, volumes []float64, count int, rush bool) error {
	ses := md.NewSession()
	if rush {
		volumes = ses.LoadRushHour()
	}
	if volumes != nil && len(volumes) != len(md.Gen.Sources()) {
		return fmt.Errorf("got %d volumes, network has %d sources", len(volumes), len(md.Gen.Sources()))
	}

	for k := 0; k < count; k++ {
		hour := ses.Hour()
		if volumes == nil {
			ses.StepScheduled()
		} else {
			ses.StepCustom(volumes...)
		}
		sm := ses.Summary()
		fmt.Fprintf(out, "hour %2d  total %10.1f  in network %10.1f  exited %10.1f  busiest %s\n",
			hour, sm.Total, sm.InNetwork, sm.Exited, sm.Bottleneck)
	}

	if bn, found := ses.Bottleneck(); found {
		fmt.Fprintf(out, "bottleneck so far: %s peak %.1f\n", bn.Node, bn.Peak)
	}
	return nil
}

func runWalks(out io.Writer, md *mctraffic.Model, walks int) error {
	ss := mctraffic.AnalyzeSteadyState(md.Net)
	est := mctraffic.EstimateVisits(md.Net, walks, mctraffic.CreateWalkRng("walks"))
	if est == nil {
		return fmt.Errorf("no transient nodes to walk from")
	}
	transient := md.Net.Transient()

	fmt.Fprintf(out, "%-6s %12s %12s\n", "node", "estimated", "analytic")
	m, _ := est.Dims()
	for b := 0; b < m; b++ {
		colSum := 0.0
		for a := 0; a < m; a++ {
			colSum += est.At(a, b)
		}
		analytic := "-"
		if ss.Found() {
			analytic = fmt.Sprintf("%12.4f", ss.Visits[b])
		}
		fmt.Fprintf(out, "%-6s %12.4f %12s\n", md.Net.Label(transient[b]), colSum, analytic)
	}
	return nil
}

func printHistory(out io.Writer, net *mctraffic.Network, history mctraffic.History) {
	labels := net.Labels()
	fmt.Fprintf(out, "%4s", "hour")
	for _, label := range labels {
		fmt.Fprintf(out, " %9s", label)
	}
	fmt.Fprintln(out)
	for t, x := range history {
		fmt.Fprintf(out, "%4d", t)
		for _, val := range x {
			fmt.Fprintf(out, " %9.1f", val)
		}
		fmt.Fprintln(out)
	}
}

func printSteadyState(out io.Writer, net *mctraffic.Network, ss mctraffic.SteadyState) {
	if !ss.Found() {
		fmt.Fprintf(out, "no structural bottleneck: %s\n", ss.Cause.Error())
		return
	}
	fmt.Fprintf(out, "structural bottleneck: %s (expected visits %.4f)\n\n", ss.Node, ss.Visits[position(ss.TransientIdx, ss.Index)])

	labels := make([]string, len(ss.TransientIdx))
	for k, i := range ss.TransientIdx {
		labels[k] = net.Label(i)
	}
	fmt.Fprintf(out, "%-6s %s\n", "N", strings.Join(padAll(labels, 8), " "))
	for a, label := range labels {
		fmt.Fprintf(out, "%-6s", label)
		for b := range labels {
			fmt.Fprintf(out, " %8.4f", ss.Fundamental.At(a, b))
		}
		fmt.Fprintln(out)
	}
}

func printMatrix(out io.Writer, net *mctraffic.Network) {
	labels := net.Labels()
	fmt.Fprintf(out, "%-6s %s\n", "P", strings.Join(padAll(labels, 5), " "))
	for i, label := range labels {
		fmt.Fprintf(out, "%-6s", label)
		for j := range labels {
			fmt.Fprintf(out, " %5.2f", net.Prob(i, j))
		}
		fmt.Fprintln(out)
	}
}

func position(indices []int, want int) int {
	for k, i := range indices {
		if i == want {
			return k
		}
	}
	return -1
}

func padAll(labels []string, width int) []string {
	rtn := make([]string, len(labels))
	for k, label := range labels {
		rtn[k] = fmt.Sprintf("%*s", width, label)
	}
	return rtn
}
