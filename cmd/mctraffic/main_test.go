package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iti/mctraffic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "bottleneck: N5")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header, 24 hours, blank line, bottleneck
	assert.Len(t, lines, 27)
}

func TestRunCommandEventsAndTrace(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "trace.json")
	out, err := execute(t, "run", "--events", "--horizon", "6", "--trace", tracePath)
	require.NoError(t, err)
	assert.Contains(t, out, "trace written to")

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"structural": "N6"`)
}

func TestSteadyCommand(t *testing.T) {
	out, err := execute(t, "steady")
	require.NoError(t, err)
	assert.Contains(t, out, "structural bottleneck: N6")
}

func TestSteadyCommandNoEscape(t *testing.T) {
	nd := mctraffic.CreateNetworkDesc("loop")
	nd.Nodes = []string{"A", "B", "C"}
	nd.Sources = []string{"A"}
	nd.AddRule("A", "B", 1)
	nd.AddRule("B", "C", 1)
	nd.AddRule("C", "B", 1)
	nd.Schedule.Normal = []float64{10}
	path := filepath.Join(t.TempDir(), "loop.yaml")
	require.NoError(t, nd.WriteToFile(path))

	out, err := execute(t, "steady", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no structural bottleneck")
}

func TestStepCommand(t *testing.T) {
	out, err := execute(t, "step", "--volumes", "100,0,0", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "hour  0")
	assert.Contains(t, out, "hour  1")
	assert.Contains(t, out, "bottleneck so far: N5")
	assert.Contains(t, out, "busiest N5")

	out, err = execute(t, "step", "--rush")
	require.NoError(t, err)
	assert.Contains(t, out, "hour  8")
	assert.Contains(t, out, "4000.0")

	_, err = execute(t, "step", "--volumes", "1,2")
	assert.Error(t, err)

	_, err = execute(t, "step", "--volumes", "1,x,2")
	assert.Error(t, err)
}

func TestMatrixAndWalkCommands(t *testing.T) {
	out, err := execute(t, "matrix")
	require.NoError(t, err)
	assert.Contains(t, out, " 0.70")

	out, err = execute(t, "mc", "--walks", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "analytic")
	assert.Contains(t, out, "N13")
}

func TestBadConfigFile(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseVolumes(t *testing.T) {
	v, err := parseVolumes(" 1, 2.5 ,3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 3}, v)

	v, err = parseVolumes("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = parseVolumes("-4")
	assert.Error(t, err)
}
