package mctraffic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkDescFiles(t *testing.T) {
	dir := t.TempDir()
	nd := DefaultNetworkDesc()

	for _, name := range []string{"net.yaml", "net.yml", "net.json"} {
		t.Run(name, func(t *testing.T) {
			filename := filepath.Join(dir, name)
			require.NoError(t, nd.WriteToFile(filename))

			md, err := BuildModelFromFile(filename)
			require.NoError(t, err)
			assert.Equal(t, "reference", md.Name)
			assert.Equal(t, defaultModel(t).Run(24), md.Run(24))
			assert.Equal(t, []float64{1500, 1400, 1100}, md.Gen.Preset(17))
		})
	}

	assert.Error(t, nd.WriteToFile(filepath.Join(dir, "net.txt")))
}

func TestReadNetworkDescFromBytes(t *testing.T) {
	dict := []byte(`
name: corridor
nodes: [in, mid, out]
sources: [in]
rules:
  - {from: in, to: mid, prob: 1.0}
  - {from: mid, to: out, prob: 0.75}
  - {from: mid, to: mid, prob: 0.25}
  - {from: out, to: out, prob: 1.0}
schedule:
  peak:
    - {hour: 8, volumes: [300]}
  normal: [100]
`)
	nd, err := ReadNetworkDesc("", true, dict)
	require.NoError(t, err)
	md, err := BuildFromDesc(nd)
	require.NoError(t, err)

	assert.Equal(t, 300.0, md.Gen.Scheduled(8).Total())
	assert.Equal(t, 100.0, md.Gen.Scheduled(9).Total())

	ss := AnalyzeSteadyState(md.Net)
	require.True(t, ss.Found())
	assert.Equal(t, "mid", ss.Node)

	// (1 - 0.25)^-1 expected visits to mid from either start
	assert.InDelta(t, 4.0/3.0, ss.Fundamental.At(1, 1), 1e-12)
}

func TestBuildFromDescErrors(t *testing.T) {
	nd := DefaultNetworkDesc()
	nd.Rules = nd.Rules[:len(nd.Rules)-1]
	_, err := BuildFromDesc(nd)
	var te *TopologyError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "N13", te.Row)

	nd = DefaultNetworkDesc()
	nd.AddPeak(8, 1, 2, 3)
	_, err = BuildFromDesc(nd)
	assert.ErrorContains(t, err, "given twice")

	nd = DefaultNetworkDesc()
	nd.AddPreset(17, 1, 2, 3)
	_, err = BuildFromDesc(nd)
	assert.ErrorContains(t, err, "preset for hour 17 given twice")

	nd = DefaultNetworkDesc()
	nd.Sources = append(nd.Sources, "N4")
	_, err = BuildFromDesc(nd)
	assert.Error(t, err)

	_, err = BuildModelFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadNetworkDesc("bad.json", false, []byte("{not json"))
	assert.Error(t, err)
}

func TestRunTraceFile(t *testing.T) {
	md := defaultModel(t)
	h := md.Run(24)

	idle := CreateRunTrace("idle", md.Net, false)
	idle.AddHistory(h, md.Gen)
	assert.Empty(t, idle.Steps)
	written, err := idle.WriteToFile(filepath.Join(t.TempDir(), "idle.yaml"))
	assert.NoError(t, err)
	assert.False(t, written)

	rt := CreateRunTrace("day", md.Net, true)
	require.True(t, rt.Active())
	rt.AddHistory(h, md.Gen)
	bn, found := FindBottleneck(md.Net, h)
	rt.Conclude(bn, found, AnalyzeSteadyState(md.Net))
	require.Len(t, rt.Steps, 24)
	assert.Equal(t, 8, rt.Steps[8].Hour)
	assert.Equal(t, 13000.0, floatsTotal(rt.Steps[8].Inflow))
	assert.Equal(t, "N5", rt.Bottleneck)
	assert.Equal(t, "N6", rt.Structural)

	for _, name := range []string{"day.yaml", "day.json"} {
		filename := filepath.Join(t.TempDir(), name)
		written, err := rt.WriteToFile(filename)
		require.NoError(t, err)
		assert.True(t, written)
		info, err := os.Stat(filename)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func floatsTotal(v []float64) float64 {
	return InflowVector(v).Total()
}
