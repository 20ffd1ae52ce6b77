package mctraffic

// desc.go holds the serializable description of a road network and its
// inflow schedule.  Like the other 'Desc' structures these hold no pointers,
// so they round-trip through json or yaml directly; BuildFromDesc turns one
// into the run-time Network and InflowGenerator.

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// RuleDesc is the serializable form of a Rule
type RuleDesc struct {
	From string  `json:"from" yaml:"from"`
	To   string  `json:"to" yaml:"to"`
	Prob float64 `json:"prob" yaml:"prob"`
}

// BandDesc bounds the total inflow of an hour
type BandDesc struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// PeakDesc gives the volume tuple injected at a peak hour
type PeakDesc struct {
	Hour    int       `json:"hour" yaml:"hour"`
	Volumes []float64 `json:"volumes" yaml:"volumes"`
}

// ScheduleDesc is the serializable hourly inflow schedule.  Presets reuse
// PeakDesc to give the interactive starting volumes of an hour.
type ScheduleDesc struct {
	Peak       []PeakDesc `json:"peak" yaml:"peak"`
	Normal     []float64  `json:"normal" yaml:"normal"`
	NormalBand BandDesc   `json:"normalband" yaml:"normalband"`
	PeakBand   BandDesc   `json:"peakband" yaml:"peakband"`
	Presets    []PeakDesc `json:"presets,omitempty" yaml:"presets,omitempty"`
}

// NetworkDesc describes a road network, its sources, and its inflow schedule
type NetworkDesc struct {
	Name     string       `json:"name" yaml:"name"`
	Nodes    []string     `json:"nodes" yaml:"nodes"`
	Sources  []string     `json:"sources" yaml:"sources"`
	Rules    []RuleDesc   `json:"rules" yaml:"rules"`
	Schedule ScheduleDesc `json:"schedule" yaml:"schedule"`
}

// CreateNetworkDesc is an initialization constructor
func CreateNetworkDesc(name string) *NetworkDesc {
	nd := new(NetworkDesc)
	nd.Name = name
	nd.Nodes = make([]string, 0)
	nd.Sources = make([]string, 0)
	nd.Rules = make([]RuleDesc, 0)
	nd.Schedule.Peak = make([]PeakDesc, 0)
	nd.Schedule.Normal = make([]float64, 0)
	return nd
}

// AddRule appends a transition rule
func (nd *NetworkDesc) AddRule(from, to string, prob float64) {
	nd.Rules = append(nd.Rules, RuleDesc{From: from, To: to, Prob: prob})
}

// AddAbsorbing declares each named node absorbing, through a self-loop of probability 1
func (nd *NetworkDesc) AddAbsorbing(labels ...string) {
	for _, label := range labels {
		nd.AddRule(label, label, 1.0)
	}
}

// AddPeak sets the volumes injected at a peak hour
func (nd *NetworkDesc) AddPeak(hour int, volumes ...float64) {
	nd.Schedule.Peak = append(nd.Schedule.Peak, PeakDesc{Hour: hour, Volumes: volumes})
}

// AddPreset sets the interactive starting volumes for an hour
func (nd *NetworkDesc) AddPreset(hour int, volumes ...float64) {
	nd.Schedule.Presets = append(nd.Schedule.Presets, PeakDesc{Hour: hour, Volumes: volumes})
}

// DefaultNetworkDesc returns the 13-node reference network
func DefaultNetworkDesc() *NetworkDesc {
	nd := CreateNetworkDesc("reference")
	nd.Nodes = []string{"N1", "N2", "N3", "N4", "N5", "N6", "N7", "N8", "N9", "N10", "N11", "N12", "N13"}
	nd.Sources = []string{"N1", "N2", "N11"}

	// exits from the modelled region
	nd.AddAbsorbing("N3", "N9", "N10", "N12")

	// approaches
	nd.AddRule("N1", "N5", 1.0)
	nd.AddRule("N2", "N6", 1.0)
	nd.AddRule("N4", "N8", 1.0)
	nd.AddRule("N11", "N13", 1.0)

	// splits inside the junctions
	nd.AddRule("N5", "N6", 0.7)
	nd.AddRule("N5", "N9", 0.3)
	nd.AddRule("N6", "N3", 0.2)
	nd.AddRule("N6", "N7", 0.4)
	nd.AddRule("N6", "N10", 0.4)
	nd.AddRule("N7", "N5", 0.3)
	nd.AddRule("N7", "N8", 0.7)
	nd.AddRule("N8", "N5", 0.5)
	nd.AddRule("N8", "N10", 0.5)
	nd.AddRule("N13", "N5", 0.5)
	nd.AddRule("N13", "N12", 0.5)

	// rush hours at 08:00 and 17:00
	nd.AddPeak(8, 4200, 3800, 5000)
	nd.AddPeak(17, 4800, 4200, 4600)
	nd.Schedule.Normal = []float64{550, 450, 600}
	nd.Schedule.NormalBand = BandDesc{Min: 0, Max: 2000}
	nd.Schedule.PeakBand = BandDesc{Min: 2000, Max: 5000}

	// interactive starting points, inside the peak band
	nd.AddPreset(8, 1400, 1300, 1300)
	nd.AddPreset(17, 1500, 1400, 1100)

	return nd
}

// RuleTable converts the rule descriptions to Rules
func (nd *NetworkDesc) RuleTable() []Rule {
	rules := make([]Rule, len(nd.Rules))
	for k, rd := range nd.Rules {
		rules[k] = Rule{From: rd.From, To: rd.To, Prob: rd.Prob}
	}
	return rules
}

// InflowSchedule converts the schedule description to a Schedule
func (nd *NetworkDesc) InflowSchedule() (Schedule, error) {
	sched := Schedule{
		Sources:    nd.Sources,
		Peak:       make(map[int][]float64, len(nd.Schedule.Peak)),
		Normal:     nd.Schedule.Normal,
		NormalBand: VolumeBand(nd.Schedule.NormalBand),
		PeakBand:   VolumeBand(nd.Schedule.PeakBand),
		Presets:    make(map[int][]float64, len(nd.Schedule.Presets)),
	}
	for _, pd := range nd.Schedule.Peak {
		if _, present := sched.Peak[pd.Hour]; present {
			return Schedule{}, fmt.Errorf("inflow schedule: peak hour %d given twice", pd.Hour)
		}
		sched.Peak[pd.Hour] = pd.Volumes
	}
	for _, pd := range nd.Schedule.Presets {
		if _, present := sched.Presets[pd.Hour]; present {
			return Schedule{}, fmt.Errorf("inflow schedule: preset for hour %d given twice", pd.Hour)
		}
		sched.Presets[pd.Hour] = pd.Volumes
	}
	return sched, nil
}

// WriteToFile stores the NetworkDesc struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (nd *NetworkDesc) WriteToFile(filename string) error {
	bytes, merr := marshalByExt(filename, *nd)
	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// ReadNetworkDesc deserializes a byte slice holding a representation of a NetworkDesc struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadNetworkDesc(filename string, useYAML bool, dict []byte) (*NetworkDesc, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := NetworkDesc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, fmt.Errorf("reading network description %s: %w", filename, err)
	}
	return &example, nil
}

// IsYAMLFile reports whether the extension of filename selects yaml serialization
func IsYAMLFile(filename string) bool {
	pathExt := path.Ext(filename)
	return pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml"
}

// marshalByExt serializes v as yaml or json, according to the extension of filename
func marshalByExt(filename string, v any) ([]byte, error) {
	pathExt := path.Ext(filename)
	if IsYAMLFile(filename) {
		return yaml.Marshal(v)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		return json.MarshalIndent(v, "", "\t")
	}
	return nil, fmt.Errorf("cannot select serialization for %q, want .yaml, .yml or .json", filename)
}
