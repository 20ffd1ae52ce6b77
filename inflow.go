package mctraffic

// inflow.go holds the Inflow Generator, which turns an hour (or an explicit
// choice of volumes) into the vector of vehicles injected at the source nodes

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

// HoursPerDay is the period of the inflow schedule
const HoursPerDay = 24

// StateVector holds the vehicle count at each node, indexed canonically
type StateVector []float64

// InflowVector has the shape of a StateVector, non-zero only at sources
type InflowVector []float64

// Total is the number of vehicles across all nodes
func (sv StateVector) Total() float64 {
	return floats.Sum(sv)
}

// Total is the number of vehicles injected
func (iv InflowVector) Total() float64 {
	return floats.Sum(iv)
}

// VolumeBand bounds the total inflow of an hour.  It is advisory only,
// a zero-valued band (Max == 0) places no bound.
type VolumeBand struct {
	Min float64
	Max float64
}

// Contains is true when total lies in [Min, Max], or when the band is unset
func (vb VolumeBand) Contains(total float64) bool {
	if vb.Max == 0.0 && vb.Min == 0.0 {
		return true
	}
	return total >= vb.Min && total <= vb.Max
}

// Schedule is the static hour -> volume lookup, expressed by source label.
// Volume tuples list one value per entry of Sources, in that order.
// Presets are the starting volumes offered to an interactive user when the
// clock is set to an hour; they do not affect scheduled runs.
type Schedule struct {
	Sources    []string
	Peak       map[int][]float64
	Normal     []float64
	NormalBand VolumeBand
	PeakBand   VolumeBand
	Presets    map[int][]float64
}

// InflowSource yields the injection for the step at a given hour
type InflowSource interface {
	Inflow(hour int) InflowVector
}

// InflowGenerator produces InflowVectors for one Network
type InflowGenerator struct {
	net     *Network
	sources []int
	sched   Schedule
}

// NewInflowGenerator checks the schedule against the network and returns a generator for it
func NewInflowGenerator(net *Network, sched Schedule) (*InflowGenerator, error) {
	gen := new(InflowGenerator)
	gen.net = net
	gen.sources = make([]int, 0, len(sched.Sources))

	for _, label := range sched.Sources {
		i, present := net.Index(label)
		if !present {
			return nil, fmt.Errorf("inflow schedule: unknown source node %q", label)
		}
		if slices.Contains(gen.sources, i) {
			return nil, fmt.Errorf("inflow schedule: source node %q listed twice", label)
		}
		if net.IsAbsorbing(i) {
			return nil, fmt.Errorf("inflow schedule: source node %q is absorbing", label)
		}
		gen.sources = append(gen.sources, i)
	}

	if err := checkVolumes("normal", sched.Normal, len(gen.sources)); err != nil {
		return nil, err
	}

	// copy the schedule so later changes by the caller are not seen
	gen.sched = sched
	gen.sched.Sources = slices.Clone(sched.Sources)
	gen.sched.Normal = slices.Clone(sched.Normal)
	gen.sched.Peak = make(map[int][]float64, len(sched.Peak))
	for hour, volumes := range sched.Peak {
		if hour < 0 || hour >= HoursPerDay {
			return nil, fmt.Errorf("inflow schedule: peak hour %d outside [0,%d)", hour, HoursPerDay)
		}
		if err := checkVolumes(fmt.Sprintf("peak hour %d", hour), volumes, len(gen.sources)); err != nil {
			return nil, err
		}
		gen.sched.Peak[hour] = slices.Clone(volumes)
	}
	gen.sched.Presets = make(map[int][]float64, len(sched.Presets))
	for hour, volumes := range sched.Presets {
		if hour < 0 || hour >= HoursPerDay {
			return nil, fmt.Errorf("inflow schedule: preset hour %d outside [0,%d)", hour, HoursPerDay)
		}
		if err := checkVolumes(fmt.Sprintf("preset for hour %d", hour), volumes, len(gen.sources)); err != nil {
			return nil, err
		}
		gen.sched.Presets[hour] = slices.Clone(volumes)
	}
	return gen, nil
}

func checkVolumes(what string, volumes []float64, want int) error {
	if len(volumes) != want {
		return fmt.Errorf("inflow schedule: %s has %d volumes, want one per source (%d)", what, len(volumes), want)
	}
	for _, v := range volumes {
		if math.IsNaN(v) || v < 0.0 {
			return fmt.Errorf("inflow schedule: %s has invalid volume %g", what, v)
		}
	}
	return nil
}

// dayHour folds any hour index onto [0, HoursPerDay)
func dayHour(hour int) int {
	return ((hour % HoursPerDay) + HoursPerDay) % HoursPerDay
}

// Network returns the network the generator injects into
func (gen *InflowGenerator) Network() *Network {
	return gen.net
}

// Sources lists the canonical indices of the source nodes, in schedule order
func (gen *InflowGenerator) Sources() []int {
	return slices.Clone(gen.sources)
}

// Role classifies node i; absorbing takes precedence over source
func (gen *InflowGenerator) Role(i int) NodeRole {
	if gen.net.IsAbsorbing(i) {
		return Absorbing
	}
	if slices.Contains(gen.sources, i) {
		return Source
	}
	return Transient
}

// IsPeak reports whether the hour is one of the configured peak hours
func (gen *InflowGenerator) IsPeak(hour int) bool {
	_, present := gen.sched.Peak[dayHour(hour)]
	return present
}

// PeakHours lists the configured peak hours in increasing order
func (gen *InflowGenerator) PeakHours() []int {
	hours := make([]int, 0, len(gen.sched.Peak))
	for hour := range gen.sched.Peak {
		hours = append(hours, hour)
	}
	slices.Sort(hours)
	return hours
}

// Volumes returns the scheduled volume tuple for an hour
func (gen *InflowGenerator) Volumes(hour int) []float64 {
	volumes, present := gen.sched.Peak[dayHour(hour)]
	if !present {
		volumes = gen.sched.Normal
	}
	return slices.Clone(volumes)
}

// Preset returns the interactive starting volumes for an hour.  Without a
// preset for the hour, the normal volumes are offered.
func (gen *InflowGenerator) Preset(hour int) []float64 {
	volumes, present := gen.sched.Presets[dayHour(hour)]
	if !present {
		volumes = gen.sched.Normal
	}
	return slices.Clone(volumes)
}

// Scheduled returns the deterministic injection for an hour of the day.
// Hours beyond one day repeat the daily schedule.
func (gen *InflowGenerator) Scheduled(hour int) InflowVector {
	volumes, present := gen.sched.Peak[dayHour(hour)]
	if !present {
		volumes = gen.sched.Normal
	}
	return gen.place(volumes)
}

// Inflow lets the generator serve as the InflowSource of a run
func (gen *InflowGenerator) Inflow(hour int) InflowVector {
	return gen.Scheduled(hour)
}

// Custom places one caller-chosen value per source, bypassing the schedule.
// Values are taken as given; range checking belongs to the caller.
func (gen *InflowGenerator) Custom(values ...float64) InflowVector {
	if len(values) != len(gen.sources) {
		panic(fmt.Sprintf("custom inflow needs %d values, got %d", len(gen.sources), len(values)))
	}
	return gen.place(values)
}

func (gen *InflowGenerator) place(volumes []float64) InflowVector {
	u := make(InflowVector, gen.net.Len())
	for k, i := range gen.sources {
		u[i] = volumes[k]
	}
	return u
}

// Band returns the advisory volume band that applies at an hour
func (gen *InflowGenerator) Band(hour int) VolumeBand {
	if gen.IsPeak(hour) {
		return gen.sched.PeakBand
	}
	return gen.sched.NormalBand
}

// InBand reports whether the total of an inflow lies within the band for its hour
func (gen *InflowGenerator) InBand(hour int, u InflowVector) bool {
	return gen.Band(hour).Contains(u.Total())
}

// CustomSchedule is an explicit list of per-hour volume tuples.
// Hour t of a run uses entry t; hours past the end inject nothing.
type CustomSchedule struct {
	Gen     *InflowGenerator
	Volumes [][]float64
}

// Inflow gives the injection for one hour of the custom schedule
func (cs CustomSchedule) Inflow(hour int) InflowVector {
	if hour < 0 || hour >= len(cs.Volumes) {
		return make(InflowVector, cs.Gen.net.Len())
	}
	return cs.Gen.Custom(cs.Volumes[hour]...)
}
