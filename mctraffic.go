package mctraffic

// mctraffic.go assembles the run-time model from a network description

// Model bundles the structures built from one NetworkDesc.  Independent
// Models share nothing and may be built side by side.
type Model struct {
	Name string
	Net  *Network
	Gen  *InflowGenerator
	Sim  *Simulator
}

// BuildFromDesc checks the description and constructs the Network,
// InflowGenerator and Simulator it describes
func BuildFromDesc(nd *NetworkDesc) (*Model, error) {
	net, err := BuildNetwork(nd.Nodes, nd.RuleTable())
	if err != nil {
		return nil, err
	}

	sched, err := nd.InflowSchedule()
	if err != nil {
		return nil, err
	}
	gen, err := NewInflowGenerator(net, sched)
	if err != nil {
		return nil, err
	}

	if trapped := net.Trapped(); len(trapped) > 0 {
		logger.Warn("transient nodes with no path to absorption", "network", nd.Name, "nodes", net.labelsOf(trapped))
	}
	return &Model{Name: nd.Name, Net: net, Gen: gen, Sim: NewSimulator(net)}, nil
}

// BuildModelFromFile reads a network description from filename, json or yaml
// chosen by its extension, and builds it
func BuildModelFromFile(filename string) (*Model, error) {
	nd, err := ReadNetworkDesc(filename, IsYAMLFile(filename), nil)
	if err != nil {
		return nil, err
	}
	return BuildFromDesc(nd)
}

// Run simulates horizon hours of the scheduled inflow
func (md *Model) Run(horizon int) History {
	return md.Sim.Run(horizon, md.Gen)
}

// NewSession starts an interactive session on the model
func (md *Model) NewSession() *Session {
	return NewSession(md.Sim, md.Gen)
}
