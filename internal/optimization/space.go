package optimization

import (
	"golang.org/x/exp/rand"
)

// SpaceConfig contains the construction parameters for a search space. All
// fields are validated eagerly by NewSearchSpace; an invalid space is never
// constructible.
type SpaceConfig struct {
	// NAgents is the population size.
	NAgents int

	// NVariables is the number of decision variables per agent.
	NVariables int

	// NDimensions is the dimensionality of each decision variable.
	NDimensions int

	// LB and UB are the per-variable bounds used to initialize and clip
	// agents. Both must have length NVariables.
	LB []float64
	UB []float64
}

// Space owns a population of agents together with the best-agent record and
// the dimensionality and bounds metadata shared by the population. Agents
// belong exclusively to their space; strategies mutate them in place or
// replace the population wholesale, but never share them across spaces.
type Space struct {
	NAgents     int
	NVariables  int
	NDimensions int

	// Agents is the live population, replaced or mutated each iteration
	// by the strategy in charge.
	Agents []*Agent

	// Best holds the best fitness seen so far across all iterations. It
	// is always an independent deep copy of the improving agent, taken
	// at the moment of improvement, so later population mutation cannot
	// retroactively corrupt the record. Its fitness is monotonically
	// non-worsening across a run.
	Best *Agent

	LB []float64
	UB []float64
}

// NewSearchSpace validates cfg, creates the population and places every
// agent uniformly at random inside the bounds using the supplied generator.
func NewSearchSpace(cfg SpaceConfig, src rand.Source) (*Space, error) {
	if cfg.NAgents < 1 {
		return nil, NewValueError("n_agents", "should be a positive integer, got %d", cfg.NAgents)
	}
	if src == nil {
		return nil, NewTypeError("src", "random source should not be nil")
	}

	rng := rand.New(src)

	agents := make([]*Agent, cfg.NAgents)
	for i := range agents {
		agent, err := NewAgent(cfg.NVariables, cfg.NDimensions, cfg.LB, cfg.UB)
		if err != nil {
			return nil, err
		}
		agent.Randomize(rng)
		agents[i] = agent
	}

	// The best-agent record starts at +Inf fitness so the first
	// evaluation pass always improves it.
	best, err := NewAgent(cfg.NVariables, cfg.NDimensions, cfg.LB, cfg.UB)
	if err != nil {
		return nil, err
	}

	return &Space{
		NAgents:     cfg.NAgents,
		NVariables:  cfg.NVariables,
		NDimensions: cfg.NDimensions,
		Agents:      agents,
		Best:        best,
		LB:          append([]float64(nil), cfg.LB...),
		UB:          append([]float64(nil), cfg.UB...),
	}, nil
}

// ClipByBound clips every agent in the population to the space bounds.
func (s *Space) ClipByBound() {
	for _, agent := range s.Agents {
		agent.Clip()
	}
}
