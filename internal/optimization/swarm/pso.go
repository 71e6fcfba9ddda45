// Package swarm implements swarm-intelligence strategies for the
// optimization pipeline.
package swarm

import (
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

// Default hyperparameter values for PSO.
const (
	DefaultInertia   = 0.7
	DefaultCognitive = 1.7
	DefaultSocial    = 1.7
)

// PSOConfig holds the PSO hyperparameters.
type PSOConfig struct {
	// W is the inertia weight applied to the previous velocity.
	W float64

	// C1 is the cognitive coefficient pulling a particle toward its own
	// best-known position.
	C1 float64

	// C2 is the social coefficient pulling a particle toward the global
	// best-known position.
	C2 float64
}

// DefaultPSOConfig returns the standard PSO coefficients.
func DefaultPSOConfig() PSOConfig {
	return PSOConfig{
		W:  DefaultInertia,
		C1: DefaultCognitive,
		C2: DefaultSocial,
	}
}

func (c PSOConfig) validate() error {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"w", c.W},
		{"c1", c.C1},
		{"c2", c.C2},
	} {
		if math.IsNaN(p.value) {
			return optimization.NewTypeError(p.name, "should be a number")
		}
		if p.value < 0 {
			return optimization.NewValueError(p.name, "should be non-negative, got %v", p.value)
		}
	}
	return nil
}

// PSO is the Particle Swarm Optimization strategy. Each agent carries a
// velocity and a memory of its own best position; velocities blend inertia
// with cognitive and social pulls. PSO supplies its own evaluation protocol
// to maintain the per-agent local bests.
//
// Reference: J. Kennedy and R. Eberhart. Particle swarm optimization.
// Proceedings of ICNN (1995).
type PSO struct {
	cfg PSOConfig
	rng *rand.Rand

	// Per-agent auxiliary arrays, built by Compile.
	velocity [][][]float64
	localPos [][][]float64
	localFit []float64
}

// NewPSO creates a PSO strategy drawing all randomness from src.
func NewPSO(cfg PSOConfig, src rand.Source) (*PSO, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, optimization.NewTypeError("src", "random source should not be nil")
	}
	return &PSO{
		cfg: cfg,
		rng: rand.New(src),
	}, nil
}

// Name implements optimization.Strategy.
func (p *PSO) Name() string { return "PSO" }

// Compile initializes zero velocities and seeds every particle's local best
// with its current position at +Inf fitness.
func (p *PSO) Compile(space *optimization.Space) error {
	p.velocity = make([][][]float64, space.NAgents)
	p.localPos = make([][][]float64, space.NAgents)
	p.localFit = make([]float64, space.NAgents)
	for i, agent := range space.Agents {
		p.velocity[i] = zeros(space.NVariables, space.NDimensions)
		p.localPos[i] = copyPosition(agent.Position)
		p.localFit[i] = math.Inf(1)
	}
	return nil
}

// Evaluate implements optimization.Evaluator: it refreshes every particle's
// fitness and local best, then promotes improved local bests into the
// space's best-agent record via deep copies.
func (p *PSO) Evaluate(space *optimization.Space, fn *optimization.Function) error {
	if p.localFit == nil {
		return optimization.NewValueError("local_position", "PSO was not compiled against a space")
	}

	for i, agent := range space.Agents {
		fit, err := fn.Eval(agent.Position)
		if err != nil {
			return optimization.WrapError(err, "evaluating particle %d", i)
		}
		agent.Fit = fit

		if fit < p.localFit[i] {
			p.localFit[i] = fit
			p.localPos[i] = copyPosition(agent.Position)
		}

		if p.localFit[i] < space.Best.Fit {
			best := agent.Copy()
			best.Position = copyPosition(p.localPos[i])
			best.Fit = p.localFit[i]
			best.Timestamp = time.Now()
			space.Best = best
		}
	}
	return nil
}

// Update applies the canonical velocity and position rules to every
// particle in place.
func (p *PSO) Update(space *optimization.Space, _ *optimization.Function) error {
	if p.velocity == nil {
		return optimization.NewValueError("velocity", "PSO was not compiled against a space")
	}

	for i, agent := range space.Agents {
		for j, row := range agent.Position {
			for k := range row {
				r1 := p.rng.Float64()
				r2 := p.rng.Float64()
				p.velocity[i][j][k] = p.cfg.W*p.velocity[i][j][k] +
					p.cfg.C1*r1*(p.localPos[i][j][k]-row[k]) +
					p.cfg.C2*r2*(space.Best.Position[j][k]-row[k])
				row[k] += p.velocity[i][j][k]
			}
		}
	}
	return nil
}

func zeros(nVariables, nDimensions int) [][]float64 {
	out := make([][]float64, nVariables)
	for j := range out {
		out[j] = make([]float64, nDimensions)
	}
	return out
}

func copyPosition(position [][]float64) [][]float64 {
	out := make([][]float64, len(position))
	for j, row := range position {
		out[j] = append([]float64(nil), row...)
	}
	return out
}
