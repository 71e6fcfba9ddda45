package swarm

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

// Default hyperparameter values for FA.
const (
	DefaultAlpha = 0.5
	DefaultBeta  = 0.2
	DefaultGamma = 1.0
)

// FAConfig holds the Firefly Algorithm hyperparameters.
type FAConfig struct {
	// Alpha scales the random jitter added to every move.
	Alpha float64

	// Beta is the attractiveness at zero distance.
	Beta float64

	// Gamma is the light-absorption coefficient; larger values make
	// attractiveness fall off faster with distance.
	Gamma float64
}

// DefaultFAConfig returns the standard FA coefficients.
func DefaultFAConfig() FAConfig {
	return FAConfig{
		Alpha: DefaultAlpha,
		Beta:  DefaultBeta,
		Gamma: DefaultGamma,
	}
}

func (c FAConfig) validate() error {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"alpha", c.Alpha},
		{"beta", c.Beta},
		{"gamma", c.Gamma},
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

// FA is the Firefly Algorithm strategy: every agent moves toward each
// brighter (lower-fitness) agent with an attractiveness that decays
// exponentially with squared distance, plus a small random walk.
//
// Reference: X.-S. Yang. Nature-Inspired Metaheuristic Algorithms.
// Luniver Press (2008).
type FA struct {
	cfg FAConfig
	rng *rand.Rand
}

// NewFA creates an FA strategy drawing all randomness from src.
func NewFA(cfg FAConfig, src rand.Source) (*FA, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, optimization.NewTypeError("src", "random source should not be nil")
	}
	return &FA{cfg: cfg, rng: rand.New(src)}, nil
}

// Name implements optimization.Strategy.
func (f *FA) Name() string { return "FA" }

// Compile implements optimization.Strategy. FA keeps no auxiliary state.
func (f *FA) Compile(*optimization.Space) error { return nil }

// Update moves every agent toward the brighter members of the previous
// generation. Moves are computed against a frozen snapshot so the order of
// iteration does not feed partial updates back into the same pass.
func (f *FA) Update(space *optimization.Space, _ *optimization.Function) error {
	snapshot := make([]*optimization.Agent, len(space.Agents))
	for i, agent := range space.Agents {
		snapshot[i] = agent.Copy()
	}

	for _, agent := range space.Agents {
		for _, other := range snapshot {
			if other.Fit >= agent.Fit {
				continue
			}
			attract := f.cfg.Beta * math.Exp(-f.cfg.Gamma*squaredDistance(agent.Position, other.Position))
			for j, row := range agent.Position {
				for k := range row {
					row[k] += attract*(other.Position[j][k]-row[k]) +
						f.cfg.Alpha*(f.rng.Float64()-0.5)
				}
			}
		}
	}
	return nil
}

// squaredDistance is the squared euclidean distance between two positions.
func squaredDistance(a, b [][]float64) float64 {
	var sum float64
	for j, row := range a {
		for k := range row {
			d := row[k] - b[j][k]
			sum += d * d
		}
	}
	return sum
}
