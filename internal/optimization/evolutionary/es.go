package evolutionary

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

// DefaultChildRatio is the standard fraction of the population mutated into
// children each generation.
const DefaultChildRatio = 0.5

// ESConfig holds the Evolution Strategy hyperparameters.
type ESConfig struct {
	// ChildRatio is the fraction of the population size used as the
	// child count, in [0, 1].
	ChildRatio float64
}

// DefaultESConfig returns the standard ES hyperparameters.
func DefaultESConfig() ESConfig {
	return ESConfig{ChildRatio: DefaultChildRatio}
}

func (c ESConfig) validate() error {
	if math.IsNaN(c.ChildRatio) {
		return optimization.NewTypeError("child_ratio", "should be a number")
	}
	if c.ChildRatio < 0 || c.ChildRatio > 1 {
		return optimization.NewValueError("child_ratio", "should be between 0 and 1, got %v", c.ChildRatio)
	}
	return nil
}

// ES is the (mu+lambda) Evolution Strategy: a fixed fraction of the
// population is mutated into children through per-agent strategy arrays,
// and the next generation is the fittest members of the joined pool. It
// differs from EP in its selection: plain fitness ranking instead of
// tournament win counts.
//
// Not to be confused with Electro-Search, a physics-inspired algorithm that
// shares the ES abbreviation in some metaheuristic taxonomies; this type
// implements the evolutionary-family algorithm.
//
// Reference: A. E. Eiben and J. E. Smith. Introduction to Evolutionary
// Computing. Natural Computing Series (2013).
type ES struct {
	cfg    ESConfig
	rng    *rand.Rand
	normal distuv.Normal

	nChildren int
	strategy  [][][]float64
}

// NewES creates an ES strategy drawing all randomness from src.
func NewES(cfg ESConfig, src rand.Source) (*ES, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, optimization.NewTypeError("src", "random source should not be nil")
	}
	rng := rand.New(src)
	return &ES{
		cfg:    cfg,
		rng:    rng,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: rng},
	}, nil
}

// Name implements optimization.Strategy.
func (es *ES) Name() string { return "ES" }

// Compile fixes the child count and initializes one strategy array per
// prospective child to 0.05 x U(0, ub-lb) per variable and dimension.
func (es *ES) Compile(space *optimization.Space) error {
	es.nChildren = int(float64(space.NAgents) * es.cfg.ChildRatio)
	es.strategy = make([][][]float64, es.nChildren)
	for i := range es.strategy {
		es.strategy[i] = make([][]float64, space.NVariables)
		for j := range es.strategy[i] {
			span := space.UB[j] - space.LB[j]
			row := make([]float64, space.NDimensions)
			for k := range row {
				row[k] = 0.05 * es.rng.Float64() * span
			}
			es.strategy[i][j] = row
		}
	}
	return nil
}

// Update mutates the first nChildren parents into children, walks their
// strategy arrays, joins children with the full parent population and keeps
// the NAgents fittest pool members.
func (es *ES) Update(space *optimization.Space, fn *optimization.Function) error {
	if es.strategy == nil {
		return optimization.NewValueError("strategy", "ES was not compiled against a space")
	}

	children := make([]*optimization.Agent, 0, es.nChildren)
	for i := 0; i < es.nChildren; i++ {
		parent := space.Agents[i]
		child, err := es.mutateParent(parent, fn, es.strategy[i])
		if err != nil {
			return err
		}
		es.updateStrategy(es.strategy[i])
		children = append(children, child)
	}

	joined := make([]*optimization.Agent, 0, space.NAgents+es.nChildren)
	joined = append(joined, children...)
	joined = append(joined, space.Agents...)

	sort.SliceStable(joined, func(a, b int) bool {
		return joined[a].Fit < joined[b].Fit
	})

	space.Agents = joined[:space.NAgents]
	return nil
}

// mutateParent produces a child by one gaussian draw broadcast across the
// whole position, scaled elementwise by the parent's strategy array, clipped
// to bounds and evaluated immediately.
func (es *ES) mutateParent(agent *optimization.Agent, fn *optimization.Function, strategy [][]float64) (*optimization.Agent, error) {
	child := agent.Copy()
	r1 := es.normal.Rand()
	for j, row := range child.Position {
		for k := range row {
			row[k] += strategy[j][k] * r1
		}
	}
	child.Clip()

	fit, err := fn.Eval(child.Position)
	if err != nil {
		return nil, optimization.WrapError(err, "evaluating mutated child")
	}
	child.Fit = fit
	return child, nil
}

// updateStrategy walks the strategy by a gaussian step proportional to
// sqrt(|s|).
func (es *ES) updateStrategy(strategy [][]float64) {
	for _, row := range strategy {
		for k, s := range row {
			row[k] = s + es.normal.Rand()*math.Sqrt(math.Abs(s))
		}
	}
}
