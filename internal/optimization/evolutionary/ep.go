// Package evolutionary implements evolutionary-programming strategies for
// the optimization pipeline.
package evolutionary

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

// Default hyperparameter values for EP.
const (
	DefaultBoutSize  = 0.1
	DefaultClipRatio = 0.05
)

// Config holds the EP hyperparameters. Fields are statically declared and
// validated at construction time.
type Config struct {
	// BoutSize is the fraction of the population size used as the
	// tournament sample count, in [0, 1].
	BoutSize float64

	// ClipRatio dampens strategy-parameter growth after each walk, in
	// [0, 1].
	ClipRatio float64
}

// DefaultConfig returns the standard EP hyperparameters.
func DefaultConfig() Config {
	return Config{
		BoutSize:  DefaultBoutSize,
		ClipRatio: DefaultClipRatio,
	}
}

func (c Config) validate() error {
	if math.IsNaN(c.BoutSize) {
		return optimization.NewTypeError("bout_size", "should be a number")
	}
	if c.BoutSize < 0 || c.BoutSize > 1 {
		return optimization.NewValueError("bout_size", "should be between 0 and 1, got %v", c.BoutSize)
	}
	if math.IsNaN(c.ClipRatio) {
		return optimization.NewTypeError("clip_ratio", "should be a number")
	}
	if c.ClipRatio < 0 || c.ClipRatio > 1 {
		return optimization.NewValueError("clip_ratio", "should be between 0 and 1, got %v", c.ClipRatio)
	}
	return nil
}

// EP is the Evolutionary Programming strategy: each parent is mutated by a
// per-agent strategy array into one child, and tournament selection over the
// joined pool by pairwise win counts picks the next generation.
//
// Reference: A. E. Eiben and J. E. Smith. Introduction to Evolutionary
// Computing. Natural Computing Series (2013).
type EP struct {
	cfg    Config
	rng    *rand.Rand
	normal distuv.Normal

	// strategy holds one mutation step size per agent, variable and
	// dimension. Built by Compile.
	strategy [][][]float64
}

// New creates an EP strategy drawing all randomness from src, so a fixed
// seed makes runs reproducible.
func New(cfg Config, src rand.Source) (*EP, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, optimization.NewTypeError("src", "random source should not be nil")
	}
	rng := rand.New(src)
	return &EP{
		cfg:    cfg,
		rng:    rng,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: rng},
	}, nil
}

// Name implements optimization.Strategy.
func (ep *EP) Name() string { return "EP" }

// Compile initializes the per-agent strategy array to 0.05 x U(0, ub-lb)
// per variable and dimension.
func (ep *EP) Compile(space *optimization.Space) error {
	ep.strategy = make([][][]float64, space.NAgents)
	for i := range ep.strategy {
		ep.strategy[i] = make([][]float64, space.NVariables)
		for j := range ep.strategy[i] {
			span := space.UB[j] - space.LB[j]
			row := make([]float64, space.NDimensions)
			for k := range row {
				row[k] = 0.05 * ep.rng.Float64() * span
			}
			ep.strategy[i][j] = row
		}
	}
	return nil
}

// Update mutates every parent into a child, walks the strategy array, joins
// parents and children into one pool and keeps the NAgents pool members with
// the most tournament wins.
func (ep *EP) Update(space *optimization.Space, fn *optimization.Function) error {
	if ep.strategy == nil {
		return optimization.NewValueError("strategy", "EP was not compiled against a space")
	}

	children := make([]*optimization.Agent, 0, space.NAgents)
	for i, agent := range space.Agents {
		child, err := ep.mutateParent(agent, fn, ep.strategy[i])
		if err != nil {
			return err
		}
		ep.updateStrategy(ep.strategy[i], agent.LB, agent.UB)
		children = append(children, child)
	}

	// The pool transiently doubles the population; selection restores
	// the size invariant below.
	joined := make([]*optimization.Agent, 0, 2*space.NAgents)
	joined = append(joined, space.Agents...)
	joined = append(joined, children...)

	nIndividuals := int(float64(space.NAgents) * ep.cfg.BoutSize)
	wins := make([]int, len(joined))
	for i, agent := range joined {
		for b := 0; b < nIndividuals; b++ {
			opponent := joined[ep.rng.Intn(len(joined))]
			if agent.Fit < opponent.Fit {
				wins[i]++
			}
		}
	}

	// Stable sort keeps pool order deterministic for equal win counts.
	order := make([]int, len(joined))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return wins[order[a]] > wins[order[b]]
	})

	next := make([]*optimization.Agent, space.NAgents)
	for i := range next {
		next[i] = joined[order[i]]
	}
	space.Agents = next
	return nil
}

// mutateParent produces a child by one gaussian draw broadcast across the
// whole position, scaled elementwise by the parent's strategy array, clipped
// to bounds and evaluated immediately (eq. 5.1).
func (ep *EP) mutateParent(agent *optimization.Agent, fn *optimization.Function, strategy [][]float64) (*optimization.Agent, error) {
	child := agent.Copy()
	r1 := ep.normal.Rand()
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
// sqrt(|s|), clips it to the variable bounds and damps it by the clip ratio
// (eq. 5.2).
func (ep *EP) updateStrategy(strategy [][]float64, lb, ub []float64) {
	for j, row := range strategy {
		for k, s := range row {
			s += ep.normal.Rand() * math.Sqrt(math.Abs(s))
			if s < lb[j] {
				s = lb[j]
			} else if s > ub[j] {
				s = ub[j]
			}
			row[k] = s * ep.cfg.ClipRatio
		}
	}
}
