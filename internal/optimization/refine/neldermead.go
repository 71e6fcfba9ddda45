// Package refine provides pre-evaluate hooks that locally polish promising
// agents before their fitness is recomputed.
package refine

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

// NelderMead returns a pre-evaluate hook that refines the current
// best-by-fitness agent in the population with a derivative-free
// Nelder-Mead descent, clamped to the space bounds. The hook rewrites the
// agent's position only when the descent found a strictly better point; the
// following evaluation pass then folds the improvement into the best-agent
// record through the normal protocol.
//
// maxEvals bounds the objective evaluations spent per invocation.
func NelderMead(maxEvals int) (optimization.Hook, error) {
	if maxEvals < 1 {
		return nil, optimization.NewValueError("max_evals", "should be a positive integer, got %d", maxEvals)
	}

	return func(space *optimization.Space, fn *optimization.Function) error {
		leader := fittest(space)
		if leader == nil {
			// First pass: no fitness computed yet, nothing to refine.
			return nil
		}

		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				clampFlat(x, space)
				v, err := fn.Eval(unflatten(x, space.NVariables, space.NDimensions))
				if err != nil {
					return math.Inf(1)
				}
				return v
			},
		}

		settings := &optimize.Settings{
			FuncEvaluations: maxEvals,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-8,
				Relative:   1e-8,
				Iterations: 20,
			},
		}

		result, err := optimize.Minimize(problem, flatten(leader.Position), settings, &optimize.NelderMead{})
		if err == nil && result != nil && result.F < leader.Fit {
			clampFlat(result.X, space)
			leader.Position = unflatten(result.X, space.NVariables, space.NDimensions)
		}
		return nil
	}, nil
}

// fittest returns the population member with the lowest recorded fitness, or
// nil when no agent has been evaluated yet.
func fittest(space *optimization.Space) *optimization.Agent {
	var leader *optimization.Agent
	best := math.Inf(1)
	for _, agent := range space.Agents {
		if agent.Fit < best {
			best = agent.Fit
			leader = agent
		}
	}
	return leader
}

func flatten(position [][]float64) []float64 {
	out := make([]float64, 0, len(position)*len(position[0]))
	for _, row := range position {
		out = append(out, row...)
	}
	return out
}

func unflatten(flat []float64, nVariables, nDimensions int) [][]float64 {
	out := make([][]float64, nVariables)
	for j := range out {
		out[j] = append([]float64(nil), flat[j*nDimensions:(j+1)*nDimensions]...)
	}
	return out
}

// clampFlat clamps a flattened position to the space bounds in place.
func clampFlat(flat []float64, space *optimization.Space) {
	for i := range flat {
		j := i / space.NDimensions
		if flat[i] < space.LB[j] {
			flat[i] = space.LB[j]
		} else if flat[i] > space.UB[j] {
			flat[i] = space.UB[j]
		}
	}
}
