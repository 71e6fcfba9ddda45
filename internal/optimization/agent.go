// Package optimization implements the core data model and run pipeline for
// population-based meta-heuristic optimization: agents, search spaces,
// objective functions, the strategy contract shared by all algorithms, and
// the iteration driver that ties them together.
package optimization

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
)

// Agent is a single candidate solution: a position matrix of NVariables
// decision variables by NDimensions dimensions, its fitness under the
// objective function, and the box bounds it must stay inside.
type Agent struct {
	// Position holds one row per decision variable, each with a fixed
	// number of dimensions.
	Position [][]float64

	// LB and UB are the per-variable lower and upper bounds, both of
	// length NVariables.
	LB []float64
	UB []float64

	// Fit is the fitness value of Position. New agents start at +Inf,
	// the worst possible value under the minimization convention.
	Fit float64

	// Timestamp records the moment of the last fitness improvement. It
	// is only meaningful on the best-agent record held by a Space.
	Timestamp time.Time
}

// NewAgent creates an agent with the given dimensions and bounds. The
// position starts at the origin with fitness +Inf; call Randomize to place
// the agent inside its bounds.
func NewAgent(nVariables, nDimensions int, lb, ub []float64) (*Agent, error) {
	if nVariables < 1 {
		return nil, NewValueError("n_variables", "should be a positive integer, got %d", nVariables)
	}
	if nDimensions < 1 {
		return nil, NewValueError("n_dimensions", "should be a positive integer, got %d", nDimensions)
	}
	if err := validateBounds(nVariables, lb, ub); err != nil {
		return nil, err
	}

	position := make([][]float64, nVariables)
	for j := range position {
		position[j] = make([]float64, nDimensions)
	}

	return &Agent{
		Position: position,
		LB:       append([]float64(nil), lb...),
		UB:       append([]float64(nil), ub...),
		Fit:      math.Inf(1),
	}, nil
}

// validateBounds checks that lb and ub are numeric, of the expected length
// and correctly ordered.
func validateBounds(nVariables int, lb, ub []float64) error {
	if len(lb) != nVariables {
		return NewValueError("lb", "should have length %d, got %d", nVariables, len(lb))
	}
	if len(ub) != nVariables {
		return NewValueError("ub", "should have length %d, got %d", nVariables, len(ub))
	}
	for j := range lb {
		if math.IsNaN(lb[j]) {
			return NewTypeError("lb", "bound at index %d is not a number", j)
		}
		if math.IsNaN(ub[j]) {
			return NewTypeError("ub", "bound at index %d is not a number", j)
		}
		if lb[j] > ub[j] {
			return NewValueError("lb", "bound at index %d exceeds the upper bound (%v > %v)", j, lb[j], ub[j])
		}
	}
	return nil
}

// NVariables returns the number of decision variables.
func (a *Agent) NVariables() int {
	return len(a.Position)
}

// NDimensions returns the dimensionality of each decision variable.
func (a *Agent) NDimensions() int {
	if len(a.Position) == 0 {
		return 0
	}
	return len(a.Position[0])
}

// Randomize places the agent uniformly at random inside its bounds.
func (a *Agent) Randomize(rng *rand.Rand) {
	for j, row := range a.Position {
		span := a.UB[j] - a.LB[j]
		for k := range row {
			row[k] = a.LB[j] + rng.Float64()*span
		}
	}
}

// Clip pulls every position component outside [LB[j], UB[j]] to the nearest
// bound. Applying it twice yields the same result as applying it once.
func (a *Agent) Clip() {
	for j, row := range a.Position {
		for k, v := range row {
			if v < a.LB[j] {
				row[k] = a.LB[j]
			} else if v > a.UB[j] {
				row[k] = a.UB[j]
			}
		}
	}
}

// Copy returns an independent deep copy of the agent. Later mutation of the
// original cannot taint the copy, which is what makes copy-on-improve
// best-agent tracking safe.
func (a *Agent) Copy() *Agent {
	return &Agent{
		Position:  copyPosition(a.Position),
		LB:        append([]float64(nil), a.LB...),
		UB:        append([]float64(nil), a.UB...),
		Fit:       a.Fit,
		Timestamp: a.Timestamp,
	}
}

// copyPosition deep-copies a position matrix.
func copyPosition(position [][]float64) [][]float64 {
	out := make([][]float64, len(position))
	for j, row := range position {
		out[j] = append([]float64(nil), row...)
	}
	return out
}
