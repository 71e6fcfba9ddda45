package optimization

import (
	"fmt"
	"testing"

	"golang.org/x/exp/rand"
)

// sphereObjective is the classic benchmark f(x) = sum(x_i^2) with its
// optimum of 0 at the origin.
func sphereObjective(position [][]float64) (float64, error) {
	sum := 0.0
	for _, row := range position {
		for _, v := range row {
			sum += v * v
		}
	}
	return sum, nil
}

// failingObjective always reports an evaluation failure.
func failingObjective(position [][]float64) (float64, error) {
	return 0, fmt.Errorf("objective exploded")
}

// newTestSpace builds a seeded space over [-10, 10] bounds.
func newTestSpace(t *testing.T, nAgents, nVariables, nDimensions int, seed uint64) *Space {
	t.Helper()

	lb := make([]float64, nVariables)
	ub := make([]float64, nVariables)
	for j := range lb {
		lb[j] = -10
		ub[j] = 10
	}

	space, err := NewSearchSpace(SpaceConfig{
		NAgents:     nAgents,
		NVariables:  nVariables,
		NDimensions: nDimensions,
		LB:          lb,
		UB:          ub,
	}, rand.NewSource(seed))
	if err != nil {
		t.Fatalf("creating test space: %v", err)
	}
	return space
}

// newTestFunction wraps the sphere objective.
func newTestFunction(t *testing.T) *Function {
	t.Helper()

	fn, err := NewFunction(sphereObjective)
	if err != nil {
		t.Fatalf("creating test function: %v", err)
	}
	return fn
}
