package server

import (
	"fmt"
	"math"
	"strings"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

// Builtin benchmark objectives selectable by name in job requests. A real
// deployment plugs its own objective in through the optimization package;
// the named set here keeps the HTTP surface self-contained.
var objectives = map[string]optimization.Objective{
	"sphere":     sphere,
	"rosenbrock": rosenbrock,
	"rastrigin":  rastrigin,
}

// lookupObjective resolves a benchmark objective by name.
func lookupObjective(name string) (optimization.Objective, error) {
	obj, ok := objectives[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q", name)
	}
	return obj, nil
}

// flatten serializes a position matrix into a single coordinate vector.
func flatten(position [][]float64) []float64 {
	out := make([]float64, 0, len(position))
	for _, row := range position {
		out = append(out, row...)
	}
	return out
}

// sphere is f(x) = sum(x_i^2), optimum 0 at the origin.
func sphere(position [][]float64) (float64, error) {
	sum := 0.0
	for _, v := range flatten(position) {
		sum += v * v
	}
	return sum, nil
}

// rosenbrock is the classic banana function, optimum 0 at (1, ..., 1).
func rosenbrock(position [][]float64) (float64, error) {
	x := flatten(position)
	if len(x) < 2 {
		return 0, fmt.Errorf("rosenbrock needs at least 2 coordinates, got %d", len(x))
	}
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum, nil
}

// rastrigin is highly multimodal, optimum 0 at the origin.
func rastrigin(position [][]float64) (float64, error) {
	x := flatten(position)
	sum := 10.0 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum, nil
}
