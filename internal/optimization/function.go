package optimization

// Objective is the boundary with user code: a callable taking one position
// matrix and returning one real scalar. Failures must propagate as errors
// rather than being silently swallowed.
type Objective func(position [][]float64) (float64, error)

// Constraint reports whether a position satisfies an external constraint.
// Box bounds are handled by the clip operation; constraints cover anything
// beyond them.
type Constraint func(position [][]float64) bool

// Function wraps an objective callable, optionally composed with constraint
// penalty terms. It is immutable after construction.
type Function struct {
	objective   Objective
	constraints []Constraint
	penalty     float64
}

// NewFunction wraps a plain objective.
func NewFunction(objective Objective) (*Function, error) {
	if objective == nil {
		return nil, NewTypeError("objective", "should be a callable, got nil")
	}
	return &Function{objective: objective}, nil
}

// NewConstrained wraps an objective with penalty composition: every violated
// constraint adds penalty to the raw fitness.
func NewConstrained(objective Objective, constraints []Constraint, penalty float64) (*Function, error) {
	fn, err := NewFunction(objective)
	if err != nil {
		return nil, err
	}
	for i, c := range constraints {
		if c == nil {
			return nil, NewTypeError("constraints", "constraint at index %d should be a callable, got nil", i)
		}
	}
	if penalty < 0 {
		return nil, NewValueError("penalty", "should be non-negative, got %v", penalty)
	}
	fn.constraints = constraints
	fn.penalty = penalty
	return fn, nil
}

// Eval computes the fitness of a position, applying constraint penalties
// when the function was built with them.
func (f *Function) Eval(position [][]float64) (float64, error) {
	fit, err := f.objective(position)
	if err != nil {
		return 0, WrapError(err, "evaluating objective function")
	}
	for _, c := range f.constraints {
		if !c(position) {
			fit += f.penalty
		}
	}
	return fit, nil
}

// Negate adapts a maximization objective to the minimization convention used
// throughout the pipeline by inverting its sign. The best-agent record then
// carries the negated fitness.
func Negate(objective Objective) Objective {
	return func(position [][]float64) (float64, error) {
		v, err := objective(position)
		return -v, err
	}
}
