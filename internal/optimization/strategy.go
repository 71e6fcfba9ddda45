package optimization

import (
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Strategy is the contract every optimization algorithm implements. The
// runner invokes all strategies uniformly; algorithm-specific behavior lives
// entirely behind this interface.
type Strategy interface {
	// Name identifies the algorithm, e.g. "EP" or "PSO".
	Name() string

	// Compile precomputes per-strategy auxiliary state from the space
	// (mutation strategies, velocities). It is called exactly once,
	// before the run begins. Strategies without auxiliary state return
	// nil.
	Compile(space *Space) error

	// Update applies the population-transition rule for one iteration.
	// The population it leaves behind must hold exactly space.NAgents
	// agents; a strategy may grow the population transiently during
	// selection but always restores the invariant before returning.
	Update(space *Space, fn *Function) error
}

// Evaluator is an optional upgrade for strategies that replace the shared
// evaluation protocol with their own, such as PSO's local-best bookkeeping.
// The runner prefers it over Evaluate when the strategy implements it.
type Evaluator interface {
	Evaluate(space *Space, fn *Function) error
}

// Evaluate is the shared evaluation protocol: it computes every agent's
// fitness and, on strict improvement over the best-agent record, replaces
// the record with an independent deep copy stamped with the current time.
// It defines the minimization convention; maximization objectives are
// adapted with Negate at the Function layer.
func Evaluate(space *Space, fn *Function) error {
	for i, agent := range space.Agents {
		fit, err := fn.Eval(agent.Position)
		if err != nil {
			return WrapError(err, "evaluating agent %d", i)
		}
		agent.Fit = fit
		maybeImproveBest(space, agent)
	}
	return nil
}

// EvaluateParallel evaluates agent fitness with up to workers goroutines.
// Fitness values are independent per agent, so only the computation is
// fanned out; the best-agent scan stays sequential in agent-index order to
// keep recorded history deterministic. workers <= 1 falls back to the
// sequential protocol.
func EvaluateParallel(space *Space, fn *Function, workers int) error {
	if workers <= 1 {
		return Evaluate(space, fn)
	}

	fits := make([]float64, len(space.Agents))
	errs := make([]error, len(space.Agents))

	p := pool.New().WithMaxGoroutines(workers)
	for i, agent := range space.Agents {
		i, agent := i, agent
		p.Go(func() {
			fits[i], errs[i] = fn.Eval(agent.Position)
		})
	}
	p.Wait()

	for i, agent := range space.Agents {
		if errs[i] != nil {
			return WrapError(errs[i], "evaluating agent %d", i)
		}
		agent.Fit = fits[i]
		maybeImproveBest(space, agent)
	}
	return nil
}

// maybeImproveBest replaces the best-agent record with a deep copy of agent
// when its fitness strictly improves on the record.
func maybeImproveBest(space *Space, agent *Agent) {
	if agent.Fit < space.Best.Fit {
		best := agent.Copy()
		best.Timestamp = time.Now()
		space.Best = best
	}
}
