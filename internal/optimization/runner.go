package optimization

import (
	"context"
)

// Hook runs before an evaluation pass and may adjust agents first, e.g. a
// local-search refinement of promising positions.
type Hook func(space *Space, fn *Function) error

// Callback is invoked once per iteration, after the iteration's snapshot has
// been recorded. A callback error is fatal and aborts the run; callbacks
// that want to survive their own failures must trap them internally.
type Callback interface {
	OnIteration(iteration int, space *Space, history *History) error
}

// CallbackFunc adapts a plain function to the Callback interface.
type CallbackFunc func(iteration int, space *Space, history *History) error

// OnIteration calls f.
func (f CallbackFunc) OnIteration(iteration int, space *Space, history *History) error {
	return f(iteration, space, history)
}

// Every wraps cb so it only fires on iterations divisible by frequency.
// Over a run of n iterations the wrapped callback fires floor(n/frequency)
// times, which is the cadence checkpoint collaborators expect.
func Every(frequency int, cb Callback) (Callback, error) {
	if frequency < 1 {
		return nil, NewValueError("frequency", "should be a positive integer, got %d", frequency)
	}
	if cb == nil {
		return nil, NewTypeError("cb", "callback should not be nil")
	}
	return CallbackFunc(func(iteration int, space *Space, history *History) error {
		if iteration%frequency != 0 {
			return nil
		}
		return cb.OnIteration(iteration, space, history)
	}), nil
}

// Logger is the logging surface the runner needs. It matches the structured
// logger in internal/logging without depending on it.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
}

// Runner drives the iteration loop over a space, a strategy and an objective
// function: evaluate, update, clip to bounds, re-evaluate, record history,
// invoke callbacks.
type Runner struct {
	space    *Space
	strategy Strategy
	fn       *Function

	storeOnlyBest bool
	evalWorkers   int
	preEvaluate   Hook
	callbacks     []Callback
	logger        Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistoryBestOnly records only the best agent in each history snapshot
// instead of the full population.
func WithHistoryBestOnly() Option {
	return func(r *Runner) { r.storeOnlyBest = true }
}

// WithEvalWorkers fans the fitness computation of each evaluation pass out
// to n goroutines. It has no effect on strategies that implement their own
// evaluation protocol.
func WithEvalWorkers(n int) Option {
	return func(r *Runner) { r.evalWorkers = n }
}

// WithPreEvaluate registers a hook that runs before every evaluation pass,
// including the initial one.
func WithPreEvaluate(hook Hook) Option {
	return func(r *Runner) { r.preEvaluate = hook }
}

// WithCallbacks registers per-iteration callbacks. Nil entries are ignored,
// so callers can pass optional callback lists straight through.
func WithCallbacks(cbs ...Callback) Option {
	return func(r *Runner) {
		for _, cb := range cbs {
			if cb != nil {
				r.callbacks = append(r.callbacks, cb)
			}
		}
	}
}

// WithLogger attaches a structured logger; the runner reports per-iteration
// progress at debug level.
func WithLogger(logger Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner bundles a space, strategy and function into a runner. All three
// collaborators are required.
func NewRunner(space *Space, strategy Strategy, fn *Function, opts ...Option) (*Runner, error) {
	if space == nil {
		return nil, NewTypeError("space", "should not be nil")
	}
	if strategy == nil {
		return nil, NewTypeError("strategy", "should not be nil")
	}
	if fn == nil {
		return nil, NewTypeError("fn", "should not be nil")
	}

	r := &Runner{
		space:    space,
		strategy: strategy,
		fn:       fn,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes nIterations of the pipeline and returns the completed
// history, whose length equals nIterations. Failures from evaluation,
// update or callbacks abort the run: a corrupted population provides no
// meaningful partial result.
func (r *Runner) Run(ctx context.Context, nIterations int) (*History, error) {
	if nIterations < 1 {
		return nil, NewValueError("n_iterations", "should be a positive integer, got %d", nIterations)
	}

	if err := r.strategy.Compile(r.space); err != nil {
		return nil, WrapError(err, "compiling strategy %s", r.strategy.Name())
	}

	// Initial evaluation pass so the first update sees real fitness.
	if err := r.evaluate(); err != nil {
		return nil, err
	}

	history := NewHistory(r.storeOnlyBest)

	for t := 1; t <= nIterations; t++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := r.strategy.Update(r.space, r.fn); err != nil {
			return nil, WrapError(err, "updating population at iteration %d", t)
		}

		r.space.ClipByBound()

		if err := r.evaluate(); err != nil {
			return nil, err
		}

		history.Dump(t, r.space)

		for _, cb := range r.callbacks {
			if err := cb.OnIteration(t, r.space, history); err != nil {
				return nil, WrapError(err, "callback failed at iteration %d", t)
			}
		}

		if r.logger != nil {
			r.logger.Debug("Iteration completed", map[string]interface{}{
				"iteration": t,
				"total":     nIterations,
				"best_fit":  r.space.Best.Fit,
			})
		}
	}

	if r.logger != nil {
		r.logger.Info("Run completed", map[string]interface{}{
			"algorithm":  r.strategy.Name(),
			"iterations": nIterations,
			"best_fit":   r.space.Best.Fit,
		})
	}

	return history, nil
}

// evaluate runs one evaluation pass, preferring the strategy's own protocol
// when it provides one.
func (r *Runner) evaluate() error {
	if r.preEvaluate != nil {
		if err := r.preEvaluate(r.space, r.fn); err != nil {
			return WrapError(err, "pre-evaluate hook failed")
		}
	}
	if ev, ok := r.strategy.(Evaluator); ok {
		return ev.Evaluate(r.space, r.fn)
	}
	return EvaluateParallel(r.space, r.fn, r.evalWorkers)
}
