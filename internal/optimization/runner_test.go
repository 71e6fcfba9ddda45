package optimization

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/exp/rand"
)

// jitterStrategy is a minimal strategy for exercising the run loop: it nudges
// every agent by a small uniform step.
type jitterStrategy struct {
	rng      *rand.Rand
	compiled int
	updates  int
}

func (s *jitterStrategy) Name() string { return "jitter" }

func (s *jitterStrategy) Compile(*Space) error {
	s.compiled++
	return nil
}

func (s *jitterStrategy) Update(space *Space, _ *Function) error {
	s.updates++
	for _, agent := range space.Agents {
		for _, row := range agent.Position {
			for k := range row {
				row[k] += s.rng.Float64() - 0.5
			}
		}
	}
	return nil
}

// failingStrategy fails on the first update.
type failingStrategy struct{ jitterStrategy }

func (s *failingStrategy) Update(*Space, *Function) error {
	return fmt.Errorf("update blew up")
}

func newJitter(seed uint64) *jitterStrategy {
	return &jitterStrategy{rng: rand.New(rand.NewSource(seed))}
}

func TestNewRunnerValidation(t *testing.T) {
	space := newTestSpace(t, 3, 1, 1, 1)
	fn := newTestFunction(t)

	_, err := NewRunner(nil, newJitter(1), fn)
	assert.True(t, IsTypeError(err))

	_, err = NewRunner(space, nil, fn)
	assert.True(t, IsTypeError(err))

	_, err = NewRunner(space, newJitter(1), nil)
	assert.True(t, IsTypeError(err))
}

func TestRunnerPipeline(t *testing.T) {
	space := newTestSpace(t, 10, 2, 1, 17)
	fn := newTestFunction(t)
	strategy := newJitter(17)

	runner, err := NewRunner(space, strategy, fn)
	require.NoError(t, err)

	history, err := runner.Run(context.Background(), 25)
	require.NoError(t, err)

	assert.Equal(t, 25, history.Len(), "history length equals the iteration count")
	assert.Equal(t, 1, strategy.compiled, "compile runs exactly once")
	assert.Equal(t, 25, strategy.updates)

	// Recorded best fitness is non-increasing.
	series := history.BestFitness()
	for i := 1; i < len(series); i++ {
		assert.LessOrEqual(t, series[i], series[i-1])
	}

	// Agents end the run inside the bounds.
	for _, agent := range space.Agents {
		for j, row := range agent.Position {
			for _, v := range row {
				assert.GreaterOrEqual(t, v, space.LB[j])
				assert.LessOrEqual(t, v, space.UB[j])
			}
		}
	}
}

func TestRunnerRejectsNonPositiveIterations(t *testing.T) {
	runner, err := NewRunner(newTestSpace(t, 2, 1, 1, 1), newJitter(1), newTestFunction(t))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, IsValueError(err))
}

func TestRunnerAbortsOnUpdateFailure(t *testing.T) {
	strategy := &failingStrategy{*newJitter(1)}
	runner, err := NewRunner(newTestSpace(t, 2, 1, 1, 1), strategy, newTestFunction(t))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update blew up")
}

func TestRunnerHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, err := NewRunner(newTestSpace(t, 2, 1, 1, 1), newJitter(1), newTestFunction(t))
	require.NoError(t, err)

	_, err = runner.Run(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerCallbackCadence(t *testing.T) {
	var every, all int

	periodic, err := Every(3, CallbackFunc(func(int, *Space, *History) error {
		every++
		return nil
	}))
	require.NoError(t, err)

	runner, err := NewRunner(newTestSpace(t, 4, 1, 1, 13), newJitter(13), newTestFunction(t),
		WithCallbacks(periodic, nil, CallbackFunc(func(int, *Space, *History) error {
			all++
			return nil
		})))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, every, "periodic callback fires floor(n/frequency) times")
	assert.Equal(t, 10, all, "plain callbacks fire every iteration")
}

func TestRunnerCallbackFailureIsFatal(t *testing.T) {
	runner, err := NewRunner(newTestSpace(t, 2, 1, 1, 1), newJitter(1), newTestFunction(t),
		WithCallbacks(CallbackFunc(func(int, *Space, *History) error {
			return fmt.Errorf("checkpoint disk full")
		})))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint disk full")
}

func TestRunnerPreEvaluateHook(t *testing.T) {
	var calls int
	hook := func(space *Space, fn *Function) error {
		calls++
		return nil
	}

	runner, err := NewRunner(newTestSpace(t, 2, 1, 1, 1), newJitter(1), newTestFunction(t),
		WithPreEvaluate(hook))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), 4)
	require.NoError(t, err)

	// Initial pass plus one per iteration.
	assert.Equal(t, 5, calls)
}

func TestRunnerHistoryBestOnly(t *testing.T) {
	runner, err := NewRunner(newTestSpace(t, 3, 1, 1, 1), newJitter(1), newTestFunction(t),
		WithHistoryBestOnly())
	require.NoError(t, err)

	history, err := runner.Run(context.Background(), 2)
	require.NoError(t, err)

	for _, snapshot := range history.Snapshots() {
		assert.Nil(t, snapshot.Agents)
	}
}

func TestEveryValidation(t *testing.T) {
	_, err := Every(0, CallbackFunc(func(int, *Space, *History) error { return nil }))
	assert.True(t, IsValueError(err))

	_, err = Every(2, nil)
	assert.True(t, IsTypeError(err))
}

func TestRunnerParallelEvaluation(t *testing.T) {
	runner, err := NewRunner(newTestSpace(t, 16, 2, 1, 33), newJitter(33), newTestFunction(t),
		WithEvalWorkers(4))
	require.NoError(t, err)

	history, err := runner.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, history.Len())
}
