package evolutionary

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/exp/rand"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

func TestESConfigValidation(t *testing.T) {
	_, err := NewES(ESConfig{ChildRatio: 1.5}, rand.NewSource(1))
	require.Error(t, err)
	assert.True(t, optimization.IsValueError(err))
	assert.Contains(t, err.Error(), "child_ratio")

	_, err = NewES(ESConfig{ChildRatio: math.NaN()}, rand.NewSource(1))
	require.Error(t, err)
	assert.True(t, optimization.IsTypeError(err))

	_, err = NewES(DefaultESConfig(), nil)
	require.Error(t, err)
	assert.True(t, optimization.IsTypeError(err))
}

func TestESUpdatePreservesPopulationSize(t *testing.T) {
	space, fn := newSphereSetup(t, 12, 5)

	es, err := NewES(DefaultESConfig(), rand.NewSource(5))
	require.NoError(t, err)
	require.NoError(t, es.Compile(space))
	require.NoError(t, optimization.Evaluate(space, fn))

	for i := 0; i < 5; i++ {
		require.NoError(t, es.Update(space, fn))
		assert.Len(t, space.Agents, 12)
	}
}

func TestESMutateParentBroadcastsSingleDraw(t *testing.T) {
	space, fn := newSphereSetup(t, 2, 13)

	es, err := NewES(DefaultESConfig(), rand.NewSource(13))
	require.NoError(t, err)
	require.NoError(t, es.Compile(space))

	parent := space.Agents[0]
	for _, row := range parent.Position {
		for k := range row {
			row[k] = 0
		}
	}

	child, err := es.mutateParent(parent, fn, es.strategy[0])
	require.NoError(t, err)

	r1 := child.Position[0][0] / es.strategy[0][0][0]
	for j, row := range child.Position {
		for k := range row {
			assert.InDelta(t, r1, row[k]/es.strategy[0][j][k], 1e-12)
		}
	}
}

func TestESUpdateRequiresCompile(t *testing.T) {
	space, fn := newSphereSetup(t, 5, 3)

	es, err := NewES(DefaultESConfig(), rand.NewSource(3))
	require.NoError(t, err)

	err = es.Update(space, fn)
	require.Error(t, err)
	assert.True(t, optimization.IsValueError(err))
}

func TestESSelectsFittestPoolMembers(t *testing.T) {
	space, fn := newSphereSetup(t, 8, 11)

	es, err := NewES(DefaultESConfig(), rand.NewSource(11))
	require.NoError(t, err)
	require.NoError(t, es.Compile(space))
	require.NoError(t, optimization.Evaluate(space, fn))

	require.NoError(t, es.Update(space, fn))

	// Survivors come out of the joined pool in fitness order.
	for i := 1; i < len(space.Agents); i++ {
		assert.LessOrEqual(t, space.Agents[i-1].Fit, space.Agents[i].Fit)
	}
}

func TestESSphereEndToEnd(t *testing.T) {
	space, fn := newSphereSetup(t, 20, 42)

	es, err := NewES(DefaultESConfig(), rand.NewSource(42))
	require.NoError(t, err)

	runner, err := optimization.NewRunner(space, es, fn)
	require.NoError(t, err)

	require.NoError(t, optimization.Evaluate(space, fn))
	initialBest := space.Best.Fit

	history, err := runner.Run(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 100, history.Len())
	assert.Less(t, space.Best.Fit, initialBest)
}
