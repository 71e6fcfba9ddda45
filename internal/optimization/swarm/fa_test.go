package swarm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/exp/rand"

	"github.com/driftlabs/EVOLV/internal/optimization"
)

func TestFAConfigValidation(t *testing.T) {
	_, err := NewFA(FAConfig{Alpha: -1, Beta: 0.2, Gamma: 1}, rand.NewSource(1))
	assert.True(t, optimization.IsValueError(err))

	_, err = NewFA(FAConfig{Alpha: 0.5, Beta: math.NaN(), Gamma: 1}, rand.NewSource(1))
	assert.True(t, optimization.IsTypeError(err))

	_, err = NewFA(DefaultFAConfig(), nil)
	assert.True(t, optimization.IsTypeError(err))
}

func TestFAUpdatePreservesPopulationSize(t *testing.T) {
	space, fn := newSphereSetup(t, 10, 6)

	fa, err := NewFA(DefaultFAConfig(), rand.NewSource(6))
	require.NoError(t, err)
	require.NoError(t, fa.Compile(space))
	require.NoError(t, optimization.Evaluate(space, fn))
	require.NoError(t, fa.Update(space, fn))

	assert.Len(t, space.Agents, 10)
}

func TestFAMovesTowardBrighterAgents(t *testing.T) {
	space, fn := newSphereSetup(t, 2, 1)

	// Plant one agent at the optimum and the other far away; with no
	// jitter the dimmer agent must move strictly closer.
	space.Agents[0].Position = [][]float64{{0}, {0}}
	space.Agents[1].Position = [][]float64{{8}, {8}}
	require.NoError(t, optimization.Evaluate(space, fn))

	fa, err := NewFA(FAConfig{Alpha: 0, Beta: 0.5, Gamma: 0.001}, rand.NewSource(1))
	require.NoError(t, err)
	require.NoError(t, fa.Compile(space))

	before := space.Agents[1].Position[0][0]
	require.NoError(t, fa.Update(space, fn))

	assert.Less(t, space.Agents[1].Position[0][0], before)
	assert.Equal(t, 0.0, space.Agents[0].Position[0][0],
		"the brightest agent has nothing to move toward")
}

func TestFASphereEndToEnd(t *testing.T) {
	space, fn := newSphereSetup(t, 20, 42)

	fa, err := NewFA(DefaultFAConfig(), rand.NewSource(42))
	require.NoError(t, err)

	runner, err := optimization.NewRunner(space, fa, fn)
	require.NoError(t, err)

	require.NoError(t, optimization.Evaluate(space, fn))
	initialBest := space.Best.Fit

	history, err := runner.Run(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 100, history.Len())
	assert.Less(t, space.Best.Fit, initialBest)
}
