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

func sphere(position [][]float64) (float64, error) {
	sum := 0.0
	for _, row := range position {
		for _, v := range row {
			sum += v * v
		}
	}
	return sum, nil
}

func newSphereSetup(t *testing.T, nAgents int, seed uint64) (*optimization.Space, *optimization.Function) {
	t.Helper()

	space, err := optimization.NewSearchSpace(optimization.SpaceConfig{
		NAgents:     nAgents,
		NVariables:  2,
		NDimensions: 1,
		LB:          []float64{-10, -10},
		UB:          []float64{10, 10},
	}, rand.NewSource(seed))
	require.NoError(t, err)

	fn, err := optimization.NewFunction(sphere)
	require.NoError(t, err)

	return space, fn
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantValue bool
		wantType  bool
		wantParam string
	}{
		{
			name: "defaults are valid",
			cfg:  DefaultConfig(),
		},
		{
			name:      "bout size above range",
			cfg:       Config{BoutSize: 1.5, ClipRatio: 0.05},
			wantValue: true,
			wantParam: "bout_size",
		},
		{
			name:      "bout size below range",
			cfg:       Config{BoutSize: -0.1, ClipRatio: 0.05},
			wantValue: true,
			wantParam: "bout_size",
		},
		{
			name:      "bout size not a number",
			cfg:       Config{BoutSize: math.NaN(), ClipRatio: 0.05},
			wantType:  true,
			wantParam: "bout_size",
		},
		{
			name:      "clip ratio above range",
			cfg:       Config{BoutSize: 0.1, ClipRatio: 2},
			wantValue: true,
			wantParam: "clip_ratio",
		},
		{
			name: "boundary values accepted",
			cfg:  Config{BoutSize: 0, ClipRatio: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, rand.NewSource(1))

			switch {
			case tt.wantValue:
				require.Error(t, err)
				assert.True(t, optimization.IsValueError(err))
				assert.Contains(t, err.Error(), tt.wantParam)
			case tt.wantType:
				require.Error(t, err)
				assert.True(t, optimization.IsTypeError(err))
				assert.Contains(t, err.Error(), tt.wantParam)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRejectsNilSource(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	require.Error(t, err)
	assert.True(t, optimization.IsTypeError(err))
}

func TestUpdatePreservesPopulationSize(t *testing.T) {
	space, fn := newSphereSetup(t, 15, 3)

	ep, err := New(DefaultConfig(), rand.NewSource(3))
	require.NoError(t, err)
	require.NoError(t, ep.Compile(space))
	require.NoError(t, optimization.Evaluate(space, fn))

	for i := 0; i < 5; i++ {
		require.NoError(t, ep.Update(space, fn))
		assert.Len(t, space.Agents, 15,
			"the pool transiently doubles but exactly n_agents must survive")
	}
}

func TestMutateParentBroadcastsSingleDraw(t *testing.T) {
	space, fn := newSphereSetup(t, 1, 7)

	ep, err := New(DefaultConfig(), rand.NewSource(7))
	require.NoError(t, err)
	require.NoError(t, ep.Compile(space))

	parent := space.Agents[0]
	for _, row := range parent.Position {
		for k := range row {
			row[k] = 0
		}
	}

	child, err := ep.mutateParent(parent, fn, ep.strategy[0])
	require.NoError(t, err)

	// One gaussian draw per child: the offset-to-strategy ratio is the
	// same scalar for every component.
	r1 := child.Position[0][0] / ep.strategy[0][0][0]
	for j, row := range child.Position {
		for k := range row {
			assert.InDelta(t, r1, row[k]/ep.strategy[0][j][k], 1e-12)
		}
	}
}

func TestUpdateRequiresCompile(t *testing.T) {
	space, fn := newSphereSetup(t, 5, 3)

	ep, err := New(DefaultConfig(), rand.NewSource(3))
	require.NoError(t, err)

	err = ep.Update(space, fn)
	require.Error(t, err)
	assert.True(t, optimization.IsValueError(err))
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	run := func() float64 {
		space, fn := newSphereSetup(t, 10, 99)
		ep, err := New(DefaultConfig(), rand.NewSource(99))
		require.NoError(t, err)

		runner, err := optimization.NewRunner(space, ep, fn)
		require.NoError(t, err)

		_, err = runner.Run(context.Background(), 20)
		require.NoError(t, err)
		return space.Best.Fit
	}

	assert.Equal(t, run(), run(), "identical seeds must reproduce the run")
}

func TestSphereEndToEnd(t *testing.T) {
	space, fn := newSphereSetup(t, 20, 42)

	ep, err := New(DefaultConfig(), rand.NewSource(42))
	require.NoError(t, err)

	runner, err := optimization.NewRunner(space, ep, fn)
	require.NoError(t, err)

	require.NoError(t, optimization.Evaluate(space, fn))
	initialBest := space.Best.Fit

	history, err := runner.Run(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 100, history.Len())
	assert.Less(t, space.Best.Fit, initialBest,
		"final best must strictly improve on the initial best")

	series := history.BestFitness()
	for i := 1; i < len(series); i++ {
		assert.LessOrEqual(t, series[i], series[i-1])
	}
}
