package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryDumpFullPopulation(t *testing.T) {
	space := newTestSpace(t, 4, 2, 1, 11)
	require.NoError(t, Evaluate(space, newTestFunction(t)))

	history := NewHistory(false)
	history.Dump(1, space)
	history.Dump(2, space)

	require.Equal(t, 2, history.Len())
	snapshot := history.Snapshots()[0]
	assert.Equal(t, 1, snapshot.Iteration)
	assert.Len(t, snapshot.Agents, 4)
	assert.Equal(t, space.Best.Fit, snapshot.Best.Fit)
}

func TestHistoryStoreOnlyBest(t *testing.T) {
	space := newTestSpace(t, 4, 2, 1, 11)
	require.NoError(t, Evaluate(space, newTestFunction(t)))

	history := NewHistory(true)
	history.Dump(1, space)

	snapshot := history.Snapshots()[0]
	assert.Nil(t, snapshot.Agents, "best-only snapshots omit the population")
	assert.NotNil(t, snapshot.Best.Position)
}

func TestHistoryRecordsAreCopies(t *testing.T) {
	space := newTestSpace(t, 2, 1, 1, 5)
	require.NoError(t, Evaluate(space, newTestFunction(t)))

	history := NewHistory(false)
	history.Dump(1, space)
	recorded := history.Snapshots()[0].Agents[0].Position[0][0]

	// Mutate the live population after the dump.
	space.Agents[0].Position[0][0] = 12345

	assert.Equal(t, recorded, history.Snapshots()[0].Agents[0].Position[0][0],
		"history must not observe later population mutation")
}

func TestHistoryBestFitnessSeries(t *testing.T) {
	space := newTestSpace(t, 2, 1, 1, 5)
	require.NoError(t, Evaluate(space, newTestFunction(t)))

	history := NewHistory(true)
	history.Dump(1, space)
	history.Dump(2, space)

	series := history.BestFitness()
	require.Len(t, series, 2)
	assert.Equal(t, space.Best.Fit, series[0])
	assert.Equal(t, space.Best.Fit, series[1])
}
