package bayesian

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opt "github.com/copyleftdev/SMBO/internal/optimize"
	"github.com/copyleftdev/SMBO/internal/search"
)

func quadratic(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

func simpleSpace(t *testing.T) *search.Space {
	t.Helper()
	a, err := search.Real("a", -5, 5)
	require.NoError(t, err)
	b, err := search.Real("b", -5, 5)
	require.NoError(t, err)
	space, err := search.New(a, b)
	require.NoError(t, err)
	return space
}

func TestNewAppliesDefaults(t *testing.T) {
	m, err := New(opt.Config{
		Objective: quadratic,
		Space:     simpleSpace(t),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, m.config.NInitialPoints)
	assert.Greater(t, m.config.MaxEvals, m.config.NInitialPoints)
	assert.NotNil(t, m.gp)
	assert.NotNil(t, m.acquisition)
	assert.NotNil(t, m.rng)
}

func TestNewRequiresSpace(t *testing.T) {
	_, err := New(opt.Config{Objective: quadratic}, nil)
	assert.Error(t, err)
}

func TestMinimizeFindsLowRegion(t *testing.T) {
	config := opt.Config{
		Objective:      quadratic,
		Space:          simpleSpace(t),
		MaxEvals:       30,
		NInitialPoints: 8,
		Seed:           42,
	}
	m, err := New(config, nil)
	require.NoError(t, err)

	run, err := m.Minimize(context.Background(), config)
	require.NoError(t, err)
	require.NotNil(t, run.Best)

	assert.Equal(t, 30, run.Calls)
	assert.Len(t, run.History, 30)
	assert.Less(t, run.Best.Score, 5.0, "should improve well below the prior mean of ~16")

	best := run.BestSoFar()
	for i := 1; i < len(best); i++ {
		assert.LessOrEqual(t, best[i], best[i-1], "best-so-far must never increase")
	}
}

func TestMinimizeEvaluatesStartingPointFirst(t *testing.T) {
	space := simpleSpace(t)
	space, err := space.WithStart([]float64{1, -1})
	require.NoError(t, err)

	config := opt.Config{
		Objective:      quadratic,
		Space:          space,
		MaxEvals:       12,
		NInitialPoints: 5,
		Seed:           7,
	}
	m, err := New(config, nil)
	require.NoError(t, err)

	run, err := m.Minimize(context.Background(), config)
	require.NoError(t, err)

	first := run.History[0].Solution.Point
	assert.InDelta(t, 1, first[0], 1e-9)
	assert.InDelta(t, -1, first[1], 1e-9)
}

func TestMinimizeReproducibleWithSeed(t *testing.T) {
	config := opt.Config{
		Objective:      quadratic,
		Space:          simpleSpace(t),
		MaxEvals:       15,
		NInitialPoints: 5,
		Seed:           123,
	}

	runOnce := func() *opt.Run {
		m, err := New(config, nil)
		require.NoError(t, err)
		run, err := m.Minimize(context.Background(), config)
		require.NoError(t, err)
		return run
	}

	a, b := runOnce(), runOnce()
	assert.Equal(t, a.Best.Score, b.Best.Score, "same seed must reproduce the run")
	assert.Equal(t, a.History[4].Solution.Point, b.History[4].Solution.Point)
}

// Seed 0 is a fixed seed like any other, not an "unseeded" sentinel.
func TestMinimizeSeedZeroReproducible(t *testing.T) {
	config := opt.Config{
		Objective:      quadratic,
		Space:          simpleSpace(t),
		MaxEvals:       12,
		NInitialPoints: 5,
		Seed:           0,
	}

	runOnce := func() *opt.Run {
		m, err := New(config, nil)
		require.NoError(t, err)
		run, err := m.Minimize(context.Background(), config)
		require.NoError(t, err)
		return run
	}

	a, b := runOnce(), runOnce()
	require.Len(t, b.History, len(a.History))
	for i := range a.History {
		assert.Equal(t, a.History[i].Solution.Point, b.History[i].Solution.Point,
			"call %d must evaluate the same point at seed 0", i)
		assert.Equal(t, a.History[i].Solution.Score, b.History[i].Solution.Score)
	}
}

func TestMinimizeCapsInitialPointsAtBudget(t *testing.T) {
	calls := 0
	counting := func(x []float64) (float64, error) {
		calls++
		return quadratic(x)
	}

	config := opt.Config{
		Objective:      counting,
		Space:          simpleSpace(t),
		MaxEvals:       8,
		NInitialPoints: 60,
		Seed:           1,
	}
	m, err := New(config, nil)
	require.NoError(t, err)

	run, err := m.Minimize(context.Background(), config)
	require.NoError(t, err)

	assert.Equal(t, 8, run.Calls, "MaxEvals is the total budget")
	assert.Equal(t, 8, calls, "the objective must not be called past the budget")
}

func TestMinimizeHonorsCancellation(t *testing.T) {
	config := opt.Config{
		Objective:      quadratic,
		Space:          simpleSpace(t),
		MaxEvals:       500,
		NInitialPoints: 5,
		Seed:           1,
	}
	m, err := New(config, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Minimize(ctx, config)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMinimizeAbortsOnObjectiveError(t *testing.T) {
	calls := 0
	failing := func(x []float64) (float64, error) {
		calls++
		if calls >= 3 {
			return 0, assert.AnError
		}
		return quadratic(x)
	}

	config := opt.Config{
		Objective:      failing,
		Space:          simpleSpace(t),
		MaxEvals:       20,
		NInitialPoints: 5,
		Seed:           1,
	}
	m, err := New(config, nil)
	require.NoError(t, err)

	_, err = m.Minimize(context.Background(), config)
	assert.Error(t, err, "objective errors abort the run, no retries")
	assert.Equal(t, 3, calls)
}

// Mirrors the documented five-dimension tuning scenario: mixed integer and
// log-scale dimensions, a declared starting point, 50 calls at seed 0.
func TestMinimizeMixedSpaceScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("long surrogate loop")
	}

	maxDepth, err := search.Integer("max_depth", 1, 5)
	require.NoError(t, err)
	learningRate, err := search.LogReal("learning_rate", 1e-5, 1e-1)
	require.NoError(t, err)
	maxFeatures, err := search.Integer("max_features", 1, 13)
	require.NoError(t, err)
	minSplit, err := search.Integer("min_samples_split", 2, 30)
	require.NoError(t, err)
	minLeaf, err := search.Integer("min_samples_leaf", 1, 30)
	require.NoError(t, err)

	space, err := search.New(maxDepth, learningRate, maxFeatures, minSplit, minLeaf)
	require.NoError(t, err)
	space, err = space.WithStart([]float64{3, 0.01, 6, 2, 1})
	require.NoError(t, err)

	// Cheap stand-in objective with a known minimum inside the box.
	objective := func(x []float64) (float64, error) {
		return math.Abs(x[0]-4) + math.Abs(math.Log10(x[1])+2) + math.Abs(x[2]-7)/13 +
			math.Abs(x[3]-10)/30 + math.Abs(x[4]-3)/30, nil
	}

	config := opt.Config{
		Objective:      objective,
		Space:          space,
		MaxEvals:       50,
		NInitialPoints: 10,
		Seed:           0,
	}
	m, err := New(config, nil)
	require.NoError(t, err)

	run, err := m.Minimize(context.Background(), config)
	require.NoError(t, err)
	require.NotNil(t, run.Best)

	assert.Equal(t, 50, run.Calls)
	assert.False(t, math.IsNaN(run.Best.Score))
	assert.False(t, math.IsInf(run.Best.Score, 0))
	assert.True(t, space.Contains(run.Best.Point), "best point %v must lie within bounds", run.Best.Point)

	for _, eval := range run.History {
		assert.True(t, space.Contains(eval.Solution.Point), "every evaluated point must lie within bounds")
	}
}
