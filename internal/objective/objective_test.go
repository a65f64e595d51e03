package objective

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/SMBO/internal/dataset"
	"github.com/copyleftdev/SMBO/internal/validate"
)

func testTable() *dataset.Table {
	// Small but real enough for 3-fold CV to produce stable scores.
	return dataset.Synthetic(60, 0)
}

func testBoosted(t *testing.T) *Boosted {
	t.Helper()
	o, err := NewBoosted(testTable(), validate.KFold{K: 3, Seed: 0}, 10, 0)
	require.NoError(t, err)
	return o
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	o, err := NewPipeline(testTable(), validate.KFold{K: 3, Seed: 0}, 10, 0)
	require.NoError(t, err)
	return o
}

func TestBoostedSpaceMatchesPointLayout(t *testing.T) {
	o := testBoosted(t)
	space, err := o.Space()
	require.NoError(t, err)

	assert.Equal(t, boostedDims, space.Dims())
	assert.Equal(t, []float64{3, 0.01, 6, 2, 1}, space.Start())

	names := make([]string, 0, space.Dims())
	for _, d := range space.Dimensions() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"max_depth", "learning_rate", "max_features", "min_samples_split", "min_samples_leaf"}, names)
}

func TestBoostedEvaluateFiniteWithinBounds(t *testing.T) {
	o := testBoosted(t)
	point := []float64{3, 0.01, 6, 2, 1}

	score, err := o.Evaluate(point)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(score))
	assert.False(t, math.IsInf(score, 0))
	assert.Greater(t, score, 0.0, "MAE on noisy data cannot be zero")
}

func TestBoostedEvaluateIdempotent(t *testing.T) {
	o := testBoosted(t)
	point := []float64{2, 0.05, 4, 4, 2}

	a, err := o.Evaluate(point)
	require.NoError(t, err)
	b, err := o.Evaluate(point)
	require.NoError(t, err)

	assert.Equal(t, a, b, "same point must give the same score")
}

func TestBoostedEvaluateRejectsInvalidConfig(t *testing.T) {
	o := testBoosted(t)

	_, err := o.Evaluate([]float64{0, 0.01, 6, 2, 1})
	assert.Error(t, err, "max_depth 0 is a configuration error")

	_, err = o.Evaluate([]float64{3, 0.01, 6, 2})
	assert.Error(t, err, "wrong arity is a configuration error")
}

func TestPipelineClampsStageTwoToStageOne(t *testing.T) {
	o := testPipeline(t)

	// Stage-two max_features 10 exceeds stage-one k 3.
	cfg, err := o.EffectiveConfig([]float64{3, 2, 0.05, 10, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Selector.K)
	assert.Equal(t, 3, cfg.Boosted.MaxFeatures, "stage-two max features must equal stage-one k after clamping")

	// Within bounds nothing is clamped.
	cfg, err = o.EffectiveConfig([]float64{8, 2, 0.05, 5, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Boosted.MaxFeatures)
}

func TestPipelineEvaluateFinite(t *testing.T) {
	o := testPipeline(t)

	score, err := o.Evaluate([]float64{5, 2, 0.05, 8, 4, 2})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(score))
	assert.False(t, math.IsInf(score, 0))
}

func TestPipelineEvaluateIdempotent(t *testing.T) {
	o := testPipeline(t)
	point := []float64{4, 2, 0.05, 2, 4, 2}

	a, err := o.Evaluate(point)
	require.NoError(t, err)
	b, err := o.Evaluate(point)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConstructorValidation(t *testing.T) {
	table := testTable()

	_, err := NewBoosted(table, validate.KFold{K: 1}, 10, 0)
	assert.Error(t, err, "one fold is not cross-validation")

	_, err = NewBoosted(table, validate.KFold{K: 3}, 0, 0)
	assert.Error(t, err)

	_, err = NewPipeline(table, validate.KFold{K: 1}, 10, 0)
	assert.Error(t, err)
}
