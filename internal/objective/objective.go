// Package objective maps candidate points to cross-validated scores. Each
// evaluation decodes the point into immutable model configs, builds fresh
// models, and scores them with a fixed k-fold protocol; nothing is shared or
// mutated between calls, so evaluations are independent.
//
// The score returned is the mean cross-validated MAE: the negation of the
// "higher is better" accuracy convention, so minimizing the score maximizes
// predictive accuracy.
package objective

import (
	"fmt"
	"time"

	"github.com/copyleftdev/SMBO/internal/dataset"
	"github.com/copyleftdev/SMBO/internal/model"
	"github.com/copyleftdev/SMBO/internal/search"
	"github.com/copyleftdev/SMBO/internal/validate"
)

// Boosted point layout, in declared dimension order.
const (
	boostedMaxDepth = iota
	boostedLearningRate
	boostedMaxFeatures
	boostedMinSamplesSplit
	boostedMinSamplesLeaf
	boostedDims
)

// Pipeline point layout: the selector's k first, then the boosted stage.
const (
	pipelineK = iota
	pipelineMaxDepth
	pipelineLearningRate
	pipelineMaxFeatures
	pipelineMinSamplesSplit
	pipelineMinSamplesLeaf
	pipelineDims
)

// Boosted scores gradient-boosted ensemble hyper-parameters against a fixed
// dataset and CV protocol.
type Boosted struct {
	table *dataset.Table
	folds validate.KFold

	// NEstimators and Seed are fixed per study, not searched.
	nEstimators int
	seed        int64
}

// NewBoosted creates the single-model objective.
func NewBoosted(table *dataset.Table, folds validate.KFold, nEstimators int, seed int64) (*Boosted, error) {
	if err := folds.Validate(); err != nil {
		return nil, err
	}
	if nEstimators < 1 {
		return nil, fmt.Errorf("objective: n estimators must be at least 1, got %d", nEstimators)
	}
	return &Boosted{table: table, folds: folds, nEstimators: nEstimators, seed: seed}, nil
}

// Space declares the boosted objective's search dimensions with the default
// starting point.
func (o *Boosted) Space() (*search.Space, error) {
	maxDepth, err := search.Integer("max_depth", 1, 5)
	if err != nil {
		return nil, err
	}
	learningRate, err := search.LogReal("learning_rate", 1e-5, 1e-1)
	if err != nil {
		return nil, err
	}
	maxFeatures, err := search.Integer("max_features", 1, o.table.Features())
	if err != nil {
		return nil, err
	}
	minSplit, err := search.Integer("min_samples_split", 2, 30)
	if err != nil {
		return nil, err
	}
	minLeaf, err := search.Integer("min_samples_leaf", 1, 30)
	if err != nil {
		return nil, err
	}

	space, err := search.New(maxDepth, learningRate, maxFeatures, minSplit, minLeaf)
	if err != nil {
		return nil, err
	}
	return space.WithStart([]float64{3, 0.01, 6, 2, 1})
}

// config decodes a point into the ensemble configuration.
func (o *Boosted) config(point []float64) (model.BoostedConfig, error) {
	if len(point) != boostedDims {
		return model.BoostedConfig{}, fmt.Errorf("objective: boosted point needs %d values, got %d", boostedDims, len(point))
	}
	cfg := model.BoostedConfig{
		NEstimators:     o.nEstimators,
		LearningRate:    point[boostedLearningRate],
		MaxDepth:        int(point[boostedMaxDepth]),
		MaxFeatures:     int(point[boostedMaxFeatures]),
		MinSamplesSplit: int(point[boostedMinSamplesSplit]),
		MinSamplesLeaf:  int(point[boostedMinSamplesLeaf]),
		Seed:            o.seed,
	}
	return cfg, cfg.Validate()
}

// Evaluate scores one candidate point. Invalid model parameters surface as a
// configuration error and abort the run; there are no retries here.
func (o *Boosted) Evaluate(point []float64) (float64, error) {
	timer := startTimer("boosted")
	defer timer()

	cfg, err := o.config(point)
	if err != nil {
		return 0, err
	}

	return o.folds.CrossValMAE(func() (model.Regressor, error) {
		return model.NewBoosted(cfg)
	}, o.table.X, o.table.Y)
}

// Pipeline scores the two-stage objective: univariate feature selection
// feeding the boosted ensemble.
type Pipeline struct {
	table *dataset.Table
	folds validate.KFold

	nEstimators int
	seed        int64
}

// NewPipeline creates the two-stage objective.
func NewPipeline(table *dataset.Table, folds validate.KFold, nEstimators int, seed int64) (*Pipeline, error) {
	if err := folds.Validate(); err != nil {
		return nil, err
	}
	if nEstimators < 1 {
		return nil, fmt.Errorf("objective: n estimators must be at least 1, got %d", nEstimators)
	}
	return &Pipeline{table: table, folds: folds, nEstimators: nEstimators, seed: seed}, nil
}

// Space declares the pipeline objective's dimensions: the selector's k ahead
// of the boosted stage's parameters.
func (o *Pipeline) Space() (*search.Space, error) {
	k, err := search.Integer("n_features", 1, o.table.Features())
	if err != nil {
		return nil, err
	}
	maxDepth, err := search.Integer("max_depth", 1, 5)
	if err != nil {
		return nil, err
	}
	learningRate, err := search.LogReal("learning_rate", 1e-5, 1e-1)
	if err != nil {
		return nil, err
	}
	maxFeatures, err := search.Integer("max_features", 1, o.table.Features())
	if err != nil {
		return nil, err
	}
	minSplit, err := search.Integer("min_samples_split", 2, 30)
	if err != nil {
		return nil, err
	}
	minLeaf, err := search.Integer("min_samples_leaf", 1, 30)
	if err != nil {
		return nil, err
	}

	space, err := search.New(k, maxDepth, learningRate, maxFeatures, minSplit, minLeaf)
	if err != nil {
		return nil, err
	}
	return space.WithStart([]float64{6, 3, 0.01, 6, 2, 1})
}

// config decodes a point into the two stage configurations. The stage-two
// max_features is clamped to the stage-one k before construction: a stage
// cannot use more features than the selector keeps. This is deliberate
// policy, not an error.
func (o *Pipeline) config(point []float64) (model.PipelineConfig, error) {
	if len(point) != pipelineDims {
		return model.PipelineConfig{}, fmt.Errorf("objective: pipeline point needs %d values, got %d", pipelineDims, len(point))
	}

	k := int(point[pipelineK])
	maxFeatures := int(point[pipelineMaxFeatures])
	if maxFeatures > k {
		maxFeatures = k
	}

	cfg := model.PipelineConfig{
		Selector: model.SelectorConfig{K: k},
		Boosted: model.BoostedConfig{
			NEstimators:     o.nEstimators,
			LearningRate:    point[pipelineLearningRate],
			MaxDepth:        int(point[pipelineMaxDepth]),
			MaxFeatures:     maxFeatures,
			MinSamplesSplit: int(point[pipelineMinSamplesSplit]),
			MinSamplesLeaf:  int(point[pipelineMinSamplesLeaf]),
			Seed:            o.seed,
		},
	}
	return cfg, cfg.Validate()
}

// EffectiveConfig exposes the decoded (clamped) configuration for a point.
func (o *Pipeline) EffectiveConfig(point []float64) (model.PipelineConfig, error) {
	return o.config(point)
}

// Evaluate scores one candidate point of the two-stage pipeline.
func (o *Pipeline) Evaluate(point []float64) (float64, error) {
	timer := startTimer("pipeline")
	defer timer()

	cfg, err := o.config(point)
	if err != nil {
		return 0, err
	}

	return o.folds.CrossValMAE(func() (model.Regressor, error) {
		return model.NewPipeline(cfg)
	}, o.table.X, o.table.Y)
}

func startTimer(objective string) func() {
	start := time.Now()
	return func() {
		evaluationsTotal.WithLabelValues(objective).Inc()
		evaluationSeconds.WithLabelValues(objective).Observe(time.Since(start).Seconds())
	}
}
