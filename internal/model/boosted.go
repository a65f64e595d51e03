package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BoostedConfig holds the hyper-parameters of the gradient-boosted ensemble.
// The zero value is invalid; use Validate before building.
type BoostedConfig struct {
	// NEstimators is the number of boosting stages.
	NEstimators int
	// LearningRate shrinks the contribution of each stage.
	LearningRate float64
	// MaxDepth, MaxFeatures, MinSamplesSplit and MinSamplesLeaf configure the
	// per-stage trees. See TreeConfig.
	MaxDepth        int
	MaxFeatures     int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// Seed drives feature subsampling across all stages.
	Seed int64
}

// Validate checks the config against the ranges the ensemble accepts.
func (c BoostedConfig) Validate() error {
	if c.NEstimators < 1 {
		return fmt.Errorf("boosted: n estimators must be at least 1, got %d", c.NEstimators)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("boosted: learning rate must be positive, got %v", c.LearningRate)
	}
	return c.tree(0).Validate()
}

func (c BoostedConfig) tree(stage int) TreeConfig {
	return TreeConfig{
		MaxDepth:        c.MaxDepth,
		MaxFeatures:     c.MaxFeatures,
		MinSamplesSplit: c.MinSamplesSplit,
		MinSamplesLeaf:  c.MinSamplesLeaf,
		Seed:            c.Seed + int64(stage),
	}
}

// Boosted is a least-squares gradient-boosted ensemble of regression trees.
type Boosted struct {
	cfg   BoostedConfig
	base  float64
	trees []*Tree
}

// NewBoosted builds an unfitted ensemble from a validated config.
func NewBoosted(cfg BoostedConfig) (*Boosted, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Boosted{cfg: cfg}, nil
}

// Fit trains the ensemble stage by stage, each tree fitting the residuals of
// the model so far.
func (b *Boosted) Fit(X mat.Matrix, y []float64) error {
	n, _ := X.Dims()
	if n != len(y) {
		return fmt.Errorf("boosted: X has %d rows but y has %d values", n, len(y))
	}
	if n == 0 {
		return fmt.Errorf("boosted: empty training set")
	}

	b.base = mean(y)
	b.trees = make([]*Tree, 0, b.cfg.NEstimators)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = b.base
	}
	residual := make([]float64, n)

	for stage := 0; stage < b.cfg.NEstimators; stage++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		tree, err := NewTree(b.cfg.tree(stage))
		if err != nil {
			return err
		}
		if err := tree.Fit(X, residual); err != nil {
			return err
		}
		b.trees = append(b.trees, tree)

		row := make([]float64, xCols(X))
		for i := 0; i < n; i++ {
			mat.Row(row, i, X)
			pred[i] += b.cfg.LearningRate * tree.Predict(row)
		}
	}
	return nil
}

// Predict returns the ensemble prediction for one sample.
func (b *Boosted) Predict(x []float64) float64 {
	out := b.base
	for _, tree := range b.trees {
		out += b.cfg.LearningRate * tree.Predict(x)
	}
	return out
}

func xCols(X mat.Matrix) int {
	_, d := X.Dims()
	return d
}

func mean(y []float64) float64 {
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}
