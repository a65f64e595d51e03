package model

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SelectorConfig configures univariate feature selection.
type SelectorConfig struct {
	// K is the number of features to keep.
	K int
}

// Validate checks the config.
func (c SelectorConfig) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("selector: k must be at least 1, got %d", c.K)
	}
	return nil
}

// Selector keeps the K features with the highest univariate F-score against
// the target, mirroring f_regression-style screening.
type Selector struct {
	cfg  SelectorConfig
	keep []int
}

// NewSelector builds an unfitted selector from a validated config.
func NewSelector(cfg SelectorConfig) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Selector{cfg: cfg}, nil
}

// Fit ranks every feature by its F-score and records the top K indices. It
// fails if K exceeds the feature count.
func (s *Selector) Fit(X mat.Matrix, y []float64) error {
	n, d := X.Dims()
	if n != len(y) {
		return fmt.Errorf("selector: X has %d rows but y has %d values", n, len(y))
	}
	if s.cfg.K > d {
		return fmt.Errorf("selector: k %d exceeds feature count %d", s.cfg.K, d)
	}
	if n < 3 {
		return fmt.Errorf("selector: need at least 3 samples to score features, got %d", n)
	}

	type ranked struct {
		feature int
		score   float64
	}
	scores := make([]ranked, d)

	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, X)
		r := stat.Correlation(col, y, nil)
		r2 := r * r
		// F-statistic of the single-feature regression.
		f := r2 / (1 - r2) * float64(n-2)
		scores[j] = ranked{feature: j, score: f}
	}

	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })

	keep := make([]int, s.cfg.K)
	for i := range keep {
		keep[i] = scores[i].feature
	}
	sort.Ints(keep)
	s.keep = keep
	return nil
}

// Selected returns the indices of the kept features, in ascending order.
func (s *Selector) Selected() []int {
	return append([]int(nil), s.keep...)
}

// Transform projects one sample onto the kept features.
func (s *Selector) Transform(x []float64) []float64 {
	out := make([]float64, len(s.keep))
	for i, j := range s.keep {
		out[i] = x[j]
	}
	return out
}

// TransformMatrix projects a whole matrix onto the kept features.
func (s *Selector) TransformMatrix(X mat.Matrix) *mat.Dense {
	n, _ := X.Dims()
	out := mat.NewDense(n, len(s.keep), nil)
	for i := 0; i < n; i++ {
		for k, j := range s.keep {
			out.Set(i, k, X.At(i, j))
		}
	}
	return out
}

// PipelineConfig chains feature selection into the boosted ensemble. The
// caller is responsible for keeping Boosted.MaxFeatures within Selector.K;
// the objective layer clamps it before construction.
type PipelineConfig struct {
	Selector SelectorConfig
	Boosted  BoostedConfig
}

// Validate checks both stages.
func (c PipelineConfig) Validate() error {
	if err := c.Selector.Validate(); err != nil {
		return err
	}
	return c.Boosted.Validate()
}

// Pipeline runs the selector then the ensemble on the reduced features.
type Pipeline struct {
	selector *Selector
	boosted  *Boosted
}

// NewPipeline builds an unfitted pipeline from a validated config.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	selector, err := NewSelector(cfg.Selector)
	if err != nil {
		return nil, err
	}
	boosted, err := NewBoosted(cfg.Boosted)
	if err != nil {
		return nil, err
	}
	return &Pipeline{selector: selector, boosted: boosted}, nil
}

// Fit fits the selector, reduces the matrix, and fits the ensemble on it.
func (p *Pipeline) Fit(X mat.Matrix, y []float64) error {
	if err := p.selector.Fit(X, y); err != nil {
		return err
	}
	return p.boosted.Fit(p.selector.TransformMatrix(X), y)
}

// Predict projects the sample then delegates to the ensemble.
func (p *Pipeline) Predict(x []float64) float64 {
	return p.boosted.Predict(p.selector.Transform(x))
}
