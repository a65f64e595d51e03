// Package validate estimates out-of-sample error via k-fold cross-validation.
// Fold assignment is deterministic given (K, Seed), so the same model config
// scored twice yields the same number.
package validate

import (
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SMBO/internal/model"
)

// Builder constructs a fresh, unfitted model for one fold. Each fold gets its
// own model so folds can be fitted in parallel.
type Builder func() (model.Regressor, error)

// KFold describes a cross-validation protocol.
type KFold struct {
	// K is the number of folds.
	K int
	// Seed drives the shuffled fold assignment.
	Seed int64
}

// Validate checks the protocol parameters.
func (kf KFold) Validate() error {
	if kf.K < 2 {
		return fmt.Errorf("kfold: need at least 2 folds, got %d", kf.K)
	}
	return nil
}

// folds returns the shuffled sample indices split into K contiguous folds.
func (kf KFold) folds(n int) [][]int {
	idx := rand.New(rand.NewSource(kf.Seed)).Perm(n)
	out := make([][]int, kf.K)
	for i, j := range idx {
		f := i % kf.K
		out[f] = append(out[f], j)
	}
	return out
}

// MAE scores one fitted model on held-out samples by mean absolute error.
func MAE(m model.Regressor, X mat.Matrix, y []float64, idx []int) float64 {
	_, d := X.Dims()
	row := make([]float64, d)
	total := 0.0
	for _, i := range idx {
		mat.Row(row, i, X)
		total += math.Abs(m.Predict(row) - y[i])
	}
	return total / float64(len(idx))
}

// CrossValMAE fits one fresh model per fold on the remaining samples and
// returns the mean held-out MAE across folds. Folds run in parallel.
func (kf KFold) CrossValMAE(build Builder, X mat.Matrix, y []float64) (float64, error) {
	if err := kf.Validate(); err != nil {
		return 0, err
	}
	n, _ := X.Dims()
	if n < kf.K {
		return 0, fmt.Errorf("kfold: %d samples cannot fill %d folds", n, kf.K)
	}

	folds := kf.folds(n)
	scores := make([]float64, kf.K)

	var g errgroup.Group
	for f := range folds {
		f := f
		g.Go(func() error {
			test := folds[f]
			train := make([]int, 0, n-len(test))
			for other, fold := range folds {
				if other != f {
					train = append(train, fold...)
				}
			}

			m, err := build()
			if err != nil {
				return err
			}
			if err := m.Fit(rowSubset(X, train), subset(y, train)); err != nil {
				return err
			}
			scores[f] = MAE(m, X, y, test)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(kf.K), nil
}

func rowSubset(X mat.Matrix, idx []int) *mat.Dense {
	_, d := X.Dims()
	out := mat.NewDense(len(idx), d, nil)
	row := make([]float64, d)
	for i, j := range idx {
		mat.Row(row, j, X)
		out.SetRow(i, row)
	}
	return out
}

func subset(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
