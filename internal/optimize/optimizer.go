// Package optimize defines the contract between objectives and the black-box
// minimizers. A minimizer repeatedly calls the objective with candidate
// points drawn from a search space and returns the best solution together
// with the full call history.
package optimize

import (
	"context"

	"github.com/copyleftdev/SMBO/internal/search"
)

// Objective maps one candidate point (native scale, one value per dimension,
// in declared order) to the scalar score being minimized. An error aborts the
// whole run; no retries happen at this layer.
type Objective func(point []float64) (float64, error)

// Minimizer is the interface every optimization strategy implements.
type Minimizer interface {
	// Minimize runs the optimization to completion or context cancellation.
	Minimize(ctx context.Context, config Config) (*Run, error)

	// BestSolution returns the best solution found so far.
	BestSolution() *Solution

	// History returns the evaluations made so far, in call order.
	History() []Evaluation

	// Stop cancels an in-flight Minimize.
	Stop()
}

// Config describes one optimization run.
type Config struct {
	// Objective is the function to minimize.
	Objective Objective

	// Space declares the dimensions being searched. Its optional starting
	// point, when present, is evaluated among the initial samples.
	Space *search.Space

	// MaxEvals is the total number of objective calls, initial samples
	// included.
	MaxEvals int

	// NInitialPoints is the number of random samples evaluated before the
	// model-guided phase begins.
	NInitialPoints int

	// Seed fixes the run's random draws for reproducibility.
	Seed int64
}

// Solution is one evaluated point with its score.
type Solution struct {
	Point []float64
	Score float64
}

// Evaluation records one objective call.
type Evaluation struct {
	Call     int
	Solution *Solution
}

// Run is the outcome of one optimization: label, final best, and the ordered
// per-call history used for convergence comparison.
type Run struct {
	Label   string
	Best    *Solution
	History []Evaluation
	Calls   int
}

// BestSoFar returns the monotone non-increasing best-score-so-far sequence,
// one entry per objective call.
func (r *Run) BestSoFar() []float64 {
	out := make([]float64, len(r.History))
	for i, eval := range r.History {
		s := eval.Solution.Score
		if i > 0 && out[i-1] < s {
			s = out[i-1]
		}
		out[i] = s
	}
	return out
}
