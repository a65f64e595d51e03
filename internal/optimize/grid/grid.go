// Package grid implements the exhaustive baseline the model-based minimizer
// is compared against: a Cartesian product of evenly spaced levels per
// dimension, walked in declaration order.
package grid

import (
	"context"
	"sync"

	opt "github.com/copyleftdev/SMBO/internal/optimize"
	"github.com/copyleftdev/SMBO/internal/search"
)

// DefaultLevels is the number of levels used for a dimension when no explicit
// count is given and the dimension is not a small integer range.
const DefaultLevels = 5

// Minimizer evaluates the grid in order, stopping at Config.MaxEvals when the
// full product is larger than the call budget.
type Minimizer struct {
	config opt.Config
	// levels per dimension; zero entries fall back to the defaults.
	levels []int

	// mu guards best and history against concurrent status polls.
	mu      sync.RWMutex
	best    *opt.Solution
	history []opt.Evaluation

	cancel context.CancelFunc
}

// New creates a grid minimizer. levels may be nil, in which case integer
// dimensions whose range is small are enumerated fully and everything else
// gets DefaultLevels evenly spaced values.
func New(config opt.Config, levels []int) (*Minimizer, error) {
	if config.Space == nil {
		return nil, opt.NewError("search space is required").WithComponent("grid")
	}
	if levels != nil && len(levels) != config.Space.Dims() {
		return nil, opt.NewErrorf("got %d level counts for %d dimensions", len(levels), config.Space.Dims()).WithComponent("grid")
	}
	return &Minimizer{config: config, levels: levels}, nil
}

// Levels returns the effective per-dimension level counts.
func (m *Minimizer) Levels() []int {
	dims := m.config.Space.Dimensions()
	out := make([]int, len(dims))
	for i, d := range dims {
		if m.levels != nil && m.levels[i] > 0 {
			out[i] = m.levels[i]
			continue
		}
		if d.Integer {
			span := int(d.High-d.Low) + 1
			if span <= DefaultLevels*2 {
				out[i] = span
				continue
			}
		}
		out[i] = DefaultLevels
	}
	return out
}

// Minimize walks the grid until it is exhausted or MaxEvals calls were made.
func (m *Minimizer) Minimize(ctx context.Context, config opt.Config) (*opt.Run, error) {
	if config.Objective != nil {
		m.config = config
	}

	ctx, m.cancel = context.WithCancel(ctx)
	defer m.cancel()

	levels := m.Levels()
	bounds := m.config.Space.Bounds()
	counters := make([]int, len(levels))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m.config.MaxEvals > 0 && len(m.history) >= m.config.MaxEvals {
			break
		}

		z := make([]float64, len(levels))
		for i := range z {
			lo, hi := bounds[i][0], bounds[i][1]
			if levels[i] == 1 {
				z[i] = lo
			} else {
				z[i] = lo + float64(counters[i])*(hi-lo)/float64(levels[i]-1)
			}
		}

		point := m.config.Space.FromTransformed(z)
		score, err := m.config.Objective(point)
		if err != nil {
			return nil, opt.WrapError(err, "objective evaluation failed").WithComponent("grid")
		}

		solution := &opt.Solution{Point: point, Score: score}
		m.mu.Lock()
		if m.best == nil || score < m.best.Score {
			m.best = &opt.Solution{Point: append([]float64(nil), point...), Score: score}
		}
		m.history = append(m.history, opt.Evaluation{Call: len(m.history), Solution: solution})
		m.mu.Unlock()

		if !advance(counters, levels) {
			break
		}
	}

	return &opt.Run{
		Label:   "grid",
		Best:    m.best,
		History: m.history,
		Calls:   len(m.history),
	}, nil
}

// BestSolution returns the best solution found so far.
func (m *Minimizer) BestSolution() *opt.Solution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.best
}

// History returns a copy of the evaluations made so far.
func (m *Minimizer) History() []opt.Evaluation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]opt.Evaluation(nil), m.history...)
}

// Stop cancels an in-flight Minimize.
func (m *Minimizer) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// advance increments the mixed-radix counter; false means the product is
// exhausted.
func advance(counters, levels []int) bool {
	for i := len(counters) - 1; i >= 0; i-- {
		counters[i]++
		if counters[i] < levels[i] {
			return true
		}
		counters[i] = 0
	}
	return false
}

// Size returns the total number of points in the full grid over space with
// the given level counts.
func Size(space *search.Space, levels []int) int {
	total := 1
	for i := 0; i < space.Dims(); i++ {
		total *= levels[i]
	}
	return total
}
