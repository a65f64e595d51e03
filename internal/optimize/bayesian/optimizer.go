// Package bayesian implements the sequential model-based minimizer: a
// Gaussian Process surrogate over the transformed search space, an Expected
// Improvement acquisition function, and multi-start Nelder-Mead to pick each
// next candidate.
package bayesian

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	opt "github.com/copyleftdev/SMBO/internal/optimize"
	"github.com/copyleftdev/SMBO/internal/optimize/acquisition"
	"github.com/copyleftdev/SMBO/internal/optimize/kernels"
)

// Minimizer runs sequential model-based optimization. A run evaluates the
// objective one candidate at a time; BestSolution and History may be polled
// from other goroutines while it is in flight.
type Minimizer struct {
	config opt.Config

	gp          *GP
	acquisition *acquisition.ExpectedImprovement
	rng         *rand.Rand

	// mu guards best and history against concurrent status polls.
	mu      sync.RWMutex
	best    *opt.Solution
	history []opt.Evaluation
	// Observed points in transformed coordinates, parallel to history.
	observed [][]float64

	cancel context.CancelFunc
	logger *zap.Logger
}

// normalizeConfig fills defaults and keeps the initial sampling inside the
// call budget. MaxEvals is the total budget and always wins.
func normalizeConfig(config opt.Config) opt.Config {
	if config.NInitialPoints < 1 {
		config.NInitialPoints = 10
	}
	if config.MaxEvals < 1 {
		config.MaxEvals = config.NInitialPoints + 50
	}
	if config.NInitialPoints > config.MaxEvals {
		config.NInitialPoints = config.MaxEvals
	}
	return config
}

// New creates a Bayesian minimizer for the given run config. The logger may
// be nil. Seed is taken as-is: the same seed, zero included, reproduces the
// same run.
func New(config opt.Config, logger *zap.Logger) (*Minimizer, error) {
	if config.Space == nil {
		return nil, opt.NewError("search space is required").WithComponent("bayesian")
	}
	config = normalizeConfig(config)

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Minimizer{
		config:      config,
		gp:          NewGP(kernels.NewMatern52(1.0, 1.0), 1e-6, logger),
		acquisition: acquisition.NewExpectedImprovement(math.Inf(1), 0.01),
		rng:         rand.New(rand.NewSource(config.Seed)),
		history:     make([]opt.Evaluation, 0, config.MaxEvals),
		observed:    make([][]float64, 0, config.MaxEvals),
		logger:      logger.Named("bayesian"),
	}, nil
}

// Minimize runs the optimization: initial sampling (the space's starting
// point first when declared, Latin Hypercube for the rest), then the
// model-guided loop until MaxEvals objective calls have been made.
func (m *Minimizer) Minimize(ctx context.Context, config opt.Config) (*opt.Run, error) {
	if config.Objective != nil {
		if config.Space == nil {
			config.Space = m.config.Space
		}
		m.config = normalizeConfig(config)
	}

	ctx, m.cancel = context.WithCancel(ctx)
	defer m.cancel()

	initial := m.initialPoints()
	for _, z := range initial {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.evaluate(z); err != nil {
			return nil, err
		}
	}

	for len(m.history) < m.config.MaxEvals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		X, y := m.trainingData()
		if err := m.gp.Fit(X, y); err != nil {
			return nil, opt.WrapError(err, "fitting surrogate").WithComponent("bayesian")
		}

		m.acquisition.UpdateBest(m.best.Score)

		next, err := m.nextCandidate()
		if err != nil {
			return nil, opt.WrapError(err, "selecting next candidate").WithComponent("bayesian")
		}
		if err := m.evaluate(next); err != nil {
			return nil, err
		}

		m.logger.Debug("evaluated candidate",
			zap.Int("call", len(m.history)),
			zap.Float64("best_score", m.best.Score),
		)
	}

	return &opt.Run{
		Label:   "bayesian",
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

// evaluate calls the objective at a transformed point and records the result
// in native coordinates.
func (m *Minimizer) evaluate(z []float64) error {
	point := m.config.Space.FromTransformed(z)
	score, err := m.config.Objective(point)
	if err != nil {
		return opt.WrapError(err, "objective evaluation failed").WithComponent("bayesian")
	}

	solution := &opt.Solution{Point: point, Score: score}

	m.mu.Lock()
	if m.best == nil || score < m.best.Score {
		m.best = &opt.Solution{Point: append([]float64(nil), point...), Score: score}
	}
	m.history = append(m.history, opt.Evaluation{Call: len(m.history), Solution: solution})
	m.mu.Unlock()

	// Round-trip through the native scale so integer rounding is reflected
	// in what the surrogate sees.
	m.observed = append(m.observed, m.config.Space.ToTransformed(point))
	return nil
}

// initialPoints returns the transformed points for the initial sampling
// phase: the declared starting point first, Latin Hypercube samples after.
func (m *Minimizer) initialPoints() [][]float64 {
	n := m.config.NInitialPoints
	var points [][]float64

	if x0 := m.config.Space.Start(); x0 != nil {
		points = append(points, m.config.Space.ToTransformed(x0))
		n--
	}
	if n > 0 {
		points = append(points, m.latinHypercube(n)...)
	}
	return points
}

// latinHypercube draws n stratified samples over the transformed bounds.
func (m *Minimizer) latinHypercube(n int) [][]float64 {
	bounds := m.config.Space.Bounds()
	nDims := len(bounds)
	samples := make([][]float64, n)
	for j := range samples {
		samples[j] = make([]float64, nDims)
	}

	column := make([]float64, n)
	for i := 0; i < nDims; i++ {
		for j := 0; j < n; j++ {
			column[j] = (float64(j) + m.rng.Float64()) / float64(n)
		}
		m.rng.Shuffle(n, func(k, l int) {
			column[k], column[l] = column[l], column[k]
		})

		lo, hi := bounds[i][0], bounds[i][1]
		for j := 0; j < n; j++ {
			samples[j][i] = lo + column[j]*(hi-lo)
		}
	}
	return samples
}

// trainingData packs the observations into matrices for the surrogate.
func (m *Minimizer) trainingData() (*mat.Dense, *mat.VecDense) {
	n := len(m.observed)
	d := m.config.Space.Dims()

	X := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i, z := range m.observed {
		X.SetRow(i, z)
		y.SetVec(i, m.history[i].Solution.Score)
	}
	return X, y
}

// nextCandidate maximizes the acquisition function over the transformed
// bounds with multi-start Nelder-Mead, starting from the incumbent best and
// random points.
func (m *Minimizer) nextCandidate() ([]float64, error) {
	bounds := m.config.Space.Bounds()
	nDims := len(bounds)

	clip := func(x []float64) {
		for i := range x {
			x[i] = math.Max(bounds[i][0], math.Min(x[i], bounds[i][1]))
		}
	}

	// Negated EI: gonum minimizes.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clip(x)
			X := mat.NewDense(1, nDims, x)
			mu, sigmaSq, err := m.gp.Predict(X)
			if err != nil {
				return math.Inf(1)
			}
			return -m.acquisition.Compute(mu.AtVec(0), math.Sqrt(sigmaSq.AtVec(0)))
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Relative:   1e-6,
			Iterations: 100,
		},
	}

	nStarts := 5 + int(5*math.Sqrt(float64(nDims)))
	starts := make([][]float64, nStarts)
	if m.best != nil {
		starts[0] = m.config.Space.ToTransformed(m.best.Point)
	}
	for i := range starts {
		if starts[i] == nil {
			starts[i] = make([]float64, nDims)
			for j := range starts[i] {
				lo, hi := bounds[j][0], bounds[j][1]
				starts[i][j] = lo + m.rng.Float64()*(hi-lo)
			}
		}
	}

	bestX := append([]float64(nil), starts[0]...)
	bestVal := math.Inf(1)
	for _, start := range starts {
		result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
		if err != nil || result == nil {
			continue
		}
		if result.F < bestVal {
			bestVal = result.F
			copy(bestX, result.X)
		}
	}

	clip(bestX)
	return bestX, nil
}
