package bayesian

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SMBO/internal/optimize"
	"github.com/copyleftdev/SMBO/internal/optimize/kernels"
)

// GP is the Gaussian Process surrogate the optimizer fits to the evaluations
// made so far. All coordinates are in the transformed search space.
type GP struct {
	kernel   kernels.Kernel
	noiseVar float64

	// Training data.
	X *mat.Dense
	y *mat.VecDense

	// Precomputed solve of K*alpha = y and the Cholesky factor used for
	// predictive variances.
	alpha *mat.VecDense
	chol  *mat.Cholesky

	pool   *matrixPool
	logger *zap.Logger
}

// NewGP creates an unfitted surrogate. The logger may be nil.
func NewGP(kernel kernels.Kernel, noiseVar float64, logger *zap.Logger) *GP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GP{
		kernel:   kernel,
		noiseVar: noiseVar,
		pool:     newMatrixPool(),
		logger:   logger.Named("gaussian_process"),
	}
}

// Fit conditions the surrogate on the observed points and scores.
func (gp *GP) Fit(X *mat.Dense, y *mat.VecDense) error {
	const op = "GP.Fit"

	if X == nil || y == nil {
		return optimize.WrapError(errors.New("input matrices must not be nil"), "gaussian_process: "+op)
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return optimize.WrapError(errors.New("input matrix X must not be empty"), "gaussian_process: "+op)
	}
	if nSamples != y.Len() {
		err := fmt.Errorf("dimension mismatch: X has %d samples but y has length %d", nSamples, y.Len())
		return optimize.WrapError(err, "gaussian_process: "+op)
	}

	gp.logger.Debug("fitting surrogate",
		zap.Int("samples", nSamples),
		zap.Int("features", nFeatures),
		zap.Float64("noise_var", gp.noiseVar),
	)

	gp.X = mat.DenseCopyOf(X)
	gp.y = mat.VecDenseCopyOf(y)

	K := gp.kernelMatrix(X, nSamples)

	alpha, chol, err := gp.solve(K, y, nSamples)
	// The factorization copies K, so it can go back to the pool either way.
	gp.pool.putSym(K)
	if err != nil {
		return optimize.WrapError(err, "gaussian_process: "+op)
	}
	gp.alpha = alpha
	gp.chol = chol
	return nil
}

// kernelMatrix builds the noisy training covariance K + (noise)I.
func (gp *GP) kernelMatrix(X *mat.Dense, nSamples int) *mat.SymDense {
	K := gp.pool.getSym(nSamples)
	for i := 0; i < nSamples; i++ {
		xi := mat.Row(nil, i, X)
		K.SetSym(i, i, gp.kernel.Eval(xi, xi)+gp.noiseVar)
		for j := i + 1; j < nSamples; j++ {
			xj := mat.Row(nil, j, X)
			K.SetSym(i, j, gp.kernel.Eval(xi, xj))
		}
	}
	return K
}

// solve factors K and solves K*alpha = y, escalating diagonal jitter when the
// factorization fails and falling back to an SVD pseudo-inverse as the last
// resort.
func (gp *GP) solve(K *mat.SymDense, y *mat.VecDense, nSamples int) (*mat.VecDense, *mat.Cholesky, error) {
	const maxAttempts = 10

	jitter := 1e-12
	for attempt := 0; attempt < maxAttempts; attempt++ {
		Kj := mat.NewSymDense(nSamples, nil)
		Kj.CopySym(K)
		for i := 0; i < nSamples; i++ {
			Kj.SetSym(i, i, Kj.At(i, i)+jitter)
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(Kj); !ok {
			gp.logger.Debug("cholesky factorization failed, increasing jitter",
				zap.Int("attempt", attempt+1),
				zap.Float64("jitter", jitter),
			)
			jitter *= 10
			continue
		}

		alpha := mat.NewVecDense(nSamples, nil)
		if err := chol.SolveVecTo(alpha, y); err != nil {
			jitter *= 10
			continue
		}
		return alpha, &chol, nil
	}

	gp.logger.Debug("cholesky attempts exhausted, falling back to SVD")
	alpha, err := gp.solveWithSVD(K, y, nSamples)
	if err != nil {
		return nil, nil, err
	}
	return alpha, nil, nil
}

// solveWithSVD solves K*alpha = y through a thresholded pseudo-inverse.
func (gp *GP) solveWithSVD(K *mat.SymDense, y *mat.VecDense, nSamples int) (*mat.VecDense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(K, mat.SVDFull); !ok {
		return nil, errors.New("SVD factorization failed")
	}

	s := svd.Values(nil)
	if len(s) == 0 {
		return nil, errors.New("SVD returned no singular values")
	}

	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)

	var UTy mat.VecDense
	UTy.MulVec(U.T(), y)

	threshold := math.Max(float64(nSamples), 1) * s[0] * 1e-15
	scaled := mat.NewVecDense(nSamples, nil)
	rank := 0
	for i := 0; i < nSamples; i++ {
		if i < len(s) && s[i] > threshold {
			scaled.SetVec(i, UTy.AtVec(i)/s[i])
			rank++
		}
	}
	if rank == 0 {
		return nil, errors.New("matrix is effectively rank zero after thresholding")
	}

	gp.logger.Info("solved system with SVD",
		zap.Int("effective_rank", rank),
		zap.Float64("condition_number", s[0]/math.Max(s[len(s)-1], 1e-16)),
	)

	alpha := mat.NewVecDense(nSamples, nil)
	alpha.MulVec(&V, scaled)
	return alpha, nil
}

// Predict returns the posterior mean and variance at the given test points.
func (gp *GP) Predict(X *mat.Dense) (*mat.VecDense, *mat.VecDense, error) {
	const op = "GP.Predict"

	if X == nil {
		return nil, nil, optimize.WrapError(errors.New("input matrix X is nil"), "gaussian_process: "+op)
	}
	if gp.X == nil || gp.alpha == nil {
		return nil, nil, optimize.WrapError(errors.New("model not trained or no training data"), "gaussian_process: "+op)
	}

	nTest, _ := X.Dims()
	nTrain, _ := gp.X.Dims()

	mean := mat.NewVecDense(nTest, nil)
	variance := mat.NewVecDense(nTest, nil)

	Kss := make([]float64, nTest)
	Kstar := mat.NewDense(nTest, nTrain, nil)
	for i := 0; i < nTest; i++ {
		xs := X.RawRowView(i)
		Kss[i] = gp.kernel.Eval(xs, xs) + gp.noiseVar
		for j := 0; j < nTrain; j++ {
			Kstar.Set(i, j, gp.kernel.Eval(xs, gp.X.RawRowView(j)))
		}
	}

	mean.MulVec(Kstar, gp.alpha)

	// variance = diag(K** - K* K^-1 K*^T), computed through the Cholesky
	// factor when one is available. Without it (SVD fallback) the prior
	// variance stands in.
	if gp.chol != nil {
		v := mat.NewDense(nTrain, nTest, nil)
		if err := v.Solve(gp.chol, Kstar.T()); err != nil {
			return nil, nil, optimize.WrapError(
				fmt.Errorf("failed to solve linear system: %w", err),
				"gaussian_process: "+op,
			)
		}
		for i := 0; i < nTest; i++ {
			var sum float64
			for j := 0; j < nTrain; j++ {
				val := v.At(j, i)
				sum += val * val
			}
			variance.SetVec(i, math.Max(0, Kss[i]-sum))
		}
	} else {
		for i := 0; i < nTest; i++ {
			variance.SetVec(i, Kss[i])
		}
	}

	return mean, variance, nil
}
