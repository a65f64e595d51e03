package bayesian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SMBO/internal/optimize/kernels"
)

func TestMatrixPoolRecyclesSameSize(t *testing.T) {
	p := newMatrixPool()

	first := p.getSym(4)
	first.SetSym(0, 0, 42)
	p.putSym(first)

	second := p.getSym(4)
	assert.Same(t, first, second, "a returned matrix of the right size is reused")
	assert.Equal(t, 0.0, second.At(0, 0), "recycled matrices come back zeroed")
}

func TestMatrixPoolSizeMismatchAllocates(t *testing.T) {
	p := newMatrixPool()

	p.putSym(mat.NewSymDense(3, nil))
	m := p.getSym(5)
	assert.Equal(t, 5, m.SymmetricDim())
}

func TestFitReturnsKernelMatrixToPool(t *testing.T) {
	gp := NewGP(kernels.NewRBF(1.0, 1.0), 1e-6, nil)

	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewVecDense(3, []float64{0.5, 1.0, 1.5})

	assert.NoError(t, gp.Fit(X, y))
	assert.Len(t, gp.pool.sym, 1, "the kernel matrix goes back to the pool after fitting")

	// A refit at the same size reuses it rather than growing the pool.
	assert.NoError(t, gp.Fit(X, y))
	assert.Len(t, gp.pool.sym, 1)
}
