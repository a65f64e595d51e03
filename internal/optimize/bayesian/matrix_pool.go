package bayesian

import "gonum.org/v1/gonum/mat"

// matrixPool recycles the kernel matrix allocation across surrogate refits;
// it is rebuilt every iteration and dominates allocation churn.
type matrixPool struct {
	sym []*mat.SymDense
}

func newMatrixPool() *matrixPool {
	return &matrixPool{sym: make([]*mat.SymDense, 0, 10)}
}

func (p *matrixPool) getSym(n int) *mat.SymDense {
	for i := len(p.sym) - 1; i >= 0; i-- {
		if m := p.sym[i]; m.SymmetricDim() == n {
			p.sym = append(p.sym[:i], p.sym[i+1:]...)
			m.Zero()
			return m
		}
	}
	return mat.NewSymDense(n, nil)
}

func (p *matrixPool) putSym(m *mat.SymDense) {
	p.sym = append(p.sym, m)
}
