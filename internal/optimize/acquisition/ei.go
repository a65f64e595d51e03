// Package acquisition implements acquisition functions that trade off
// exploring uncertain regions against exploiting promising ones.
package acquisition

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// ExpectedImprovement scores candidate points by the expected amount a new
// evaluation improves on the best score observed so far. Scores are always
// non-negative; larger is more promising.
type ExpectedImprovement struct {
	// Best score observed so far (minimization: lower is better).
	bestObserved float64
	// Exploration margin: how much improvement over the best we ask for.
	xi float64
}

// NewExpectedImprovement creates an EI function for minimization. Seed
// bestObserved with +Inf before any observation exists.
func NewExpectedImprovement(bestObserved, xi float64) *ExpectedImprovement {
	return &ExpectedImprovement{bestObserved: bestObserved, xi: xi}
}

// Compute evaluates EI given the surrogate's mean and standard deviation at a
// candidate point.
//
//	EI = improvement*Phi(z) + sigma*phi(z),  z = improvement/sigma
//
// where improvement = bestObserved - mu - xi.
func (ei *ExpectedImprovement) Compute(mu, sigma float64) float64 {
	improvement := ei.bestObserved - mu - ei.xi
	if improvement <= 0 {
		return 0
	}
	// A near-zero sigma means the surrogate is certain; the improvement
	// itself is the expectation.
	if sigma <= 1e-10 {
		return improvement
	}

	z := improvement / sigma
	stdNormal := distuv.UnitNormal
	return improvement*stdNormal.CDF(z) + sigma*stdNormal.Prob(z)
}

// Gradient computes the EI derivative given the derivatives of mu and sigma
// with respect to one parameter.
func (ei *ExpectedImprovement) Gradient(mu, dmu, sigma, dsigma float64) float64 {
	if sigma <= 1e-10 {
		// EI is linear in mu when there is no uncertainty.
		return -dmu
	}

	improvement := ei.bestObserved - mu - ei.xi
	if improvement <= 0 {
		return 0
	}

	z := improvement / sigma
	stdNormal := distuv.UnitNormal
	return -stdNormal.CDF(z)*dmu + stdNormal.Prob(z)*dsigma
}

// UpdateBest replaces the best observed score.
func (ei *ExpectedImprovement) UpdateBest(best float64) {
	ei.bestObserved = best
}

// SetXi replaces the exploration margin.
func (ei *ExpectedImprovement) SetXi(xi float64) {
	ei.xi = xi
}

// BestObserved returns the best observed score.
func (ei *ExpectedImprovement) BestObserved() float64 {
	return ei.bestObserved
}
