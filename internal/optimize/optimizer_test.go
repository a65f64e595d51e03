package optimize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func run(scores ...float64) *Run {
	r := &Run{Label: "test", Calls: len(scores)}
	for i, s := range scores {
		r.History = append(r.History, Evaluation{Call: i, Solution: &Solution{Score: s}})
	}
	return r
}

func TestBestSoFarMonotone(t *testing.T) {
	r := run(5, 3, 4, 2, 6, 2, 1)
	got := r.BestSoFar()

	assert.Equal(t, []float64{5, 3, 3, 2, 2, 2, 1}, got)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i], got[i-1])
	}
}

func TestBestSoFarEmptyHistory(t *testing.T) {
	assert.Empty(t, (&Run{}).BestSoFar())
}

func TestErrorFormatting(t *testing.T) {
	e := NewError("fit failed").WithComponent("gaussian_process").WithOperation("Fit")
	assert.Equal(t, "gaussian_process: Fit: fit failed", e.Error())

	inner := errors.New("singular matrix")
	wrapped := WrapError(inner, "solve failed").WithComponent("gaussian_process")
	assert.Contains(t, wrapped.Error(), "singular matrix")
	assert.ErrorIs(t, wrapped, inner)

	assert.Nil(t, WrapError(nil, "nothing"))
}

func TestIsOptimizationError(t *testing.T) {
	e, ok := IsOptimizationError(NewErrorf("bad seed %d", 7))
	assert.True(t, ok)
	assert.Equal(t, "bad seed 7", e.Message)

	_, ok = IsOptimizationError(errors.New("plain"))
	assert.False(t, ok)

	_, ok = IsOptimizationError(nil)
	assert.False(t, ok)
}
