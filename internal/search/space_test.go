package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionValidation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (Dimension, error)
		wantErr bool
	}{
		{
			name:  "valid real",
			build: func() (Dimension, error) { return Real("x", 0, 1) },
		},
		{
			name:    "inverted real bounds",
			build:   func() (Dimension, error) { return Real("x", 1, 0) },
			wantErr: true,
		},
		{
			name:    "equal bounds",
			build:   func() (Dimension, error) { return Real("x", 2, 2) },
			wantErr: true,
		},
		{
			name:  "valid log real",
			build: func() (Dimension, error) { return LogReal("lr", 1e-5, 1e-1) },
		},
		{
			name:    "log prior with zero low bound",
			build:   func() (Dimension, error) { return LogReal("lr", 0, 1) },
			wantErr: true,
		},
		{
			name:  "valid integer",
			build: func() (Dimension, error) { return Integer("depth", 1, 5) },
		},
		{
			name:    "inverted integer bounds",
			build:   func() (Dimension, error) { return Integer("depth", 5, 1) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSpaceTransformRoundTrip(t *testing.T) {
	depth, err := Integer("max_depth", 1, 5)
	require.NoError(t, err)
	lr, err := LogReal("learning_rate", 1e-5, 1e-1)
	require.NoError(t, err)
	sub, err := Real("subsample", 0.1, 1.0)
	require.NoError(t, err)

	space, err := New(depth, lr, sub)
	require.NoError(t, err)

	point := []float64{3, 0.01, 0.5}
	z := space.ToTransformed(point)
	back := space.FromTransformed(z)

	assert.InDelta(t, 3, back[0], 1e-12)
	assert.InDelta(t, 0.01, back[1], 1e-9)
	assert.InDelta(t, 0.5, back[2], 1e-12)

	// Log dimension should be searched on its log scale.
	bounds := space.Bounds()
	assert.InDelta(t, -5, bounds[1][0], 1e-12)
	assert.InDelta(t, -1, bounds[1][1], 1e-12)
}

func TestSpaceSampleWithinBounds(t *testing.T) {
	depth, _ := Integer("max_depth", 1, 5)
	lr, _ := LogReal("learning_rate", 1e-5, 1e-1)
	space, err := New(depth, lr)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(0))
	for i := 0; i < 200; i++ {
		p := space.Sample(rng)
		assert.True(t, space.Contains(p), "sampled point %v should be in bounds", p)
		assert.Equal(t, p[0], float64(int(p[0])), "integer dimension should be whole valued")
	}
}

func TestSpaceStartValidation(t *testing.T) {
	depth, _ := Integer("max_depth", 1, 5)
	lr, _ := LogReal("learning_rate", 1e-5, 1e-1)
	space, err := New(depth, lr)
	require.NoError(t, err)

	if _, err := space.WithStart([]float64{3}); err == nil {
		t.Fatal("expected error for wrong arity starting point")
	}
	if _, err := space.WithStart([]float64{3, 1.0}); err == nil {
		t.Fatal("expected error for out-of-bounds starting point")
	}

	withStart, err := space.WithStart([]float64{3, 0.01})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 0.01}, withStart.Start())
	assert.Nil(t, space.Start(), "original space should be unchanged")
}

func TestFromTransformedClips(t *testing.T) {
	d, _ := Real("x", 0, 1)
	space, err := New(d)
	require.NoError(t, err)

	assert.Equal(t, []float64{1}, space.FromTransformed([]float64{3}))
	assert.Equal(t, []float64{0}, space.FromTransformed([]float64{-2}))
}
