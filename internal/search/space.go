// Package search declares hyper-parameter search spaces: ordered dimensions
// with bounds and sampling priors, plus the transforms the minimizers operate in.
package search

import (
	"fmt"
	"math"
	"math/rand"
)

// Prior controls how a continuous dimension is sampled and scaled.
type Prior int

const (
	// Uniform samples linearly between the bounds.
	Uniform Prior = iota
	// LogUniform samples uniformly in log10 space. Requires positive bounds.
	LogUniform
)

// Dimension describes one axis of the search space. Low and High are
// inclusive. Integer dimensions are stored as float64 but rounded to the
// nearest whole value when a point is decoded.
type Dimension struct {
	Name    string
	Low     float64
	High    float64
	Integer bool
	Prior   Prior
}

// Real declares a continuous dimension with a uniform prior.
func Real(name string, low, high float64) (Dimension, error) {
	if low >= high {
		return Dimension{}, fmt.Errorf("dimension %q: low bound %v must be below high bound %v", name, low, high)
	}
	return Dimension{Name: name, Low: low, High: high}, nil
}

// LogReal declares a continuous dimension sampled uniformly in log10 space.
func LogReal(name string, low, high float64) (Dimension, error) {
	if low >= high {
		return Dimension{}, fmt.Errorf("dimension %q: low bound %v must be below high bound %v", name, low, high)
	}
	if low <= 0 {
		return Dimension{}, fmt.Errorf("dimension %q: log prior requires positive bounds, got low %v", name, low)
	}
	return Dimension{Name: name, Low: low, High: high, Prior: LogUniform}, nil
}

// Integer declares a whole-valued dimension with inclusive bounds.
func Integer(name string, low, high int) (Dimension, error) {
	if low >= high {
		return Dimension{}, fmt.Errorf("dimension %q: low bound %d must be below high bound %d", name, low, high)
	}
	return Dimension{Name: name, Low: float64(low), High: float64(high), Integer: true}, nil
}

// transform maps a value from the dimension's native scale to the scale the
// minimizers work in (log10 for LogUniform dimensions, identity otherwise).
func (d Dimension) transform(v float64) float64 {
	if d.Prior == LogUniform {
		return math.Log10(v)
	}
	return v
}

// inverse maps a transformed value back to the native scale, rounding and
// clipping so the result always lies within the declared bounds.
func (d Dimension) inverse(v float64) float64 {
	if d.Prior == LogUniform {
		v = math.Pow(10, v)
	}
	if d.Integer {
		v = math.Round(v)
	}
	return math.Max(d.Low, math.Min(v, d.High))
}

// contains reports whether v lies within the dimension's native bounds.
func (d Dimension) contains(v float64) bool {
	return v >= d.Low && v <= d.High
}

// Space is an ordered, immutable sequence of dimensions. The declaration
// order defines the positional mapping to objective arguments.
type Space struct {
	dims []Dimension
	x0   []float64
}

// New builds a space from the given dimensions.
func New(dims ...Dimension) (*Space, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("search space must declare at least one dimension")
	}
	s := &Space{dims: append([]Dimension(nil), dims...)}
	return s, nil
}

// WithStart returns a copy of the space carrying x0 as the suggested starting
// point. x0 must have one in-bounds value per dimension, in declared order.
func (s *Space) WithStart(x0 []float64) (*Space, error) {
	if len(x0) != len(s.dims) {
		return nil, fmt.Errorf("starting point has %d values, space has %d dimensions", len(x0), len(s.dims))
	}
	for i, v := range x0 {
		if !s.dims[i].contains(v) {
			return nil, fmt.Errorf("starting point value %v outside bounds of dimension %q", v, s.dims[i].Name)
		}
	}
	return &Space{dims: s.dims, x0: append([]float64(nil), x0...)}, nil
}

// Dims returns the number of dimensions.
func (s *Space) Dims() int { return len(s.dims) }

// Dimensions returns a copy of the declared dimensions.
func (s *Space) Dimensions() []Dimension {
	return append([]Dimension(nil), s.dims...)
}

// Start returns a copy of the starting point, or nil if none was declared.
func (s *Space) Start() []float64 {
	if s.x0 == nil {
		return nil
	}
	return append([]float64(nil), s.x0...)
}

// Bounds returns per-dimension [min, max] pairs in transformed coordinates.
// This is the box the minimizers search over.
func (s *Space) Bounds() [][2]float64 {
	bounds := make([][2]float64, len(s.dims))
	for i, d := range s.dims {
		bounds[i] = [2]float64{d.transform(d.Low), d.transform(d.High)}
	}
	return bounds
}

// ToTransformed maps a native point into minimizer coordinates.
func (s *Space) ToTransformed(point []float64) []float64 {
	out := make([]float64, len(point))
	for i, v := range point {
		out[i] = s.dims[i].transform(v)
	}
	return out
}

// FromTransformed maps minimizer coordinates back to a native point, rounding
// integer dimensions and clipping to bounds.
func (s *Space) FromTransformed(z []float64) []float64 {
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = s.dims[i].inverse(v)
	}
	return out
}

// Contains reports whether every component of point lies within its
// dimension's native bounds.
func (s *Space) Contains(point []float64) bool {
	if len(point) != len(s.dims) {
		return false
	}
	for i, v := range point {
		if !s.dims[i].contains(v) {
			return false
		}
	}
	return true
}

// Sample draws one random native point from the space's priors.
func (s *Space) Sample(rng *rand.Rand) []float64 {
	point := make([]float64, len(s.dims))
	for i, d := range s.dims {
		lo, hi := d.transform(d.Low), d.transform(d.High)
		point[i] = d.inverse(lo + rng.Float64()*(hi-lo))
	}
	return point
}
