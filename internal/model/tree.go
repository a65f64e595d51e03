// Package model implements the predictive models the tuning harness
// configures: a CART-style regression tree, a least-squares gradient-boosted
// ensemble of such trees, a univariate feature selector, and a two-stage
// pipeline combining the last two. Every model is built from an immutable
// config value validated at construction; nothing mutates a model's
// configuration after NewX returns.
package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Regressor is the surface the cross-validation layer trains and scores.
type Regressor interface {
	Fit(X mat.Matrix, y []float64) error
	Predict(x []float64) float64
}

// TreeConfig holds the hyper-parameters of a single regression tree.
type TreeConfig struct {
	// MaxDepth limits the depth of the tree. Depth 1 is a stump.
	MaxDepth int
	// MaxFeatures is the number of features considered per split. Zero means
	// all features.
	MaxFeatures int
	// MinSamplesSplit is the minimum number of samples a node needs to be
	// considered for splitting.
	MinSamplesSplit int
	// MinSamplesLeaf is the minimum number of samples either child of a
	// split must retain.
	MinSamplesLeaf int
	// Seed drives the per-split feature subsampling.
	Seed int64
}

// Validate checks the config against the ranges the tree accepts.
func (c TreeConfig) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("tree: max depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MaxFeatures < 0 {
		return fmt.Errorf("tree: max features must not be negative, got %d", c.MaxFeatures)
	}
	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("tree: min samples split must be at least 2, got %d", c.MinSamplesSplit)
	}
	if c.MinSamplesLeaf < 1 {
		return fmt.Errorf("tree: min samples leaf must be at least 1, got %d", c.MinSamplesLeaf)
	}
	return nil
}

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) leaf() bool { return n.left == nil }

// Tree is a binary regression tree grown by variance reduction.
type Tree struct {
	cfg  TreeConfig
	rng  *rand.Rand
	root *treeNode
}

// NewTree builds an unfitted tree from a validated config.
func NewTree(cfg TreeConfig) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tree{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}, nil
}

// Fit grows the tree on the given samples. It fails if MaxFeatures exceeds
// the number of available features.
func (t *Tree) Fit(X mat.Matrix, y []float64) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return fmt.Errorf("tree: empty training matrix")
	}
	if n != len(y) {
		return fmt.Errorf("tree: X has %d rows but y has %d values", n, len(y))
	}
	if t.cfg.MaxFeatures > d {
		return fmt.Errorf("tree: max features %d exceeds feature count %d", t.cfg.MaxFeatures, d)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	t.root = t.grow(X, y, idx, 1)
	return nil
}

// Predict returns the tree's prediction for one sample. Calling Predict on an
// unfitted tree returns NaN.
func (t *Tree) Predict(x []float64) float64 {
	if t.root == nil {
		return math.NaN()
	}
	node := t.root
	for !node.leaf() {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func (t *Tree) grow(X mat.Matrix, y []float64, idx []int, depth int) *treeNode {
	node := &treeNode{value: meanAt(y, idx)}

	if depth > t.cfg.MaxDepth || len(idx) < t.cfg.MinSamplesSplit {
		return node
	}

	feature, threshold, ok := t.bestSplit(X, y, idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.feature = feature
	node.threshold = threshold
	node.left = t.grow(X, y, left, depth+1)
	node.right = t.grow(X, y, right, depth+1)
	return node
}

// bestSplit scans a random subset of features for the split that minimizes
// the weighted sum of child variances.
func (t *Tree) bestSplit(X mat.Matrix, y []float64, idx []int) (int, float64, bool) {
	_, d := X.Dims()
	features := t.featureSubset(d)

	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for _, f := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return X.At(order[a], f) < X.At(order[b], f)
		})

		// Running sums let each candidate threshold be scored in O(1).
		var sumL, sqL float64
		sumR, sqR := 0.0, 0.0
		for _, i := range order {
			sumR += y[i]
			sqR += y[i] * y[i]
		}

		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			sumL += v
			sqL += v * v
			sumR -= v
			sqR -= v * v

			nl, nr := k+1, len(order)-k-1
			if nl < t.cfg.MinSamplesLeaf || nr < t.cfg.MinSamplesLeaf {
				continue
			}

			lo, hi := X.At(order[k], f), X.At(order[k+1], f)
			if lo == hi {
				continue
			}

			score := (sqL - sumL*sumL/float64(nl)) + (sqR - sumR*sumR/float64(nr))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *Tree) featureSubset(d int) []int {
	k := t.cfg.MaxFeatures
	if k == 0 || k >= d {
		all := make([]int, d)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return t.rng.Perm(d)[:k]
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
