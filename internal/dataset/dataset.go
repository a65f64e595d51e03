// Package dataset supplies the fixed tabular data the objectives are scored
// on. The harness owns no data format beyond "features matrix plus target
// vector"; data comes either from a CSV file or from the deterministic
// synthetic generator.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Table is a features matrix with its target vector. The last loaded column
// is always the target.
type Table struct {
	X     *mat.Dense
	Y     []float64
	Names []string
}

// Rows returns the number of samples.
func (t *Table) Rows() int {
	n, _ := t.X.Dims()
	return n
}

// Features returns the number of feature columns.
func (t *Table) Features() int {
	_, d := t.X.Dims()
	return d
}

// LoadCSV reads a headered CSV file whose last column is the regression
// target and all other columns are numeric features.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset: %s has no data rows", path)
	}

	header := records[0]
	cols := len(header)
	if cols < 2 {
		return nil, fmt.Errorf("dataset: %s needs at least one feature and a target column", path)
	}

	n := len(records) - 1
	X := mat.NewDense(n, cols-1, nil)
	y := make([]float64, n)

	for i, record := range records[1:] {
		if len(record) != cols {
			return nil, fmt.Errorf("dataset: row %d has %d fields, header has %d", i+2, len(record), cols)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: row %d column %q: %w", i+2, header[j], err)
			}
			if j == cols-1 {
				y[i] = v
			} else {
				X.Set(i, j, v)
			}
		}
	}

	return &Table{X: X, Y: y, Names: header[:cols-1]}, nil
}

// Synthetic generates a deterministic housing-style regression dataset with
// 13 features. Five features carry signal, the rest are noise, so both the
// feature selector and the boosted model have something real to find.
func Synthetic(n int, seed int64) *Table {
	const d = 13
	rng := rand.New(rand.NewSource(seed))

	names := make([]string, d)
	for j := range names {
		names[j] = fmt.Sprintf("f%02d", j)
	}

	X := mat.NewDense(n, d, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			X.Set(i, j, rng.Float64())
		}
		// Friedman-style target over the first five features.
		y[i] = 10*math.Sin(math.Pi*X.At(i, 0)*X.At(i, 1)) +
			20*math.Pow(X.At(i, 2)-0.5, 2) +
			10*X.At(i, 3) +
			5*X.At(i, 4) +
			rng.NormFloat64()
	}

	return &Table{X: X, Y: y, Names: names}
}
