package kernels

import (
	"math"
	"testing"
)

func TestRBF(t *testing.T) {
	tests := []struct {
		name     string
		x1, x2   []float64
		ls, sv   float64
		expected float64
	}{
		{
			name:     "same point",
			x1:       []float64{1, 2},
			x2:       []float64{1, 2},
			ls:       1,
			sv:       1,
			expected: 1,
		},
		{
			name:     "unit diagonal distance",
			x1:       []float64{0, 0},
			x2:       []float64{1, 1},
			ls:       1,
			sv:       1,
			expected: math.Exp(-1), // exp(-0.5 * 2 / 1^2)
		},
		{
			name:     "length scale rescales distance",
			x1:       []float64{0, 0},
			x2:       []float64{2, 2},
			ls:       2,
			sv:       1,
			expected: math.Exp(-1), // exp(-0.5 * 8 / 2^2)
		},
		{
			name:     "signal variance scales amplitude",
			x1:       []float64{0},
			x2:       []float64{0},
			ls:       1,
			sv:       3,
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewRBF(tt.ls, tt.sv)
			got := k.Eval(tt.x1, tt.x2)
			if math.Abs(got-tt.expected) > 1e-10 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			if math.Abs(got-k.Eval(tt.x2, tt.x1)) > 1e-10 {
				t.Error("kernel is not symmetric")
			}
		})
	}
}

func TestMatern52(t *testing.T) {
	k := NewMatern52(1, 1)

	if got := k.Eval([]float64{1, 2}, []float64{1, 2}); math.Abs(got-1) > 1e-10 {
		t.Errorf("same point should give signal variance, got %v", got)
	}

	r := math.Sqrt(2)
	want := (1 + math.Sqrt(5)*r + (5.0/3.0)*r*r) * math.Exp(-math.Sqrt(5)*r)
	got := k.Eval([]float64{0, 0}, []float64{1, 1})
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if math.Abs(got-k.Eval([]float64{1, 1}, []float64{0, 0})) > 1e-10 {
		t.Error("kernel is not symmetric")
	}
}

func TestConstructorsPanicOnBadParams(t *testing.T) {
	for _, build := range []func(){
		func() { NewRBF(0, 1) },
		func() { NewRBF(1, -1) },
		func() { NewMatern52(-1, 1) },
		func() { NewMatern52(1, 0) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic for non-positive kernel parameter")
				}
			}()
			build()
		}()
	}
}

func TestSetHyperparameters(t *testing.T) {
	tests := []struct {
		name    string
		kernel  Kernel
		params  []float64
		wantErr string
	}{
		{
			name:   "RBF valid",
			kernel: NewRBF(1, 1),
			params: []float64{2, 3},
		},
		{
			name:    "RBF wrong count",
			kernel:  NewRBF(1, 1),
			params:  []float64{1},
			wantErr: "expected 2 hyperparameters, got 1",
		},
		{
			name:    "RBF negative value",
			kernel:  NewRBF(1, 1),
			params:  []float64{-1, 1},
			wantErr: "hyperparameters must be positive, got [-1 1]",
		},
		{
			name:   "Matern52 valid",
			kernel: NewMatern52(1, 1),
			params: []float64{2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.kernel.SetHyperparameters(tt.params)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("expected error %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := tt.kernel.Hyperparameters()
			for i, p := range got {
				if p != tt.params[i] {
					t.Errorf("parameter %d: expected %v, got %v", i, tt.params[i], p)
				}
			}
		})
	}
}
