package preprocessing

import (
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

// binomial computes C(n, k).
func binomial(n, k int) int {
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}

func TestPolynomialFeatures_TermCount(t *testing.T) {
	tests := []struct {
		name      string
		kFeatures int
		degree    int
	}{
		{"3 features degree 2", 3, 2},
		{"2 features degree 3", 2, 3},
		{"1 feature degree 5", 1, 5},
		{"4 features degree 4", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X := mat.NewDense(2, tt.kFeatures, nil)
			for i := 0; i < 2; i++ {
				for j := 0; j < tt.kFeatures; j++ {
					X.Set(i, j, float64(i+j+1))
				}
			}

			pf := NewPolynomialFeatures(tt.degree)
			if err := pf.Fit(X); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}

			want := binomial(tt.kFeatures+tt.degree, tt.degree)
			if got := pf.NumTerms(); got != want {
				t.Errorf("NumTerms() = %d, want C(%d+%d, %d) = %d",
					got, tt.kFeatures, tt.degree, tt.degree, want)
			}
		})
	}
}

func TestPolynomialFeatures_TermOrder(t *testing.T) {
	// Degree 2 over (a, b, c) must enumerate exactly:
	// 1, a, b, c, a², ab, ac, b², bc, c²
	X := mat.NewDense(1, 3, []float64{2, 3, 5})

	pf := NewPolynomialFeatures(2)
	if err := pf.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	names, err := pf.TermNames([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("TermNames() error = %v", err)
	}

	want := []string{"1", "a", "b", "c", "a*a", "a*b", "a*c", "b*b", "b*c", "c*c"}
	if len(names) != len(want) {
		t.Fatalf("got %d terms, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("term %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestPolynomialFeatures_TransformValues(t *testing.T) {
	X := mat.NewDense(1, 3, []float64{2, 3, 5})

	pf := NewPolynomialFeatures(2)
	XPoly, err := pf.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// 1, a, b, c, a², ab, ac, b², bc, c² at (2, 3, 5)
	want := []float64{1, 2, 3, 5, 4, 6, 10, 9, 15, 25}
	for j, w := range want {
		if got := XPoly.At(0, j); math.Abs(got-w) > 1e-12 {
			t.Errorf("column %d = %g, want %g", j, got, w)
		}
	}
}

func TestPolynomialFeatures_OrderStableAcrossRuns(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	first := NewPolynomialFeatures(3)
	if err := first.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	second := NewPolynomialFeatures(3)
	if err := second.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	a := first.Terms()
	b := second.Terms()
	if len(a) != len(b) {
		t.Fatalf("term counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			t.Fatalf("term %d lengths differ", i)
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Errorf("term %d index %d differs: %d vs %d", i, j, a[i][j], b[i][j])
			}
		}
	}
}

func TestPolynomialFeatures_Errors(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	t.Run("transform before fit", func(t *testing.T) {
		pf := NewPolynomialFeatures(2)
		if _, err := pf.Transform(X); !errors.Is(err, aimcalErrors.ErrNotFitted) {
			t.Errorf("Transform() error = %v, want ErrNotFitted", err)
		}
	})

	t.Run("invalid degree", func(t *testing.T) {
		pf := NewPolynomialFeatures(0)
		err := pf.Fit(X)
		var valErr *aimcalErrors.ValueError
		if !errors.As(err, &valErr) {
			t.Errorf("Fit() error = %v, want ValueError", err)
		}
	})

	t.Run("feature count mismatch", func(t *testing.T) {
		pf := NewPolynomialFeatures(2)
		if err := pf.Fit(X); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		wide := mat.NewDense(2, 3, nil)
		_, err := pf.Transform(wide)
		var dimErr *aimcalErrors.DimensionError
		if !errors.As(err, &dimErr) {
			t.Fatalf("Transform() error = %v, want DimensionError", err)
		}
		if dimErr.Expected != 2 || dimErr.Got != 3 {
			t.Errorf("DimensionError = expected %d got %d, want expected 2 got 3",
				dimErr.Expected, dimErr.Got)
		}
	})

	t.Run("term names wrong length", func(t *testing.T) {
		pf := NewPolynomialFeatures(2)
		if err := pf.Fit(X); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		if _, err := pf.TermNames([]string{"only"}); err == nil {
			t.Error("TermNames() expected error for wrong name count")
		}
	})
}

func TestPolynomialFeatures_TermNamesExpandMultiplicity(t *testing.T) {
	X := mat.NewDense(1, 1, []float64{2})

	pf := NewPolynomialFeatures(3)
	if err := pf.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	names, err := pf.TermNames([]string{"cutAngle"})
	if err != nil {
		t.Fatalf("TermNames() error = %v", err)
	}

	if names[3] != "cutAngle*cutAngle*cutAngle" {
		t.Errorf("cubic term = %q, want expanded product", names[3])
	}
	if strings.Contains(strings.Join(names, " "), "^") {
		t.Error("term names must not use exponent notation")
	}
}
