package linear

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

func TestPolyRegression_FitRecoversPolynomial(t *testing.T) {
	// Two raw features, degree 2: target is an exact member of the
	// hypothesis class, so R² should be 1 up to rounding.
	n := 60
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a := float64(i%12) - 6
		b := float64(i%7) * 0.5
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.SetVec(i, 1.5-0.3*a+0.2*b+0.05*a*a-0.1*a*b)
	}

	m := NewPolyRegression(2, nil)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if !m.IsFitted() {
		t.Error("IsFitted() = false after Fit")
	}
	if r2 := m.R2(); r2 < 0.999999 {
		t.Errorf("R2() = %.8f, want ~1", r2)
	}
	if rmse := m.RMSE(); rmse > 1e-6 {
		t.Errorf("RMSE() = %.10f, want ~0", rmse)
	}

	// Coefficients pair with terms in order: 1, a, b, a², ab, b².
	coefs := m.Coefficients()
	want := []float64{1.5, -0.3, 0.2, 0.05, -0.1, 0}
	if len(coefs) != len(want) {
		t.Fatalf("got %d coefficients, want %d", len(coefs), len(want))
	}
	for j, w := range want {
		if math.Abs(coefs[j]-w) > 1e-6 {
			t.Errorf("coef %d = %.10f, want %.10f", j, coefs[j], w)
		}
	}
}

func TestPolyRegression_PredictMatchesFormula(t *testing.T) {
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x := float64(i) * 0.25
		X.Set(i, 0, x)
		y.SetVec(i, 4-2*x+0.5*x*x)
	}

	m := NewPolyRegression(2, Elimination{})
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	got, err := m.PredictOne([]float64{3})
	if err != nil {
		t.Fatalf("PredictOne() error = %v", err)
	}
	want := 4 - 2*3.0 + 0.5*9.0
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("PredictOne(3) = %.10f, want %.10f", got, want)
	}
}

func TestPolyRegression_PredictBeforeFit(t *testing.T) {
	m := NewPolyRegression(2, nil)
	X := mat.NewDense(1, 2, []float64{1, 2})

	_, err := m.Predict(X)
	if !errors.Is(err, aimcalErrors.ErrNotFitted) {
		t.Errorf("Predict() error = %v, want ErrNotFitted", err)
	}

	var nfErr *aimcalErrors.NotFittedError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Predict() error = %v, want NotFittedError", err)
	}
	if nfErr.ModelName != "PolyRegression" {
		t.Errorf("NotFittedError.ModelName = %q, want PolyRegression", nfErr.ModelName)
	}
}

func TestPolyRegression_FeatureCountMismatch(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewVecDense(10, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i*i%5))
		y.SetVec(i, float64(i))
	}

	m := NewPolyRegression(2, nil)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	wide := mat.NewDense(1, 3, []float64{1, 2, 3})
	_, err := m.Predict(wide)
	var dimErr *aimcalErrors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("Predict() error = %v, want DimensionError", err)
	}
}

func TestPolyRegression_FitLengthMismatch(t *testing.T) {
	m := NewPolyRegression(2, nil)
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(2, []float64{1, 2})
	err := m.Fit(X, y)
	var dimErr *aimcalErrors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("Fit() error = %v, want DimensionError", err)
	}
}

func TestPolyRegression_CoefficientsAreCopies(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	y := mat.NewVecDense(5, []float64{1, 3, 5, 7, 9})

	m := NewPolyRegression(1, nil)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	first := m.Coefficients()
	first[0] = 999
	second := m.Coefficients()
	if second[0] == 999 {
		t.Error("Coefficients() exposes internal state")
	}
}

func TestPolyRegression_TermNames(t *testing.T) {
	X := mat.NewDense(8, 2, nil)
	y := mat.NewVecDense(8, nil)
	for i := 0; i < 8; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
		y.SetVec(i, float64(i))
	}

	m := NewPolyRegression(2, nil)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	names, err := m.TermNames([]string{"cutAngle", "power"})
	if err != nil {
		t.Fatalf("TermNames() error = %v", err)
	}
	want := []string{"1", "cutAngle", "power", "cutAngle*cutAngle", "cutAngle*power", "power*power"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, names[i], want[i])
		}
	}

	if len(m.Coefficients()) != len(names) {
		t.Errorf("coefficient count %d != term count %d", len(m.Coefficients()), len(names))
	}
}
