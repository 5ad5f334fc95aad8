package linear

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// designMatrix builds [1, x, x²] rows for the given abscissae.
func designMatrix(xs []float64) *mat.Dense {
	X := mat.NewDense(len(xs), 3, nil)
	for i, x := range xs {
		X.Set(i, 0, 1)
		X.Set(i, 1, x)
		X.Set(i, 2, x*x)
	}
	return X
}

func TestSolvers_ExactQuadraticRecovery(t *testing.T) {
	// y = 2 + 0.1x - 0.05x², noiseless: both strategies must recover the
	// coefficients near machine precision.
	xs := make([]float64, 40)
	ys := make([]float64, 40)
	for i := range xs {
		x := float64(i) * 1.5
		xs[i] = x
		ys[i] = 2.0 + 0.1*x - 0.05*x*x
	}
	X := designMatrix(xs)
	y := mat.NewVecDense(len(ys), ys)

	want := []float64{2.0, 0.1, -0.05}
	solvers := []struct {
		name string
		s    Solver
	}{
		{"LeastSquares", LeastSquares{}},
		{"Elimination", Elimination{}},
	}

	for _, tt := range solvers {
		t.Run(tt.name, func(t *testing.T) {
			coefs, err := tt.s.Solve(X, y)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			if len(coefs) != 3 {
				t.Fatalf("got %d coefficients, want 3", len(coefs))
			}
			for j, w := range want {
				if math.Abs(coefs[j]-w) > 1e-8 {
					t.Errorf("coef %d = %.12f, want %.12f", j, coefs[j], w)
				}
			}
		})
	}
}

func TestSolvers_AgreeOnWellConditionedSystem(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	n, c := 100, 4
	X := mat.NewDense(n, c, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j := 1; j < c; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
		y.SetVec(i, 1.5*X.At(i, 1)-0.7*X.At(i, 2)+0.01*rng.NormFloat64())
	}

	qrCoefs, err := LeastSquares{}.Solve(X, y)
	if err != nil {
		t.Fatalf("LeastSquares.Solve() error = %v", err)
	}
	gaussCoefs, err := Elimination{}.Solve(X, y)
	if err != nil {
		t.Fatalf("Elimination.Solve() error = %v", err)
	}

	for j := range qrCoefs {
		if math.Abs(qrCoefs[j]-gaussCoefs[j]) > 1e-6 {
			t.Errorf("coef %d: QR=%.10f gaussian=%.10f", j, qrCoefs[j], gaussCoefs[j])
		}
	}
}

func TestElimination_SingularColumnZeroed(t *testing.T) {
	// Column 2 duplicates column 1, so the normal equations are singular.
	// The solve must still return finite coefficients with the dead pivot
	// zeroed, never NaN or Inf.
	n := 20
	X := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x := float64(i)
		X.Set(i, 0, 1)
		X.Set(i, 1, x)
		X.Set(i, 2, x)
		y.SetVec(i, 3+2*x)
	}

	coefs, err := Elimination{}.Solve(X, y)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	for j, c := range coefs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			t.Fatalf("coef %d = %v, want finite", j, c)
		}
	}

	// The combined slope must still be recovered.
	if slope := coefs[1] + coefs[2]; math.Abs(slope-2) > 1e-6 {
		t.Errorf("combined slope = %.10f, want 2", slope)
	}
}

func TestLeastSquares_UnderdeterminedFallsBack(t *testing.T) {
	// Fewer rows than columns: QR cannot run, but the solve must still
	// return finite coefficients through the elimination fallback.
	X := mat.NewDense(2, 3, []float64{
		1, 1, 1,
		1, 2, 4,
	})
	y := mat.NewVecDense(2, []float64{1, 2})

	coefs, err := LeastSquares{}.Solve(X, y)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if len(coefs) != 3 {
		t.Fatalf("got %d coefficients, want 3", len(coefs))
	}
	for j, c := range coefs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			t.Errorf("coef %d = %v, want finite", j, c)
		}
	}
}

func TestSolvers_DimensionErrors(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	yShort := mat.NewVecDense(2, []float64{1, 2})

	for _, tt := range []struct {
		name string
		s    Solver
	}{
		{"LeastSquares", LeastSquares{}},
		{"Elimination", Elimination{}},
		{"Ridge", Ridge{Alpha: 1}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.s.Solve(X, yShort); err == nil {
				t.Error("Solve() expected error for mismatched y length")
			}
		})
	}
}

func TestRidge_ShrinksTowardZero(t *testing.T) {
	xs := make([]float64, 30)
	ys := make([]float64, 30)
	for i := range xs {
		x := float64(i)
		xs[i] = x
		ys[i] = 1 + 0.5*x + 0.02*x*x
	}
	X := designMatrix(xs)
	y := mat.NewVecDense(len(ys), ys)

	plain, err := Ridge{Alpha: 0}.Solve(X, y)
	if err != nil {
		t.Fatalf("Ridge{0}.Solve() error = %v", err)
	}
	heavy, err := Ridge{Alpha: 1e6}.Solve(X, y)
	if err != nil {
		t.Fatalf("Ridge{1e6}.Solve() error = %v", err)
	}

	normSq := func(c []float64) float64 {
		var s float64
		for _, v := range c {
			s += v * v
		}
		return s
	}
	if normSq(heavy) >= normSq(plain) {
		t.Errorf("heavy penalty norm %.6g >= unpenalized norm %.6g", normSq(heavy), normSq(plain))
	}
}

func TestRidge_ZeroAlphaMatchesElimination(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	ys := []float64{1, 2.1, 2.9, 4.2, 5.1, 5.8, 7.2, 8.1}
	X := designMatrix(xs)
	y := mat.NewVecDense(len(ys), ys)

	ridge, err := Ridge{Alpha: 0}.Solve(X, y)
	if err != nil {
		t.Fatalf("Ridge.Solve() error = %v", err)
	}
	gauss, err := Elimination{}.Solve(X, y)
	if err != nil {
		t.Fatalf("Elimination.Solve() error = %v", err)
	}
	for j := range ridge {
		if math.Abs(ridge[j]-gauss[j]) > 1e-12 {
			t.Errorf("coef %d: ridge=%.15f elimination=%.15f", j, ridge[j], gauss[j])
		}
	}
}

func TestRidge_NegativeAlphaRejected(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewVecDense(2, []float64{1, 2})
	if _, err := (Ridge{Alpha: -1}).Solve(X, y); err == nil {
		t.Error("Solve() expected error for negative alpha")
	}
}
