package piecewise

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cuelab/aimcal/linear"
)

// regimeData generates n samples with a kink in the cut-angle response at 30
// degrees: y = 0.5·cut below, y = 20 - 0.2·cut at or above.
func regimeData(n int, seed int64) (X *mat.Dense, y *mat.VecDense, powers []float64) {
	rng := rand.New(rand.NewSource(seed))

	X = mat.NewDense(n, 2, nil)
	y = mat.NewVecDense(n, nil)
	powers = make([]float64, n)
	for i := 0; i < n; i++ {
		cut := rng.Float64() * 60
		power := 1 + rng.Float64()*9
		X.Set(i, 0, cut)
		X.Set(i, 1, power)
		powers[i] = power

		if cut < 30 {
			y.SetVec(i, 0.5*cut)
		} else {
			y.SetVec(i, 20-0.2*cut)
		}
	}
	return X, y, powers
}

func searchConfig() Config {
	return Config{
		Degree:               2,
		Alpha:                0.01,
		SplitMin:             10,
		SplitMax:             60,
		SplitStep:            1,
		TestSize:             0.2,
		Seed:                 42,
		MinSamplesPerBracket: 10,
		MinSamplesPerSide:    5,
	}
}

func TestSearch_RecoversRegimeChange(t *testing.T) {
	X, y, powers := regimeData(300, 1)
	brackets := []Bracket{{Low: 0, High: 11}}

	result, err := Search(X, y, powers, 0, brackets, searchConfig())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Brackets) != 1 {
		t.Fatalf("got %d fitted brackets, want 1", len(result.Brackets))
	}

	bm := result.Brackets[0]
	if bm.Split < 29 || bm.Split > 31 {
		t.Errorf("selected split = %d, want near the true kink at 30", bm.Split)
	}
	if bm.N != 300 {
		t.Errorf("bracket N = %d, want 300", bm.N)
	}
	if result.Pooled.RMSE > 0.5 {
		t.Errorf("pooled RMSE = %.4f, want < 0.5 on noiseless piecewise data", result.Pooled.RMSE)
	}
	if result.Pooled.R2 < 0.95 {
		t.Errorf("pooled R2 = %.4f, want > 0.95", result.Pooled.R2)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	X, y, powers := regimeData(200, 3)
	brackets := []Bracket{{Low: 0, High: 5.5}, {Low: 5.5, High: 11}}
	cfg := searchConfig()

	first, err := Search(X, y, powers, 0, brackets, cfg)
	if err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	second, err := Search(X, y, powers, 0, brackets, cfg)
	if err != nil {
		t.Fatalf("second Search() error = %v", err)
	}

	if len(first.Brackets) != len(second.Brackets) {
		t.Fatalf("fitted bracket counts differ: %d vs %d", len(first.Brackets), len(second.Brackets))
	}
	for k := range first.Brackets {
		a, b := first.Brackets[k], second.Brackets[k]
		if a.Split != b.Split {
			t.Errorf("bracket %d: splits differ (%d vs %d)", k, a.Split, b.Split)
		}
		if a.HoldoutRMSE != b.HoldoutRMSE {
			t.Errorf("bracket %d: holdout RMSE differs (%v vs %v)", k, a.HoldoutRMSE, b.HoldoutRMSE)
		}
		ac, bc := a.Left.Coefficients(), b.Left.Coefficients()
		for j := range ac {
			if ac[j] != bc[j] {
				t.Errorf("bracket %d: left coef %d differs (%v vs %v)", k, j, ac[j], bc[j])
			}
		}
	}
	if first.Pooled != second.Pooled {
		t.Errorf("pooled metrics differ: %+v vs %+v", first.Pooled, second.Pooled)
	}
}

func TestSearch_SkipsUnderpopulatedBracket(t *testing.T) {
	X, y, powers := regimeData(200, 5)

	// Push three samples into an otherwise empty power band so the middle
	// bracket lands below the minimum.
	for i := 0; i < 200; i++ {
		if powers[i] >= 11 && powers[i] < 12 {
			t.Fatal("unexpected sample in reserved band")
		}
	}
	for i := 0; i < 3; i++ {
		powers[i] = 11.5
	}

	brackets := []Bracket{{Low: 0, High: 11}, {Low: 11, High: 12}, {Low: 12, High: 13}}
	result, err := Search(X, y, powers, 0, brackets, searchConfig())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(result.Skipped) != 2 {
		t.Fatalf("Skipped = %v, want the 3-sample and empty brackets", result.Skipped)
	}
	if result.Skipped[0] != 1 || result.Skipped[1] != 2 {
		t.Errorf("Skipped = %v, want [1 2]", result.Skipped)
	}
	if len(result.Brackets) != 1 || result.Brackets[0].Index != 0 {
		t.Errorf("fitted brackets = %d, want only bracket 0", len(result.Brackets))
	}
}

func TestSearch_AllBracketsFail(t *testing.T) {
	X, y, powers := regimeData(50, 7)

	// Every bracket below the sample minimum: the search has nothing to fit
	// and must fail loudly rather than return an empty model.
	cfg := searchConfig()
	cfg.MinSamplesPerBracket = 1000

	_, err := Search(X, y, powers, 0, []Bracket{{Low: 0, High: 11}}, cfg)
	if err == nil {
		t.Fatal("Search() expected error when no bracket can be fitted")
	}
}

func TestSearch_InputValidation(t *testing.T) {
	X, y, powers := regimeData(50, 9)
	brackets := []Bracket{{Low: 0, High: 11}}

	t.Run("short powers", func(t *testing.T) {
		if _, err := Search(X, y, powers[:10], 0, brackets, searchConfig()); err == nil {
			t.Error("expected error for mismatched powers length")
		}
	})

	t.Run("split column out of range", func(t *testing.T) {
		if _, err := Search(X, y, powers, 5, brackets, searchConfig()); err == nil {
			t.Error("expected error for out-of-range split column")
		}
	})

	t.Run("empty candidate grid", func(t *testing.T) {
		cfg := searchConfig()
		cfg.SplitMin, cfg.SplitMax = 60, 10
		if _, err := Search(X, y, powers, 0, brackets, cfg); err == nil {
			t.Error("expected error for empty candidate grid")
		}
	})
}

func TestBracketModel_PredictRoutesBySplit(t *testing.T) {
	// Two constant sub-models make the routing observable: below the split
	// the left value comes back, at or above it the right value.
	fitConstant := func(value float64) *linear.PolyRegression {
		X := mat.NewDense(6, 2, nil)
		y := mat.NewVecDense(6, nil)
		for i := 0; i < 6; i++ {
			X.Set(i, 0, float64(i))
			X.Set(i, 1, float64(i%3))
			y.SetVec(i, value)
		}
		m := linear.NewPolyRegression(1, linear.Ridge{Alpha: 0})
		if err := m.Fit(X, y); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		return m
	}

	bm := &BracketModel{
		Split: 30,
		Left:  fitConstant(-1),
		Right: fitConstant(1),
	}

	tests := []struct {
		cut  float64
		want float64
	}{
		{0, -1},
		{29.999, -1},
		{30, 1}, // boundary routes right
		{59, 1},
	}
	for _, tt := range tests {
		got, err := bm.Predict([]float64{tt.cut, 5}, 0)
		if err != nil {
			t.Fatalf("Predict(cut=%g) error = %v", tt.cut, err)
		}
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("Predict(cut=%g) = %.6f, want %.0f", tt.cut, got, tt.want)
		}
	}
}

func TestHoldoutSplit_DisjointAndClamped(t *testing.T) {
	rows := make([]int, 20)
	for i := range rows {
		rows[i] = i * 3
	}

	rng := rand.New(rand.NewSource(42))
	train, test := holdoutSplit(rows, 0.2, rng)

	if len(test) != 4 {
		t.Errorf("test size = %d, want ceil(20*0.2) = 4", len(test))
	}
	if len(train)+len(test) != len(rows) {
		t.Errorf("partition sizes %d+%d != %d", len(train), len(test), len(rows))
	}

	seen := make(map[int]bool)
	for _, r := range append(append([]int{}, train...), test...) {
		if seen[r] {
			t.Errorf("row %d appears twice in the partition", r)
		}
		seen[r] = true
	}

	// Tiny inputs still leave at least one row on each side.
	train, test = holdoutSplit([]int{1, 2}, 0.9, rand.New(rand.NewSource(1)))
	if len(train) != 1 || len(test) != 1 {
		t.Errorf("2-row split = (%d train, %d test), want (1, 1)", len(train), len(test))
	}
}
