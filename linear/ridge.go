package linear

import (
	"gonum.org/v1/gonum/mat"

	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

// Ridge solves the L2-regularized least-squares problem through the
// augmented normal equations (XᵀX + αI)c = Xᵀy.
//
// All columns are penalized uniformly, including the constant column when
// the design matrix carries one; that matches fitting a bias-inclusive
// polynomial expansion with regularization on every term, which is the
// regime the split-search engine trains its per-side sub-models in. The
// penalty shrinks coefficients toward zero and keeps fits on small,
// ill-conditioned sample subsets stable.
//
// Alpha = 0 degenerates to the plain normal-equations solve.
type Ridge struct {
	// Alpha is the L2 regularization strength (must be >= 0).
	Alpha float64
}

// Solve implements Solver.
func (rg Ridge) Solve(X mat.Matrix, y *mat.VecDense) (_ []float64, err error) {
	defer aimcalErrors.Recover(&err, "Ridge.Solve")

	if rg.Alpha < 0 {
		return nil, aimcalErrors.NewValueError("Ridge.Solve", "alpha must be non-negative")
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, aimcalErrors.NewModelError("Ridge.Solve", "empty design matrix", aimcalErrors.ErrEmptyData)
	}
	if y.Len() != r {
		return nil, aimcalErrors.NewDimensionError("Ridge.Solve", r, y.Len(), 0)
	}

	A, b := normalEquations(X, y)
	for i := 0; i < c; i++ {
		A[i][i] += rg.Alpha
	}
	return solveGaussian(A, b), nil
}
