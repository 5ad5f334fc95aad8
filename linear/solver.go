// Package linear provides least-squares solvers and the polynomial
// regression model used by the calibration trainer.
//
// Two interchangeable solver strategies implement the same contract:
//
//   - LeastSquares: QR-decomposition solve via gonum, numerically stable,
//     preferred.
//   - Elimination: self-contained normal-equations solve with Gaussian
//     elimination and partial pivoting, for environments where pulling in a
//     decomposition is undesirable.
//
// On well-conditioned inputs the two agree within solver tolerance. Both
// recover from rank deficiency by zeroing the affected coefficients rather
// than failing: with too few samples for the requested polynomial degree a
// biased-but-finite model beats a crashed training run.
//
// PolyRegression composes a PolynomialFeatures expander with a Solver and
// exposes the usual Fit / Predict estimator surface.
package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

// pivotTolerance is the magnitude below which an elimination pivot is
// treated as singular. The corresponding coefficient is zeroed instead of
// divided through, which keeps rank-deficient fits finite.
const pivotTolerance = 1e-12

// Solver computes the coefficient vector minimizing the sum of squared
// residuals ‖Xc - y‖² for a design matrix X and target vector y.
// Implementations are pure: same inputs, same outputs.
type Solver interface {
	Solve(X mat.Matrix, y *mat.VecDense) ([]float64, error)
}

// LeastSquares solves the least-squares problem through gonum's QR
// decomposition. This is the stable, preferred strategy.
//
// When the system is rank deficient or has fewer rows than columns the QR
// path cannot produce a solution; LeastSquares then falls back to the
// pivot-zeroing normal-equations solve so the caller still receives finite
// coefficients.
type LeastSquares struct{}

// Solve implements Solver.
func (LeastSquares) Solve(X mat.Matrix, y *mat.VecDense) (_ []float64, err error) {
	defer aimcalErrors.Recover(&err, "LeastSquares.Solve")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, aimcalErrors.NewModelError("LeastSquares.Solve", "empty design matrix", aimcalErrors.ErrEmptyData)
	}
	if y.Len() != r {
		return nil, aimcalErrors.NewDimensionError("LeastSquares.Solve", r, y.Len(), 0)
	}

	if r < c {
		// QR needs at least as many rows as columns.
		return Elimination{}.Solve(X, y)
	}

	var qr mat.QR
	qr.Factorize(mat.DenseCopyOf(X))

	var sol mat.Dense
	if solveErr := qr.SolveTo(&sol, false, y); solveErr != nil {
		// Near-singular system; the elimination path zeroes dead pivots.
		return Elimination{}.Solve(X, y)
	}

	coefs := make([]float64, c)
	for j := 0; j < c; j++ {
		coefs[j] = sol.At(j, 0)
	}
	return coefs, nil
}

// Elimination solves the normal equations (XᵀX)c = Xᵀy by Gaussian
// elimination with partial pivoting. Pivots with magnitude below 1e-12 are
// treated as singular and the corresponding coefficient is set to zero.
// Slower and less accurate than LeastSquares on ill-conditioned systems,
// but fully self-contained.
type Elimination struct{}

// Solve implements Solver.
func (Elimination) Solve(X mat.Matrix, y *mat.VecDense) (_ []float64, err error) {
	defer aimcalErrors.Recover(&err, "Elimination.Solve")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, aimcalErrors.NewModelError("Elimination.Solve", "empty design matrix", aimcalErrors.ErrEmptyData)
	}
	if y.Len() != r {
		return nil, aimcalErrors.NewDimensionError("Elimination.Solve", r, y.Len(), 0)
	}

	A, b := normalEquations(X, y)
	return solveGaussian(A, b), nil
}

// normalEquations builds XᵀX and Xᵀy.
func normalEquations(X mat.Matrix, y *mat.VecDense) ([][]float64, []float64) {
	r, c := X.Dims()

	A := make([][]float64, c)
	for i := range A {
		A[i] = make([]float64, c)
	}
	b := make([]float64, c)

	for k := 0; k < r; k++ {
		for i := 0; i < c; i++ {
			xi := X.At(k, i)
			b[i] += xi * y.AtVec(k)
			for j := i; j < c; j++ {
				A[i][j] += xi * X.At(k, j)
			}
		}
	}
	// XᵀX is symmetric; mirror the upper triangle.
	for i := 0; i < c; i++ {
		for j := 0; j < i; j++ {
			A[i][j] = A[j][i]
		}
	}
	return A, b
}

// solveGaussian solves Ax = b in place by Gaussian elimination with partial
// pivoting. Columns whose pivot magnitude falls below pivotTolerance are
// skipped during elimination and their solution entries zeroed during back
// substitution.
func solveGaussian(A [][]float64, b []float64) []float64 {
	n := len(A)

	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, n+1)
		copy(aug[i], A[i])
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		maxRow := col
		for row := col + 1; row < n; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[maxRow][col]) {
				maxRow = row
			}
		}
		aug[col], aug[maxRow] = aug[maxRow], aug[col]

		if math.Abs(aug[col][col]) < pivotTolerance {
			continue
		}

		for row := col + 1; row < n; row++ {
			factor := aug[row][col] / aug[col][col]
			for j := col; j <= n; j++ {
				aug[row][j] -= factor * aug[col][j]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		if math.Abs(aug[i][i]) < pivotTolerance {
			x[i] = 0
			continue
		}
		x[i] = aug[i][n]
		for j := i + 1; j < n; j++ {
			x[i] -= aug[i][j] * x[j]
		}
		x[i] /= aug[i][i]
	}
	return x
}
