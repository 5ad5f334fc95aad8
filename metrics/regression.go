// Package metrics provides regression evaluation metrics for fitted
// calibration models.
//
// The package implements the four metrics the trainer reports and embeds in
// generated artifacts:
//
//   - MSE: Mean Squared Error
//   - RMSE: Root Mean Squared Error (same units as the target)
//   - MAE: Mean Absolute Error
//   - R²: coefficient of determination
//
// All functions operate on gonum vectors, validate their inputs, and are
// pure: the same inputs always yield the same outputs.
//
// Example usage:
//
//	rmse, err := metrics.RMSE(yTrue, yPred)
//	r2, err := metrics.R2Score(yTrue, yPred)
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: MSE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, aimcalErrors.NewValueError("MSE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, aimcalErrors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// RMSE calculates the Root Mean Squared Error between true and predicted
// values. RMSE is the square root of MSE and is expressed in the same units
// as the target, which makes it the headline figure in training reports
// (degrees of angle error, for this domain).
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: RMSE value (non-negative)
//   - error: nil if successful, otherwise error from MSE computation
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error between true and predicted values.
// MAE is more robust to outliers than MSE as it does not square the
// differences.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: MAE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, aimcalErrors.NewValueError("MAE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, aimcalErrors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination (R²).
//
// R² = 1 - RSS/TSS, where RSS is the residual sum of squares and TSS the
// total sum of squares. When TSS is zero (all true values identical) the
// score is defined as 0 rather than an error: a constant target carries no
// variance to explain, and the training pipeline treats that as a valid,
// uninformative fit instead of aborting.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: R² score (best possible 1.0; can be negative; 0 when yTrue
//     has no variance)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, aimcalErrors.NewValueError("R2Score", "empty vector")
	}

	if yPred.Len() != n {
		return 0, aimcalErrors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, nil
	}

	return 1 - rss/tss, nil
}
