package linear

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cuelab/aimcal/core/model"
	"github.com/cuelab/aimcal/metrics"
	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
	"github.com/cuelab/aimcal/pkg/log"
	"github.com/cuelab/aimcal/preprocessing"
)

// PolyRegression is a polynomial regression model: it expands raw features
// into monomial terms up to a maximum degree and fits one coefficient per
// term with a configurable least-squares Solver.
//
// The fitted coefficient vector is paired 1:1 and order-preserving with the
// expander's term list; Coefficients()[k] always belongs to Terms()[k].
type PolyRegression struct {
	State *model.StateManager

	// Degree is the maximum total degree of the polynomial.
	Degree int

	// Solver is the least-squares strategy; nil defaults to LeastSquares.
	Solver Solver

	expander *preprocessing.PolynomialFeatures
	coefs    []float64

	rSquared float64
	rmse     float64
	preds    *mat.VecDense

	logger log.Logger
}

// NewPolyRegression creates an untrained polynomial regression model of the
// given degree. solver may be nil, in which case the stable QR-backed
// LeastSquares strategy is used.
func NewPolyRegression(degree int, solver Solver) *PolyRegression {
	if solver == nil {
		solver = LeastSquares{}
	}

	m := &PolyRegression{
		State:  model.NewStateManager(),
		Degree: degree,
		Solver: solver,
	}

	m.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "PolyRegression",
		log.ComponentKey, "linear",
	)

	return m
}

// Fit trains the model on raw features X and targets y.
//
// X is expanded into the canonical polynomial design matrix and handed to
// the configured Solver. Training-set R² and RMSE are computed as part of
// fitting; they are properties of the fit, not of later prediction calls.
//
// Parameters:
//   - X: raw feature matrix of shape (n_samples, n_features)
//   - y: target vector of length n_samples
//
// Returns:
//   - error: nil if training succeeds, otherwise an error describing the
//     failure
//
// Errors:
//   - ModelError(ErrEmptyData): if X is empty
//   - DimensionError: if X and y disagree on the sample count
//   - ValueError: if Degree < 1
func (m *PolyRegression) Fit(X mat.Matrix, y *mat.VecDense) (err error) {
	defer aimcalErrors.Recover(&err, "PolyRegression.Fit")

	startTime := time.Now()
	r, c := X.Dims()

	if m.logger != nil {
		m.logger.Debug("Training started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	if r == 0 || c == 0 {
		return aimcalErrors.NewModelError("PolyRegression.Fit", "empty data", aimcalErrors.ErrEmptyData)
	}
	if y.Len() != r {
		return aimcalErrors.NewDimensionError("PolyRegression.Fit", r, y.Len(), 0)
	}

	m.expander = preprocessing.NewPolynomialFeatures(m.Degree)
	XPoly, err := m.expander.FitTransform(X)
	if err != nil {
		return err
	}

	coefs, err := m.Solver.Solve(XPoly, y)
	if err != nil {
		return err
	}
	m.coefs = coefs

	// Training-set fit quality.
	preds := mat.NewVecDense(r, nil)
	_, nTerms := XPoly.Dims()
	for i := 0; i < r; i++ {
		var sum float64
		for j := 0; j < nTerms; j++ {
			sum += XPoly.At(i, j) * coefs[j]
		}
		preds.SetVec(i, sum)
	}
	m.preds = preds

	m.rSquared, err = metrics.R2Score(y, preds)
	if err != nil {
		return err
	}
	m.rmse, err = metrics.RMSE(y, preds)
	if err != nil {
		return err
	}

	m.State.SetFitted()
	m.State.SetDimensions(c, r)

	if m.logger != nil {
		m.logger.Debug("Training completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
			log.TermsKey, nTerms,
			log.R2Key, m.rSquared,
			log.RMSEKey, m.rmse,
		)
	}

	return nil
}

// Predict evaluates the fitted polynomial on raw features X.
//
// Parameters:
//   - X: raw feature matrix of shape (n_samples, n_features)
//
// Returns:
//   - *mat.VecDense: predictions, one per sample
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - NotFittedError: if the model has not been trained
//   - DimensionError: if X has a different feature count than training data
func (m *PolyRegression) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer aimcalErrors.Recover(&err, "PolyRegression.Predict")

	if !m.State.IsFitted() {
		return nil, aimcalErrors.NewNotFittedError("PolyRegression", "Predict")
	}

	XPoly, err := m.expander.Transform(X)
	if err != nil {
		return nil, err
	}

	r, nTerms := XPoly.Dims()
	preds := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		var sum float64
		for j := 0; j < nTerms; j++ {
			sum += XPoly.At(i, j) * m.coefs[j]
		}
		preds.SetVec(i, sum)
	}
	return preds, nil
}

// PredictOne evaluates the fitted polynomial on a single raw feature vector.
func (m *PolyRegression) PredictOne(features []float64) (float64, error) {
	X := mat.NewDense(1, len(features), features)
	preds, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return preds.AtVec(0), nil
}

// Coefficients returns a copy of the fitted coefficient vector, one entry
// per enumerated term.
func (m *PolyRegression) Coefficients() []float64 {
	if m.coefs == nil {
		return nil
	}
	out := make([]float64, len(m.coefs))
	copy(out, m.coefs)
	return out
}

// Terms returns the expander's term list (multisets of feature indices).
// Nil before Fit.
func (m *PolyRegression) Terms() [][]int {
	if m.expander == nil {
		return nil
	}
	return m.expander.Terms()
}

// TermNames renders the term list with the given feature names.
func (m *PolyRegression) TermNames(featureNames []string) ([]string, error) {
	if m.expander == nil {
		return nil, aimcalErrors.NewNotFittedError("PolyRegression", "TermNames")
	}
	return m.expander.TermNames(featureNames)
}

// R2 returns the training-set coefficient of determination.
func (m *PolyRegression) R2() float64 {
	return m.rSquared
}

// RMSE returns the training-set root mean squared error.
func (m *PolyRegression) RMSE() float64 {
	return m.rmse
}

// FittedPredictions returns the training-set predictions computed during
// Fit. Nil before Fit.
func (m *PolyRegression) FittedPredictions() *mat.VecDense {
	return m.preds
}

// IsFitted returns whether the model has been fitted.
func (m *PolyRegression) IsFitted() bool {
	return m.State.IsFitted()
}
