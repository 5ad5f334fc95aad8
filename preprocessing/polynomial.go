// Package preprocessing provides feature construction for the calibration
// trainer.
//
// The single component here is PolynomialFeatures, an estimator that expands
// raw feature vectors into polynomial monomial terms and materializes the
// design matrix for least-squares fitting. It follows the Fit / Transform /
// FitTransform estimator pattern used across this module.
//
// Example usage:
//
//	pf := preprocessing.NewPolynomialFeatures(3)
//	XPoly, err := pf.FitTransform(X)
//	names, err := pf.TermNames([]string{"cutAngle", "power"})
//
// The enumeration order of terms is a hard contract shared with the solver
// and the code emitter: coefficient k always corresponds to term k.
package preprocessing

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/cuelab/aimcal/core/model"
	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

// PolynomialFeatures expands input features into all monomial terms up to a
// maximum total degree, including the constant term.
//
// For k features and degree d the expansion has exactly C(k+d, d) terms, in
// canonical order: the constant term first, then for each degree 1..d all
// combinations-with-replacement of feature indices in ascending index order.
// For degree 2 over (a, b, c) that is:
//
//	1, a, b, c, a², ab, ac, b², bc, c²
//
// This order is deterministic across runs on the same feature set; the
// emitter relies on it to pair coefficients with expressions.
type PolynomialFeatures struct {
	State *model.StateManager

	// Degree is the maximum total degree of generated terms.
	Degree int

	// NFeatures is the number of input features, recorded by Fit.
	NFeatures int

	// terms holds one multiset of feature indices per output column; the
	// empty multiset is the constant term.
	terms [][]int
}

// NewPolynomialFeatures creates an expander for the given maximum degree.
// Degree must be positive; Fit reports an error otherwise.
func NewPolynomialFeatures(degree int) *PolynomialFeatures {
	return &PolynomialFeatures{
		State:  model.NewStateManager(),
		Degree: degree,
	}
}

// Fit records the input feature count and enumerates the term list.
//
// Parameters:
//   - X: input matrix of shape (n_samples, n_features)
//
// Returns:
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if Degree < 1
//   - ModelError(ErrEmptyData): if X is empty
func (p *PolynomialFeatures) Fit(X mat.Matrix) (err error) {
	defer aimcalErrors.Recover(&err, "PolynomialFeatures.Fit")

	if p.Degree < 1 {
		return aimcalErrors.NewValueError("PolynomialFeatures.Fit", "degree must be a positive integer")
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return aimcalErrors.NewModelError("PolynomialFeatures.Fit", "empty data", aimcalErrors.ErrEmptyData)
	}

	p.NFeatures = c
	p.terms = enumerateTerms(c, p.Degree)

	p.State.SetFitted()
	p.State.SetDimensions(c, r)
	return nil
}

// Transform materializes the design matrix for X: one row per sample, one
// column per enumerated term. Each column value is the product of the
// sample's features raised according to their multiplicities in the term.
//
// Parameters:
//   - X: input matrix of shape (n_samples, n_features)
//
// Returns:
//   - *mat.Dense: design matrix of shape (n_samples, NumTerms())
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - NotFittedError: if Fit has not been called
//   - DimensionError: if X has a different feature count than Fit saw
func (p *PolynomialFeatures) Transform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer aimcalErrors.Recover(&err, "PolynomialFeatures.Transform")

	if !p.State.IsFitted() {
		return nil, aimcalErrors.NewNotFittedError("PolynomialFeatures", "Transform")
	}

	r, c := X.Dims()
	if c != p.NFeatures {
		return nil, aimcalErrors.NewDimensionError("PolynomialFeatures.Transform", p.NFeatures, c, 1)
	}

	out := mat.NewDense(r, len(p.terms), nil)
	for i := 0; i < r; i++ {
		for j, term := range p.terms {
			val := 1.0
			for _, idx := range term {
				val *= X.At(i, idx)
			}
			out.Set(i, j, val)
		}
	}
	return out, nil
}

// FitTransform fits the expander on X and returns its design matrix.
func (p *PolynomialFeatures) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// NumTerms returns the number of enumerated terms (0 before Fit).
func (p *PolynomialFeatures) NumTerms() int {
	return len(p.terms)
}

// Terms returns the enumerated terms as multisets of feature indices. The
// slice is shared; callers must not modify it.
func (p *PolynomialFeatures) Terms() [][]int {
	return p.terms
}

// TermNames renders each term as a readable product of feature names, e.g.
// "1", "cutAngle", "cutAngle*power", "cutAngle*cutAngle*cutAngle".
// Multiplicities are expanded rather than written as exponents so the names
// double as source-level expressions.
//
// Parameters:
//   - featureNames: one name per input feature, in declaration order
//
// Returns:
//   - []string: one name per term, in enumeration order
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - NotFittedError: if Fit has not been called
//   - DimensionError: if featureNames has the wrong length
func (p *PolynomialFeatures) TermNames(featureNames []string) ([]string, error) {
	if !p.State.IsFitted() {
		return nil, aimcalErrors.NewNotFittedError("PolynomialFeatures", "TermNames")
	}

	if len(featureNames) != p.NFeatures {
		return nil, aimcalErrors.NewDimensionError("PolynomialFeatures.TermNames", p.NFeatures, len(featureNames), 1)
	}

	names := make([]string, len(p.terms))
	for j, term := range p.terms {
		if len(term) == 0 {
			names[j] = "1"
			continue
		}
		parts := make([]string, len(term))
		for i, idx := range term {
			parts[i] = featureNames[idx]
		}
		names[j] = strings.Join(parts, "*")
	}
	return names, nil
}

// enumerateTerms generates the canonical term list for k features up to
// maxDegree: the empty (constant) term, then per degree all non-decreasing
// index combinations in lexicographic order.
func enumerateTerms(k, maxDegree int) [][]int {
	terms := [][]int{{}}
	for d := 1; d <= maxDegree; d++ {
		combo := make([]int, d)
		for {
			term := make([]int, d)
			copy(term, combo)
			terms = append(terms, term)

			// Advance to the next non-decreasing combination.
			i := d - 1
			for i >= 0 && combo[i] == k-1 {
				i--
			}
			if i < 0 {
				break
			}
			combo[i]++
			for j := i + 1; j < d; j++ {
				combo[j] = combo[i]
			}
		}
	}
	return terms
}
