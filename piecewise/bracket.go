// Package piecewise implements the adaptive bracket/split model-selection
// engine.
//
// The engine partitions samples into power brackets, and within each bracket
// grid-searches a cut-angle split threshold: every candidate threshold gets
// two independently fitted ridge-polynomial sub-models (below / at-or-above
// the threshold), scored by pooled RMSE on a held-out subset. The threshold
// with the lowest held-out RMSE wins, ties going to the lowest threshold.
//
// A single global polynomial underfits regimes with qualitatively different
// physical behavior (near-straight versus heavily-cut shots); the coarse
// partition on one axis plus the fine split search on another captures a
// regime change without a hand-specified breakpoint, while the held-out
// discipline keeps the search from fitting noise.
package piecewise

import (
	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

// lastBracketNudge widens the final auto-generated bracket so the maximum
// observed power value lands inside it despite the half-open convention.
const lastBracketNudge = 1e-9

// Bracket is a half-open interval [Low, High) on the power axis.
type Bracket struct {
	Low  float64
	High float64
}

// Contains reports whether p falls inside the bracket.
func (b Bracket) Contains(p float64) bool {
	return p >= b.Low && p < b.High
}

// MakeBrackets generates n equal-width brackets spanning the observed power
// range. The final bracket's upper bound is nudged up by a small epsilon so
// the maximum sample is included; every observed value is guaranteed to fall
// in exactly one bracket. A degenerate range (max <= min) collapses to a
// single bracket.
//
// Parameters:
//   - powers: the observed power values (must be non-empty)
//   - n: the number of brackets (must be positive)
//
// Returns:
//   - []Bracket: the generated brackets, in ascending order
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if powers is empty or n < 1
func MakeBrackets(powers []float64, n int) ([]Bracket, error) {
	if len(powers) == 0 {
		return nil, aimcalErrors.NewValueError("piecewise.MakeBrackets", "no power values")
	}
	if n < 1 {
		return nil, aimcalErrors.NewValueError("piecewise.MakeBrackets", "bracket count must be positive")
	}

	lo, hi := powers[0], powers[0]
	for _, p := range powers[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}

	if hi <= lo {
		return []Bracket{{Low: lo, High: hi + lastBracketNudge}}, nil
	}

	brackets := make([]Bracket, n)
	width := (hi - lo) / float64(n)
	for i := 0; i < n; i++ {
		brackets[i] = Bracket{
			Low:  lo + float64(i)*width,
			High: lo + float64(i+1)*width,
		}
	}
	// Close the rounding gap at the top of the domain.
	brackets[n-1].High = hi + lastBracketNudge
	return brackets, nil
}

// BracketFor returns the index of the bracket containing p, or -1 when p
// falls outside every bracket.
func BracketFor(brackets []Bracket, p float64) int {
	for i, b := range brackets {
		if b.Contains(p) {
			return i
		}
	}
	return -1
}
