// Package trainer orchestrates calibration training runs: load and validate
// a dataset snapshot, fit one of the supported model shapes, and hand the
// immutable fitted model to the JavaScript emitter.
//
// Three model shapes are supported:
//
//   - FitFlat: a single polynomial over the declared features.
//   - FitPiecewise: the adaptive bracket/split model (power brackets, per
//     bracket a searched cut-angle split with two ridge sub-models).
//   - FitFixedBreak: a hand-specified cut-angle breakpoint with a cubic
//     low-cut branch and a linear high-cut branch.
//
// Each fit is a pure function of its record snapshot and configuration:
// configurations are plain immutable values, models are never mutated after
// fitting, and a fixed random seed makes repeated runs produce byte-identical
// artifacts.
package trainer

import (
	"github.com/cuelab/aimcal/linear"
	"github.com/cuelab/aimcal/piecewise"
)

// Default field names shared by the shipped variants.
const (
	FieldCutAngle = "cutAngle"
	FieldSpinY    = "spinY"
	FieldPower    = "power"
	FieldDistance = "cueBallToTargetDist"
	FieldTarget   = "angleError"
)

// FlatConfig configures a flat polynomial fit.
type FlatConfig struct {
	// Degree is the maximum polynomial degree.
	Degree int

	// Features are the required feature fields, in declaration order;
	// Target is the label field.
	Features []string
	Target   string

	// Solver selects the least-squares strategy; nil uses the stable
	// QR-backed solver.
	Solver linear.Solver

	// MinSamplesWarn triggers a reliability warning (not a failure) when
	// fewer samples survive validation.
	MinSamplesWarn int
}

// DefaultFlatConfig returns the flat variant's shipped configuration:
// degree 2 over (cutAngle, spinY, power).
func DefaultFlatConfig() FlatConfig {
	return FlatConfig{
		Degree:         2,
		Features:       []string{FieldCutAngle, FieldSpinY, FieldPower},
		Target:         FieldTarget,
		MinSamplesWarn: 10,
	}
}

// SplitConfig configures the adaptive bracket/split fit.
type SplitConfig struct {
	// Degree is the per-side polynomial degree; Alpha the ridge strength.
	Degree int
	Alpha  float64

	// Features are the model's input fields in declaration order; Target
	// the label field. PowerField must name the bracket axis and
	// SplitField the split axis; both must appear in Features (the power
	// axis doubles as a model input).
	Features   []string
	Target     string
	PowerField string
	SplitField string

	// DeclaredFeatures is the emitted predictor's argument list, which may
	// carry compatibility-only fields (spinY) that the model ignores.
	DeclaredFeatures []string

	// Brackets, when non-nil, is the explicit ordered bracket list;
	// otherwise AutoBrackets equal-width brackets are generated from the
	// observed power range.
	Brackets     []piecewise.Bracket
	AutoBrackets int

	// SplitMin, SplitMax, SplitStep define the inclusive candidate grid.
	SplitMin  int
	SplitMax  int
	SplitStep int

	// TestSize is the held-out fraction; Seed fixes the per-bracket
	// shuffle.
	TestSize float64
	Seed     int64

	MinSamplesPerBracket int
	MinSamplesPerSide    int

	// Clip bounds emitted predictions to [-Clip, Clip].
	Clip float64

	// MinRows aborts the run before fitting when fewer usable rows remain.
	MinRows int
}

// DefaultSplitConfig returns the adaptive variant's shipped configuration.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		Degree:               3,
		Alpha:                1.0,
		Features:             []string{FieldCutAngle, FieldPower},
		Target:               FieldTarget,
		PowerField:           FieldPower,
		SplitField:           FieldCutAngle,
		DeclaredFeatures:     []string{FieldCutAngle, FieldSpinY, FieldPower},
		AutoBrackets:         55,
		SplitMin:             10,
		SplitMax:             60,
		SplitStep:            1,
		TestSize:             0.2,
		Seed:                 42,
		MinSamplesPerBracket: 10,
		MinSamplesPerSide:    5,
		Clip:                 15.0,
		MinRows:              200,
	}
}

// searchConfig projects the split-search fields into the piecewise engine's
// configuration.
func (c SplitConfig) searchConfig() piecewise.Config {
	return piecewise.Config{
		Degree:               c.Degree,
		Alpha:                c.Alpha,
		SplitMin:             c.SplitMin,
		SplitMax:             c.SplitMax,
		SplitStep:            c.SplitStep,
		TestSize:             c.TestSize,
		Seed:                 c.Seed,
		MinSamplesPerBracket: c.MinSamplesPerBracket,
		MinSamplesPerSide:    c.MinSamplesPerSide,
	}
}

// FixedBreakConfig configures the fixed-breakpoint fit.
type FixedBreakConfig struct {
	// BreakDeg is the cut-angle breakpoint separating the cubic low-cut
	// branch from the linear high-cut branch.
	BreakDeg float64
}

// DefaultFixedBreakConfig returns the shipped 30° breakpoint.
func DefaultFixedBreakConfig() FixedBreakConfig {
	return FixedBreakConfig{BreakDeg: 30.0}
}
