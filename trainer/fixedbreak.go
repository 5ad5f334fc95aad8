package trainer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cuelab/aimcal/dataset"
	"github.com/cuelab/aimcal/jsgen"
	"github.com/cuelab/aimcal/linear"
	"github.com/cuelab/aimcal/metrics"
	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
	"github.com/cuelab/aimcal/pkg/log"
)

// FixedBreakModel is a fitted fixed-breakpoint model: a cubic in cutAngle
// at or below the break angle, a linear model in (cutAngle, power,
// distance, cutAngle·distance) above it. Immutable after FitFixedBreak.
type FixedBreakModel struct {
	BreakDeg float64
	CoefLow  [4]float64
	CoefHigh [5]float64

	R2       float64
	RMSE     float64
	NSamples int

	Report *Report
}

// FitFixedBreak fits the fixed-breakpoint model. Unlike the adaptive
// variant the breakpoint is hand-specified, so there is no search: each
// branch gets a single stable least-squares fit over its own hand-built
// design matrix, and fit quality is scored over all samples routed through
// the branch rule.
//
// Requires records carrying cutAngle, power, cueBallToTargetDist and
// angleError; records missing any are dropped.
func FitFixedBreak(records []dataset.Record, cfg FixedBreakConfig) (*FixedBreakModel, error) {
	logger := log.GetLoggerWithName("trainer").With(
		log.ComponentKey, "trainer",
		log.ModelNameKey, "fixedbreak",
	)

	tbl, err := dataset.Extract(records,
		[]string{FieldCutAngle, FieldPower, FieldDistance}, FieldTarget)
	if err != nil {
		return nil, err
	}
	tbl.LogSummary(logger)

	cut := tbl.Column(0)
	power := tbl.Column(1)
	dist := tbl.Column(2)
	targets := tbl.Targets()

	var lowRows, highRows []int
	for i, c := range cut {
		if c <= cfg.BreakDeg {
			lowRows = append(lowRows, i)
		} else {
			highRows = append(highRows, i)
		}
	}
	if len(lowRows) == 0 || len(highRows) == 0 {
		return nil, aimcalErrors.NewModelError("trainer.FitFixedBreak",
			"breakpoint leaves one branch with no samples", aimcalErrors.ErrEmptyData)
	}

	solver := linear.LeastSquares{}

	// Low-cut branch: angleError = c0 + c1·cut + c2·cut² + c3·cut³.
	XLow := mat.NewDense(len(lowRows), 4, nil)
	yLow := mat.NewVecDense(len(lowRows), nil)
	for k, i := range lowRows {
		c := cut[i]
		XLow.Set(k, 0, 1)
		XLow.Set(k, 1, c)
		XLow.Set(k, 2, c*c)
		XLow.Set(k, 3, c*c*c)
		yLow.SetVec(k, targets[i])
	}
	coefLow, err := solver.Solve(XLow, yLow)
	if err != nil {
		return nil, aimcalErrors.Wrap(err, "trainer.FitFixedBreak: low-cut branch")
	}

	// High-cut branch: angleError = a0 + a1·cut + a2·power + a3·dist + a4·cut·dist.
	XHigh := mat.NewDense(len(highRows), 5, nil)
	yHigh := mat.NewVecDense(len(highRows), nil)
	for k, i := range highRows {
		XHigh.Set(k, 0, 1)
		XHigh.Set(k, 1, cut[i])
		XHigh.Set(k, 2, power[i])
		XHigh.Set(k, 3, dist[i])
		XHigh.Set(k, 4, cut[i]*dist[i])
		yHigh.SetVec(k, targets[i])
	}
	coefHigh, err := solver.Solve(XHigh, yHigh)
	if err != nil {
		return nil, aimcalErrors.Wrap(err, "trainer.FitFixedBreak: high-cut branch")
	}

	m := &FixedBreakModel{
		BreakDeg: cfg.BreakDeg,
		NSamples: tbl.Retained,
		Report: &Report{
			TotalRecords: len(records),
			Retained:     tbl.Retained,
			Dropped:      tbl.Dropped,
			Columns:      tbl.Describe(),
		},
	}
	copy(m.CoefLow[:], coefLow)
	copy(m.CoefHigh[:], coefHigh)

	// Overall fit quality across both branches.
	preds := mat.NewVecDense(tbl.Retained, nil)
	for i := range targets {
		preds.SetVec(i, m.predict(cut[i], power[i], dist[i]))
	}
	m.R2, err = metrics.R2Score(tbl.Y, preds)
	if err != nil {
		return nil, err
	}
	m.RMSE, err = metrics.RMSE(tbl.Y, preds)
	if err != nil {
		return nil, err
	}

	logger.Info("Fixed-break model fitted",
		log.SamplesKey, m.NSamples,
		"break_deg", m.BreakDeg,
		log.R2Key, m.R2,
		log.RMSEKey, m.RMSE,
	)
	return m, nil
}

// Predict evaluates the fitted model for one shot.
func (m *FixedBreakModel) Predict(cutAngle, power, distance float64) float64 {
	return m.predict(cutAngle, power, distance)
}

func (m *FixedBreakModel) predict(c, p, d float64) float64 {
	if c <= m.BreakDeg {
		return m.CoefLow[0] + m.CoefLow[1]*c + m.CoefLow[2]*c*c + m.CoefLow[3]*c*c*c
	}
	return m.CoefHigh[0] + m.CoefHigh[1]*c + m.CoefHigh[2]*p + m.CoefHigh[3]*d + m.CoefHigh[4]*c*d
}

// JS renders the model as a JavaScript artifact.
func (m *FixedBreakModel) JS() string {
	return jsgen.EmitFixedBreak(&jsgen.FixedBreakModel{
		BreakDeg: m.BreakDeg,
		CoefLow:  m.CoefLow,
		CoefHigh: m.CoefHigh,
		R2:       m.R2,
		RMSE:     m.RMSE,
		NSamples: m.NSamples,
	})
}
