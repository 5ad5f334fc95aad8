package trainer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cuelab/aimcal/dataset"
	"github.com/cuelab/aimcal/jsgen"
	"github.com/cuelab/aimcal/linear"
	"github.com/cuelab/aimcal/metrics"
	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
	"github.com/cuelab/aimcal/pkg/log"
)

// FlatModel is a fitted flat polynomial model. Immutable after FitFlat.
type FlatModel struct {
	// Coefs and TermNames are paired 1:1 in term-enumeration order.
	Coefs     []float64
	TermNames []string

	Degree   int
	R2       float64
	RMSE     float64
	MAE      float64
	NSamples int

	Report *Report

	cfg   FlatConfig
	table *dataset.Table
	preds *mat.VecDense
}

// Coefficient pairs a term name with its fitted weight, for reporting.
type Coefficient struct {
	Term  string
	Value float64
}

// FitFlat validates records and fits a flat polynomial model.
//
// The fit is a pure function of records and cfg. Data-quality drops are
// recoverable and counted in the returned model's Report; the run fails
// only when the record set yields zero usable samples.
//
// Parameters:
//   - records: the raw record snapshot
//   - cfg: the fit configuration (zero-value fields are not defaulted; use
//     DefaultFlatConfig as a starting point)
//
// Returns:
//   - *FlatModel: the fitted model
//   - error: nil if successful, otherwise an error naming the failure
func FitFlat(records []dataset.Record, cfg FlatConfig) (*FlatModel, error) {
	logger := log.GetLoggerWithName("trainer").With(
		log.ComponentKey, "trainer",
		log.ModelNameKey, "flat",
	)

	tbl, err := dataset.Extract(records, cfg.Features, cfg.Target)
	if err != nil {
		return nil, err
	}
	tbl.LogSummary(logger)

	if cfg.MinSamplesWarn > 0 && tbl.Retained < cfg.MinSamplesWarn {
		logger.Warn("Very few samples; model may not be reliable",
			log.RetainedKey, tbl.Retained,
		)
	}

	reg := linear.NewPolyRegression(cfg.Degree, cfg.Solver)
	if err := reg.Fit(tbl.X, tbl.Y); err != nil {
		return nil, aimcalErrors.Wrap(err, "trainer.FitFlat")
	}

	names, err := reg.TermNames(cfg.Features)
	if err != nil {
		return nil, err
	}

	preds := reg.FittedPredictions()
	mae, err := metrics.MAE(tbl.Y, preds)
	if err != nil {
		return nil, err
	}

	m := &FlatModel{
		Coefs:     reg.Coefficients(),
		TermNames: names,
		Degree:    cfg.Degree,
		R2:        reg.R2(),
		RMSE:      reg.RMSE(),
		MAE:       mae,
		NSamples:  tbl.Retained,
		Report: &Report{
			TotalRecords: len(records),
			Retained:     tbl.Retained,
			Dropped:      tbl.Dropped,
			Columns:      tbl.Describe(),
		},
		cfg:   cfg,
		table: tbl,
		preds: preds,
	}

	logger.Info("Flat model fitted",
		log.SamplesKey, m.NSamples,
		log.TermsKey, len(m.Coefs),
		log.R2Key, m.R2,
		log.RMSEKey, m.RMSE,
		log.MAEKey, m.MAE,
	)
	return m, nil
}

// JS renders the model as a JavaScript artifact. Deterministic: the same
// fitted model always yields byte-identical source.
func (m *FlatModel) JS() string {
	return jsgen.EmitFlat(&jsgen.FlatModel{
		Coefs:     m.Coefs,
		TermNames: m.TermNames,
		Features:  m.cfg.Features,
		Degree:    m.Degree,
		R2:        m.R2,
		RMSE:      m.RMSE,
		NSamples:  m.NSamples,
	})
}

// SignificantCoefficients returns up to limit coefficients with magnitude
// above 1e-6, largest magnitude first.
func (m *FlatModel) SignificantCoefficients(limit int) []Coefficient {
	idx := make([]int, len(m.Coefs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(m.Coefs[idx[a]]) > math.Abs(m.Coefs[idx[b]])
	})

	var out []Coefficient
	for _, i := range idx {
		if len(out) >= limit {
			break
		}
		if math.Abs(m.Coefs[i]) <= 1e-6 {
			continue
		}
		out = append(out, Coefficient{Term: m.TermNames[i], Value: m.Coefs[i]})
	}
	return out
}
