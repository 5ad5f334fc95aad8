package trainer

import (
	"fmt"

	"github.com/cuelab/aimcal/dataset"
	"github.com/cuelab/aimcal/jsgen"
	"github.com/cuelab/aimcal/piecewise"
	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
	"github.com/cuelab/aimcal/pkg/log"
)

// SplitModel is a fitted adaptive bracket/split model. Immutable after
// FitPiecewise.
type SplitModel struct {
	// Result holds the fitted brackets and pooled held-out metrics.
	Result *piecewise.Result

	// Brackets is the full configured bracket list (including skipped and
	// failed indices, which Result accounts for).
	Brackets []piecewise.Bracket

	NSamples int

	// TrainedOn names the input dataset in the artifact header.
	TrainedOn string

	Report *Report

	cfg SplitConfig
}

// FitPiecewise validates records, partitions them into power brackets, and
// runs the per-bracket split search.
//
// The run aborts before fitting when fewer than cfg.MinRows usable rows
// remain. Brackets with too few samples or no viable split are excluded
// and reported; the run succeeds while at least one bracket fits.
//
// Parameters:
//   - records: the raw record snapshot
//   - cfg: the fit configuration (use DefaultSplitConfig as a starting
//     point)
//
// Returns:
//   - *SplitModel: the fitted model
//   - error: nil if successful, otherwise an error naming the failure
func FitPiecewise(records []dataset.Record, cfg SplitConfig) (*SplitModel, error) {
	logger := log.GetLoggerWithName("trainer").With(
		log.ComponentKey, "trainer",
		log.ModelNameKey, "piecewise",
	)

	tbl, err := dataset.Extract(records, cfg.Features, cfg.Target)
	if err != nil {
		return nil, err
	}
	tbl.LogSummary(logger)

	if tbl.Retained < cfg.MinRows {
		return nil, aimcalErrors.NewValueError("trainer.FitPiecewise",
			fmt.Sprintf("not enough usable rows: %d (need at least %d)", tbl.Retained, cfg.MinRows))
	}

	powers, err := tbl.ColumnByName(cfg.PowerField)
	if err != nil {
		return nil, err
	}

	splitCol := -1
	for j, name := range tbl.FeatureNames {
		if name == cfg.SplitField {
			splitCol = j
			break
		}
	}
	if splitCol < 0 {
		return nil, aimcalErrors.NewValueError("trainer.FitPiecewise",
			fmt.Sprintf("split field %q is not a declared feature", cfg.SplitField))
	}

	brackets := cfg.Brackets
	if brackets == nil {
		brackets, err = piecewise.MakeBrackets(powers, cfg.AutoBrackets)
		if err != nil {
			return nil, err
		}
	}

	result, err := piecewise.Search(tbl.X, tbl.Y, powers, splitCol, brackets, cfg.searchConfig())
	if err != nil {
		return nil, aimcalErrors.Wrap(err, "trainer.FitPiecewise")
	}

	m := &SplitModel{
		Result:   result,
		Brackets: brackets,
		NSamples: tbl.Retained,
		cfg:      cfg,
		Report: &Report{
			TotalRecords:    len(records),
			Retained:        tbl.Retained,
			Dropped:         tbl.Dropped,
			Columns:         tbl.Describe(),
			SkippedBrackets: result.Skipped,
			FailedBrackets:  result.Failed,
			FittedBrackets:  len(result.Brackets),
		},
	}

	logger.Info("Piecewise model fitted",
		log.SamplesKey, m.NSamples,
		"brackets_fitted", len(result.Brackets),
		"brackets_skipped", len(result.Skipped),
		"brackets_failed", len(result.Failed),
		log.R2Key, result.Pooled.R2,
		log.RMSEKey, result.Pooled.RMSE,
		log.MAEKey, result.Pooled.MAE,
	)
	return m, nil
}

// Predict routes one feature vector (in cfg.Features order) through the
// fitted model: by power into a bracket (clamping out-of-range power to the
// nearest bracket), then by the split feature into a side, then clips the
// prediction into ±Clip.
func (m *SplitModel) Predict(features []float64) (float64, error) {
	powerIdx := -1
	splitCol := -1
	for j, name := range m.cfg.Features {
		switch name {
		case m.cfg.PowerField:
			powerIdx = j
		}
		if name == m.cfg.SplitField {
			splitCol = j
		}
	}
	if powerIdx < 0 || splitCol < 0 {
		return 0, aimcalErrors.NewValueError("SplitModel.Predict", "model configuration lacks power/split fields")
	}

	power := features[powerIdx]
	bm := m.Result.Brackets[0]
	for _, candidate := range m.Result.Brackets {
		bm = candidate
		if power < candidate.Bracket.High {
			break
		}
	}

	y, err := bm.Predict(features, splitCol)
	if err != nil {
		return 0, err
	}
	if y > m.cfg.Clip {
		y = m.cfg.Clip
	} else if y < -m.cfg.Clip {
		y = -m.cfg.Clip
	}
	return y, nil
}

// JS renders the model as a JavaScript artifact. Deterministic: the same
// fitted model and configuration always yield byte-identical source.
func (m *SplitModel) JS() string {
	brackets := make([]jsgen.PiecewiseBracket, len(m.Result.Brackets))
	for i, bm := range m.Result.Brackets {
		brackets[i] = jsgen.PiecewiseBracket{
			Index:    bm.Index,
			PowerMin: bm.Bracket.Low,
			PowerMax: bm.Bracket.High,
			Split:    bm.Split,
			N:        bm.N,
			RMSE:     bm.HoldoutRMSE,
			Left: jsgen.PolyCoeffs{
				Coefs: bm.Left.Coefficients(),
				Terms: bm.Left.Terms(),
			},
			Right: jsgen.PolyCoeffs{
				Coefs: bm.Right.Coefficients(),
				Terms: bm.Right.Terms(),
			},
		}
	}

	return jsgen.EmitPiecewise(&jsgen.PiecewiseModel{
		Brackets:  brackets,
		Features:  m.cfg.DeclaredFeatures,
		Vars:      m.cfg.Features,
		Degree:    m.cfg.Degree,
		Clip:      m.cfg.Clip,
		NSamples:  m.NSamples,
		TrainedOn: m.TrainedOn,
		Metrics: jsgen.PiecewiseMetrics{
			R2:   m.Result.Pooled.R2,
			RMSE: m.Result.Pooled.RMSE,
			MAE:  m.Result.Pooled.MAE,
		},
	})
}
