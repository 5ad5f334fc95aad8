package trainer

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
)

// cutAngleRanges are the reporting buckets for the per-range analysis.
var cutAngleRanges = [][2]float64{{0, 15}, {15, 30}, {30, 45}, {45, 60}, {60, 90}}

// spinRanges are the reporting buckets for the per-spin analysis.
var spinRanges = []struct {
	label     string
	low, high float64
}{
	{"backspin", -1, -0.3},
	{"neutral", -0.3, 0.3},
	{"topspin", 0.3, 1},
}

// RangeStat summarizes the target and model error over one cut-angle range.
type RangeStat struct {
	Low, High float64
	N         int
	MeanErr   float64
	StdErr    float64
	ModelMAE  float64
}

// SpinStat summarizes the target over one spin regime.
type SpinStat struct {
	Label   string
	N       int
	MeanErr float64
}

// AnalyzeByCutAngle breaks the training data down by cut-angle range:
// sample count, mean and spread of the true error, and the model's MAE in
// that range. Ranges with no samples are omitted.
func (m *FlatModel) AnalyzeByCutAngle() ([]RangeStat, error) {
	cut, err := m.table.ColumnByName(FieldCutAngle)
	if err != nil {
		return nil, err
	}
	targets := m.table.Targets()

	var out []RangeStat
	for _, rng := range cutAngleRanges {
		var n int
		var sumY, sumSq, sumAbs float64
		for i, c := range cut {
			if c < rng[0] || c >= rng[1] {
				continue
			}
			n++
			sumY += targets[i]
			sumAbs += math.Abs(targets[i] - m.preds.AtVec(i))
		}
		if n == 0 {
			continue
		}
		mean := sumY / float64(n)
		for i, c := range cut {
			if c >= rng[0] && c < rng[1] {
				sumSq += (targets[i] - mean) * (targets[i] - mean)
			}
		}
		out = append(out, RangeStat{
			Low:      rng[0],
			High:     rng[1],
			N:        n,
			MeanErr:  mean,
			StdErr:   math.Sqrt(sumSq / float64(n)),
			ModelMAE: sumAbs / float64(n),
		})
	}
	return out, nil
}

// AnalyzeBySpin breaks the true error down by spin regime. Returns an error
// when the model was trained without a spin feature.
func (m *FlatModel) AnalyzeBySpin() ([]SpinStat, error) {
	spin, err := m.table.ColumnByName(FieldSpinY)
	if err != nil {
		return nil, err
	}
	targets := m.table.Targets()

	var out []SpinStat
	for _, rng := range spinRanges {
		var n int
		var sum float64
		for i, s := range spin {
			if s < rng.low || s >= rng.high {
				continue
			}
			n++
			sum += targets[i]
		}
		if n == 0 {
			continue
		}
		out = append(out, SpinStat{Label: rng.label, N: n, MeanErr: sum / float64(n)})
	}
	return out, nil
}

// WriteAnalysis prints the per-range and per-spin breakdowns to w in the
// console report format.
func (m *FlatModel) WriteAnalysis(w io.Writer) error {
	byCut, err := m.AnalyzeByCutAngle()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\n=== Model Analysis ===")
	fmt.Fprintln(w, "\nAngle error by cut angle range:")
	for _, s := range byCut {
		fmt.Fprintf(w, "  %2.0f-%2.0f deg: n=%4d, mean error=%+.2f deg, std=%.2f, model MAE=%.2f\n",
			s.Low, s.High, s.N, s.MeanErr, s.StdErr, s.ModelMAE)
	}

	bySpin, err := m.AnalyzeBySpin()
	if err != nil {
		// Spin is optional for analysis; skip the section when the model
		// was trained without it.
		return nil
	}
	fmt.Fprintln(w, "\nAngle error by spin:")
	for _, s := range bySpin {
		fmt.Fprintf(w, "  %-10s: n=%4d, mean error=%+.2f deg\n", s.Label, s.N, s.MeanErr)
	}
	return nil
}

// SaveResidualPlot writes a cut-angle versus residual scatter plot to path
// (format chosen by extension, e.g. .png). Diagnostic output only; the plot
// has no effect on the fitted model.
func (m *FlatModel) SaveResidualPlot(path string) error {
	cut, err := m.table.ColumnByName(FieldCutAngle)
	if err != nil {
		return err
	}
	targets := m.table.Targets()

	pts := make(plotter.XYs, len(cut))
	for i := range cut {
		pts[i].X = cut[i]
		pts[i].Y = targets[i] - m.preds.AtVec(i)
	}

	p := plot.New()
	p.Title.Text = "Angle error model residuals"
	p.X.Label.Text = "cutAngle (deg)"
	p.Y.Label.Text = "residual (deg)"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return aimcalErrors.Wrap(err, "FlatModel.SaveResidualPlot")
	}
	p.Add(scatter, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return aimcalErrors.Wrapf(err, "FlatModel.SaveResidualPlot: %s", path)
	}
	return nil
}
