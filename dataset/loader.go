// Package dataset loads and validates labeled shot records for the
// calibration trainer.
//
// Input is JSON: either a bare array of record objects or an object whose
// "data" field holds that array. Records missing a required field, or with a
// non-numeric or non-finite value in one, are dropped and counted — a
// recoverable data-quality condition, not an error. The run only fails when
// the input cannot be interpreted at all or no valid samples remain.
//
// Example usage:
//
//	records, err := dataset.LoadFile("shots.json")
//	tbl, err := dataset.Extract(records, []string{"cutAngle", "power"}, "angleError")
//	fmt.Printf("%d of %d records retained\n", tbl.Retained, tbl.Retained+tbl.Dropped)
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
	"github.com/cuelab/aimcal/pkg/log"
)

// Record is one raw labeled sample: a mapping of field name to value as
// decoded from JSON.
type Record map[string]interface{}

// Table is the validated, rectangular view of a record set: a feature
// matrix, a target vector, and the retention accounting for the validation
// pass that produced them.
type Table struct {
	// X is the feature matrix, one row per retained record, columns in
	// FeatureNames order.
	X *mat.Dense

	// Y is the target vector, aligned with X's rows.
	Y *mat.VecDense

	// FeatureNames are the required feature fields, in declaration order.
	FeatureNames []string

	// Target is the required label field.
	Target string

	// Retained and Dropped count records kept and discarded during
	// validation.
	Retained int
	Dropped  int
}

// ColumnSummary holds the descriptive statistics of one column, reported
// for dataset-adequacy review. Advisory only; never feeds back into
// fitting.
type ColumnSummary struct {
	Name   string
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// LoadRecords decodes a record sequence from r. The payload must be either
// a JSON array of objects or an object with a "data" array of objects.
//
// Returns:
//   - []Record: the decoded records (possibly empty)
//   - error: a ValueError wrapping ErrInvalidInput when the payload has
//     neither accepted shape, or the raw decode error for malformed JSON
func LoadRecords(r io.Reader) ([]Record, error) {
	var raw interface{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, aimcalErrors.Wrap(err, "dataset.LoadRecords: invalid JSON")
	}

	switch v := raw.(type) {
	case []interface{}:
		return coerceRecords(v)
	case map[string]interface{}:
		data, ok := v["data"]
		if !ok {
			return nil, aimcalErrors.NewModelError("dataset.LoadRecords",
				"input object has no 'data' list", aimcalErrors.ErrInvalidInput)
		}
		list, ok := data.([]interface{})
		if !ok {
			return nil, aimcalErrors.NewModelError("dataset.LoadRecords",
				"'data' field is not a list", aimcalErrors.ErrInvalidInput)
		}
		return coerceRecords(list)
	default:
		return nil, aimcalErrors.NewModelError("dataset.LoadRecords",
			"input must be a list of records or an object with a 'data' list",
			aimcalErrors.ErrInvalidInput)
	}
}

// LoadFile opens path and decodes its records with LoadRecords.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, aimcalErrors.Wrapf(err, "dataset.LoadFile: %s", path)
	}
	defer func() { _ = f.Close() }()

	records, err := LoadRecords(f)
	if err != nil {
		return nil, aimcalErrors.Wrapf(err, "dataset.LoadFile: %s", path)
	}
	return records, nil
}

func coerceRecords(list []interface{}) ([]Record, error) {
	records := make([]Record, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, aimcalErrors.NewValueError("dataset.LoadRecords",
				fmt.Sprintf("record %d is not an object", i))
		}
		records = append(records, Record(obj))
	}
	return records, nil
}

// Extract validates records against the required feature and target fields
// and builds the rectangular Table. A record is dropped when any required
// field is absent, non-numeric, or non-finite. Extraction fails only when
// no valid samples remain.
//
// Parameters:
//   - records: the raw record sequence
//   - features: required feature field names, in declaration order
//   - target: required label field name
//
// Returns:
//   - *Table: the validated table
//   - error: nil if at least one record survives validation
//
// Errors:
//   - ValueError: if features is empty
//   - ModelError(ErrEmptyData): if zero valid samples remain
func Extract(records []Record, features []string, target string) (*Table, error) {
	if len(features) == 0 {
		return nil, aimcalErrors.NewValueError("dataset.Extract", "no feature fields declared")
	}

	rows := make([]float64, 0, len(records)*len(features))
	targets := make([]float64, 0, len(records))
	dropped := 0

recordLoop:
	for _, rec := range records {
		row := make([]float64, len(features))
		for j, name := range features {
			v, ok := numericField(rec, name)
			if !ok {
				dropped++
				continue recordLoop
			}
			row[j] = v
		}
		y, ok := numericField(rec, target)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row...)
		targets = append(targets, y)
	}

	if len(targets) == 0 {
		return nil, aimcalErrors.NewModelError("dataset.Extract",
			fmt.Sprintf("no valid samples: all %d records missing required fields", len(records)),
			aimcalErrors.ErrEmptyData)
	}

	return &Table{
		X:            mat.NewDense(len(targets), len(features), rows),
		Y:            mat.NewVecDense(len(targets), targets),
		FeatureNames: features,
		Target:       target,
		Retained:     len(targets),
		Dropped:      dropped,
	}, nil
}

// numericField fetches a finite numeric field from rec. JSON numbers decode
// as float64; anything else (missing, string, bool, null, NaN, Inf) fails.
func numericField(rec Record, name string) (float64, bool) {
	raw, ok := rec[name]
	if !ok {
		return 0, false
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Len returns the number of retained samples.
func (t *Table) Len() int {
	return t.Retained
}

// Column returns a copy of feature column j.
func (t *Table) Column(j int) []float64 {
	r, _ := t.X.Dims()
	out := make([]float64, r)
	mat.Col(out, j, t.X)
	return out
}

// ColumnByName returns a copy of the named feature column.
func (t *Table) ColumnByName(name string) ([]float64, error) {
	for j, n := range t.FeatureNames {
		if n == name {
			return t.Column(j), nil
		}
	}
	return nil, aimcalErrors.NewValueError("Table.ColumnByName",
		fmt.Sprintf("no feature column named %q", name))
}

// Targets returns a copy of the target vector.
func (t *Table) Targets() []float64 {
	out := make([]float64, t.Y.Len())
	for i := range out {
		out[i] = t.Y.AtVec(i)
	}
	return out
}

// Describe computes descriptive statistics for every feature column and the
// target. Advisory reporting only; the numbers never influence fitting.
func (t *Table) Describe() []ColumnSummary {
	summaries := make([]ColumnSummary, 0, len(t.FeatureNames)+1)
	for j, name := range t.FeatureNames {
		summaries = append(summaries, summarize(name, t.Column(j)))
	}
	summaries = append(summaries, summarize(t.Target, t.Targets()))
	return summaries
}

func summarize(name string, data []float64) ColumnSummary {
	// stats errors only on empty input; Extract guarantees non-empty.
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	mean, _ := stats.Mean(data)
	sd, _ := stats.StandardDeviation(data)
	median, _ := stats.Median(data)

	return ColumnSummary{
		Name:   name,
		Min:    min,
		Max:    max,
		Mean:   mean,
		StdDev: sd,
		Median: median,
	}
}

// LogSummary writes the per-column ranges and the retention count to the
// structured log.
func (t *Table) LogSummary(logger log.Logger) {
	if logger == nil {
		return
	}
	logger.Info("Dataset extracted",
		log.RetainedKey, t.Retained,
		log.DroppedKey, t.Dropped,
		log.FeaturesKey, len(t.FeatureNames),
	)
	for _, s := range t.Describe() {
		logger.Info("Column summary",
			"column", s.Name,
			"min", s.Min,
			"max", s.Max,
			"mean", s.Mean,
			"std", s.StdDev,
		)
	}
}
