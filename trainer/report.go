package trainer

import (
	"github.com/cuelab/aimcal/dataset"
)

// Report aggregates the data-quality and fit accounting of a training run,
// so a user can judge dataset adequacy: how many records survived
// validation, what each column looked like, and which brackets were skipped
// or failed.
type Report struct {
	// TotalRecords is the raw record count; Retained and Dropped the
	// validation outcome.
	TotalRecords int
	Retained     int
	Dropped      int

	// Columns holds the advisory per-column statistics.
	Columns []dataset.ColumnSummary

	// SkippedBrackets lists bracket indices with too few samples;
	// FailedBrackets those where no viable split was found;
	// FittedBrackets counts brackets in the final artifact. All zero/nil
	// for non-bracketed variants.
	SkippedBrackets []int
	FailedBrackets  []int
	FittedBrackets  int
}
