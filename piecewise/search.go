package piecewise

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/cuelab/aimcal/core/parallel"
	"github.com/cuelab/aimcal/linear"
	"github.com/cuelab/aimcal/metrics"
	aimcalErrors "github.com/cuelab/aimcal/pkg/errors"
	"github.com/cuelab/aimcal/pkg/log"
)

// parallelCandidateThreshold is the grid size below which candidates are
// scored sequentially.
const parallelCandidateThreshold = 8

// Config holds the immutable search configuration. Construct once per
// training run; repeated runs with the same Config and data select the same
// model.
type Config struct {
	// Degree is the per-side polynomial degree.
	Degree int

	// Alpha is the per-side ridge regularization strength.
	Alpha float64

	// SplitMin, SplitMax, SplitStep define the inclusive integer candidate
	// grid for the split threshold.
	SplitMin  int
	SplitMax  int
	SplitStep int

	// TestSize is the held-out fraction per bracket, in (0, 1).
	TestSize float64

	// Seed fixes the per-bracket train/held-out shuffle. Determinism is a
	// correctness requirement: two runs over identical input must select
	// identical models.
	Seed int64

	// MinSamplesPerBracket skips brackets with fewer samples.
	MinSamplesPerBracket int

	// MinSamplesPerSide rejects split candidates leaving either side with
	// fewer training samples.
	MinSamplesPerSide int
}

// Metrics bundles the three fit-quality figures reported per bracket and
// pooled.
type Metrics struct {
	R2   float64
	RMSE float64
	MAE  float64
}

// BracketModel is the fitted model for one bracket: a split threshold and
// the two per-side sub-models, plus held-out fit quality.
type BracketModel struct {
	// Index is the bracket's position in the configured bracket list.
	Index int

	Bracket Bracket

	// Split is the selected cut-angle threshold; samples with the split
	// feature strictly below it route to Left, others to Right.
	Split int

	Left  *linear.PolyRegression
	Right *linear.PolyRegression

	// N is the total sample count in the bracket (train + held-out).
	N int

	// HoldoutRMSE and HoldoutR2 score the routed predictions on the
	// bracket's held-out subset.
	HoldoutRMSE float64
	HoldoutR2   float64

	// RMSELeft and RMSERight break the held-out RMSE down by side; NaN
	// when the held-out subset has no samples on that side.
	RMSELeft  float64
	RMSERight float64

	holdoutTrue []float64
	holdoutPred []float64
}

// Predict routes a single feature vector through the bracket's split and
// evaluates the matching side.
func (bm *BracketModel) Predict(features []float64, splitCol int) (float64, error) {
	if features[splitCol] < float64(bm.Split) {
		return bm.Left.PredictOne(features)
	}
	return bm.Right.PredictOne(features)
}

// Result is the outcome of a full bracket/split search.
type Result struct {
	// Brackets holds the successfully fitted bracket models, in bracket
	// order.
	Brackets []*BracketModel

	// Skipped lists bracket indices with too few samples; Failed lists
	// bracket indices where no candidate produced two viable sides.
	Skipped []int
	Failed  []int

	// Pooled scores the concatenated held-out predictions of all fitted
	// brackets. These are the artifact's figure-of-merit metrics.
	Pooled Metrics
}

// candidate is one scored split threshold.
type candidate struct {
	threshold int
	ok        bool
	rmse      float64
	left      *linear.PolyRegression
	right     *linear.PolyRegression
}

// Search runs the bracket/split model selection.
//
// X holds the model features (one row per sample), y the targets, powers
// the per-sample power values used for bracket routing, and splitCol the
// X column index of the split feature (cut angle). Candidate evaluations
// are independent and are scored in parallel; selection scans the scored
// grid by candidate index, so scheduling cannot affect which threshold wins.
//
// Parameters:
//   - X: feature matrix of shape (n_samples, n_features)
//   - y: target vector of length n_samples
//   - powers: per-sample power values, length n_samples
//   - splitCol: X column index of the split-feature axis
//   - brackets: the power brackets, in ascending order
//   - cfg: the search configuration
//
// Returns:
//   - *Result: fitted brackets, skip/fail accounting, pooled metrics
//   - error: nil unless the inputs are structurally invalid or every
//     bracket fails
//
// Errors:
//   - DimensionError: if X, y and powers disagree on the sample count
//   - ValueError: if splitCol is out of range or the candidate grid is empty
//   - ModelError: if no bracket could be fitted at all
func Search(X *mat.Dense, y *mat.VecDense, powers []float64, splitCol int, brackets []Bracket, cfg Config) (_ *Result, err error) {
	defer aimcalErrors.Recover(&err, "piecewise.Search")

	r, c := X.Dims()
	if y.Len() != r {
		return nil, aimcalErrors.NewDimensionError("piecewise.Search", r, y.Len(), 0)
	}
	if len(powers) != r {
		return nil, aimcalErrors.NewDimensionError("piecewise.Search", r, len(powers), 0)
	}
	if splitCol < 0 || splitCol >= c {
		return nil, aimcalErrors.NewValueError("piecewise.Search", "split column out of range")
	}
	if cfg.SplitStep < 1 || cfg.SplitMax < cfg.SplitMin {
		return nil, aimcalErrors.NewValueError("piecewise.Search", "empty split candidate grid")
	}

	logger := log.GetLoggerWithName("piecewise").With(
		log.ComponentKey, "piecewise",
		log.OperationKey, log.OperationSearch,
	)

	result := &Result{}
	var pooledTrue, pooledPred []float64

	for bi, bracket := range brackets {
		rows := bracketRows(powers, bracket)
		if len(rows) < cfg.MinSamplesPerBracket {
			logger.Info("Bracket skipped: too few samples",
				log.BracketKey, bi,
				log.SamplesKey, len(rows),
			)
			result.Skipped = append(result.Skipped, bi)
			continue
		}

		bm := searchBracket(X, y, rows, splitCol, cfg)
		if bm == nil {
			logger.Warn("Bracket failed: no viable split",
				log.BracketKey, bi,
				log.SamplesKey, len(rows),
			)
			result.Failed = append(result.Failed, bi)
			continue
		}

		bm.Index = bi
		bm.Bracket = bracket
		result.Brackets = append(result.Brackets, bm)
		pooledTrue = append(pooledTrue, bm.holdoutTrue...)
		pooledPred = append(pooledPred, bm.holdoutPred...)

		logger.Info("Bracket fitted",
			log.BracketKey, bi,
			log.SamplesKey, bm.N,
			log.SplitKey, bm.Split,
			log.RMSEKey, bm.HoldoutRMSE,
			log.R2Key, bm.HoldoutR2,
		)
	}

	if len(result.Brackets) == 0 {
		return nil, aimcalErrors.NewModelError("piecewise.Search",
			"no bracket produced a viable split model", aimcalErrors.ErrEmptyData)
	}

	result.Pooled = pooledMetrics(pooledTrue, pooledPred)
	return result, nil
}

// searchBracket runs the holdout split and candidate grid for one bracket.
// Returns nil when no candidate yields two sufficiently sized sides.
func searchBracket(X *mat.Dense, y *mat.VecDense, rows []int, splitCol int, cfg Config) *BracketModel {
	// One seeded shuffle per bracket, reused across the entire candidate
	// grid. The selected split is therefore chosen against a single
	// held-out subset; changing this changes selected coefficients.
	rng := rand.New(rand.NewSource(cfg.Seed))
	trainRows, testRows := holdoutSplit(rows, cfg.TestSize, rng)

	thresholds := candidateThresholds(cfg)
	scores := make([]candidate, len(thresholds))

	parallel.ParallelizeWithThreshold(len(thresholds), parallelCandidateThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			scores[i] = evaluateCandidate(X, y, trainRows, testRows, splitCol, thresholds[i], cfg)
		}
	})

	// Explicit fold over the scored grid: strict less-than keeps the
	// first (lowest) threshold on ties, independent of completion order.
	best := -1
	for i := range scores {
		if !scores[i].ok {
			continue
		}
		if best < 0 || scores[i].rmse < scores[best].rmse {
			best = i
		}
	}
	if best < 0 {
		return nil
	}

	return scoreBracketModel(X, y, testRows, splitCol, scores[best], len(rows))
}

// evaluateCandidate fits the two per-side ridge models at one threshold and
// scores the routed held-out predictions.
func evaluateCandidate(X *mat.Dense, y *mat.VecDense, trainRows, testRows []int, splitCol, threshold int, cfg Config) candidate {
	cand := candidate{threshold: threshold}

	var leftRows, rightRows []int
	for _, i := range trainRows {
		if X.At(i, splitCol) < float64(threshold) {
			leftRows = append(leftRows, i)
		} else {
			rightRows = append(rightRows, i)
		}
	}
	if len(leftRows) < cfg.MinSamplesPerSide || len(rightRows) < cfg.MinSamplesPerSide {
		return cand
	}

	solver := linear.Ridge{Alpha: cfg.Alpha}

	left := linear.NewPolyRegression(cfg.Degree, solver)
	if err := left.Fit(subMatrix(X, leftRows), subVector(y, leftRows)); err != nil {
		return cand
	}
	right := linear.NewPolyRegression(cfg.Degree, solver)
	if err := right.Fit(subMatrix(X, rightRows), subVector(y, rightRows)); err != nil {
		return cand
	}

	preds, ok := routePredict(X, testRows, splitCol, threshold, left, right)
	if !ok {
		return cand
	}

	var sum float64
	for k, i := range testRows {
		diff := y.AtVec(i) - preds[k]
		sum += diff * diff
	}

	cand.ok = true
	cand.rmse = math.Sqrt(sum / float64(len(testRows)))
	cand.left = left
	cand.right = right
	return cand
}

// scoreBracketModel recomputes the winning candidate's held-out predictions
// and fills in the per-bracket metrics.
func scoreBracketModel(X *mat.Dense, y *mat.VecDense, testRows []int, splitCol int, best candidate, n int) *BracketModel {
	preds, ok := routePredict(X, testRows, splitCol, best.threshold, best.left, best.right)
	if !ok {
		return nil
	}

	truth := make([]float64, len(testRows))
	for k, i := range testRows {
		truth[k] = y.AtVec(i)
	}

	yTrue := mat.NewVecDense(len(truth), truth)
	yPred := mat.NewVecDense(len(preds), preds)
	rmse, _ := metrics.RMSE(yTrue, yPred)
	r2, _ := metrics.R2Score(yTrue, yPred)

	bm := &BracketModel{
		Split:       best.threshold,
		Left:        best.left,
		Right:       best.right,
		N:           n,
		HoldoutRMSE: rmse,
		HoldoutR2:   r2,
		RMSELeft:    sideRMSE(X, testRows, splitCol, best.threshold, truth, preds, true),
		RMSERight:   sideRMSE(X, testRows, splitCol, best.threshold, truth, preds, false),
		holdoutTrue: truth,
		holdoutPred: preds,
	}
	return bm
}

// routePredict applies the left/right routing rule to the given rows.
func routePredict(X *mat.Dense, rows []int, splitCol, threshold int, left, right *linear.PolyRegression) ([]float64, bool) {
	_, c := X.Dims()
	preds := make([]float64, len(rows))
	features := make([]float64, c)

	for k, i := range rows {
		for j := 0; j < c; j++ {
			features[j] = X.At(i, j)
		}
		m := right
		if features[splitCol] < float64(threshold) {
			m = left
		}
		p, err := m.PredictOne(features)
		if err != nil {
			return nil, false
		}
		preds[k] = p
	}
	return preds, true
}

// sideRMSE computes the held-out RMSE restricted to one side of the split;
// NaN when that side is empty.
func sideRMSE(X *mat.Dense, rows []int, splitCol, threshold int, truth, preds []float64, leftSide bool) float64 {
	var sum float64
	var n int
	for k, i := range rows {
		isLeft := X.At(i, splitCol) < float64(threshold)
		if isLeft != leftSide {
			continue
		}
		diff := truth[k] - preds[k]
		sum += diff * diff
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n))
}

// holdoutSplit shuffles rows with the given source and splits off the
// held-out fraction. The shuffle depends only on the RNG state and the row
// count, so a fixed seed yields bit-identical partitions across runs.
func holdoutSplit(rows []int, testSize float64, rng *rand.Rand) (train, test []int) {
	shuffled := make([]int, len(rows))
	copy(shuffled, rows)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(math.Ceil(float64(len(shuffled)) * testSize))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= len(shuffled) {
		nTest = len(shuffled) - 1
	}
	return shuffled[nTest:], shuffled[:nTest]
}

// candidateThresholds materializes the inclusive integer grid.
func candidateThresholds(cfg Config) []int {
	var out []int
	for t := cfg.SplitMin; t <= cfg.SplitMax; t += cfg.SplitStep {
		out = append(out, t)
	}
	return out
}

// bracketRows collects the row indices whose power falls in the bracket.
func bracketRows(powers []float64, b Bracket) []int {
	var rows []int
	for i, p := range powers {
		if b.Contains(p) {
			rows = append(rows, i)
		}
	}
	return rows
}

// pooledMetrics scores concatenated held-out predictions across brackets.
func pooledMetrics(truth, preds []float64) Metrics {
	if len(truth) == 0 {
		return Metrics{}
	}
	yTrue := mat.NewVecDense(len(truth), truth)
	yPred := mat.NewVecDense(len(preds), preds)

	r2, _ := metrics.R2Score(yTrue, yPred)
	rmse, _ := metrics.RMSE(yTrue, yPred)
	mae, _ := metrics.MAE(yTrue, yPred)
	return Metrics{R2: r2, RMSE: rmse, MAE: mae}
}

// subMatrix extracts the given rows of X into a new matrix.
func subMatrix(X *mat.Dense, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for k, i := range rows {
		for j := 0; j < c; j++ {
			out.Set(k, j, X.At(i, j))
		}
	}
	return out
}

// subVector extracts the given entries of y into a new vector.
func subVector(y *mat.VecDense, rows []int) *mat.VecDense {
	out := mat.NewVecDense(len(rows), nil)
	for k, i := range rows {
		out.SetVec(k, y.AtVec(i))
	}
	return out
}
