package jsgen

import (
	"fmt"
	"strconv"
	"strings"
)

// PolyCoeffs is one side's fitted polynomial: coefficients paired 1:1 with
// terms, each term a multiset of indices into the model's variable list.
type PolyCoeffs struct {
	Coefs []float64
	Terms [][]int
}

// PiecewiseBracket is the emitter input for one fitted power bracket.
type PiecewiseBracket struct {
	// Index names the bracket in generated identifiers
	// (__predictAngleError_b<Index>_left / _right).
	Index int

	PowerMin float64
	PowerMax float64

	// Split is the cut-angle threshold routing between Left and Right.
	Split int

	// N is the bracket's total sample count.
	N int

	// RMSE is the bracket's held-out RMSE, reported in the bracket comment.
	RMSE float64

	Left  PolyCoeffs
	Right PolyCoeffs
}

// PiecewiseMetrics are the pooled held-out figures embedded in metadata.
type PiecewiseMetrics struct {
	R2   float64
	RMSE float64
	MAE  float64
}

// PiecewiseModel is the emitter input for the adaptive variant.
type PiecewiseModel struct {
	Brackets []PiecewiseBracket

	// Features is the predictor's declared argument list; Vars is the
	// subset actually used by the fitted polynomials, in term-index order.
	// Declared-but-unused features (spinY) are accepted for signature
	// compatibility with the consuming runtime.
	Features []string
	Vars     []string

	Degree   int
	Clip     float64
	NSamples int

	// TrainedOn names the input dataset in the artifact header.
	TrainedOn string

	Metrics PiecewiseMetrics
}

// EmitPiecewise renders the adaptive-variant artifact: one left/right
// routine pair per bracket plus a dispatcher that guards non-finite inputs,
// routes by power bracket then by cut-angle split, clamps into ±Clip, and
// clamps out-of-range power to the nearest bracket.
func EmitPiecewise(m *PiecewiseModel) string {
	var b strings.Builder
	args := strings.Join(m.Features, ", ")
	varArgs := strings.Join(m.Vars, ", ")
	clip := formatCompact(m.Clip)

	fmt.Fprintf(&b, `/* eslint-disable no-var, prefer-const */
/**
 * Auto-generated angle error model.
 *
 * Trained on: %s
 * Features: %s
 * Model: piecewise polynomial (degree=%d) + ridge
 * Output clip: [-%s, %s] degrees
 * Metrics (overall holdout test):
 *   rSquared: %.6f
 *   rmse: %.6f
 *   mae: %.6f
 */

`, m.TrainedOn, args, m.Degree, clip, clip, m.Metrics.R2, m.Metrics.RMSE, m.Metrics.MAE)

	for _, br := range m.Brackets {
		fmt.Fprintf(&b, "// Bracket %d: power in [%s, %s) (n=%d, split=%d, rmse=%.4f)\n",
			br.Index, formatCompact(br.PowerMin), formatCompact(br.PowerMax), br.N, br.Split, br.RMSE)
		writePolyFunction(&b, bracketFuncName(br.Index, "left"), varArgs, m.Vars, br.Left)
		b.WriteString("\n")
		writePolyFunction(&b, bracketFuncName(br.Index, "right"), varArgs, m.Vars, br.Right)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `/**
 * Predict the angle error for a shot
 * @param {number} cutAngle - Cut angle in degrees (0 = straight, 90 = max)
 * @param {number} spinY - Vertical spin (-1 to 1, positive = topspin)
 * @param {number} power - Shot power
 * @returns {number} Predicted angle error in degrees
 */
function predictAngleError(%s) {
  // basic input sanitization (avoid NaN/Infinity propagating)
  if (%s) return 0;

`, args, finiteGuard(m.Features))

	if unused := unusedFeatures(m.Features, m.Vars); len(unused) > 0 {
		fmt.Fprintf(&b, "  // NOTE: %s accepted for compatibility but not used by this model.\n\n",
			strings.Join(unused, ", "))
	}

	for idx, br := range m.Brackets {
		keyword := "if"
		if idx > 0 {
			keyword = "else if"
		}
		fmt.Fprintf(&b, "  %s (power >= %s && power < %s) {\n",
			keyword, formatCompact(br.PowerMin), formatCompact(br.PowerMax))
		writeRoutedReturn(&b, br, varArgs, clip)
		b.WriteString("  }\n")
	}

	// Out-of-range power clamps to the nearest bracket.
	b.WriteString("  // fallback: clamp to nearest bracket\n")
	if len(m.Brackets) > 0 {
		first := m.Brackets[0]
		last := m.Brackets[len(m.Brackets)-1]

		fmt.Fprintf(&b, "  if (power < %s) {\n", formatCompact(first.PowerMin))
		writeRoutedReturn(&b, first, varArgs, clip)
		b.WriteString("  }\n")

		b.WriteString("  {\n")
		writeRoutedReturn(&b, last, varArgs, clip)
		b.WriteString("  }\n")
	} else {
		b.WriteString("  return 0;\n")
	}
	b.WriteString("}\n")

	fmt.Fprintf(&b, `
/**
 * Calculate aim adjustment to compensate for predicted angle error
 * @param {number} cutAngle - Cut angle in degrees
 * @param {number} spinY - Vertical spin
 * @param {number} power - Shot power
 * @returns {number} Angle adjustment in degrees (subtract from aim)
 */
function calculateAimAdjustment(%s) {
  return predictAngleError(%s);
}

// Model metadata
const ANGLE_MODEL_INFO = {
  modelType: "piecewise_poly_ridge",
  degree: %d,
  clip: %s,
  nSamples: %d,
  features: [%s],
  piecewise: {
    brackets: [
`, args, args, m.Degree, clip, m.NSamples, quoteListDouble(m.Features))

	for _, br := range m.Brackets {
		fmt.Fprintf(&b, "      { pmin: %s, pmax: %s, split: %d, n: %d },\n",
			formatCompact(br.PowerMin), formatCompact(br.PowerMax), br.Split, br.N)
	}

	fmt.Fprintf(&b, `    ]
  },
  metrics: {
    rSquared: %.6f,
    rmse: %.6f,
    mae: %.6f
  }
};

// Export for use in modules
if (typeof module !== "undefined" && module.exports) {
  module.exports = { predictAngleError, calculateAimAdjustment, ANGLE_MODEL_INFO };
}
`, m.Metrics.R2, m.Metrics.RMSE, m.Metrics.MAE)

	return b.String()
}

func bracketFuncName(index int, side string) string {
	return fmt.Sprintf("__predictAngleError_b%d_%s", index, side)
}

// writePolyFunction renders one side's polynomial as a JS function returning
// the coefficient-weighted sum of its terms.
func writePolyFunction(b *strings.Builder, name, args string, vars []string, poly PolyCoeffs) {
	fmt.Fprintf(b, "function %s(%s) {\n  return (\n", name, args)
	for i, c := range poly.Coefs {
		line := fmt.Sprintf("    %s * %s", formatCoef(c), termExpr(poly.Terms[i], vars))
		if i < len(poly.Coefs)-1 {
			line += " +"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("  );\n}\n")
}

// termExpr renders one term multiset as a JS expression: the constant term
// as "1.0", exponents >= 2 via Math.pow.
func termExpr(term []int, vars []string) string {
	if len(term) == 0 {
		return "1.0"
	}

	counts := make(map[int]int, len(term))
	order := make([]int, 0, len(term))
	for _, idx := range term {
		if counts[idx] == 0 {
			order = append(order, idx)
		}
		counts[idx]++
	}

	parts := make([]string, 0, len(order))
	for _, idx := range order {
		if counts[idx] == 1 {
			parts = append(parts, vars[idx])
		} else {
			parts = append(parts, fmt.Sprintf("Math.pow(%s, %d)", vars[idx], counts[idx]))
		}
	}
	return "(" + strings.Join(parts, " * ") + ")"
}

// writeRoutedReturn renders the split routing, clip, and return for one
// bracket inside the dispatcher.
func writeRoutedReturn(b *strings.Builder, br PiecewiseBracket, varArgs, clip string) {
	fmt.Fprintf(b, "    const split = %d;\n", br.Split)
	b.WriteString("    let y = (cutAngle < split)\n")
	fmt.Fprintf(b, "      ? %s(%s)\n", bracketFuncName(br.Index, "left"), varArgs)
	fmt.Fprintf(b, "      : %s(%s);\n", bracketFuncName(br.Index, "right"), varArgs)
	fmt.Fprintf(b, "    if (y > %s) y = %s;\n", clip, clip)
	fmt.Fprintf(b, "    else if (y < -%s) y = -%s;\n", clip, clip)
	b.WriteString("    return y;\n")
}

func finiteGuard(features []string) string {
	guards := make([]string, len(features))
	for i, f := range features {
		guards[i] = "!Number.isFinite(" + f + ")"
	}
	return strings.Join(guards, " || ")
}

func unusedFeatures(features, vars []string) []string {
	used := make(map[string]bool, len(vars))
	for _, v := range vars {
		used[v] = true
	}
	var out []string
	for _, f := range features {
		if !used[f] {
			out = append(out, f)
		}
	}
	return out
}

// formatCoef renders a piecewise coefficient with 12 significant digits,
// enough to reconstruct the fitted value within solver tolerance.
func formatCoef(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// formatCompact renders a bound or clip value with the shortest round-trip
// representation.
func formatCompact(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func quoteListDouble(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = `"` + s + `"`
	}
	return strings.Join(quoted, ", ")
}
