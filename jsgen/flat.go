// Package jsgen renders fitted calibration models as JavaScript source.
//
// The emitters are deterministic: the same fitted model and formatting
// configuration always produce byte-identical output, so regenerated
// artifacts diff cleanly. Coefficients are written with enough fractional
// digits to reconstruct the floating value within solver tolerance, and
// terms whose coefficient magnitude falls below a negligibility threshold
// are omitted from rendered expressions — a size optimization that changes
// predictions by less than floating tolerance.
//
// Every artifact defines a predictor function of fixed arity, a
// calculateAimAdjustment convenience wrapper, and an ANGLE_MODEL_INFO
// metadata object, all behind a CommonJS export guard so the file loads
// standalone or as a module.
package jsgen

import (
	"fmt"
	"strconv"
	"strings"
)

// negligibleCoef is the magnitude below which a flat-model coefficient is
// dropped from the rendered expression.
const negligibleCoef = 1e-10

// FlatModel is the emitter input for the flat (single polynomial) variant.
type FlatModel struct {
	// Coefs and TermNames are paired 1:1 in term-enumeration order;
	// TermNames uses the "1" / "cutAngle" / "cutAngle*power" rendering.
	Coefs     []float64
	TermNames []string

	// Features is the predictor's declared argument list, in order.
	Features []string

	Degree   int
	R2       float64
	RMSE     float64
	NSamples int
}

// EmitFlat renders the flat-variant artifact.
func EmitFlat(m *FlatModel) string {
	var b strings.Builder
	args := strings.Join(m.Features, ", ")

	fmt.Fprintf(&b, `/**
 * AI Angle Error Prediction Model
 *
 * Generated from %d shot samples
 * Polynomial degree: %d
 * R-squared: %.4f
 * RMSE: %.4f degrees
 *
 * Predicts the angle error (in degrees) based on cut angle, spin, and power.
 * Use this to adjust aim: subtract the predicted error from your aim angle.
 */

/**
 * Predict the angle error for a shot
 * @param {number} cutAngle - Cut angle in degrees (0 = straight, 90 = max)
 * @param {number} spinY - Vertical spin (-1 to 1, positive = topspin)
 * @param {number} power - Shot power
 * @returns {number} Predicted angle error in degrees
 */
function predictAngleError(%s) {
`, m.NSamples, m.Degree, m.R2, m.RMSE, args)

	var terms []string
	for i, c := range m.Coefs {
		if abs(c) < negligibleCoef {
			continue
		}
		coef := strconv.FormatFloat(c, 'f', 10, 64)
		if m.TermNames[i] == "1" {
			terms = append(terms, coef)
		} else {
			expr := strings.ReplaceAll(m.TermNames[i], "*", " * ")
			terms = append(terms, coef+" * "+expr)
		}
	}

	if len(terms) <= 3 {
		fmt.Fprintf(&b, "    return %s;\n", strings.Join(terms, " + "))
	} else {
		b.WriteString("    return (\n")
		for i, t := range terms {
			prefix := "        "
			if i > 0 {
				prefix = "        + "
			}
			b.WriteString(prefix + t + "\n")
		}
		b.WriteString("    );\n")
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
    degree: %d,
    rSquared: %.4f,
    rmse: %.4f,
    nSamples: %d,
    features: [%s],
    coefficients: %s
};

// Export for use in modules
if (typeof module !== 'undefined' && module.exports) {
    module.exports = { predictAngleError, calculateAimAdjustment, ANGLE_MODEL_INFO };
}
`, args, args, m.Degree, m.R2, m.RMSE, m.NSamples, quoteList(m.Features), coefficientObject(m.TermNames, m.Coefs))

	return b.String()
}

// coefficientObject renders the full (unpruned) coefficient mapping in term
// order as an indented JSON-style object.
func coefficientObject(names []string, coefs []float64) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, name := range names {
		b.WriteString("        ")
		b.WriteString(strconv.Quote(name))
		b.WriteString(": ")
		b.WriteString(formatNumber(coefs[i]))
		if i < len(names)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("    }")
	return b.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}

// formatNumber renders a float with the shortest representation that
// round-trips to the exact value.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
