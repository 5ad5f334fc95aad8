package jsgen

import (
	"fmt"
	"strings"
)

// FixedBreakModel is the emitter input for the fixed-breakpoint variant:
// a cubic in cutAngle at or below BreakDeg, and a linear model in
// (cutAngle, power, distance, cutAngle*distance) above it.
type FixedBreakModel struct {
	// BreakDeg is the hand-specified cut-angle breakpoint.
	BreakDeg float64

	// CoefLow holds (1, c, c², c³) coefficients for the low-cut branch.
	CoefLow [4]float64

	// CoefHigh holds (1, c, p, d, c·d) coefficients for the high-cut
	// branch.
	CoefHigh [5]float64

	R2       float64
	RMSE     float64
	NSamples int
}

// EmitFixedBreak renders the fixed-breakpoint artifact. The predictor's
// signature is (cutAngle, distance, power), matching the consuming runtime.
func EmitFixedBreak(m *FixedBreakModel) string {
	var b strings.Builder
	breakDeg := formatCompact(m.BreakDeg)

	fmt.Fprintf(&b, `/**
 * Predict the angle error for a shot
 * @param {number} cutAngle - Cut angle in degrees (0 = straight, 90 = max)
 * @param {number} distance - cueBallToTargetDist
 * @param {number} power - Shot power
 * @returns {number} Predicted angle error in degrees
 */
function predictAngleError(cutAngle, distance, power) {
  if (cutAngle <= %s) {
    return (
      %.12f
      + %.12f * cutAngle
      + %.12f * cutAngle * cutAngle
      + %.12f * cutAngle * cutAngle * cutAngle
    );
  }

  return (
    %.12f
    + %.12f * cutAngle
    + %.12f * power
    + %.12f * distance
    + %.12f * cutAngle * distance
  );
}

/**
 * Aim adjustment (subtract from aim)
 */
function calculateAimAdjustment(cutAngle, distance, power) {
  return predictAngleError(cutAngle, distance, power);
}

const ANGLE_MODEL_INFO = {
  piecewise: {
    cutAngleBreakDeg: %s,
    lowCutModel: "cubic(cutAngle)",
    highCutModel: "linear(cutAngle, power, distance, cutAngle*distance)"
  },
  overall: {
    rSquared: %.12f,
    rmseDeg: %.12f
  }
};

if (typeof module !== "undefined" && module.exports) {
  module.exports = { predictAngleError, calculateAimAdjustment, ANGLE_MODEL_INFO };
}
`, breakDeg,
		m.CoefLow[0], m.CoefLow[1], m.CoefLow[2], m.CoefLow[3],
		m.CoefHigh[0], m.CoefHigh[1], m.CoefHigh[2], m.CoefHigh[3], m.CoefHigh[4],
		breakDeg, m.R2, m.RMSE)

	return b.String()
}
