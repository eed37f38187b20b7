package kalman

import "math"

// chiSquare95 maps degrees of freedom to the 95% quantile of the
// chi-squared distribution, used to gate Mahalanobis-squared distances:
// the 4-dof entry covers the box filter's measurement space, the 2-dof
// entry the point filter's.
var chiSquare95 = map[int]float64{
	1: 3.8415,
	2: 5.9915,
	3: 7.8147,
	4: 9.4877,
	5: 11.070,
	6: 12.592,
}

// GatingThreshold95 returns the 95% chi-squared gating cutoff for the
// given measurement-space degrees of freedom. It returns +Inf (no gating)
// for a dof this table does not cover.
func GatingThreshold95(dof int) float64 {
	if v, ok := chiSquare95[dof]; ok {
		return v
	}
	return math.Inf(1)
}
