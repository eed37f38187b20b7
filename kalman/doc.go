// Package kalman implements the constant-velocity Kalman filters the
// tracking core runs its predict/update/gating cycle on: an 8-state
// bounding-box filter (center, aspect, height, plus their velocities) and
// a 4-state 2D point filter, with a point-vector variant that advances K
// independent point filters against one shared clock.
//
// Covariance algebra is expressed over gonum.org/v1/gonum/mat matrices
// rather than hand-unrolled array arithmetic, with mat.Cholesky backing
// the innovation-covariance solve in both Update and GatingDistance.
package kalman
