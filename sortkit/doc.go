// Package sortkit implements the per-scene SORT state machine:
// epoch-driven predict/update, IoU or Mahalanobis positional
// voting, spatio-temporal gating, and wasted/idle track separation, built
// on top of package kalman (motion model), package track (per-track
// state and voters), package assign (bipartite matching), and package
// store (sharded concurrent ownership).
package sortkit
