// Package visualsort implements the Visual SORT engine: the
// same epoch-driven predict/update lifecycle as package sortkit, extended
// with appearance-vector voting combined with positional voting over a
// bounded per-track feature history. It shares package store's sharded
// track store, package kalman's box filter, package track's voters and
// combined-cost function, and package assign's bipartite solver; the
// engine here is the glue that wires feature-aware candidates through
// them.
package visualsort
