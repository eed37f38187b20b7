// Package assign solves the rectangular bipartite minimum-cost assignment
// problem the tracking core runs once per predict epoch: a candidate×track
// cost matrix, with +Inf marking gated-out (forbidden) pairs, is reduced to
// a partial matching of at most one candidate per track and vice versa.
package assign
