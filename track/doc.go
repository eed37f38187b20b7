// Package track holds the per-track state owned by a single shard of the
// store: identity, bounded (predicted, observed) box history, optional
// bounded feature history, and the positional/visual voters used to
// score a candidate observation against a track.
//
// Nothing here is safe for concurrent use without an external lock. The
// engines (packages sortkit and visualsort) serialize all access to a
// scene's tracks with that scene's mutex; package store holds a shard's
// mutex only while it iterates or edits that shard. Matches, idle marks
// and covariance inflation are applied to a track outside its shard's
// mutex.
package track
