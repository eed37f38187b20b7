package track

import (
	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/kalman"
)

// PositionalVoter scores a candidate box against a track's predicted
// state, returning a cost normalized to [0, 1] (0 is a perfect match) and
// whether the pair passes the voter's own gate.
type PositionalVoter interface {
	Cost(candidate geometry.Universal2DBox, t *Track, filter kalman.BBoxFilter) (cost float64, ok bool)
}

// IoUVoter gates on intersection-over-union and reports cost as 1-IoU.
type IoUVoter struct {
	Threshold float64
}

func (v IoUVoter) Cost(candidate geometry.Universal2DBox, t *Track, _ kalman.BBoxFilter) (float64, bool) {
	score := geometry.IoU(candidate, t.LastPredictedBox)
	if score < v.Threshold {
		return 1, false
	}
	return 1 - score, true
}

// MahalanobisVoter gates on squared Mahalanobis distance against the
// track's Kalman state, returning the distance normalized by the 95%
// chi-squared gating threshold and clamped to 1.
type MahalanobisVoter struct{}

func (v MahalanobisVoter) Cost(candidate geometry.Universal2DBox, t *Track, filter kalman.BBoxFilter) (float64, bool) {
	threshold := kalman.GatingThreshold95(kalman.BoxMeasDim)
	d := filter.GatingDistance(t.Kalman, candidate)
	if d > threshold {
		return 1, false
	}
	cost := d / threshold
	if cost > 1 {
		cost = 1
	}
	return cost, true
}
