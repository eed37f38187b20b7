package track

import (
	"gonum.org/v1/gonum/floats"
)

// VisualMetric selects the distance function a VisualVoter uses to
// compare appearance feature vectors.
type VisualMetric int

const (
	MetricCosine VisualMetric = iota
	MetricEuclidean
)

// VisualVoter scores a candidate feature against a track's bounded
// feature history, taking the minimum distance over the history
// (nearest neighbor over the feature gallery).
type VisualVoter struct {
	Metric    VisualMetric
	Threshold float64
}

// Distance returns the minimum distance between candidate and any feature
// in t's history. comparable is false when no comparison is possible at
// all: the candidate carries no feature, or the track has no feature
// gallery yet. Gating is a separate concern (Gate), so callers can tell
// "no feature to compare" apart from "compared and failed the gate" —
// the former falls back to positional-only voting, the latter makes the
// pair inadmissible outright.
func (v VisualVoter) Distance(candidate FeatureVector, t *Track) (d float64, comparable bool) {
	history := t.Features.Items()
	if len(history) == 0 || candidate == nil {
		return 1, false
	}

	best := 1.0
	found := false
	for _, f := range history {
		d, ok := v.distance(candidate, f)
		if !ok {
			continue
		}
		found = true
		if d < best {
			best = d
		}
	}
	if !found {
		return 1, false
	}
	return best, true
}

// Gate reports whether a visual distance passes the voter's threshold.
func (v VisualVoter) Gate(d float64) bool {
	return d <= v.Threshold
}

// Cost combines Distance and Gate: the minimum distance over the gallery
// and whether the pair is both comparable and within threshold.
func (v VisualVoter) Cost(candidate FeatureVector, t *Track) (float64, bool) {
	d, comparable := v.Distance(candidate, t)
	if !comparable || !v.Gate(d) {
		return 1, false
	}
	return d, true
}

// distance computes a normalized [0, 1]-ish distance between two feature
// vectors of matching length; mismatched lengths are treated as
// incomparable.
func (v VisualVoter) distance(a, b FeatureVector) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	af := toFloat64(a)
	bf := toFloat64(b)

	switch v.Metric {
	case MetricEuclidean:
		diff := make([]float64, len(af))
		floats.SubTo(diff, af, bf)
		return floats.Norm(diff, 2), true
	default: // MetricCosine
		dot := floats.Dot(af, bf)
		na := floats.Norm(af, 2)
		nb := floats.Norm(bf, 2)
		if na == 0 || nb == 0 {
			return 1, true
		}
		cos := dot / (na * nb)
		if cos > 1 {
			cos = 1
		}
		if cos < -1 {
			cos = -1
		}
		return 1 - cos, true
	}
}

func toFloat64(v FeatureVector) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
