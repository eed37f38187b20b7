package visualsort

import (
	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/track"
)

// VisualObservation is one incoming candidate for the Visual SORT
// engine: a box plus an optional appearance feature and an optional
// caller-supplied identifier. Feature is nil when no appearance vector is
// available for this detection; the pair then falls back to
// positional-only admissibility.
type VisualObservation struct {
	Box      geometry.Universal2DBox
	Feature  track.FeatureVector
	CustomID *int64
}

// VisualObservationSet batches VisualObservations for one predict call.
type VisualObservationSet struct {
	Observations []VisualObservation
}

// SortTrack is the per-track result of a predict call.
type SortTrack struct {
	ID             uint64
	Epoch          uint64
	SceneID        uint64
	Length         uint64
	PredictedBox   geometry.Universal2DBox
	ObservedBox    geometry.Universal2DBox
	VotingType     track.VotingType
	CustomObjectID *int64
}

// WastedSortTrack is a SortTrack plus the full bounded history retained
// at the moment a track was wasted, including the feature history.
type WastedSortTrack struct {
	SortTrack
	PredictedBoxes []geometry.Universal2DBox
	ObservedBoxes  []geometry.Universal2DBox
	Features       []track.FeatureVector
}

func sortTrackFrom(t *track.Track) SortTrack {
	return SortTrack{
		ID:             t.ID,
		Epoch:          t.Epoch,
		SceneID:        t.SceneID,
		Length:         t.Length,
		PredictedBox:   t.LastPredictedBox,
		ObservedBox:    t.LastObservedBox,
		VotingType:     t.VotingType,
		CustomObjectID: t.CustomObjectID,
	}
}

func wastedSortTrackFrom(t *track.Track) WastedSortTrack {
	entries := t.History.Items()
	predicted := make([]geometry.Universal2DBox, len(entries))
	observed := make([]geometry.Universal2DBox, len(entries))
	for i, e := range entries {
		predicted[i] = e.Predicted
		observed[i] = e.Observed
	}
	features := t.Features.Items()
	return WastedSortTrack{
		SortTrack:      sortTrackFrom(t),
		PredictedBoxes: predicted,
		ObservedBoxes:  observed,
		Features:       features,
	}
}
