package sortkit

import (
	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/track"
)

// Observation is one incoming candidate for the plain (non-visual) SORT
// engine: a box plus an optional caller-supplied identifier.
type Observation struct {
	Box      geometry.Universal2DBox
	CustomID *int64
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

// WastedSortTrack is a SortTrack plus the full bounded history retained at
// the moment a track was wasted.
type WastedSortTrack struct {
	SortTrack
	PredictedBoxes []geometry.Universal2DBox
	ObservedBoxes  []geometry.Universal2DBox
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
	return WastedSortTrack{
		SortTrack:      sortTrackFrom(t),
		PredictedBoxes: predicted,
		ObservedBoxes:  observed,
	}
}
