package track

import (
	"fmt"

	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/internal/monitoring"
	"github.com/banshee-data/tracksort/kalman"
)

var logf = monitoring.Tagged("track")

// VotingType records which voter dominated a successful assignment.
type VotingType int

const (
	VotingPositional VotingType = iota
	VotingVisual
)

func (v VotingType) String() string {
	if v == VotingVisual {
		return "visual"
	}
	return "positional"
}

// FeatureVector is a fixed-length (per tracker instance) appearance
// descriptor.
type FeatureVector []float32

// HistoryEntry is one (predicted, observed) box pair in a track's
// bounded history ring.
type HistoryEntry struct {
	Predicted geometry.Universal2DBox
	Observed  geometry.Universal2DBox
}

// Observation is one incoming candidate: a positional box plus
// an optional feature vector and an optional caller-supplied identifier.
type Observation struct {
	Box      geometry.Universal2DBox
	Feature  FeatureVector // nil if absent
	CustomID *int64
}

// ValidateFeature reports an error when f is present but does not match
// the tracker's configured feature dimension.
func ValidateFeature(f FeatureVector, dim int) error {
	if f == nil {
		return nil
	}
	if len(f) != dim {
		return fmt.Errorf("track: feature vector has length %d, want %d", len(f), dim)
	}
	return nil
}

// Track is the per-track state owned by exactly one shard. Its
// external identity is the (SceneID, ID) pair; ID is assigned once at
// creation and never changes.
type Track struct {
	ID      uint64
	SceneID uint64
	Epoch   uint64
	Length  uint64

	Kalman kalman.BBoxState
	// Angle carries the latest observation's orientation verbatim: angle
	// is not part of the Kalman state for oriented boxes.
	Angle *float64

	LastPredictedBox geometry.Universal2DBox
	LastObservedBox  geometry.Universal2DBox

	History  *Ring[HistoryEntry]
	Features *Ring[FeatureVector] // unused (Len()==0) for positional-only trackers

	VotingType     VotingType
	CustomObjectID *int64

	// Hits/Misses are consecutive-hit/consecutive-miss counters, internal
	// lifecycle bookkeeping not part of the externally visible
	// SortTrack/WastedSortTrack shape.
	Hits   int
	Misses int
}

// New creates a track from a first observation, initiating its Kalman
// state and seeding both box and observed fields with the same box (there
// is no earlier prediction to distinguish it from).
func New(id, sceneID uint64, epoch uint64, box geometry.Universal2DBox, customID *int64, bboxHistory, visualHistory int, filter kalman.BBoxFilter) *Track {
	t := &Track{
		ID:               id,
		SceneID:          sceneID,
		Epoch:            epoch,
		Length:           1,
		Kalman:           filter.Initiate(box),
		Angle:            box.Angle,
		LastPredictedBox: box,
		LastObservedBox:  box,
		History:          NewRing[HistoryEntry](bboxHistory),
		Features:         NewRing[FeatureVector](visualHistory),
		VotingType:       VotingPositional,
		CustomObjectID:   customID,
		Hits:             1,
	}
	t.History.Push(HistoryEntry{Predicted: box, Observed: box})
	return t
}

// Predict advances the track's Kalman state by one tick and records the
// result as LastPredictedBox. The angle is carried
// through verbatim since it is not part of the filter state.
func (t *Track) Predict(filter kalman.BBoxFilter) {
	t.Kalman = filter.Predict(t.Kalman)
	t.LastPredictedBox = t.Kalman.Box(t.Angle, t.LastObservedBox.Confidence)
}

// ApplyMatch folds a matched observation into the track: Kalman update, history push, epoch/length bump,
// voting_type and custom_object_id update, and — if present — a push onto
// the bounded feature ring. On a singular innovation covariance,
// filter.Update already regularized the covariance in place before
// returning it, so ApplyMatch logs and continues with the regularized
// state rather than aborting the match.
func (t *Track) ApplyMatch(filter kalman.BBoxFilter, obs Observation, epoch uint64, voting VotingType) error {
	updated, err := filter.Update(t.Kalman, obs.Box)
	if err != nil {
		logf("numerical error updating track %d, continuing with regularized covariance: %v", t.ID, err)
	}
	t.Kalman = updated
	t.Angle = obs.Box.Angle
	observed := t.Kalman.Box(t.Angle, obs.Box.Confidence)
	t.LastObservedBox = observed
	t.History.Push(HistoryEntry{Predicted: t.LastPredictedBox, Observed: observed})
	t.Epoch = epoch
	t.Length++
	t.VotingType = voting
	if obs.CustomID != nil {
		t.CustomObjectID = obs.CustomID
	}
	if obs.Feature != nil {
		t.Features.Push(obs.Feature)
	}
	t.Hits++
	t.Misses = 0
	return nil
}

// MarkIdle records one epoch with no match: the consecutive-miss counter
// advances and the consecutive-hit counter resets.
func (t *Track) MarkIdle() {
	t.Misses++
	t.Hits = 0
}

// IdleAge returns currentEpoch - t.Epoch, the number of epochs since this
// track was last matched.
func (t *Track) IdleAge(currentEpoch uint64) uint64 {
	if currentEpoch < t.Epoch {
		return 0
	}
	return currentEpoch - t.Epoch
}
