package track

import (
	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/kalman"
)

// CombinedCost is the outcome of scoring one candidate against one track
// under Visual SORT's weighted positional/visual scheme:
//
//	cost = w_pos*(1 - pos_score_normalized) + w_vis*vis_distance_normalized
//
// Admissible is false if any gate that applied failed; Voting records which
// voter contributed the smaller weighted term, for the track's
// VotingType bookkeeping on a successful match.
type CombinedCost struct {
	Cost         float64
	Admissible   bool
	Voting       VotingType
	HasVisual    bool
	PositionCost float64
	VisualCost   float64
}

// Combine scores a candidate against a track using a positional voter
// and an optional visual voter, weighting their costs by wPos/wVis. A
// pair is admissible only when both gates pass; if the candidate
// carries no feature vector (or the track has no feature gallery yet,
// making visual comparison impossible), the result falls back to
// positional-only scoring — admissible exactly when the positional
// voter's gate passes. A feature that compares but fails the visual gate
// makes the pair inadmissible outright, never positional-only.
func Combine(positional PositionalVoter, visual VisualVoter, candidate geometry.Universal2DBox, feature FeatureVector, t *Track, filter kalman.BBoxFilter, wPos, wVis float64) CombinedCost {
	posCost, posOK := positional.Cost(candidate, t, filter)

	visCost, comparable := visual.Distance(feature, t)
	if !comparable {
		if !posOK {
			return CombinedCost{Cost: 1, Admissible: false, PositionCost: posCost}
		}
		return CombinedCost{
			Cost:         posCost,
			Admissible:   true,
			Voting:       VotingPositional,
			PositionCost: posCost,
		}
	}

	if !posOK || !visual.Gate(visCost) {
		return CombinedCost{Cost: 1, Admissible: false, PositionCost: posCost, VisualCost: visCost, HasVisual: true}
	}

	posTerm := wPos * posCost
	visTerm := wVis * visCost
	voting := VotingPositional
	if visTerm < posTerm {
		voting = VotingVisual
	}

	return CombinedCost{
		Cost:         posTerm + visTerm,
		Admissible:   true,
		Voting:       voting,
		HasVisual:    true,
		PositionCost: posCost,
		VisualCost:   visCost,
	}
}
