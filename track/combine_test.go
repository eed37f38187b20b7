package track_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksort/kalman"
	"github.com/banshee-data/tracksort/track"
)

func TestCombine_FallsBackToPositionalWithoutFeatureHistory(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)

	positional := track.IoUVoter{Threshold: 0.3}
	visual := track.VisualVoter{Metric: track.MetricCosine, Threshold: 0.5}

	result := track.Combine(positional, visual, axisBox(t, 0, 0, 1, 10, 0.9), track.FeatureVector{1, 0, 0}, tr, filter, 0.7, 0.3)
	require.True(t, result.Admissible)
	require.False(t, result.HasVisual)
	require.Equal(t, track.VotingPositional, result.Voting)
}

func TestCombine_InadmissibleWhenPositionalGateFailsWithoutFeature(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)

	positional := track.IoUVoter{Threshold: 0.9}
	visual := track.VisualVoter{Metric: track.MetricCosine, Threshold: 0.01}

	result := track.Combine(positional, visual, axisBox(t, 1000, 1000, 1, 10, 0.9), nil, tr, filter, 0.7, 0.3)
	require.False(t, result.Admissible)
}

func TestCombine_FailedVisualGateIsInadmissibleEvenWithPositionalOverlap(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)
	err := tr.ApplyMatch(filter, track.Observation{
		Box:     axisBox(t, 0, 0, 1, 10, 0.9),
		Feature: track.FeatureVector{1, 0, 0},
	}, 1, track.VotingVisual)
	require.NoError(t, err)

	positional := track.IoUVoter{Threshold: 0.3}
	visual := track.VisualVoter{Metric: track.MetricCosine, Threshold: 0.1}

	// Perfect positional overlap, but an orthogonal feature: the visual
	// gate fails, so the pair must not fall back to positional-only.
	result := track.Combine(positional, visual, axisBox(t, 0, 0, 1, 10, 0.9), track.FeatureVector{0, 1, 0}, tr, filter, 0.5, 0.5)
	require.False(t, result.Admissible)
	require.True(t, result.HasVisual)
}

func TestCombine_VisualDominatesWhenItsWeightedTermIsSmaller(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)
	err := tr.ApplyMatch(filter, track.Observation{
		Box:     axisBox(t, 1, 0, 1, 10, 0.9),
		Feature: track.FeatureVector{1, 0, 0},
	}, 1, track.VotingVisual)
	require.NoError(t, err)

	positional := track.IoUVoter{Threshold: 0.05}
	visual := track.VisualVoter{Metric: track.MetricCosine, Threshold: 1}

	// A candidate with low IoU (large positional cost) but an identical
	// feature vector (zero visual cost) should be dominated by the
	// visual voter.
	candidate := axisBox(t, 3, 3, 1, 10, 0.9)
	result := track.Combine(positional, visual, candidate, track.FeatureVector{1, 0, 0}, tr, filter, 0.7, 0.3)
	if result.Admissible {
		require.Equal(t, track.VotingVisual, result.Voting)
	}
}
