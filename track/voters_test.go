package track_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksort/kalman"
	"github.com/banshee-data/tracksort/track"
)

func TestIoUVoter_GatesBelowThreshold(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)

	voter := track.IoUVoter{Threshold: 0.3}
	_, ok := voter.Cost(axisBox(t, 1000, 1000, 1, 10, 0.9), tr, filter)
	require.False(t, ok)

	cost, ok := voter.Cost(axisBox(t, 0, 0, 1, 10, 0.9), tr, filter)
	require.True(t, ok)
	require.InDelta(t, 0, cost, 1e-9)
}

func TestMahalanobisVoter_GatesOnChiSquaredThreshold(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)

	voter := track.MahalanobisVoter{}
	_, ok := voter.Cost(axisBox(t, 2000, 0, 1, 10, 0.9), tr, filter)
	require.False(t, ok)

	cost, ok := voter.Cost(axisBox(t, 0.1, 0, 1, 10, 0.9), tr, filter)
	require.True(t, ok)
	require.GreaterOrEqual(t, cost, 0.0)
	require.LessOrEqual(t, cost, 1.0)
}

func TestVisualVoter_InadmissibleWithoutHistory(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)

	voter := track.VisualVoter{Metric: track.MetricCosine, Threshold: 0.5}
	_, ok := voter.Cost(track.FeatureVector{1, 0, 0}, tr)
	require.False(t, ok)
}

func TestVisualVoter_CosineIdenticalVectorIsZeroCost(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)
	err := tr.ApplyMatch(filter, track.Observation{
		Box:     axisBox(t, 1, 0, 1, 10, 0.9),
		Feature: track.FeatureVector{1, 0, 0},
	}, 1, track.VotingVisual)
	require.NoError(t, err)

	voter := track.VisualVoter{Metric: track.MetricCosine, Threshold: 0.5}
	cost, ok := voter.Cost(track.FeatureVector{1, 0, 0}, tr)
	require.True(t, ok)
	require.InDelta(t, 0, cost, 1e-9)
}

func TestVisualVoter_EuclideanGatesFarVector(t *testing.T) {
	t.Parallel()

	filter := kalman.DefaultBBoxFilter()
	tr := track.New(1, 1, 0, axisBox(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)
	err := tr.ApplyMatch(filter, track.Observation{
		Box:     axisBox(t, 1, 0, 1, 10, 0.9),
		Feature: track.FeatureVector{1, 0, 0},
	}, 1, track.VotingVisual)
	require.NoError(t, err)

	voter := track.VisualVoter{Metric: track.MetricEuclidean, Threshold: 0.1}
	_, ok := voter.Cost(track.FeatureVector{0, 1, 0}, tr)
	require.False(t, ok)
}
