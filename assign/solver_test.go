package assign_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksort/assign"
)

func TestSolve_SquareOptimal(t *testing.T) {
	t.Parallel()

	cost := [][]float64{
		{1, 2, 3},
		{4, 4, 6},
		{9, 8, 5},
	}
	res := assign.Solve(cost)
	require.Len(t, res.Matches, 3)

	var total float64
	for _, m := range res.Matches {
		total += m.Cost
	}
	require.InDelta(t, 10.0, total, 1e-9)
}

func TestSolve_GatedPairNeverChosen(t *testing.T) {
	t.Parallel()

	cost := [][]float64{
		{1, math.Inf(1)},
		{math.Inf(1), math.Inf(1)},
	}
	res := assign.Solve(cost)
	require.Len(t, res.Matches, 1)
	require.Equal(t, 0, res.Matches[0].CandidateIndex)
	require.Equal(t, 0, res.Matches[0].TrackIndex)
	require.Contains(t, res.UnmatchedCandidates, 1)
}

func TestSolve_MoreCandidatesThanTracks(t *testing.T) {
	t.Parallel()

	cost := [][]float64{
		{1, 10},
		{10, 1},
		{5, 5},
	}
	res := assign.Solve(cost)
	require.Len(t, res.Matches, 2)
	require.Len(t, res.UnmatchedCandidates, 1)
	require.Empty(t, res.UnmatchedTracks)
}

func TestSolve_MoreTracksThanCandidates(t *testing.T) {
	t.Parallel()

	cost := [][]float64{
		{1, 10, 7},
	}
	res := assign.Solve(cost)
	require.Len(t, res.Matches, 1)
	require.Equal(t, 0, res.Matches[0].TrackIndex)
	require.ElementsMatch(t, []int{1, 2}, res.UnmatchedTracks)
}

func TestSolve_EmptyTrackAxis(t *testing.T) {
	t.Parallel()

	res := assign.Solve([][]float64{{}, {}})
	require.Empty(t, res.Matches)
	require.ElementsMatch(t, []int{0, 1}, res.UnmatchedCandidates)
}

func TestSolve_EmptyCandidateAxis(t *testing.T) {
	t.Parallel()

	res := assign.Solve(nil)
	require.Empty(t, res.Matches)
	require.Empty(t, res.UnmatchedCandidates)
	require.Empty(t, res.UnmatchedTracks)
}

func TestSolve_TieBreakAscendingIndices(t *testing.T) {
	t.Parallel()

	// Two candidates, two tracks, all costs equal: the deterministic
	// tie-break should assign candidate 0 -> track 0, candidate 1 -> track 1.
	cost := [][]float64{
		{1, 1},
		{1, 1},
	}
	res := assign.Solve(cost)
	require.Len(t, res.Matches, 2)
	byCandidate := map[int]int{}
	for _, m := range res.Matches {
		byCandidate[m.CandidateIndex] = m.TrackIndex
	}
	require.Equal(t, 0, byCandidate[0])
	require.Equal(t, 1, byCandidate[1])
}
