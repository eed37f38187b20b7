package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/kalman"
	"github.com/banshee-data/tracksort/store"
	"github.com/banshee-data/tracksort/track"
)

func box(t *testing.T, xc, yc, aspect, height, conf float64) geometry.Universal2DBox {
	t.Helper()
	b, err := geometry.NewAxisAlignedBox(xc, yc, aspect, height, conf)
	require.NoError(t, err)
	return b
}

func TestNew_RejectsZeroShards(t *testing.T) {
	t.Parallel()

	_, err := store.New(0, 1)
	require.Error(t, err)
}

func TestAddGetRemove(t *testing.T) {
	t.Parallel()

	s, err := store.New(4, 1)
	require.NoError(t, err)

	filter := kalman.DefaultBBoxFilter()
	id := s.NewID()
	tr := track.New(id, 1, 0, box(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)
	s.Add(tr)

	got, ok := s.Get(id)
	require.True(t, ok)
	require.Same(t, tr, got)

	s.Remove(id)
	_, ok = s.Get(id)
	require.False(t, ok)
}

func TestNewID_NeverReturnsZero(t *testing.T) {
	t.Parallel()

	s, err := store.New(2, 42)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		require.NotZero(t, s.NewID())
	}
}

func TestForEachInScene_OnlyVisitsMatchingScene(t *testing.T) {
	t.Parallel()

	s, err := store.New(4, 1)
	require.NoError(t, err)
	filter := kalman.DefaultBBoxFilter()

	for i := 0; i < 10; i++ {
		id := s.NewID()
		scene := uint64(1)
		if i%2 == 0 {
			scene = 2
		}
		s.Add(track.New(id, scene, 0, box(t, float64(i), 0, 1, 10, 0.9), nil, 5, 5, filter))
	}

	var visited int
	err = s.ForEachInScene(context.Background(), 1, func(tr *track.Track) {
		require.Equal(t, uint64(1), tr.SceneID)
		visited++
	})
	require.NoError(t, err)
	require.Equal(t, 5, visited)
}

func TestFindBaseline_AppliesCompatAndDistance(t *testing.T) {
	t.Parallel()

	s, err := store.New(2, 1)
	require.NoError(t, err)
	filter := kalman.DefaultBBoxFilter()

	idA := s.NewID()
	trA := track.New(idA, 1, 0, box(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)
	s.Add(trA)
	idB := s.NewID()
	trB := track.New(idB, 2, 0, box(t, 50, 50, 1, 10, 0.9), nil, 5, 5, filter)
	s.Add(trB)

	candidates := []store.Candidate{{Index: 0, Box: box(t, 0, 0, 1, 10, 0.9)}}
	compat := func(c store.Candidate, tr *track.Track) bool { return tr.SceneID == 1 }
	distance := func(c store.Candidate, tr *track.Track) (float64, bool) {
		return 1 - geometry.IoU(c.Box, tr.LastPredictedBox), true
	}

	tracks, cost, err := s.FindBaseline(context.Background(), 1, candidates, distance, compat)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, idA, tracks[0].ID)
	require.Len(t, cost, 1)
	require.InDelta(t, 0, cost[0][0], 1e-9)
}

func TestWasteAndDrain(t *testing.T) {
	t.Parallel()

	s, err := store.New(2, 1)
	require.NoError(t, err)
	filter := kalman.DefaultBBoxFilter()
	id := s.NewID()
	tr := track.New(id, 1, 0, box(t, 0, 0, 1, 10, 0.9), nil, 5, 5, filter)
	s.Add(tr)

	s.Waste(tr)
	_, ok := s.Get(id)
	require.False(t, ok)

	drained := s.DrainWasted()
	require.Len(t, drained, 1)
	require.Equal(t, id, drained[0].ID)

	// A second drain finds nothing left.
	require.Empty(t, s.DrainWasted())
}

func TestShardStats(t *testing.T) {
	t.Parallel()

	s, err := store.New(3, 1)
	require.NoError(t, err)
	filter := kalman.DefaultBBoxFilter()
	for i := 0; i < 9; i++ {
		s.Add(track.New(s.NewID(), 1, 0, box(t, float64(i), 0, 1, 10, 0.9), nil, 5, 5, filter))
	}
	stats := s.ShardStats()
	require.Len(t, stats, 3)
	var total int
	for _, c := range stats {
		total += c
	}
	require.Equal(t, 9, total)
}
