package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/internal/monitoring"
	"github.com/banshee-data/tracksort/track"
)

var logf = monitoring.Tagged("store")

// shard owns a disjoint subset of tracks, chosen by ID, guarded by its own
// lock.
type shard struct {
	mu     sync.Mutex
	tracks map[uint64]*track.Track
}

// Candidate is one incoming observation presented to FindBaseline, tagged
// with its position in the caller's candidate slice so cost-matrix rows
// line up after the parallel per-shard fan-out.
type Candidate struct {
	Index    int
	Box      geometry.Universal2DBox
	Feature  track.FeatureVector
	CustomID *int64
}

// DistanceFunc scores one candidate against one track, returning the cost
// to feed the assignment solver and whether the pair is admissible at
// all. Store never interprets the cost itself; callers in package
// sortkit/visualsort supply the positional or combined voter.
type DistanceFunc func(c Candidate, t *track.Track) (cost float64, ok bool)

// CompatFunc is the attribute-compatibility predicate consulted before any
// distance computation: scene membership is always checked by
// the store itself, but callers may layer arbitrary additional predicates
// (e.g. spatio-temporal gating) on top.
type CompatFunc func(c Candidate, t *track.Track) bool

// Store owns every live track across every scene, partitioned into fixed
// shards for the store's lifetime.
type Store struct {
	shards []*shard

	wastedMu sync.Mutex
	wasted   []*track.Track

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds a Store with the given shard count (>= 1).
func New(shards int, seed int64) (*Store, error) {
	if shards < 1 {
		return nil, fmt.Errorf("store: shards must be >= 1, got %d", shards)
	}
	s := &Store{
		shards: make([]*shard, shards),
		rng:    rand.New(rand.NewSource(seed)),
	}
	for i := range s.shards {
		s.shards[i] = &shard{tracks: make(map[uint64]*track.Track)}
	}
	return s, nil
}

// ShardCount returns the number of shards the store was constructed with.
func (s *Store) ShardCount() int {
	return len(s.shards)
}

func (s *Store) shardFor(id uint64) *shard {
	return s.shards[id%uint64(len(s.shards))]
}

// NewID draws a random, collision-resistant track ID, re-
// drawing on the vanishingly rare case that a live track already holds
// the candidate value in its target shard.
func (s *Store) NewID() uint64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	for {
		id := s.rng.Uint64()
		if id == 0 {
			continue
		}
		sh := s.shardFor(id)
		sh.mu.Lock()
		_, exists := sh.tracks[id]
		sh.mu.Unlock()
		if !exists {
			return id
		}
	}
}

// Add inserts t into its hashed-to shard.
func (s *Store) Add(t *track.Track) {
	sh := s.shardFor(t.ID)
	sh.mu.Lock()
	sh.tracks[t.ID] = t
	sh.mu.Unlock()
}

// Get returns the track with the given ID, if still live.
func (s *Store) Get(id uint64) (*track.Track, bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	t, ok := sh.tracks[id]
	return t, ok
}

// Remove drops a track from its shard (used when a track transitions to
// the wasted pool).
func (s *Store) Remove(id uint64) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	delete(sh.tracks, id)
	sh.mu.Unlock()
}

// ForEachInScene applies fn to every live track belonging to sceneID,
// fanned out across shards with a worker pool bounded to the shard count.
// Each shard's lock is held only for the duration of its own tracks'
// iteration, never across shards.
func (s *Store) ForEachInScene(ctx context.Context, sceneID uint64, fn func(*track.Track)) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(len(s.shards))
	for _, sh := range s.shards {
		sh := sh
		g.Go(func() error {
			sh.mu.Lock()
			defer sh.mu.Unlock()
			for _, t := range sh.tracks {
				if t.SceneID == sceneID {
					fn(t)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// scoredTrack pairs a track with its per-candidate cost column, computed
// shard-locally under that shard's lock.
type scoredTrack struct {
	t   *track.Track
	col []float64
}

// FindBaseline computes the cost matrix between candidates and every live
// track in sceneID; a pair that fails compat (checked first) or that
// distance rejects gets the forbidden cost. Distance computation is fanned
// out across shards via errgroup, merging the
// per-shard partial columns into one matrix. Because shards score
// concurrently, distance and compat may be invoked from multiple
// goroutines at once; callers supplying stateful closures must make them
// safe for that. The returned track slice is sorted by ID so that
// assignment tie-breaks (ascending candidate/track index) are
// reproducible across runs.
func (s *Store) FindBaseline(ctx context.Context, sceneID uint64, candidates []Candidate, distance DistanceFunc, compat CompatFunc) ([]*track.Track, [][]float64, error) {
	results := make([][]scoredTrack, len(s.shards))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(len(s.shards))
	for i, sh := range s.shards {
		i, sh := i, sh
		g.Go(func() error {
			sh.mu.Lock()
			defer sh.mu.Unlock()
			var scored []scoredTrack
			for _, t := range sh.tracks {
				if t.SceneID != sceneID {
					continue
				}
				col := make([]float64, len(candidates))
				for ci, c := range candidates {
					if compat != nil && !compat(c, t) {
						col[ci] = posInf
						continue
					}
					d, ok := distance(c, t)
					if !ok {
						col[ci] = posInf
						continue
					}
					col[ci] = d
				}
				scored = append(scored, scoredTrack{t: t, col: col})
			}
			results[i] = scored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var merged []scoredTrack
	for _, r := range results {
		merged = append(merged, r...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].t.ID < merged[j].t.ID })

	tracks := make([]*track.Track, len(merged))
	for i, st := range merged {
		tracks[i] = st.t
	}

	cost := make([][]float64, len(candidates))
	for ci := range candidates {
		row := make([]float64, len(merged))
		for ti, st := range merged {
			row[ti] = st.col[ci]
		}
		cost[ci] = row
	}
	return tracks, cost, nil
}

const posInf = 1e18

// Waste removes t from its shard and appends it to the wasted pool. The
// migration is atomic; the wasted pool's lock is acquired only after the
// shard lock has been released.
func (s *Store) Waste(t *track.Track) {
	s.Remove(t.ID)
	s.wastedMu.Lock()
	s.wasted = append(s.wasted, t)
	s.wastedMu.Unlock()
	logf("track %d (scene %d) wasted after %d observations", t.ID, t.SceneID, t.Length)
}

// DrainWasted returns and clears the wasted pool.
func (s *Store) DrainWasted() []*track.Track {
	s.wastedMu.Lock()
	defer s.wastedMu.Unlock()
	out := s.wasted
	s.wasted = nil
	return out
}

// ClearWasted discards the wasted pool without returning it.
func (s *Store) ClearWasted() {
	s.wastedMu.Lock()
	s.wasted = nil
	s.wastedMu.Unlock()
}

// ShardStats returns the live track count for each shard, in shard-index
// order.
func (s *Store) ShardStats() []int {
	out := make([]int, len(s.shards))
	for i, sh := range s.shards {
		sh.mu.Lock()
		out[i] = len(sh.tracks)
		sh.mu.Unlock()
	}
	return out
}
