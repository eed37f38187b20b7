package sortkit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/banshee-data/tracksort/assign"
	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/kalman"
	"github.com/banshee-data/tracksort/store"
	"github.com/banshee-data/tracksort/track"
)

// sceneState holds the per-scene epoch clock and the mutex that
// linearizes predict calls on that scene.
type sceneState struct {
	mu    sync.Mutex
	epoch uint64
}

// Tracker is one SORT engine instance: a sharded store plus the
// positional voter and lifecycle policy fixed at construction.
type Tracker struct {
	cfg    config
	filter kalman.BBoxFilter
	store  *store.Store

	scenesMu sync.Mutex
	scenes   map[uint64]*sceneState
}

// New builds a Tracker from Options. Invalid combinations fail here,
// at construction, never later in Predict.
func New(opts ...Option) (*Tracker, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	st, err := store.New(cfg.shards, cfg.rngSeed)
	if err != nil {
		return nil, err
	}
	filter := kalman.DefaultBBoxFilter()
	filter.VelocityClamp = cfg.velocityClamp
	filter.MaxCovarianceDiag = cfg.maxCovarianceDiag
	filter.IdleCovarianceInflation = cfg.idleCovarianceInflation

	return &Tracker{
		cfg:    cfg,
		filter: filter,
		store:  st,
		scenes: make(map[uint64]*sceneState),
	}, nil
}

func (tr *Tracker) sceneFor(sceneID uint64) *sceneState {
	tr.scenesMu.Lock()
	defer tr.scenesMu.Unlock()
	s, ok := tr.scenes[sceneID]
	if !ok {
		s = &sceneState{}
		tr.scenes[sceneID] = s
	}
	return s
}

func (tr *Tracker) positionalVoter() track.PositionalVoter {
	if tr.cfg.metric == MetricMahalanobis {
		return track.MahalanobisVoter{}
	}
	return track.IoUVoter{Threshold: tr.cfg.iouThreshold}
}

// clampConfidence raises a box's confidence to the configured floor
// without otherwise altering it.
func (tr *Tracker) clampConfidence(box geometry.Universal2DBox) geometry.Universal2DBox {
	if box.Confidence < tr.cfg.minConfidence {
		box.Confidence = tr.cfg.minConfidence
	}
	return box
}

func centerDistance(a, b geometry.Universal2DBox) float64 {
	return math.Hypot(a.XC-b.XC, a.YC-b.YC)
}

// Predict runs one epoch of the SORT state machine against sceneID:
// advance the scene clock, Kalman-predict every live track, build the
// gated cost matrix, solve assignment, fold matches in, spawn tracks for
// unmatched candidates, and retire tracks past their idle tolerance. The
// returned slice carries one SortTrack per track matched or newly created
// this epoch; idle tracks are retrievable via IdleTracks.
func (tr *Tracker) Predict(ctx context.Context, sceneID uint64, observations []Observation) ([]SortTrack, error) {
	scene := tr.sceneFor(sceneID)
	scene.mu.Lock()
	defer scene.mu.Unlock()

	scene.epoch++
	epoch := scene.epoch

	if err := tr.store.ForEachInScene(ctx, sceneID, func(t *track.Track) {
		t.Predict(tr.filter)
	}); err != nil {
		return nil, err
	}

	candidates := make([]store.Candidate, len(observations))
	for i, obs := range observations {
		candidates[i] = store.Candidate{
			Index:    i,
			Box:      tr.clampConfidence(obs.Box),
			CustomID: obs.CustomID,
		}
	}

	voter := tr.positionalVoter()
	distance := func(c store.Candidate, t *track.Track) (float64, bool) {
		return voter.Cost(c.Box, t, tr.filter)
	}
	compat := func(c store.Candidate, t *track.Track) bool {
		maxDist := tr.cfg.maxAllowedDistance(t.IdleAge(epoch))
		if maxDist >= posInf {
			return true
		}
		return centerDistance(c.Box, t.LastPredictedBox) <= maxDist
	}

	tracks, cost, err := tr.store.FindBaseline(ctx, sceneID, candidates, distance, compat)
	if err != nil {
		return nil, err
	}

	result := assign.Solve(cost)
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].CandidateIndex != result.Matches[j].CandidateIndex {
			return result.Matches[i].CandidateIndex < result.Matches[j].CandidateIndex
		}
		return result.Matches[i].TrackIndex < result.Matches[j].TrackIndex
	})

	matchedTrack := make(map[int]bool, len(result.Matches))
	out := make([]SortTrack, 0, len(result.Matches)+len(result.UnmatchedCandidates))

	for _, m := range result.Matches {
		t := tracks[m.TrackIndex]
		obs := observations[m.CandidateIndex]
		if err := t.ApplyMatch(tr.filter, track.Observation{Box: tr.clampConfidence(obs.Box), CustomID: obs.CustomID}, epoch, track.VotingPositional); err != nil {
			return nil, fmt.Errorf("sortkit: applying match for track %d: %w", t.ID, err)
		}
		matchedTrack[m.TrackIndex] = true
		out = append(out, sortTrackFrom(t))
	}

	for _, ci := range result.UnmatchedCandidates {
		obs := observations[ci]
		id := tr.store.NewID()
		newTrack := track.New(id, sceneID, epoch, tr.clampConfidence(obs.Box), obs.CustomID, tr.cfg.bboxHistory, 1, tr.filter)
		tr.store.Add(newTrack)
		out = append(out, sortTrackFrom(newTrack))
	}

	for i, t := range tracks {
		if matchedTrack[i] {
			continue
		}
		t.MarkIdle()
		if tr.cfg.idleCovarianceInflation > 0 {
			t.Kalman = tr.filter.InflateForIdle(t.Kalman)
		}
		if t.IdleAge(epoch) > tr.cfg.maxIdleEpochs {
			tr.store.Waste(t)
		}
	}

	return out, nil
}

// SkipEpochs advances sceneID's epoch by n with no observations; every
// live track ages by n, and those that exceed max_idle_epochs move to the
// wasted pool.
func (tr *Tracker) SkipEpochs(ctx context.Context, sceneID uint64, n uint64) error {
	scene := tr.sceneFor(sceneID)
	scene.mu.Lock()
	defer scene.mu.Unlock()

	scene.epoch += n
	epoch := scene.epoch

	var toWaste []*track.Track
	err := tr.store.ForEachInScene(ctx, sceneID, func(t *track.Track) {
		if t.IdleAge(epoch) > tr.cfg.maxIdleEpochs {
			toWaste = append(toWaste, t)
		}
	})
	if err != nil {
		return err
	}
	for _, t := range toWaste {
		tr.store.Waste(t)
	}
	return nil
}

// IdleTracks returns a SortTrack for every live track in sceneID whose
// epoch is behind the scene's current epoch.
func (tr *Tracker) IdleTracks(ctx context.Context, sceneID uint64) ([]SortTrack, error) {
	scene := tr.sceneFor(sceneID)
	scene.mu.Lock()
	defer scene.mu.Unlock()
	epoch := scene.epoch

	var out []SortTrack
	err := tr.store.ForEachInScene(ctx, sceneID, func(t *track.Track) {
		if t.Epoch < epoch {
			out = append(out, sortTrackFrom(t))
		}
	})
	return out, err
}

// Wasted drains the wasted pool, returning the full bounded history for
// each track that was retired.
func (tr *Tracker) Wasted() []WastedSortTrack {
	drained := tr.store.DrainWasted()
	out := make([]WastedSortTrack, len(drained))
	for i, t := range drained {
		out[i] = wastedSortTrackFrom(t)
	}
	return out
}

// ClearWasted discards the wasted pool without returning it.
func (tr *Tracker) ClearWasted() {
	tr.store.ClearWasted()
}

// ShardStats exposes per-shard live counts.
func (tr *Tracker) ShardStats() []int {
	return tr.store.ShardStats()
}

// SceneBatch is one scene's observations for PredictBatch.
type SceneBatch struct {
	SceneID      uint64
	Observations []Observation
}

// SceneResult is one scene's tracks from PredictBatch.
type SceneResult struct {
	SceneID uint64
	Tracks  []SortTrack
}
