package visualsort

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/banshee-data/tracksort/assign"
	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/internal/monitoring"
	"github.com/banshee-data/tracksort/kalman"
	"github.com/banshee-data/tracksort/store"
	"github.com/banshee-data/tracksort/track"
)

var logf = monitoring.Tagged("visualsort")

// sceneState holds the per-scene epoch clock and the mutex that
// linearizes predict calls on that scene, identical in shape to
// sortkit's sceneState.
type sceneState struct {
	mu    sync.Mutex
	epoch uint64
}

// Tracker is one Visual SORT engine instance: the same
// sharded store and lifecycle policy as sortkit.Tracker, with a combined
// positional+visual voter fixed at construction.
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
	if tr.cfg.positional == MetricMahalanobis {
		return track.MahalanobisVoter{}
	}
	return track.IoUVoter{Threshold: tr.cfg.iouThreshold}
}

func (tr *Tracker) visualVoter() track.VisualVoter {
	metric := track.MetricCosine
	if tr.cfg.visualMetric == MetricEuclidean {
		metric = track.MetricEuclidean
	}
	return track.VisualVoter{Metric: metric, Threshold: tr.cfg.visualThreshold}
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

// Rejection records a malformed candidate: the offending observation is
// dropped, the rest proceed, and the epoch never aborts.
type Rejection struct {
	Index int
	Err   error
}

// Predict runs one epoch of the Visual SORT state machine against
// sceneID, scoring candidate×track pairs with the combined
// positional+visual cost instead of sortkit's positional-only cost.
// Observations carrying a feature vector
// of the wrong length are rejected and reported in rejections, without
// aborting the rest of the epoch.
func (tr *Tracker) Predict(ctx context.Context, sceneID uint64, observations []VisualObservation) ([]SortTrack, []Rejection, error) {
	scene := tr.sceneFor(sceneID)
	scene.mu.Lock()
	defer scene.mu.Unlock()

	scene.epoch++
	epoch := scene.epoch

	if err := tr.store.ForEachInScene(ctx, sceneID, func(t *track.Track) {
		t.Predict(tr.filter)
	}); err != nil {
		return nil, nil, err
	}

	var rejections []Rejection
	candidates := make([]store.Candidate, 0, len(observations))
	for i, obs := range observations {
		if err := track.ValidateFeature(obs.Feature, tr.cfg.featureDim); err != nil {
			rejections = append(rejections, Rejection{Index: i, Err: err})
			continue
		}
		candidates = append(candidates, store.Candidate{
			Index:    i,
			Box:      tr.clampConfidence(obs.Box),
			Feature:  obs.Feature,
			CustomID: obs.CustomID,
		})
	}

	positional := tr.positionalVoter()
	visual := tr.visualVoter()
	wPos, wVis := tr.cfg.positionalWeight, tr.cfg.visualWeight()

	// distance runs concurrently across shards inside FindBaseline, so the
	// voting-type side table takes its own lock.
	var votingMu sync.Mutex
	votingByPair := make(map[[2]uint64]track.VotingType)
	distance := func(c store.Candidate, t *track.Track) (float64, bool) {
		cc := track.Combine(positional, visual, c.Box, c.Feature, t, tr.filter, wPos, wVis)
		if !cc.Admissible {
			return 0, false
		}
		votingMu.Lock()
		votingByPair[[2]uint64{uint64(c.Index), t.ID}] = cc.Voting
		votingMu.Unlock()
		return cc.Cost, true
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
		return nil, nil, err
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
		obsIndex := candidates[m.CandidateIndex].Index
		obs := observations[obsIndex]
		voting := votingByPair[[2]uint64{uint64(obsIndex), t.ID}]
		matchObs := track.Observation{Box: tr.clampConfidence(obs.Box), Feature: obs.Feature, CustomID: obs.CustomID}
		if err := t.ApplyMatch(tr.filter, matchObs, epoch, voting); err != nil {
			return nil, nil, fmt.Errorf("visualsort: applying match for track %d: %w", t.ID, err)
		}
		matchedTrack[m.TrackIndex] = true
		out = append(out, sortTrackFrom(t))
	}

	for _, ci := range result.UnmatchedCandidates {
		obsIndex := candidates[ci].Index
		obs := observations[obsIndex]
		id := tr.store.NewID()
		newTrack := track.New(id, sceneID, epoch, tr.clampConfidence(obs.Box), obs.CustomID, tr.cfg.bboxHistory, tr.cfg.visualHistory, tr.filter)
		if obs.Feature != nil {
			newTrack.Features.Push(obs.Feature)
		}
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

	for _, r := range rejections {
		logf("rejected candidate %d in scene %d: %v", r.Index, sceneID, r.Err)
	}

	return out, rejections, nil
}

// PredictSet is a convenience wrapper over Predict taking a batched
// VisualObservationSet.
func (tr *Tracker) PredictSet(ctx context.Context, sceneID uint64, set VisualObservationSet) ([]SortTrack, []Rejection, error) {
	return tr.Predict(ctx, sceneID, set.Observations)
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

// Wasted drains the wasted pool, returning the full bounded history
// (including feature history) for each track that was retired.
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
