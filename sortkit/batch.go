package sortkit

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PredictBatch runs predict for multiple scenes in one parallel phase.
// All scene epochs advance atomically within the call (each
// by 1, since distinct scenes have independent per-scene mutexes); results
// are grouped and returned per scene in the same order as batches.
func (tr *Tracker) PredictBatch(ctx context.Context, batches []SceneBatch) ([]SceneResult, error) {
	results := make([]SceneResult, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(tr.cfg.shards)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			tracks, err := tr.Predict(ctx, b.SceneID, b.Observations)
			if err != nil {
				return err
			}
			results[i] = SceneResult{SceneID: b.SceneID, Tracks: tracks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
