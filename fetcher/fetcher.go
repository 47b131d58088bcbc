// Package fetcher retrieves per-track records in fixed-size batches. Each
// batch is fetched on its own under the retry policy, so a batch that keeps
// failing only loses its own tracks.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/harmonyhub"
	"github.com/mager/harmonyhub/retry"
)

// MaxBatchSize is the Spotify limit for bulk track and audio-feature lookups.
const MaxBatchSize = 50

type AudioFeaturesAPI interface {
	AudioFeatures(ctx context.Context, ids []string) ([]*harmonyhub.AudioFeatures, error)
}

type TracksAPI interface {
	Tracks(ctx context.Context, ids []string) ([]*harmonyhub.Track, error)
}

// BatchFunc fetches one batch. The returned slice is aligned with ids; nil
// entries mean the API has no record for that ID.
type BatchFunc[T any] func(ctx context.Context, ids []string) ([]*T, error)

// Result maps every requested ID of a completed batch to its record, nil when
// absent. FailedBatches lists the zero-based indexes of batches that ran out
// of attempts.
type Result[T any] struct {
	Items         map[string]*T
	FailedBatches []int
}

type Batcher struct {
	Size    int
	Timeout time.Duration

	policy *retry.Policy
	log    *zap.SugaredLogger
}

func NewBatcher(log *zap.SugaredLogger, policy *retry.Policy, size int) *Batcher {
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	return &Batcher{Size: size, policy: policy, log: log}
}

func ProvideBatcher(cfg config.Config, log *zap.SugaredLogger, policy *retry.Policy) *Batcher {
	b := NewBatcher(log, policy, cfg.BatchSize)
	b.Timeout = cfg.BatchTimeout
	return b
}

var Options = ProvideBatcher

// Dedupe drops empty and repeated IDs, keeping the first occurrence.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Chunk splits ids into consecutive slices of at most size elements.
func Chunk(ids []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(ids); i += size {
		chunks = append(chunks, ids[i:min(i+size, len(ids))])
	}
	return chunks
}

// Fetch de-duplicates ids and fetches them batch by batch, in order. A
// permanent error stops the loop and is returned together with the batches
// fetched so far.
func Fetch[T any](ctx context.Context, b *Batcher, op string, ids []string, call BatchFunc[T], idOf func(*T) string) (*Result[T], error) {
	res := &Result[T]{Items: make(map[string]*T, len(ids))}

	for i, batch := range Chunk(Dedupe(ids), b.Size) {
		b.log.Debugw("fetching batch", "op", op, "batch", i+1, "size", len(batch))

		items, err := fetchBatch(ctx, b, op, batch, call)
		if err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("%s: %w", op, ctx.Err())
			}
			if retry.IsExhausted(err) || isTimeout(err) {
				b.log.Warnw("batch failed, tracks recorded without data",
					"op", op, "batch", i+1, "first_id", batch[0], "error", err)
				for _, id := range batch {
					res.Items[id] = nil
				}
				res.FailedBatches = append(res.FailedBatches, i)
				continue
			}
			return res, fmt.Errorf("%s batch %d: %w", op, i+1, err)
		}

		for _, id := range batch {
			res.Items[id] = nil
		}
		for j, item := range items {
			if item == nil {
				continue
			}
			id := idOf(item)
			if id == "" && j < len(batch) {
				id = batch[j]
			}
			if _, requested := res.Items[id]; requested {
				res.Items[id] = item
			}
		}
	}

	return res, nil
}

func fetchBatch[T any](ctx context.Context, b *Batcher, op string, batch []string, call BatchFunc[T]) ([]*T, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	var items []*T
	err := b.policy.Do(ctx, op, func(ctx context.Context) error {
		var err error
		items, err = call(ctx, batch)
		return err
	})
	return items, err
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// FeatureFetcher fetches audio features for many tracks.
type FeatureFetcher struct {
	api     AudioFeaturesAPI
	batcher *Batcher
}

func NewFeatureFetcher(api AudioFeaturesAPI, batcher *Batcher) *FeatureFetcher {
	return &FeatureFetcher{api: api, batcher: batcher}
}

func (f *FeatureFetcher) Fetch(ctx context.Context, trackIDs []string) (*Result[harmonyhub.AudioFeatures], error) {
	return Fetch[harmonyhub.AudioFeatures](ctx, f.batcher, "audio features", trackIDs, f.api.AudioFeatures,
		func(af *harmonyhub.AudioFeatures) string { return af.TrackID })
}

// TrackFetcher hydrates track IDs into full tracks.
type TrackFetcher struct {
	api     TracksAPI
	batcher *Batcher
}

func NewTrackFetcher(api TracksAPI, batcher *Batcher) *TrackFetcher {
	return &TrackFetcher{api: api, batcher: batcher}
}

func (f *TrackFetcher) Fetch(ctx context.Context, trackIDs []string) (*Result[harmonyhub.Track], error) {
	return Fetch[harmonyhub.Track](ctx, f.batcher, "tracks", trackIDs, f.api.Tracks,
		func(t *harmonyhub.Track) string { return t.ID })
}
