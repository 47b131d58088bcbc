// Package genres resolves artist IDs to genre lists through a shared cache.
package genres

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mager/harmonyhub/harmonyhub"
	"github.com/mager/harmonyhub/retry"
)

type ArtistAPI interface {
	Artist(ctx context.Context, id string) (*harmonyhub.Artist, error)
}

type Resolver struct {
	api    ArtistAPI
	cache  *Cache
	policy *retry.Policy
	log    *zap.SugaredLogger

	// Concurrency bounds parallel lookups in ResolveAll.
	Concurrency int
	// LookupTimeout bounds one shared artist lookup, retries included.
	LookupTimeout time.Duration
}

func NewResolver(log *zap.SugaredLogger, api ArtistAPI, cache *Cache, policy *retry.Policy) *Resolver {
	return &Resolver{
		api:           api,
		cache:         cache,
		policy:        policy,
		log:           log,
		Concurrency:   1,
		LookupTimeout: 2 * time.Minute,
	}
}

// Genres returns the genres of an artist. Lookup failures are logged and
// produce an empty list; they are not cached, so a later call tries again.
func (r *Resolver) Genres(ctx context.Context, artistID string) []string {
	if artistID == "" {
		return []string{}
	}
	if genres, ok := r.cache.Get(artistID); ok {
		return genres
	}

	ch := r.cache.group.DoChan(artistID, func() (interface{}, error) {
		if genres, ok := r.cache.peek(artistID); ok {
			return genres, nil
		}
		// Waiters may outlive the caller that started the lookup.
		lookupCtx := context.WithoutCancel(ctx)
		if r.LookupTimeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(lookupCtx, r.LookupTimeout)
			defer cancel()
		}
		return r.lookup(lookupCtx, artistID), nil
	})

	select {
	case res := <-ch:
		return res.Val.([]string)
	case <-ctx.Done():
		r.log.Warnw("genre lookup abandoned", "artist_id", artistID, "error", ctx.Err())
		return []string{}
	}
}

func (r *Resolver) lookup(ctx context.Context, artistID string) []string {
	var artist *harmonyhub.Artist
	err := r.policy.Do(ctx, "artist "+artistID, func(ctx context.Context) error {
		var err error
		artist, err = r.api.Artist(ctx, artistID)
		return err
	})
	if err != nil {
		r.log.Warnw("genre lookup failed", "artist_id", artistID, "error", err)
		return []string{}
	}

	genres := []string{}
	if artist != nil && artist.Genres != nil {
		genres = artist.Genres
	}
	r.cache.Set(artistID, genres)
	r.log.Debugw("genres resolved", "artist_id", artistID, "genres", genres)
	return genres
}

// ResolveAll resolves the distinct non-empty IDs in artistIDs.
func (r *Resolver) ResolveAll(ctx context.Context, artistIDs []string) map[string][]string {
	out := make(map[string][]string, len(artistIDs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Concurrency, 1))

	seen := make(map[string]struct{}, len(artistIDs))
	for _, id := range artistIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		id := id
		g.Go(func() error {
			genres := r.Genres(ctx, id)
			mu.Lock()
			out[id] = genres
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}
