package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mager/harmonyhub/aggregate"
	"github.com/mager/harmonyhub/fetcher"
	"github.com/mager/harmonyhub/genres"
	"github.com/mager/harmonyhub/harmonyhub"
)

// render carries the state of one Render call.
type render struct {
	*Service
	api API
	log *zap.SugaredLogger
	d   *Dashboard
}

func (r *render) warn(stage string, err error) {
	r.log.Warnw("dashboard stage failed", "stage", stage, "error", err)
	r.d.Warnings = append(r.d.Warnings, Warning{Stage: stage, Error: err.Error()})
}

// Render builds a dashboard. Only a failure to load the profile or the track
// list is returned as an error; every other failed stage is recorded in
// Warnings and the render goes on with what it has.
func (s *Service) Render(ctx context.Context, req Request) (*Dashboard, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := s.log.With("render_id", id)
	log.Infow("Rendering dashboard", "source", req.Source, "time_range", req.TimeRange, "limit", req.Limit)

	api, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	r := &render{
		Service: s,
		api:     api,
		log:     log,
		d:       &Dashboard{ID: id, Request: req, Warnings: []Warning{}},
	}

	r.d.Profile, err = call(ctx, s.policy, "profile", api.Profile)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	if pb, err := call(ctx, s.policy, "playback", api.Playback); err != nil {
		r.warn("playback", err)
	} else {
		r.d.Playback = pb
	}

	r.d.Tracks, err = r.tracks(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s tracks: %w", req.Source, err)
	}

	r.d.TopArtists = []harmonyhub.Artist{}
	if req.ArtistLimit > 0 {
		artists, err := call(ctx, s.policy, "top artists", func(ctx context.Context) ([]harmonyhub.Artist, error) {
			return api.TopArtists(ctx, req.TimeRange, req.ArtistLimit)
		})
		if err != nil {
			r.warn("top artists", err)
		} else {
			r.d.TopArtists = artists
		}
	}

	in := aggregate.Input{
		Tracks:   r.d.Tracks,
		Features: r.features(ctx),
	}
	in.ArtistGenres, in.TrackGenres = r.genres(ctx)
	r.d.Report = aggregate.Build(in, s.Options)

	if req.IncludePlaylists {
		playlists, err := call(ctx, s.policy, "playlists", func(ctx context.Context) ([]harmonyhub.Playlist, error) {
			return api.Playlists(ctx, playlistLimit)
		})
		if err != nil {
			r.warn("playlists", err)
		} else {
			r.d.Playlists = playlists
		}
	}

	r.d.GenreCache = s.cache.Stats()
	log.Infow("Dashboard rendered",
		"tracks", len(r.d.Tracks),
		"classified", r.d.Report.Classified,
		"warnings", len(r.d.Warnings),
		"genre_cache_hits", r.d.GenreCache.Hits,
		"genre_cache_misses", r.d.GenreCache.Misses,
	)
	return r.d, nil
}

// tracks loads the track list. Top tracks keep Spotify's ranking, repeats
// included. Recently played tracks are reduced to their first (most recent)
// play and then looked up in batches.
func (r *render) tracks(ctx context.Context, req Request) ([]harmonyhub.Track, error) {
	if req.Source == SourceTop {
		tracks, err := call(ctx, r.policy, "top tracks", func(ctx context.Context) ([]harmonyhub.Track, error) {
			return r.api.TopTracks(ctx, req.TimeRange, req.Limit)
		})
		if tracks == nil {
			tracks = []harmonyhub.Track{}
		}
		return tracks, err
	}

	played, err := call(ctx, r.policy, "recently played", func(ctx context.Context) ([]string, error) {
		return r.api.RecentlyPlayed(ctx, req.Limit)
	})
	if err != nil {
		return nil, err
	}
	ids := fetcher.Dedupe(played)

	res, err := fetcher.NewTrackFetcher(r.api, r.batcher).Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(res.FailedBatches) > 0 {
		r.warn("tracks", fmt.Errorf("%d track batches failed", len(res.FailedBatches)))
	}

	tracks := make([]harmonyhub.Track, 0, len(ids))
	for _, id := range ids {
		if t := res.Items[id]; t != nil {
			tracks = append(tracks, *t)
		}
	}
	return tracks, nil
}

func (r *render) features(ctx context.Context) map[string]*harmonyhub.AudioFeatures {
	ids := make([]string, len(r.d.Tracks))
	for i, t := range r.d.Tracks {
		ids[i] = t.ID
	}

	res, err := fetcher.NewFeatureFetcher(r.api, r.batcher).Fetch(ctx, ids)
	if err != nil {
		r.warn("audio features", err)
	}
	if res == nil {
		return nil
	}
	if len(res.FailedBatches) > 0 {
		r.warn("audio features", fmt.Errorf("%d audio feature batches failed", len(res.FailedBatches)))
	}
	return res.Items
}

func (r *render) genres(ctx context.Context) (map[string][]string, map[string][]string) {
	artistIDs := make([]string, 0, len(r.d.Tracks))
	for _, t := range r.d.Tracks {
		artistIDs = append(artistIDs, t.ArtistID)
	}

	resolver := genres.NewResolver(r.log, r.api, r.cache, r.policy)
	resolver.Concurrency = r.GenreConcurrency
	artistGenres := resolver.ResolveAll(ctx, artistIDs)

	var trackGenres map[string][]string
	if r.fallback != nil {
		trackGenres = r.fallback.TrackGenres(ctx, r.d.Tracks, artistGenres)
	}
	return artistGenres, trackGenres
}
