// Package dashboard runs the ordered fetch sequence behind one dashboard
// render and aggregates the result.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/aggregate"
	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/fetcher"
	"github.com/mager/harmonyhub/genres"
	"github.com/mager/harmonyhub/harmonyhub"
	"github.com/mager/harmonyhub/musicbrainz"
	"github.com/mager/harmonyhub/retry"
	"github.com/mager/harmonyhub/spotify"
)

const (
	SourceTop    = "top"
	SourceRecent = "recent"

	maxLimit        = 50
	playlistLimit   = 20
	discoverArtists = 10
	discoverTracks  = 10
	discoverSeeds   = 5
)

var ErrInvalidRequest = errors.New("dashboard: invalid request")

var timeRanges = map[string]bool{"short_term": true, "medium_term": true, "long_term": true}

// API is the part of the Spotify client the dashboard uses.
type API interface {
	Profile(ctx context.Context) (*harmonyhub.Profile, error)
	Playback(ctx context.Context) (*harmonyhub.Playback, error)
	TopTracks(ctx context.Context, timeRange string, limit int) ([]harmonyhub.Track, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]string, error)
	TopArtists(ctx context.Context, timeRange string, limit int) ([]harmonyhub.Artist, error)
	Tracks(ctx context.Context, ids []string) ([]*harmonyhub.Track, error)
	AudioFeatures(ctx context.Context, ids []string) ([]*harmonyhub.AudioFeatures, error)
	Artist(ctx context.Context, id string) (*harmonyhub.Artist, error)
	Playlists(ctx context.Context, limit int) ([]harmonyhub.Playlist, error)
	Recommendations(ctx context.Context, artistIDs []string, limit int) ([]harmonyhub.Recommendation, error)
}

// Connect returns an API for the current user.
type Connect func(ctx context.Context) (API, error)

type Request struct {
	Source           string `json:"source" yaml:"source"`
	TimeRange        string `json:"time_range" yaml:"time_range"`
	Limit            int    `json:"limit" yaml:"limit"`
	ArtistLimit      int    `json:"artist_limit" yaml:"artist_limit"`
	IncludePlaylists bool   `json:"include_playlists" yaml:"include_playlists"`
}

// Warning records a stage that failed without stopping the render.
type Warning struct {
	Stage string `json:"stage" yaml:"stage"`
	Error string `json:"error" yaml:"error"`
}

type Dashboard struct {
	ID         string                `json:"id" yaml:"id"`
	Request    Request               `json:"request" yaml:"request"`
	Profile    *harmonyhub.Profile   `json:"profile" yaml:"profile"`
	Playback   *harmonyhub.Playback  `json:"playback,omitempty" yaml:"playback,omitempty"`
	Tracks     []harmonyhub.Track    `json:"tracks" yaml:"tracks"`
	TopArtists []harmonyhub.Artist   `json:"top_artists" yaml:"top_artists"`
	Report     aggregate.Report      `json:"report" yaml:"report"`
	Playlists  []harmonyhub.Playlist `json:"playlists,omitempty" yaml:"playlists,omitempty"`
	GenreCache genres.Stats          `json:"genre_cache" yaml:"genre_cache"`
	Warnings   []Warning             `json:"warnings" yaml:"warnings"`
}

type Service struct {
	connect  Connect
	batcher  *fetcher.Batcher
	policy   *retry.Policy
	cache    *genres.Cache
	fallback *genres.Fallback
	log      *zap.SugaredLogger

	Defaults         Request
	GenreConcurrency int
	Options          aggregate.Options
}

func NewService(log *zap.SugaredLogger, connect Connect, batcher *fetcher.Batcher, policy *retry.Policy, cache *genres.Cache) *Service {
	return &Service{
		connect:          connect,
		batcher:          batcher,
		policy:           policy,
		cache:            cache,
		log:              log,
		Defaults:         Request{Source: SourceTop, TimeRange: "medium_term", Limit: maxLimit, ArtistLimit: 20},
		GenreConcurrency: 4,
	}
}

// WithFallback enables ISRC genre lookups for artists without genres.
func (s *Service) WithFallback(f *genres.Fallback) *Service {
	s.fallback = f
	return s
}

func ProvideService(
	cfg config.Config,
	log *zap.SugaredLogger,
	factory *spotify.Factory,
	batcher *fetcher.Batcher,
	policy *retry.Policy,
	cache *genres.Cache,
	mb *musicbrainz.MusicbrainzClient,
) *Service {
	connect := func(ctx context.Context) (API, error) {
		c, err := factory.Client(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	s := NewService(log, connect, batcher, policy, cache)
	s.Defaults = Request{
		Source:      SourceTop,
		TimeRange:   cfg.TimeRange,
		Limit:       cfg.TopTracksLimit,
		ArtistLimit: cfg.TopArtistsLimit,
	}
	s.GenreConcurrency = cfg.GenreConcurrency
	s.Options = aggregate.Options{TopAlbums: cfg.TopAlbums, TopGenres: cfg.TopGenres}
	if cfg.MusicBrainzFallback {
		s.WithFallback(genres.NewFallback(log, mb))
	}
	return s
}

var Options = ProvideService

// Normalize fills in defaults and checks the request.
func (s *Service) Normalize(req Request) (Request, error) {
	if req.Source == "" {
		req.Source = s.Defaults.Source
	}
	if req.TimeRange == "" {
		req.TimeRange = s.Defaults.TimeRange
	}
	if req.Limit == 0 {
		req.Limit = s.Defaults.Limit
	}
	if req.ArtistLimit == 0 {
		req.ArtistLimit = s.Defaults.ArtistLimit
	}

	if req.Source != SourceTop && req.Source != SourceRecent {
		return req, fmt.Errorf("%w: source must be %q or %q", ErrInvalidRequest, SourceTop, SourceRecent)
	}
	if !timeRanges[req.TimeRange] {
		return req, fmt.Errorf("%w: unknown time range %q", ErrInvalidRequest, req.TimeRange)
	}
	if req.Limit < 1 || req.Limit > maxLimit {
		return req, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidRequest, maxLimit)
	}
	if req.ArtistLimit < 0 || req.ArtistLimit > maxLimit {
		return req, fmt.Errorf("%w: artist limit must be between 0 and %d", ErrInvalidRequest, maxLimit)
	}
	return req, nil
}

// call runs fn under the retry policy and returns its value.
func call[T any](ctx context.Context, p *retry.Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var v T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		var err error
		v, err = fn(ctx)
		return err
	})
	return v, err
}
