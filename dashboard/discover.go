package dashboard

import (
	"context"

	"github.com/mager/harmonyhub/harmonyhub"
)

// Profile returns the connected user's profile.
func (s *Service) Profile(ctx context.Context) (*harmonyhub.Profile, error) {
	api, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	return call(ctx, s.policy, "profile", api.Profile)
}

// Playback returns a snapshot of the user's player.
func (s *Service) Playback(ctx context.Context) (*harmonyhub.Playback, error) {
	api, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	return call(ctx, s.policy, "playback", api.Playback)
}

// Discover seeds recommendations with the user's top artists.
func (s *Service) Discover(ctx context.Context) ([]harmonyhub.Recommendation, error) {
	api, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	artists, err := call(ctx, s.policy, "top artists", func(ctx context.Context) ([]harmonyhub.Artist, error) {
		return api.TopArtists(ctx, s.Defaults.TimeRange, discoverArtists)
	})
	if err != nil {
		return nil, err
	}
	if len(artists) == 0 {
		return []harmonyhub.Recommendation{}, nil
	}

	ids := make([]string, 0, discoverSeeds)
	for _, a := range artists {
		if len(ids) == discoverSeeds {
			break
		}
		ids = append(ids, a.ID)
	}
	s.log.Infow("Fetching recommendations", "seed_artists", len(ids))

	return call(ctx, s.policy, "recommendations", func(ctx context.Context) ([]harmonyhub.Recommendation, error) {
		return api.Recommendations(ctx, ids, discoverTracks)
	})
}
