// Package spotify talks to the Spotify Web API and converts its payloads into
// harmonyhub records.
package spotify

import (
	"context"
	"errors"
	"net/http"
	"strings"

	spot "github.com/zmb3/spotify/v2"

	"github.com/mager/harmonyhub/harmonyhub"
)

const (
	maxPlaylistPages = 20
	maxSeedArtists   = 5
)

// Client is a thin, typed wrapper around the zmb3 client.
type Client struct {
	api *spot.Client
}

// NewClient wraps an HTTP client that already carries authentication.
// baseURL overrides the API root and may be empty.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	var opts []spot.ClientOption
	if baseURL != "" {
		opts = append(opts, spot.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/"))
	}
	return &Client{api: spot.New(httpClient, opts...)}
}

func (c *Client) Profile(ctx context.Context) (*harmonyhub.Profile, error) {
	u, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &harmonyhub.Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Image:       LargestImage(u.Images),
		Followers:   int(u.Followers.Count),
		URL:         u.ExternalURLs["spotify"],
	}, nil
}

// TopTracks returns the user's top tracks in Spotify's ranking order.
func (c *Client) TopTracks(ctx context.Context, timeRange string, limit int) ([]harmonyhub.Track, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx, spot.Timerange(spot.Range(timeRange)), spot.Limit(limit))
	if err != nil {
		return nil, err
	}
	tracks := make([]harmonyhub.Track, 0, len(page.Tracks))
	for i := range page.Tracks {
		tracks = append(tracks, mapTrack(&page.Tracks[i]))
	}
	return tracks, nil
}

func (c *Client) TopArtists(ctx context.Context, timeRange string, limit int) ([]harmonyhub.Artist, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx, spot.Timerange(spot.Range(timeRange)), spot.Limit(limit))
	if err != nil {
		return nil, err
	}
	artists := make([]harmonyhub.Artist, 0, len(page.Artists))
	for i := range page.Artists {
		artists = append(artists, mapArtist(&page.Artists[i]))
	}
	return artists, nil
}

// RecentlyPlayed returns the IDs of recently played tracks, most recent
// first. The same track shows up once per play.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]string, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spot.RecentlyPlayedOptions{Limit: spot.Numeric(limit)})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Track.ID == "" {
			continue
		}
		ids = append(ids, string(item.Track.ID))
	}
	return ids, nil
}

// Tracks looks up full tracks. The result is aligned with ids.
func (c *Client) Tracks(ctx context.Context, ids []string) ([]*harmonyhub.Track, error) {
	fts, err := c.api.GetTracks(ctx, toIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make([]*harmonyhub.Track, len(fts))
	for i, ft := range fts {
		if ft == nil {
			continue
		}
		t := mapTrack(ft)
		out[i] = &t
	}
	return out, nil
}

func (c *Client) Artist(ctx context.Context, id string) (*harmonyhub.Artist, error) {
	fa, err := c.api.GetArtist(ctx, spot.ID(id))
	if err != nil {
		return nil, err
	}
	a := mapArtist(fa)
	return &a, nil
}

// AudioFeatures looks up audio features. The result is aligned with ids;
// tracks without analysis are nil.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) ([]*harmonyhub.AudioFeatures, error) {
	afs, err := c.api.GetAudioFeatures(ctx, toIDs(ids)...)
	if err != nil {
		return nil, err
	}
	out := make([]*harmonyhub.AudioFeatures, len(afs))
	for i, f := range afs {
		out[i] = mapAudioFeatures(f)
	}
	return out, nil
}

// Playback returns what is playing now. Nothing playing is not an error.
func (c *Client) Playback(ctx context.Context) (*harmonyhub.Playback, error) {
	state, err := c.api.PlayerState(ctx)
	if err != nil {
		return nil, err
	}
	pb := &harmonyhub.Playback{
		IsPlaying:  state.Playing,
		ProgressMs: int(state.Progress),
		Device:     state.Device.Name,
	}
	if state.Item != nil {
		t := mapTrack(state.Item)
		pb.Track = &t
	}
	return pb, nil
}

// Playlists returns the user's playlists with their total duration.
func (c *Client) Playlists(ctx context.Context, limit int) ([]harmonyhub.Playlist, error) {
	page, err := c.api.CurrentUsersPlaylists(ctx, spot.Limit(limit))
	if err != nil {
		return nil, err
	}

	playlists := make([]harmonyhub.Playlist, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		ms, err := c.playlistDuration(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, harmonyhub.Playlist{
			ID:          string(p.ID),
			Name:        p.Name,
			Description: p.Description,
			Image:       LargestImage(p.Images),
			Tracks:      int(p.Tracks.Total),
			DurationMs:  ms,
			Duration:    FormatDuration(ms),
		})
	}
	return playlists, nil
}

func (c *Client) playlistDuration(ctx context.Context, id spot.ID) (int, error) {
	items, err := c.api.GetPlaylistItems(ctx, id)
	if err != nil {
		return 0, err
	}

	var ms int
	for pages := 1; ; pages++ {
		for _, item := range items.Items {
			if item.Track.Track != nil {
				ms += int(item.Track.Track.Duration)
			}
		}
		if pages >= maxPlaylistPages {
			break
		}
		err := c.api.NextPage(ctx, items)
		if errors.Is(err, spot.ErrNoMorePages) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	return ms, nil
}

// Recommendations seeds Spotify's recommendations with up to five artists.
func (c *Client) Recommendations(ctx context.Context, artistIDs []string, limit int) ([]harmonyhub.Recommendation, error) {
	if len(artistIDs) > maxSeedArtists {
		artistIDs = artistIDs[:maxSeedArtists]
	}
	recs, err := c.api.GetRecommendations(ctx, spot.Seeds{Artists: toIDs(artistIDs)}, nil, spot.Limit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]harmonyhub.Recommendation, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		out = append(out, harmonyhub.Recommendation{
			Name:   t.Name,
			Artist: ConcatArtists(t.Artists),
			Album:  t.Album.Name,
			URL:    t.ExternalURLs["spotify"],
			Image:  LargestImage(t.Album.Images),
		})
	}
	return out, nil
}

func toIDs(ids []string) []spot.ID {
	out := make([]spot.ID, len(ids))
	for i, id := range ids {
		out[i] = spot.ID(id)
	}
	return out
}
