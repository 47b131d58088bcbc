package spotify

import (
	"context"
	"errors"
	"net/http"
	"sync"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/mager/harmonyhub/cache"
	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/token"
)

// ErrNotConnected means no Spotify account has been linked yet.
var ErrNotConnected = errors.New("spotify: account not connected, visit /auth/spotify")

var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopePlaylistReadPrivate,
}

func NewAuthenticator(cfg config.Config) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.SpotifyID),
		spotifyauth.WithClientSecret(cfg.SpotifySecret),
		spotifyauth.WithRedirectURL(cfg.SpotifyRedirectURL),
		spotifyauth.WithScopes(Scopes...),
	)
}

func oauthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.SpotifyID,
		ClientSecret: cfg.SpotifySecret,
		RedirectURL:  cfg.SpotifyRedirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// Factory builds authenticated clients from the stored token. The limiter is
// shared by every client it builds.
type Factory struct {
	log     *zap.SugaredLogger
	oauth   *oauth2.Config
	store   token.Store
	cache   *cache.Cache
	limiter *rate.Limiter

	TokenID string
	BaseURL string
	// Base is the innermost transport; nil means http.DefaultTransport.
	Base http.RoundTripper
}

func ProvideFactory(cfg config.Config, log *zap.SugaredLogger, store token.Store, c *cache.Cache) *Factory {
	return &Factory{
		log:     log,
		oauth:   oauthConfig(cfg),
		store:   store,
		cache:   c,
		limiter: newLimiter(cfg.RequestsPerSecond),
		TokenID: cfg.TokenID,
		BaseURL: cfg.SpotifyBaseURL,
	}
}

var Options = ProvideFactory

// Client returns a client for the stored user. ctx is also used for token
// refreshes made by the client.
func (f *Factory) Client(ctx context.Context) (*Client, error) {
	tok, err := f.store.Load(ctx, f.TokenID)
	if errors.Is(err, token.ErrNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	src := &persistingSource{
		src:   f.oauth.TokenSource(ctx, tok),
		store: f.store,
		id:    f.TokenID,
		last:  tok.AccessToken,
		log:   f.log,
	}
	var rt http.RoundTripper = &oauth2.Transport{
		Source: src,
		Base:   newAPITransport(f.Base, f.limiter),
	}
	rt = f.cache.Transport(rt)

	return NewClient(&http.Client{Transport: rt}, f.BaseURL), nil
}

// persistingSource saves every refreshed token so the next process starts
// with a valid one.
type persistingSource struct {
	src   oauth2.TokenSource
	store token.Store
	id    string
	log   *zap.SugaredLogger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	if err := s.store.Save(context.Background(), s.id, tok); err != nil {
		s.log.Warnw("Failed to persist refreshed token", "error", err)
		return tok, nil
	}
	s.last = tok.AccessToken
	s.log.Infow("Spotify token refreshed")
	return tok, nil
}
