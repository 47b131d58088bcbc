package spotify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/database"
	"github.com/mager/harmonyhub/harmonyhub"
	"github.com/mager/harmonyhub/logger"
	"github.com/mager/harmonyhub/spotify"
	"github.com/mager/harmonyhub/token"
)

var testConfig = config.Config{
	SpotifyID:          "client-id",
	SpotifySecret:      "client-secret",
	SpotifyRedirectURL: "http://localhost:8080/auth/spotify/callback",
	TokenID:            "default",
}

// tokenEndpoint answers every request like Spotify's token endpoint.
type tokenEndpoint struct{}

func (tokenEndpoint) RoundTrip(req *http.Request) (*http.Response, error) {
	body := `{"access_token":"a1","refresh_token":"r1","token_type":"Bearer","expires_in":3600}`
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func newStore(t *testing.T) *token.SQLStore {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return token.NewSQLStore(db)
}

func TestAuthLoginRedirects(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := NewAuthLoginHandler(log, testConfig)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/spotify", nil))

	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected a redirect, got %d", rr.Code)
	}
	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	if loc.Host != "accounts.spotify.com" {
		t.Errorf("expected a Spotify authorize URL, got %s", loc)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != stateCookie {
		t.Fatalf("expected a state cookie, got %v", cookies)
	}
	if got := loc.Query().Get("state"); got != cookies[0].Value {
		t.Errorf("expected state %q in the URL, got %q", cookies[0].Value, got)
	}
	if !strings.Contains(loc.Query().Get("scope"), "user-top-read") {
		t.Errorf("expected the top-read scope, got %q", loc.Query().Get("scope"))
	}
}

func TestAuthCallbackStoresToken(t *testing.T) {
	log, _ := logger.NewTestLogger()
	store := newStore(t)
	h := NewAuthCallbackHandler(log, testConfig, store)

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: tokenEndpoint{}})
	req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?state=s1&code=c1", nil).WithContext(ctx)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s1"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp ConnectedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Status != "connected" {
		t.Errorf("unexpected response %s", rr.Body.String())
	}

	tok, err := store.Load(context.Background(), "default")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok.AccessToken != "a1" || tok.RefreshToken != "r1" {
		t.Errorf("unexpected stored token %+v", tok)
	}
}

func TestAuthCallbackRejectsStateMismatch(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := NewAuthCallbackHandler(log, testConfig, newStore(t))

	req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?state=forged&code=c1", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s1"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

type fakePlayback struct {
	pb  *harmonyhub.Playback
	err error
}

func (f fakePlayback) Playback(context.Context) (*harmonyhub.Playback, error) {
	return f.pb, f.err
}

func TestPlaybackHandler(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := &PlaybackHandler{log: log, svc: fakePlayback{pb: &harmonyhub.Playback{
		IsPlaying: true,
		Track:     &harmonyhub.Track{ID: "t1", Name: "One"},
	}}}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/playback", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var pb harmonyhub.Playback
	if err := json.Unmarshal(rr.Body.Bytes(), &pb); err != nil {
		t.Fatal(err)
	}
	if !pb.IsPlaying || pb.Track == nil || pb.Track.ID != "t1" {
		t.Errorf("unexpected playback %+v", pb)
	}
}

func TestPlaybackHandlerNotConnected(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := &PlaybackHandler{log: log, svc: fakePlayback{err: spotify.ErrNotConnected}}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/playback", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}
