package spotify

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"

	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/handler"
	"github.com/mager/harmonyhub/spotify"
	"github.com/mager/harmonyhub/token"
)

const stateCookie = "harmonyhub_oauth_state"

// --- Auth Login Handler ---

// AuthLoginHandler redirects the user to Spotify's OAuth consent screen.
type AuthLoginHandler struct {
	log  *zap.SugaredLogger
	auth *spotifyauth.Authenticator
}

func (*AuthLoginHandler) Pattern() string {
	return "/auth/spotify"
}

func NewAuthLoginHandler(log *zap.SugaredLogger, cfg config.Config) *AuthLoginHandler {
	return &AuthLoginHandler{log: log, auth: spotify.NewAuthenticator(cfg)}
}

func (h *AuthLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/spotify",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// --- Auth Callback Handler ---

// AuthCallbackHandler exchanges the OAuth code for tokens and stores them.
type AuthCallbackHandler struct {
	log   *zap.SugaredLogger
	auth  *spotifyauth.Authenticator
	store token.Store
	id    string
}

func (*AuthCallbackHandler) Pattern() string {
	return "/auth/spotify/callback"
}

func NewAuthCallbackHandler(log *zap.SugaredLogger, cfg config.Config, store token.Store) *AuthCallbackHandler {
	return &AuthCallbackHandler{log: log, auth: spotify.NewAuthenticator(cfg), store: store, id: cfg.TokenID}
}

type ConnectedResponse struct {
	Status string `json:"status"`
}

func (h *AuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		handler.WriteError(h.log, w, http.StatusBadRequest, "invalid state")
		return
	}

	tok, err := h.auth.Token(ctx, cookie.Value, r)
	if err != nil {
		h.log.Errorw("Failed to exchange Spotify token", "error", err)
		handler.WriteError(h.log, w, http.StatusBadGateway, "token exchange failed")
		return
	}

	if err := h.store.Save(ctx, h.id, tok); err != nil {
		h.log.Errorw("Failed to store token", "error", err)
		handler.WriteError(h.log, w, http.StatusInternalServerError, "failed to store token")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/spotify", MaxAge: -1})
	h.log.Infow("Spotify account connected", "token_id", h.id)

	handler.WriteJSON(h.log, w, http.StatusOK, ConnectedResponse{Status: "connected"})
}
