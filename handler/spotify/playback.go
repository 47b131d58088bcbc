package spotify

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/handler"
	"github.com/mager/harmonyhub/harmonyhub"
)

type playbackGetter interface {
	Playback(ctx context.Context) (*harmonyhub.Playback, error)
}

// PlaybackHandler returns what the user is listening to right now.
type PlaybackHandler struct {
	log *zap.SugaredLogger
	svc playbackGetter
}

func (*PlaybackHandler) Pattern() string {
	return "/playback"
}

func NewPlaybackHandler(log *zap.SugaredLogger, svc *dashboard.Service) *PlaybackHandler {
	return &PlaybackHandler{log: log, svc: svc}
}

func (h *PlaybackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pb, err := h.svc.Playback(r.Context())
	if err != nil {
		handler.Fail(h.log, w, "playback", err)
		return
	}
	handler.WriteJSON(h.log, w, http.StatusOK, pb)
}
