package discover

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/handler"
	"github.com/mager/harmonyhub/harmonyhub"
)

type discoverer interface {
	Discover(ctx context.Context) ([]harmonyhub.Recommendation, error)
}

// DiscoverHandler recommends tracks based on the user's top artists.
type DiscoverHandler struct {
	log *zap.SugaredLogger
	svc discoverer
}

func (*DiscoverHandler) Pattern() string {
	return "/discover"
}

func NewDiscoverHandler(log *zap.SugaredLogger, svc *dashboard.Service) *DiscoverHandler {
	return &DiscoverHandler{log: log, svc: svc}
}

type DiscoverResponse struct {
	Tracks []harmonyhub.Recommendation `json:"tracks"`
}

func (h *DiscoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Discover(r.Context())
	if err != nil {
		handler.Fail(h.log, w, "discover", err)
		return
	}
	handler.WriteJSON(h.log, w, http.StatusOK, DiscoverResponse{Tracks: recs})
}
