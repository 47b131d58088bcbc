package profile

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/handler"
	"github.com/mager/harmonyhub/harmonyhub"
)

type profileGetter interface {
	Profile(ctx context.Context) (*harmonyhub.Profile, error)
}

// ProfileHandler returns the connected Spotify user.
type ProfileHandler struct {
	log *zap.SugaredLogger
	svc profileGetter
}

func (*ProfileHandler) Pattern() string {
	return "/profile"
}

// NewProfileHandler builds a new ProfileHandler.
func NewProfileHandler(log *zap.SugaredLogger, svc *dashboard.Service) *ProfileHandler {
	return &ProfileHandler{
		log: log,
		svc: svc,
	}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context())
	if err != nil {
		handler.Fail(h.log, w, "profile", err)
		return
	}
	handler.WriteJSON(h.log, w, http.StatusOK, p)
}
