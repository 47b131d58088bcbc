package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/handler"
)

type renderer interface {
	Render(ctx context.Context, req dashboard.Request) (*dashboard.Dashboard, error)
}

// DashboardHandler renders the listening statistics dashboard.
//
// Query parameters: source (top|recent), time_range, limit, artist_limit,
// playlists (bool).
type DashboardHandler struct {
	log *zap.SugaredLogger
	svc renderer
}

func (*DashboardHandler) Pattern() string {
	return "/dashboard"
}

func NewDashboardHandler(log *zap.SugaredLogger, svc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{log: log, svc: svc}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		handler.WriteError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.Render(r.Context(), req)
	if err != nil {
		handler.Fail(h.log, w, "dashboard", err)
		return
	}
	handler.WriteJSON(h.log, w, http.StatusOK, d)
}

func parseRequest(r *http.Request) (dashboard.Request, error) {
	q := r.URL.Query()
	req := dashboard.Request{
		Source:    q.Get("source"),
		TimeRange: q.Get("time_range"),
	}

	var err error
	if req.Limit, err = intParam(q.Get("limit")); err != nil {
		return req, fmt.Errorf("limit: %w", err)
	}
	if req.ArtistLimit, err = intParam(q.Get("artist_limit")); err != nil {
		return req, fmt.Errorf("artist_limit: %w", err)
	}
	if v := q.Get("playlists"); v != "" {
		if req.IncludePlaylists, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("playlists: %w", err)
		}
	}
	return req, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
