package health

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/handler"
)

// HealthHandler reports whether the server can do its job.
type HealthHandler struct {
	log *zap.SugaredLogger
	cfg config.Config
	db  *sql.DB
}

func (*HealthHandler) Pattern() string {
	return "/health"
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(log *zap.SugaredLogger, cfg config.Config, db *sql.DB) *HealthHandler {
	return &HealthHandler{
		log: log,
		cfg: cfg,
		db:  db,
	}
}

type Response struct {
	Status   string `json:"status"`
	Server   bool   `json:"server"`
	Spotify  bool   `json:"spotify"`
	Database bool   `json:"database"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp Response

	h.log.Debugw("health check")

	resp.Server = true

	// Make sure Spotify credentials are set up properly
	if h.cfg.SpotifyID != "" && h.cfg.SpotifySecret != "" {
		resp.Spotify = true
	}

	if h.db != nil && h.db.PingContext(r.Context()) == nil {
		resp.Database = true
	}

	resp.Status = "OK"
	if !resp.Database {
		resp.Status = "DEGRADED"
	}

	handler.WriteJSON(h.log, w, http.StatusOK, resp)
}
