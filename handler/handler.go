// Package handler holds what every route shares: JSON responses and the
// mapping from errors to HTTP status codes.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/retry"
	"github.com/mager/harmonyhub/spotify"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v with the given status.
func WriteJSON(log *zap.SugaredLogger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorw("Failed to encode response", "error", err)
	}
}

func WriteError(log *zap.SugaredLogger, w http.ResponseWriter, status int, msg string) {
	WriteJSON(log, w, status, ErrorResponse{Error: msg})
}

// StatusFor maps an error from the dashboard service to a status code.
func StatusFor(err error) int {
	var rl *spotify.RateLimitError
	switch {
	case errors.Is(err, spotify.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, dashboard.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &rl), retry.IsExhausted(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// Fail logs err and writes it with the status StatusFor picks.
func Fail(log *zap.SugaredLogger, w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	log.Errorw("Request failed", "op", op, "status", status, "error", err)
	WriteError(log, w, status, err.Error())
}
