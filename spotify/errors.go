package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	spot "github.com/zmb3/spotify/v2"

	"github.com/mager/harmonyhub/retry"
)

// RateLimitError is returned for a 429 response. RetryAfter is zero when the
// server did not say how long to wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("spotify: rate limited, retry after %s", e.RetryAfter)
	}
	return "spotify: rate limited"
}

// ServerError is returned for a 5xx response.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("spotify: server error %d %s", e.Status, http.StatusText(e.Status))
}

// Classify sorts an error from the Spotify client into a retry class.
func Classify(err error) (retry.Class, time.Duration) {
	if err == nil {
		return retry.Permanent, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Permanent, 0
	}

	var rl *RateLimitError
	if errors.As(err, &rl) {
		return retry.RateLimited, rl.RetryAfter
	}
	var se *ServerError
	if errors.As(err, &se) {
		return retry.Transient, 0
	}

	// Responses that got past the transport still carry their status.
	var apiErr spot.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusTooManyRequests:
			return retry.RateLimited, 0
		case apiErr.Status >= http.StatusInternalServerError:
			return retry.Transient, 0
		}
		return retry.Permanent, 0
	}

	// Failed refreshes and unreachable hosts come back as *url.Error with no
	// typed cause; they are not retried.
	return retry.Permanent, 0
}

func ProvideClassifier() retry.Classifier {
	return Classify
}
