package spotify

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// apiTransport throttles outgoing requests and turns 429 and 5xx responses
// into typed errors so the retry policy can tell them apart.
type apiTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func newAPITransport(base http.RoundTripper, limiter *rate.Limiter) *apiTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &apiTransport{base: base, limiter: limiter}
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp, time.Now())
		discard(resp)
		return nil, &RateLimitError{RetryAfter: retryAfter}
	case resp.StatusCode >= http.StatusInternalServerError:
		discard(resp)
		return nil, &ServerError{Status: resp.StatusCode}
	}
	return resp, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}

// parseRetryAfter reads Retry-After as either seconds or an HTTP date.
func parseRetryAfter(resp *http.Response, now time.Time) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := when.Sub(now); until > 0 {
			return until
		}
	}
	return 0
}

// newLimiter returns nil for a non-positive rate, which disables throttling.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
