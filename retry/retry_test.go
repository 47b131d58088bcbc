package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mager/harmonyhub/logger"
)

var (
	errLimited   = errors.New("limited")
	errServer    = errors.New("server")
	errForbidden = errors.New("forbidden")
)

func classify(err error) (Class, time.Duration) {
	switch {
	case errors.Is(err, errLimited):
		return RateLimited, 0
	case errors.Is(err, errServer):
		return Transient, 0
	default:
		return Permanent, 0
	}
}

func testPolicy() *Policy {
	log, _ := logger.NewTestLogger()
	p := NewPolicy(log, classify)
	p.BaseDelay = time.Millisecond
	p.RateLimitDelay = time.Millisecond
	return p
}

func TestDoSucceedsAfterRetryableErrors(t *testing.T) {
	p := testPolicy()
	errs := []error{errLimited, errServer, nil}

	calls := 0
	err := p.Do(context.Background(), "test", func(context.Context) error {
		err := errs[calls]
		calls++
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := testPolicy()

	calls := 0
	err := p.Do(context.Background(), "test", func(context.Context) error {
		calls++
		return errForbidden
	})
	if !errors.Is(err, errForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if IsExhausted(err) {
		t.Error("permanent error reported as exhausted")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoExhausts(t *testing.T) {
	p := testPolicy()
	p.MaxAttempts = 3

	calls := 0
	err := p.Do(context.Background(), "test", func(context.Context) error {
		calls++
		return errServer
	})
	if !IsExhausted(err) {
		t.Fatalf("err = %v, want exhausted", err)
	}
	if !errors.Is(err, errServer) {
		t.Errorf("exhausted error does not wrap the last error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoBacksOffExponentially(t *testing.T) {
	var delays []time.Duration
	p := testPolicy()
	p.BaseDelay = 10 * time.Millisecond
	p.MaxAttempts = 4
	p.MaxDelay = 25 * time.Millisecond

	var last time.Time
	err := p.Do(context.Background(), "test", func(context.Context) error {
		now := time.Now()
		if !last.IsZero() {
			delays = append(delays, now.Sub(last))
		}
		last = now
		return errServer
	})
	if !IsExhausted(err) {
		t.Fatalf("err = %v, want exhausted", err)
	}

	// 10ms, 20ms, then 40ms capped to 25ms.
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("got %d delays, want %d", len(delays), len(want))
	}
	for i, d := range delays {
		if d < want[i] {
			t.Errorf("delay %d = %v, want at least %v", i, d, want[i])
		}
	}
}

func TestDoUsesServerRetryAfter(t *testing.T) {
	p := testPolicy()
	p.RateLimitDelay = time.Hour
	p.Classify = func(err error) (Class, time.Duration) {
		if errors.Is(err, errLimited) {
			return RateLimited, 5 * time.Millisecond
		}
		return Permanent, 0
	}

	calls := 0
	start := time.Now()
	err := p.Do(context.Background(), "test", func(context.Context) error {
		calls++
		if calls == 1 {
			return errLimited
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Minute {
		t.Errorf("waited %v, server Retry-After was ignored", elapsed)
	}
}

func TestDoHonorsContext(t *testing.T) {
	p := testPolicy()
	p.RateLimitDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, "test", func(context.Context) error {
		return errLimited
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	p := testPolicy()
	p.MaxAttempts = 0

	calls := 0
	_ = p.Do(context.Background(), "test", func(context.Context) error {
		calls++
		return errServer
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWaitCapsBackoffButNotRetryAfter(t *testing.T) {
	p := testPolicy()
	p.BaseDelay = time.Second
	p.RateLimitDelay = 5 * time.Second
	p.MaxDelay = time.Minute

	tests := []struct {
		name       string
		class      Class
		retryAfter time.Duration
		failures   int
		want       time.Duration
	}{
		{"retry-after above the cap", RateLimited, 2 * time.Minute, 0, 2 * time.Minute},
		{"no retry-after", RateLimited, 0, 3, 5 * time.Second},
		{"third backoff", Transient, 0, 2, 4 * time.Second},
		{"backoff capped", Transient, 0, 10, time.Minute},
	}
	for _, tt := range tests {
		if got := p.wait(tt.class, tt.retryAfter, tt.failures); got != tt.want {
			t.Errorf("%s: wait = %v, want %v", tt.name, got, tt.want)
		}
	}
}
