// Package retry runs API calls under a single backoff policy. Errors are
// sorted into classes by a Classifier; only rate-limited and transient
// errors are retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	retrygo "github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/mager/harmonyhub/config"
)

type Class int

const (
	Permanent Class = iota
	RateLimited
	Transient
)

func (c Class) String() string {
	switch c {
	case RateLimited:
		return "rate_limited"
	case Transient:
		return "transient"
	default:
		return "permanent"
	}
}

// Classifier reports the class of err and, for rate-limited errors, the
// server-requested wait (zero when the server did not send one).
type Classifier func(err error) (Class, time.Duration)

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Op       string
	Attempts uint
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsExhausted reports whether err came from running out of attempts.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

type Policy struct {
	MaxAttempts uint
	// BaseDelay is the first transient backoff; it is multiplied by
	// Multiplier after every transient failure.
	BaseDelay  time.Duration
	Multiplier float64
	// RateLimitDelay is used when a rate-limited response carries no
	// Retry-After.
	RateLimitDelay time.Duration
	// MaxDelay caps the transient backoff. Zero means no cap. A server's
	// Retry-After is always honoured in full.
	MaxDelay time.Duration
	Classify Classifier

	log *zap.SugaredLogger
}

func NewPolicy(log *zap.SugaredLogger, classify Classifier) *Policy {
	return &Policy{
		MaxAttempts:    5,
		BaseDelay:      time.Second,
		Multiplier:     2,
		RateLimitDelay: 5 * time.Second,
		Classify:       classify,
		log:            log,
	}
}

// ProvidePolicy builds the policy shared by every Spotify call.
func ProvidePolicy(cfg config.Config, log *zap.SugaredLogger, classify Classifier) *Policy {
	p := NewPolicy(log, classify)
	p.MaxAttempts = cfg.MaxAttempts
	p.BaseDelay = cfg.RetryBaseDelay
	p.MaxDelay = cfg.RetryMaxDelay
	p.RateLimitDelay = cfg.RateLimitDelay
	return p
}

var Options = ProvidePolicy

func (p *Policy) classify(err error) (Class, time.Duration) {
	if p.Classify == nil {
		return Permanent, 0
	}
	return p.Classify(err)
}

// Do calls fn until it succeeds, fails permanently, or runs out of attempts.
// A permanent error is returned as is; running out of attempts returns an
// *ExhaustedError wrapping the last error.
func (p *Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	var transientFailures int
	delay := func(n uint, err error, _ *retrygo.Config) time.Duration {
		class, retryAfter := p.classify(err)
		d := p.wait(class, retryAfter, transientFailures)
		if class != RateLimited {
			transientFailures++
		}
		p.logw("retrying", "op", op, "attempt", n+1, "max_attempts", attempts, "class", class.String(), "delay", d, "error", err)
		return d
	}

	err := retrygo.Do(
		func() error {
			return fn(ctx)
		},
		retrygo.Context(ctx),
		retrygo.Attempts(attempts),
		retrygo.LastErrorOnly(true),
		retrygo.DelayType(delay),
		retrygo.RetryIf(func(err error) bool {
			class, _ := p.classify(err)
			return class != Permanent
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if class, _ := p.classify(err); class != Permanent {
		return &ExhaustedError{Op: op, Attempts: attempts, Err: err}
	}
	return err
}

// wait returns the delay before the next attempt. A rate-limited error waits
// for the server's Retry-After, or RateLimitDelay when it sent none, and is
// never capped. Other errors back off exponentially up to MaxDelay.
func (p *Policy) wait(class Class, retryAfter time.Duration, transientFailures int) time.Duration {
	if class == RateLimited {
		if retryAfter > 0 {
			return retryAfter
		}
		return p.RateLimitDelay
	}

	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(multiplier, float64(transientFailures)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p *Policy) logw(msg string, kv ...interface{}) {
	if p.log == nil {
		return
	}
	p.log.Warnw(msg, kv...)
}
