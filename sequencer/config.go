package sequencer

import (
	"math"
	"time"
)

const (
	DefaultLimit           = 100
	DefaultDispatchTimeout = 30 * time.Second
	DefaultClaimTTL        = 15 * time.Minute
)

// Config is injected into the engine instead of being read from the process
// environment, so tests can build one by hand.
type Config struct {
	FromEmail string
	FromName  string
	SMSFrom   string

	DefaultLimit    int
	DispatchTimeout time.Duration
	ClaimTTL        time.Duration

	// EnforceThrottle turns ThrottlePerDay from advisory into a hard cap.
	EnforceThrottle bool

	Retry RetryPolicy
}

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = DefaultDispatchTimeout
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = DefaultClaimTTL
	}
	return c
}

// RetryPolicy decides what a failed dispatch does to the prospect.
//
// The zero value keeps the prospect exactly as it was, so it is re-selected
// on the next run (busy retry). Setting MaxAttempts or Backoff makes the
// engine track attempt_count.
type RetryPolicy struct {
	// MaxAttempts marks the prospect failed once this many consecutive
	// dispatches failed. 0 means unlimited.
	MaxAttempts int
	// Backoff pushes next_touch_at out after a failure. Nil keeps it.
	Backoff Backoff
}

// Enabled reports whether failures change prospect state at all.
func (p RetryPolicy) Enabled() bool {
	return p.MaxAttempts > 0 || p.Backoff != nil
}

// Backoff computes the delay before retry attempt n (1-indexed).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// ConstantBackoff always waits the same interval.
type ConstantBackoff struct {
	Interval time.Duration
}

func (c ConstantBackoff) Delay(_ int) time.Duration {
	return c.Interval
}

// ExponentialBackoff doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max). Without Max the delay saturates
// at the largest Duration.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (e ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	ceiling := time.Duration(math.MaxInt64)
	if e.Max > 0 {
		ceiling = e.Max
	}
	d := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if d >= float64(ceiling) {
		return ceiling
	}
	return time.Duration(d)
}
