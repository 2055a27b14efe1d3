package resilience

import "time"

type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// CatalogPolicy guards catalog reads a user is waiting on: one quick retry and a
// breaker that opens early so callers see ErrTemporary instead of hanging.
func CatalogPolicy() Config {
	return Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 25 * time.Millisecond,
		RetryMaxBackoff:     50 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      10 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// VisionPolicy spaces retries out: a nameplate read takes seconds and a model that is
// still loading answers 503 for a while.
func VisionPolicy() Config {
	return Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      3,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// QueuePolicy retries result publishing a few more times; the NATS client reconnects underneath.
func QueuePolicy() Config {
	return Config{
		RetryMaxAttempts:    4,
		RetryInitialBackoff: 50 * time.Millisecond,
		RetryMaxBackoff:     time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      15 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// Override lays the non-zero fields of o over c. BreakerEnabled is left to the caller.
func (c Config) Override(o Config) Config {
	out := c
	if o.RetryMaxAttempts > 0 {
		out.RetryMaxAttempts = o.RetryMaxAttempts
	}
	if o.RetryInitialBackoff > 0 {
		out.RetryInitialBackoff = o.RetryInitialBackoff
	}
	if o.RetryMaxBackoff > 0 {
		out.RetryMaxBackoff = o.RetryMaxBackoff
	}
	if o.RetryMultiplier >= 1.0 {
		out.RetryMultiplier = o.RetryMultiplier
	}
	if o.BreakerMinRequests > 0 {
		out.BreakerMinRequests = o.BreakerMinRequests
	}
	if o.BreakerFailureRatio > 0 && o.BreakerFailureRatio <= 1 {
		out.BreakerFailureRatio = o.BreakerFailureRatio
	}
	if o.BreakerOpenTimeout > 0 {
		out.BreakerOpenTimeout = o.BreakerOpenTimeout
	}
	if o.BreakerHalfOpenMaxCalls > 0 {
		out.BreakerHalfOpenMaxCalls = o.BreakerHalfOpenMaxCalls
	}
	return out
}

// normalize fills unset fields from the catalog preset.
func (c Config) normalize() Config {
	enabled := c.BreakerEnabled
	out := CatalogPolicy().Override(c)
	out.BreakerEnabled = enabled
	out.RetryMaxBackoff = max(out.RetryMaxBackoff, out.RetryInitialBackoff)
	return out
}
