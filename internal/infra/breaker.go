package infra

import (
	"fmt"
	"sync"
	"time"
)

// BreakerState is the state of a circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the circuit.
	Threshold int
	// Cooldown is how long the circuit stays open before letting a trial through.
	Cooldown time.Duration
	// Trials is the number of requests let through while half-open.
	Trials int
}

// DefaultBreakerConfig suits a public wiki: a handful of failed requests
// pauses traffic for half a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, Cooldown: 30 * time.Second, Trials: 2}
}

// Breaker fails fast after repeated failures so a struggling wiki is not
// hammered by retries.
type Breaker struct {
	mu  sync.Mutex
	cfg BreakerConfig
	now func() time.Time

	state    BreakerState
	failures int
	openedAt time.Time
	trialAt  time.Time
	trials   int
}

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.Trials <= 0 {
		cfg.Trials = def.Trials
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Allow returns nil when a request may proceed and *OpenError otherwise.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return b.openError()
		}
		b.state, b.trials = BreakerHalfOpen, 1
		b.trialAt = b.now()
		return nil
	case BreakerHalfOpen:
		if b.trials >= b.cfg.Trials {
			// Trials that never reported back free their slots after a cooldown.
			if b.now().Sub(b.trialAt) < b.cfg.Cooldown {
				return b.openError()
			}
			b.trials = 0
		}
		if b.trials == 0 {
			b.trialAt = b.now()
		}
		b.trials++
		return nil
	default:
		return nil
	}
}

// Success records a completed request and closes a half-open circuit.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state, b.trials = BreakerClosed, 0
}

// Release returns a half-open trial slot without a verdict, for requests
// abandoned before the wiki answered.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerHalfOpen && b.trials > 0 {
		b.trials--
	}
}

// Failure records a failed request. Reaching the threshold, or failing a
// trial, opens the circuit.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.cfg.Threshold {
		b.state, b.trials = BreakerOpen, 0
		b.openedAt = b.now()
	}
}

// Stats is a snapshot of a breaker.
type Stats struct {
	State               string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	OpenedAt            time.Time `json:"opened_at,omitempty"`
}

// Stats returns the breaker's current state.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{State: b.state.String(), ConsecutiveFailures: b.failures, OpenedAt: b.openedAt}
}

func (b *Breaker) openError() *OpenError {
	return &OpenError{Failures: b.failures, RetryAt: b.openedAt.Add(b.cfg.Cooldown)}
}

// OpenError is returned while the circuit is open.
type OpenError struct {
	Failures int
	RetryAt  time.Time
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("wiki API circuit open after %d consecutive failures; retry after %s",
		e.Failures, e.RetryAt.Format(time.RFC3339))
}
