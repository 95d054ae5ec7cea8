package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// Config defines the backoff behavior of a Manager.
type Config struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// Jitter adds up to 25% of random extra delay to spread out retries.
	Jitter bool
}

// Validate returns an error if the config holds values a Manager cannot work
// with.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive")
	}
	if c.MaxDelay <= 0 {
		return fmt.Errorf("max delay must be positive")
	}
	if c.BackoffFactor <= 1 {
		return fmt.Errorf("backoff factor must be greater than 1")
	}
	return nil
}

// DefaultConfig is a conservative setup for network operations.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// ForAPICalls is a moderate setup for chatty API polling.
func ForAPICalls() Config {
	return Config{
		MaxRetries:    5,
		BaseDelay:     500 * time.Millisecond,
		MaxDelay:      time.Minute,
		BackoffFactor: 1.5,
		Jitter:        true,
	}
}

// Manager tracks failed attempts of one logical operation and computes the
// backoff to wait before the next one. A Manager is scoped to a single poll
// tick and must not be reused across ticks.
type Manager struct {
	config   Config
	attempts int
	lastErr  error
}

// NewManager returns a Manager with the given config, falling back to
// DefaultConfig for a zero-value one.
func NewManager(config Config) *Manager {
	if config == (Config{}) {
		config = DefaultConfig()
	}
	return &Manager{config: config}
}

// RecordFailure registers a failed attempt.
func (m *Manager) RecordFailure(err error) {
	m.lastErr = err
	m.attempts++
}

// ShouldRetry reports whether another attempt is allowed: the retry budget
// must not be exhausted and the error must be transient.
func (m *Manager) ShouldRetry(err error) bool {
	if m.attempts >= m.config.MaxRetries {
		return false
	}
	return screener.IsRetryable(err)
}

// Delay returns the exponential backoff for the current attempt, capped at
// MaxDelay, with optional jitter.
func (m *Manager) Delay() time.Duration {
	attempt := m.attempts - 1
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(m.config.BaseDelay) *
		math.Pow(m.config.BackoffFactor, float64(attempt))
	if delay > float64(m.config.MaxDelay) {
		delay = float64(m.config.MaxDelay)
	}
	if m.config.Jitter {
		delay += delay * 0.25 * rand.Float64()
	}

	return time.Duration(delay)
}

// Wait suspends for the computed backoff, returning early if the context is
// canceled.
func (m *Manager) Wait(ctx context.Context) error {
	timer := time.NewTimer(m.Delay())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Attempts returns the number of failures recorded so far.
func (m *Manager) Attempts() int {
	return m.attempts
}

// LastError returns the most recently recorded failure.
func (m *Manager) LastError() error {
	return m.lastErr
}
