package supervisor

import (
	"math"
	"math/rand"
	"time"
)

// RestartPolicy decides whether and when a failed producer is restarted.
// Next is called with the number of restarts performed so far and the cause
// of the latest failure; it returns the delay before the next start and
// whether restarting is permitted at all.
type RestartPolicy interface {
	Next(restarts int, cause error) (delay time.Duration, ok bool)
}

// immediate restarts unconditionally with no delay.
type immediate struct{}

func (immediate) Next(int, error) (time.Duration, bool) {
	return 0, true
}

// Immediate returns the default policy: unconditional restart, no backoff.
func Immediate() RestartPolicy {
	return immediate{}
}

// BackoffConfig configures the exponential backoff restart policy.
type BackoffConfig struct {
	// InitialDelay is the delay before the first restart.
	InitialDelay time.Duration

	// MaxDelay caps the delay between restarts.
	MaxDelay time.Duration

	// Factor is the multiplier applied per restart.
	Factor float64

	// Jitter adds randomness to each delay (0.0 to 1.0).
	Jitter float64

	// MaxRestarts limits the total number of restarts. Zero means unlimited.
	MaxRestarts int
}

// DefaultBackoffConfig returns sensible defaults.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Factor:       2.0,
		Jitter:       0.1,
	}
}

type backoff struct {
	config BackoffConfig
}

// Backoff returns an exponential backoff restart policy.
func Backoff(config BackoffConfig) RestartPolicy {
	if config.InitialDelay <= 0 {
		config.InitialDelay = DefaultBackoffConfig().InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultBackoffConfig().MaxDelay
	}
	if config.Factor <= 0 {
		config.Factor = DefaultBackoffConfig().Factor
	}
	return backoff{config: config}
}

func (b backoff) Next(restarts int, _ error) (time.Duration, bool) {
	if b.config.MaxRestarts > 0 && restarts >= b.config.MaxRestarts {
		return 0, false
	}

	delay := float64(b.config.InitialDelay) * math.Pow(b.config.Factor, float64(restarts))
	if delay > float64(b.config.MaxDelay) {
		delay = float64(b.config.MaxDelay)
	}
	if b.config.Jitter > 0 {
		delay += delay * b.config.Jitter * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay), true
}
