// internal/platform/resilience/retry.go
package resilience

import (
	"context"
	"math"
	"time"

	"domowner/internal/platform/errors"
)

// RetryPolicy describe cuántas veces y con qué espera reintentar.
type RetryPolicy struct {
	// MaxRetries reintentos adicionales tras el primer intento (0 = sin retry, máximo 1)
	MaxRetries int `yaml:"max_retries" validate:"gte=0,lte=1"`

	// BackoffBase espera antes del primer reintento
	BackoffBase time.Duration `yaml:"backoff_base" validate:"gte=0"`

	// BackoffMultiplier factor exponencial entre reintentos
	BackoffMultiplier float64 `yaml:"backoff_multiplier" validate:"gte=0"`

	// MaxBackoff tope de espera
	MaxBackoff time.Duration `yaml:"max_backoff" validate:"gte=0"`

	// Retryable decide si un error merece otro intento (nil = errors.IsTemporary)
	Retryable func(error) bool `yaml:"-"`
}

// DefaultRetryPolicy is one retry after 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        1,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2,
		MaxBackoff:        30 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = time.Second
	}
	if p.BackoffMultiplier < 1 {
		p.BackoffMultiplier = 2
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 60 * time.Second
	}
	if p.Retryable == nil {
		p.Retryable = errors.IsTemporary
	}
	return p
}

// Backoff returns the wait before retry number attempt (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	d := time.Duration(float64(p.BackoffBase) * math.Pow(p.BackoffMultiplier, float64(attempt)))
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, the policy
// is exhausted, or ctx ends. onRetry, if set, is called before each wait.
func Do[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error), onRetry func(attempt int, err error, wait time.Duration)) (T, error) {
	p = p.normalized()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := p.Backoff(attempt - 1)
			if onRetry != nil {
				onRetry(attempt, lastErr, wait)
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.Retryable(err) {
			return zero, err
		}
	}

	return zero, errors.Wrapf(lastErr, "gave up after %d attempts", p.MaxRetries+1)
}
