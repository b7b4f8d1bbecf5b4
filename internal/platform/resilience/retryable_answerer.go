// internal/platform/resilience/retryable_answerer.go
package resilience

import (
	"context"
	"fmt"
	"time"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/logx"
)

// RetryableAnswerer envuelve un Answerer con retry acotado y, opcionalmente,
// un circuit breaker.
type RetryableAnswerer struct {
	answerer       ports.Answerer
	policy         RetryPolicy
	circuitBreaker *CircuitBreaker
	logger         logx.Logger
}

var _ ports.Answerer = (*RetryableAnswerer)(nil)

// NewRetryableAnswerer crea un nuevo RetryableAnswerer. cb puede ser nil.
func NewRetryableAnswerer(answerer ports.Answerer, policy RetryPolicy, cb *CircuitBreaker, logger logx.Logger) *RetryableAnswerer {
	return &RetryableAnswerer{
		answerer:       answerer,
		policy:         policy,
		circuitBreaker: cb,
		logger:         logger.With("component", "retryable-answerer", "provider", answerer.Name()),
	}
}

// Name retorna el nombre del proveedor subyacente.
func (r *RetryableAnswerer) Name() string {
	return r.answerer.Name()
}

// Answer ejecuta el answerer con retry y circuit breaker.
func (r *RetryableAnswerer) Answer(ctx context.Context, question, passage string) (*domain.AnswerResult, error) {
	if r.circuitBreaker != nil && !r.circuitBreaker.Allow() {
		r.logger.Warn("circuit breaker open, skipping inference")
		return nil, fmt.Errorf("provider %s: %w", r.answerer.Name(), ErrCircuitOpen)
	}

	res, err := Do(ctx, r.policy, func(ctx context.Context) (*domain.AnswerResult, error) {
		return r.answerer.Answer(ctx, question, passage)
	}, func(attempt int, err error, wait time.Duration) {
		r.logger.Warn("inference failed, retrying",
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	})

	if r.circuitBreaker != nil {
		if err != nil && ctx.Err() == nil {
			r.circuitBreaker.RecordFailure()
		} else if err == nil {
			r.circuitBreaker.RecordSuccess()
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CircuitBreaker retorna el breaker (útil para health checks).
func (r *RetryableAnswerer) CircuitBreaker() *CircuitBreaker {
	return r.circuitBreaker
}
