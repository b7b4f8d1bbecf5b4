// internal/platform/resilience/retry_test.go
package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports/mocks"
	perrors "domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        retries,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 2,
		MaxBackoff:        5 * time.Millisecond,
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{BackoffBase: 100 * time.Millisecond, BackoffMultiplier: 2, MaxBackoff: 350 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, p.Backoff(0))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 350*time.Millisecond, p.Backoff(2), "capped")
}

func TestDo(t *testing.T) {
	t.Run("succeeds after temporary failure", func(t *testing.T) {
		calls := 0
		v, err := Do(context.Background(), fastPolicy(1), func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", perrors.ErrServiceUnavailable
			}
			return "ok", nil
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 2, calls)
	})

	t.Run("bounded by MaxRetries", func(t *testing.T) {
		calls := 0
		retries := 0
		_, err := Do(context.Background(), fastPolicy(1), func(context.Context) (int, error) {
			calls++
			return 0, perrors.ErrTimeout
		}, func(int, error, time.Duration) { retries++ })

		require.Error(t, err)
		assert.ErrorIs(t, err, perrors.ErrTimeout)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, retries)
	})

	t.Run("non retryable fails fast", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
			calls++
			return 0, perrors.ErrUnauthorized
		}, nil)

		assert.ErrorIs(t, err, perrors.ErrUnauthorized)
		assert.Equal(t, 1, calls)
	})

	t.Run("context canceled during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := fastPolicy(1)
		p.BackoffBase = time.Hour
		p.MaxBackoff = time.Hour

		_, err := Do(ctx, p, func(context.Context) (int, error) {
			cancel()
			return 0, perrors.ErrRateLimit
		}, nil)

		assert.ErrorIs(t, err, perrors.ErrRateLimit)
	})
}

func TestRetryableAnswerer(t *testing.T) {
	t.Run("retries once then succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		inner := mocks.NewMockAnswerer(ctrl)
		inner.EXPECT().Name().Return("huggingface").AnyTimes()

		want := &domain.AnswerResult{Answer: "Microsoft Corporation", Score: 0.9}
		gomock.InOrder(
			inner.EXPECT().Answer(gomock.Any(), domain.DefaultQuestion, "ctx").Return(nil, perrors.ErrServiceUnavailable),
			inner.EXPECT().Answer(gomock.Any(), domain.DefaultQuestion, "ctx").Return(want, nil),
		)

		r := NewRetryableAnswerer(inner, fastPolicy(1), nil, logx.NewNop())
		got, err := r.Answer(context.Background(), domain.DefaultQuestion, "ctx")

		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, "huggingface", r.Name())
	})

	t.Run("open breaker skips provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		inner := mocks.NewMockAnswerer(ctrl)
		inner.EXPECT().Name().Return("ollama").AnyTimes()
		inner.EXPECT().Answer(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("model crashed")).Times(1)

		cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
		r := NewRetryableAnswerer(inner, fastPolicy(0), cb, logx.NewNop())

		_, err := r.Answer(context.Background(), "q", "c")
		require.Error(t, err)
		assert.Equal(t, StateOpen, cb.State())

		_, err = r.Answer(context.Background(), "q", "c")
		assert.ErrorIs(t, err, ErrCircuitOpen)
	})
}
