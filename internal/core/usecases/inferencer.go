// internal/core/usecases/inferencer.go
package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/cache"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/metrics"
)

// OwnershipInferencerOptions configura el inferencer.
type OwnershipInferencerOptions struct {
	Answerer ports.Answerer
	Logger   logx.Logger

	// Question enviada al backend (default domain.DefaultQuestion)
	Question string

	// MaxContextChars trunca el contexto (0 = sin límite)
	MaxContextChars int

	// Memo guarda respuestas por hash de (question, context). Opcional.
	Memo    cache.Store
	MemoTTL time.Duration

	Metrics *metrics.Metrics
}

// OwnershipInferencer hace exactamente una llamada de inferencia por
// contexto. A diferencia del resolver WHOIS, un fallo se propaga.
type OwnershipInferencer struct {
	answerer ports.Answerer
	logger   logx.Logger
	question string
	maxChars int
	memo     cache.Store
	memoTTL  time.Duration
	metrics  *metrics.Metrics
}

// NewOwnershipInferencer crea un inferencer. Answerer es obligatorio.
func NewOwnershipInferencer(opts OwnershipInferencerOptions) (*OwnershipInferencer, error) {
	if opts.Answerer == nil {
		return nil, fmt.Errorf("ownership inferencer: answerer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if strings.TrimSpace(opts.Question) == "" {
		opts.Question = domain.DefaultQuestion
	}
	if opts.MaxContextChars < 0 {
		opts.MaxContextChars = 0
	}

	return &OwnershipInferencer{
		answerer: opts.Answerer,
		logger:   opts.Logger.With("component", "inferencer", "provider", opts.Answerer.Name()),
		question: opts.Question,
		maxChars: opts.MaxContextChars,
		memo:     opts.Memo,
		memoTTL:  opts.MemoTTL,
		metrics:  opts.Metrics,
	}, nil
}

// Question returns the question sent with every context.
func (i *OwnershipInferencer) Question() string {
	return i.question
}

// Name returns the answerer backend name.
func (i *OwnershipInferencer) Name() string {
	return i.answerer.Name()
}

// Infer asks the backend who owns the domains described by passage.
func (i *OwnershipInferencer) Infer(ctx context.Context, passage string) (*domain.AnswerResult, error) {
	if strings.TrimSpace(passage) == "" {
		return nil, domain.ErrEmptyContext
	}
	passage = i.truncate(passage)

	key := memoKey(i.answerer.Name(), i.question, passage)
	if res, ok := i.recall(ctx, key); ok {
		i.metrics.ObserveInference(i.answerer.Name(), "cached", 0)
		return res, nil
	}

	start := time.Now()
	res, err := i.answerer.Answer(ctx, i.question, passage)
	elapsed := time.Since(start)

	if err == nil && res == nil {
		err = errors.Wrap(errors.ErrInvalidResponse, "empty result")
	}
	if err == nil {
		res.Normalize()
		err = res.Validate()
	}
	if err != nil {
		i.metrics.ObserveInference(i.answerer.Name(), errors.Classify(err), elapsed)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInferenceFailed, i.answerer.Name(), err)
	}

	i.metrics.ObserveInference(i.answerer.Name(), "ok", elapsed)
	i.logger.Debug("inference done",
		"answer", res.Answer,
		"score", res.Score,
		"duration_ms", elapsed.Milliseconds(),
	)
	i.remember(ctx, key, res)
	return res, nil
}

// truncate corta por bytes sin partir una runa UTF-8.
func (i *OwnershipInferencer) truncate(passage string) string {
	if i.maxChars == 0 || len(passage) <= i.maxChars {
		return passage
	}
	cut := i.maxChars
	for cut > 0 && !isRuneStart(passage[cut]) {
		cut--
	}
	i.logger.Warn("context truncated",
		"original_chars", len(passage),
		"max_chars", i.maxChars,
	)
	return passage[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func memoKey(provider, question, passage string) string {
	h := xxh3.HashString(question + "\x00" + passage)
	return "infer:" + provider + ":" + strconv.FormatUint(h, 16)
}

func (i *OwnershipInferencer) recall(ctx context.Context, key string) (*domain.AnswerResult, bool) {
	if i.memo == nil {
		return nil, false
	}
	raw, ok, err := i.memo.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var res domain.AnswerResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		i.logger.Debug("discarding unreadable memo entry", "key", key, "error", err)
		return nil, false
	}
	return &res, true
}

func (i *OwnershipInferencer) remember(ctx context.Context, key string, res *domain.AnswerResult) {
	if i.memo == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := i.memo.Set(ctx, key, string(raw), i.memoTTL); err != nil {
		i.logger.Debug("memo write failed", "error", err)
	}
}
