package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/httpclient"
	"domowner/internal/platform/logx"
)

// QAConfig configura un endpoint de question-answering extractivo.
type QAConfig struct {
	Name      string
	Endpoint  string
	Model     string
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// QAClient speaks the Hugging Face question-answering task protocol:
//
//	POST {"inputs":{"question":...,"context":...}}
//	-> {"answer":...,"score":...,"start":...,"end":...} (or a list of them)
type QAClient struct {
	cfg    QAConfig
	http   *httpclient.Client
	logger logx.Logger
}

var _ ports.Answerer = (*QAClient)(nil)

// NewQAClient creates a client for cfg.Endpoint.
func NewQAClient(cfg QAConfig, logger logx.Logger) *QAClient {
	return &QAClient{
		cfg:    cfg,
		http:   newHTTP(cfg.Timeout, cfg.UserAgent, cfg.Token, logger),
		logger: logger.With("provider", cfg.Name, "model", cfg.Model),
	}
}

type qaRequest struct {
	Inputs qaInputs `json:"inputs"`
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// Name implements ports.Answerer.
func (c *QAClient) Name() string {
	return c.cfg.Name
}

// Answer implements ports.Answerer.
func (c *QAClient) Answer(ctx context.Context, question, passage string) (*domain.AnswerResult, error) {
	body, err := json.Marshal(qaRequest{Inputs: qaInputs{Question: question, Context: passage}})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	c.logger.Debug("sending question-answering request", "context_chars", len(passage))

	raw, err := c.http.SendJSON(ctx, c.cfg.Endpoint, body)
	if err != nil {
		return nil, err
	}

	best, err := decodeQA(raw)
	if err != nil {
		return nil, err
	}
	return &domain.AnswerResult{
		Answer:   best.Answer,
		Score:    best.Score,
		Start:    best.Start,
		End:      best.End,
		Provider: c.cfg.Name,
		Model:    c.cfg.Model,
	}, nil
}

// decodeQA accepts a single answer or a top-k list and returns the
// highest scoring answer. An {"error": ...} payload is reported as such.
func decodeQA(raw []byte) (qaAnswer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return qaAnswer{}, errors.Wrap(errors.ErrInvalidResponse, "empty body")
	}

	if raw[0] == '[' {
		var list []qaAnswer
		if err := json.Unmarshal(raw, &list); err != nil {
			return qaAnswer{}, errors.Wrapf(errors.ErrInvalidResponse, "decode answers: %v", err)
		}
		if len(list) == 0 {
			return qaAnswer{}, domain.ErrNoAnswer
		}
		best := list[0]
		for _, a := range list[1:] {
			if a.Score > best.Score {
				best = a
			}
		}
		return best, nil
	}

	var obj struct {
		qaAnswer
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return qaAnswer{}, errors.Wrapf(errors.ErrInvalidResponse, "decode answer: %v", err)
	}
	if obj.Error != "" {
		return qaAnswer{}, errors.Wrapf(errors.ErrInvalidResponse, "backend error: %s", obj.Error)
	}
	return obj.qaAnswer, nil
}
