package inference

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/httpclient"
	"domowner/internal/platform/logx"
)

// systemPrompt hace que un modelo de chat se comporte como un lector
// extractivo: la respuesta debe ser un fragmento literal del contexto.
const systemPrompt = "You answer questions by extracting a span from the given context. " +
	"Reply with the exact text of the span copied verbatim from the context and nothing else. " +
	"If the context does not contain the answer, reply with an empty message."

// ChatConfig configura un endpoint OpenAI-compatible (OpenAI, Ollama).
type ChatConfig struct {
	Name         string
	BaseURL      string
	Model        string
	Token        string
	Timeout      time.Duration
	MaxNewTokens int
	NumCtx       int
	UserAgent    string
}

// ChatClient emulates extractive QA on /v1/chat/completions. The span
// is located in the context afterwards: score is 1 when the reply occurs
// verbatim, 0 otherwise.
type ChatClient struct {
	cfg    ChatConfig
	http   *httpclient.Client
	logger logx.Logger
}

var _ ports.Answerer = (*ChatClient)(nil)

// NewChatClient creates a client for cfg.BaseURL.
func NewChatClient(cfg ChatConfig, logger logx.Logger) *ChatClient {
	return &ChatClient{
		cfg:    cfg,
		http:   newHTTP(cfg.Timeout, cfg.UserAgent, cfg.Token, logger),
		logger: logger.With("provider", cfg.Name, "model", cfg.Model),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
	Options     *chatOptions  `json:"options,omitempty"`
}

// chatOptions solo lo entiende Ollama; OpenAI ignora campos desconocidos.
type chatOptions struct {
	NumCtx int `json:"num_ctx,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Name implements ports.Answerer.
func (c *ChatClient) Name() string {
	return c.cfg.Name
}

// Answer implements ports.Answerer.
func (c *ChatClient) Answer(ctx context.Context, question, passage string) (*domain.AnswerResult, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(question, passage)},
		},
		MaxTokens: c.cfg.MaxNewTokens,
	}
	if c.cfg.NumCtx > 0 {
		req.Options = &chatOptions{NumCtx: c.cfg.NumCtx}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	raw, err := c.http.SendJSON(ctx, c.cfg.BaseURL+"/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "decode chat response: %v", err)
	}
	if resp.Error != nil {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "backend error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "no choices in chat response")
	}

	return spanAnswer(passage, resp.Choices[0].Message.Content, c.cfg.Name, c.cfg.Model, c.logger), nil
}

func userPrompt(question, passage string) string {
	return "Context:\n" + passage + "\n\nQuestion: " + question
}

// spanAnswer turns a chat reply into an AnswerResult: score is 1 when the
// cleaned reply occurs in the passage, 0 otherwise.
func spanAnswer(passage, reply, provider, model string, logger logx.Logger) *domain.AnswerResult {
	answer := cleanReply(reply)
	start, end, found := locateSpan(passage, answer)
	score := 0.0
	if found {
		score = 1
	} else if answer != "" {
		logger.Debug("reply is not a verbatim span of the context", "answer", answer)
	}

	return &domain.AnswerResult{
		Answer:   answer,
		Score:    score,
		Start:    start,
		End:      end,
		Provider: provider,
		Model:    model,
	}
}

// cleanReply quita comillas, espacios y el punto final que los modelos de
// chat suelen añadir alrededor del fragmento.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// locateSpan returns rune offsets of answer in passage. A case-insensitive
// match is accepted when the exact one fails.
func locateSpan(passage, answer string) (start, end int, found bool) {
	if answer == "" {
		return 0, 0, false
	}
	i := strings.Index(passage, answer)
	if i < 0 {
		lower := strings.ToLower(passage)
		if len(lower) == len(passage) {
			i = strings.Index(lower, strings.ToLower(answer))
		}
	}
	if i < 0 {
		return 0, 0, false
	}
	start = utf8.RuneCountInString(passage[:i])
	return start, start + utf8.RuneCountInString(answer), true
}
