// Package inference binds ports.Answerer to the configured question-answering
// backend. The provider is resolved once at startup.
package inference

import (
	"context"
	"fmt"
	"time"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/config"
	"domowner/internal/platform/httpclient"
	"domowner/internal/platform/logx"
)

// New returns the Answerer for cfg.Provider.
func New(cfg config.Inference, userAgent string, logger logx.Logger) (ports.Answerer, error) {
	if logger == nil {
		logger = logx.NewNop()
	}

	switch cfg.Provider {
	case config.ProviderHuggingFace:
		return NewQAClient(QAConfig{
			Name:      cfg.Provider,
			Endpoint:  cfg.APIBase + "/models/" + cfg.Model,
			Model:     cfg.Model,
			Token:     cfg.APIToken,
			Timeout:   cfg.Timeout,
			UserAgent: userAgent,
		}, logger), nil

	case config.ProviderLocal:
		// servidor propio: el modelo ya está cargado detrás de la URL base
		return NewQAClient(QAConfig{
			Name:      cfg.Provider,
			Endpoint:  cfg.APIBase,
			Model:     cfg.Model,
			Token:     cfg.APIToken,
			Timeout:   cfg.Timeout,
			UserAgent: userAgent,
		}, logger), nil

	case config.ProviderOllama, config.ProviderOpenAI:
		chat := ChatConfig{
			Name:         cfg.Provider,
			BaseURL:      cfg.APIBase,
			Model:        cfg.Model,
			Token:        cfg.APIToken,
			Timeout:      cfg.Timeout,
			MaxNewTokens: cfg.MaxNewTokens,
			UserAgent:    userAgent,
		}
		if cfg.Provider == config.ProviderOllama {
			chat.NumCtx = cfg.NumCtx
		}
		return NewChatClient(chat, logger), nil

	case config.ProviderBedrock:
		client, err := NewBedrockClient(context.Background(), BedrockConfig{
			Name:         cfg.Provider,
			ModelID:      cfg.Model,
			Region:       cfg.Region,
			Endpoint:     cfg.APIBase,
			Timeout:      cfg.Timeout,
			MaxNewTokens: cfg.MaxNewTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.Provider)
	}
}

// newHTTP builds the transport shared by the providers. Retries are left to
// resilience.RetryableAnswerer so a failed call is retried exactly once.
func newHTTP(timeout time.Duration, userAgent, token string, logger logx.Logger) *httpclient.Client {
	hc := httpclient.DefaultConfig()
	if timeout > 0 {
		hc.Timeout = timeout
	}
	hc.MaxRetries = 0
	hc.UserAgent = userAgent
	if token != "" {
		hc.Headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return httpclient.New(hc, logger)
}
