package inference

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
)

// ConverseAPI es el subconjunto del cliente de Bedrock Runtime que usamos.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockConfig configura el proveedor Bedrock. Las credenciales salen de
// la cadena por defecto de AWS (env, perfil compartido, rol).
type BedrockConfig struct {
	Name         string
	ModelID      string
	Region       string
	Endpoint     string
	Timeout      time.Duration
	MaxNewTokens int
}

// BedrockClient emulates extractive QA with the Converse API, the same way
// ChatClient does on OpenAI-compatible endpoints.
type BedrockClient struct {
	cfg    BedrockConfig
	api    ConverseAPI
	logger logx.Logger
}

var _ ports.Answerer = (*BedrockClient)(nil)

// NewBedrockClient loads the default AWS configuration and builds a
// runtime client. SDK retries are disabled; resilience.RetryableAnswerer
// owns the retry budget.
func NewBedrockClient(ctx context.Context, cfg BedrockConfig, logger logx.Logger) (*BedrockClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	api := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewBedrockClientWithAPI(cfg, api, logger), nil
}

// NewBedrockClientWithAPI wraps an existing runtime client.
func NewBedrockClientWithAPI(cfg BedrockConfig, api ConverseAPI, logger logx.Logger) *BedrockClient {
	if logger == nil {
		logger = logx.NewNop()
	}
	cfg.ModelID = BedrockModelID(cfg.ModelID)
	return &BedrockClient{
		cfg:    cfg,
		api:    api,
		logger: logger.With("provider", cfg.Name, "model", cfg.ModelID),
	}
}

// BedrockModelID quita el prefijo "bedrock/" que usan los ids estilo LiteLLM.
func BedrockModelID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "bedrock/")
}

// Name implements ports.Answerer.
func (c *BedrockClient) Name() string {
	return c.cfg.Name
}

// Answer implements ports.Answerer.
func (c *BedrockClient) Answer(ctx context.Context, question, passage string) (*domain.AnswerResult, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.cfg.ModelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []types.Message{{
			Role: types.ConversationRoleUser,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: userPrompt(question, passage)},
			},
		}},
		InferenceConfig: &types.InferenceConfiguration{Temperature: aws.Float32(0)},
	}
	if c.cfg.MaxNewTokens > 0 {
		in.InferenceConfig.MaxTokens = aws.Int32(int32(c.cfg.MaxNewTokens))
	}

	out, err := c.api.Converse(ctx, in)
	if err != nil {
		return nil, classifyBedrockError(ctx, err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "converse output has no message")
	}
	var reply strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			reply.WriteString(text.Value)
		}
	}

	return spanAnswer(passage, reply.String(), c.cfg.Name, c.cfg.ModelID, c.logger), nil
}

// classifyBedrockError maps service exceptions onto the platform sentinels
// so the retry policy can tell transient failures apart.
func classifyBedrockError(ctx context.Context, err error) error {
	var (
		throttled   *types.ThrottlingException
		unavailable *types.ServiceUnavailableException
		notReady    *types.ModelNotReadyException
		timeout     *types.ModelTimeoutException
		denied      *types.AccessDeniedException
		notFound    *types.ResourceNotFoundException
		invalid     *types.ValidationException
	)
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return errors.Wrapf(errors.ErrTimeout, "bedrock converse: %v", err)
	case errors.As(err, &throttled):
		return errors.Wrapf(errors.ErrRateLimit, "bedrock converse: %v", err)
	case errors.As(err, &unavailable), errors.As(err, &notReady):
		return errors.Wrapf(errors.ErrServiceUnavailable, "bedrock converse: %v", err)
	case errors.As(err, &timeout):
		return errors.Wrapf(errors.ErrTimeout, "bedrock converse: %v", err)
	case errors.As(err, &denied):
		return errors.Wrapf(errors.ErrUnauthorized, "bedrock converse: %v", err)
	case errors.As(err, &notFound):
		return errors.Wrapf(errors.ErrNotFound, "bedrock converse: %v", err)
	case errors.As(err, &invalid):
		return errors.Wrapf(errors.ErrInvalidInput, "bedrock converse: %v", err)
	default:
		return errors.Wrap(err, "bedrock converse")
	}
}
