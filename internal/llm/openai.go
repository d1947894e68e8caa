package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const DefaultAzureAPIVersion = "2024-08-01-preview"

// OpenAIOptions configures an OpenAI-compatible chat completion client.
// When AzureEndpoint is set the Azure deployment named by Model is used.
type OpenAIOptions struct {
	APIKey          string
	Model           string
	BaseURL         string
	AzureEndpoint   string
	AzureAPIVersion string
	Timeout         time.Duration
	HTTPClient      *http.Client
}

// OpenAIClient wraps the openai-go SDK behind the Completer interface
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates a client using the openai-go SDK, with the Azure
// extension when an Azure endpoint is configured
func NewOpenAIClient(opts OpenAIOptions, logger *zap.Logger) (*OpenAIClient, error) {
	if opts.APIKey == "" || opts.Model == "" {
		return nil, fmt.Errorf("apiKey and model are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	requestOptions := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if opts.AzureEndpoint != "" {
		apiVersion := opts.AzureAPIVersion
		if apiVersion == "" {
			apiVersion = DefaultAzureAPIVersion
		}
		requestOptions = append(requestOptions,
			azure.WithEndpoint(opts.AzureEndpoint, apiVersion),
			azure.WithAPIKey(opts.APIKey),
		)
	} else {
		requestOptions = append(requestOptions, option.WithAPIKey(opts.APIKey))
		if opts.BaseURL != "" {
			requestOptions = append(requestOptions, option.WithBaseURL(opts.BaseURL))
		}
	}

	client := openai.NewClient(requestOptions...)

	return &OpenAIClient{
		client: &client,
		model:  opts.Model,
		logger: logger.With(zap.String("provider", "openai"), zap.String("model", opts.Model)),
	}, nil
}

// Model returns the model or deployment name
func (c *OpenAIClient) Model() string { return c.model }

// Complete sends the prompt as a single user message. Top-k and safety
// settings have no chat completion equivalent and are not sent.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (*Completion, error) {
	ctx, span := otel.Tracer("symptom-checker/llm").Start(ctx, "openai.chatCompletion")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	requestStart := time.Now()
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(cfg.Temperature),
		TopP:        openai.Float(cfg.TopP),
	}
	if cfg.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(cfg.MaxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		serviceErr := &ModelServiceError{Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			serviceErr.StatusCode = apiErr.StatusCode
			serviceErr.Body = apiErr.Message
		}
		c.logger.Error("chat completion request failed",
			zap.Error(err),
			zap.Int("status", serviceErr.StatusCode),
			zap.Duration("request_time", time.Since(requestStart)),
		)
		return nil, serviceErr
	}

	completion := &Completion{
		Model: resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		completion.RawFinishReason = string(choice.FinishReason)
		completion.FinishReason = openAIFinishReason(completion.RawFinishReason)
		completion.Text = choice.Message.Content
		completion.HasText = completion.Text != ""
	}

	span.SetAttributes(attribute.String("llm.finish_reason", completion.FinishReason.String()))
	c.logger.Info("chat completion request completed",
		zap.String("finish_reason", completion.RawFinishReason),
		zap.Int64("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int64("completion_tokens", completion.Usage.CompletionTokens),
		zap.Int64("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("request_time", time.Since(requestStart)),
	)

	return completion, nil
}

func openAIFinishReason(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishCompleted
	case "content_filter":
		return FinishSafetyBlocked
	case "length":
		return FinishLengthTruncated
	default:
		return FinishOther
	}
}
