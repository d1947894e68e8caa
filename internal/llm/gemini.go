package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultTimeout       = 30 * time.Second

	geminiAPIKeyHeader = "x-goog-api-key"
)

// GeminiOptions configures a GeminiClient
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default traced client, mainly for tests
	HTTPClient *http.Client
}

// GeminiClient calls the generateContent REST endpoint
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiClient creates a client bound to a single API key
func NewGeminiClient(opts GeminiOptions, logger *zap.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGeminiBaseURL
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

	return &GeminiClient{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(zap.String("provider", "gemini"), zap.String("model", opts.Model)),
	}, nil
}

// Model returns the model name requests are sent to
func (c *GeminiClient) Model() string { return c.model }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []SafetySetting        `json:"safetySettings,omitempty"`
}

type geminiCandidate struct {
	Content      *geminiContent `json:"content,omitempty"`
	FinishReason string         `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
		TotalTokenCount      int64 `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	ModelVersion string `json:"modelVersion,omitempty"`
}

// Complete performs one generateContent call
func (c *GeminiClient) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (*Completion, error) {
	ctx, span := otel.Tracer("symptom-checker/llm").Start(ctx, "gemini.generateContent")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)

	startTime := time.Now()
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     cfg.Temperature,
			TopK:            cfg.TopK,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		SafetySettings: cfg.SafetySettings,
	}

	raw, err := c.doOnce(ctx, fmt.Sprintf("/v1beta/models/%s:generateContent", c.model), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("gemini request failed",
			zap.Error(err),
			zap.Duration("request_time", time.Since(startTime)),
		)
		return nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	completion := resp.toCompletion()
	if completion.Model == "" {
		completion.Model = c.model
	}

	span.SetAttributes(
		attribute.String("llm.finish_reason", completion.FinishReason.String()),
		attribute.Int64("llm.total_tokens", completion.Usage.TotalTokens),
	)
	c.logger.Info("gemini request completed",
		zap.String("finish_reason", completion.RawFinishReason),
		zap.String("block_reason", completion.BlockReason),
		zap.Int("text_chars", len(completion.Text)),
		zap.Int64("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int64("completion_tokens", completion.Usage.CompletionTokens),
		zap.Duration("request_time", time.Since(startTime)),
	)

	return completion, nil
}

func (c *GeminiClient) doOnce(ctx context.Context, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(geminiAPIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ModelServiceError{Err: err}
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &ModelServiceError{StatusCode: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ModelServiceError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (r *geminiResponse) toCompletion() *Completion {
	completion := &Completion{Model: r.ModelVersion}
	if r.PromptFeedback != nil {
		completion.BlockReason = r.PromptFeedback.BlockReason
	}
	if r.UsageMetadata != nil {
		completion.Usage = Usage{
			PromptTokens:     r.UsageMetadata.PromptTokenCount,
			CompletionTokens: r.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      r.UsageMetadata.TotalTokenCount,
		}
	}

	if len(r.Candidates) == 0 {
		completion.FinishReason = FinishNone
		return completion
	}

	candidate := r.Candidates[0]
	completion.RawFinishReason = candidate.FinishReason
	completion.FinishReason = geminiFinishReason(candidate.FinishReason)

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		completion.Text = text.String()
		completion.HasText = completion.Text != ""
	}
	return completion
}

func geminiFinishReason(reason string) FinishReason {
	switch reason {
	case "STOP":
		return FinishCompleted
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII":
		return FinishSafetyBlocked
	case "MAX_TOKENS":
		return FinishLengthTruncated
	default:
		return FinishOther
	}
}
