package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 60 * time.Second

	analyzePath = "/api/v1/analyze-symptoms"
	reportPath  = "/api/v1/generate-medical-report"
	healthPath  = "/health"
)

// APIError is a failure envelope returned by the server
type APIError struct {
	StatusCode int
	Code       model.ErrorCode
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s): %s", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Client calls the symptom checker API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New creates a new Client
func New(opts Options, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
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

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// AnalysisResult is a successful analysis and the server's message
type AnalysisResult struct {
	Analysis model.Analysis
	Message  string
}

// AnalyzeSymptoms calls POST /api/v1/analyze-symptoms
func (c *Client) AnalyzeSymptoms(ctx context.Context, req model.SymptomRequest) (*AnalysisResult, error) {
	var analysis model.Analysis
	message, err := c.post(ctx, analyzePath, req, &analysis)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{Analysis: analysis, Message: message}, nil
}

// GenerateReport calls POST /api/v1/generate-medical-report and returns the report text
func (c *Client) GenerateReport(ctx context.Context, req model.ReportRequest) (string, error) {
	var content model.ReportContent
	if _, err := c.post(ctx, reportPath, req, &content); err != nil {
		return "", err
	}
	if content.ReportContent == "" {
		return "", errors.New("no report content received from the service")
	}
	return content.ReportContent, nil
}

// Health calls GET /health and returns the decoded body
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	body := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}
	return body, nil
}

type envelope struct {
	Success  bool            `json:"success"`
	Analysis json.RawMessage `json:"analysis"`
	Message  string          `json:"message"`
	Error    string          `json:"error"`
	Code     model.ErrorCode `json:"code"`
	Details  string          `json:"details"`
}

func (c *Client) post(ctx context.Context, path string, payload, out any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api call completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(startTime)),
	)

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Code:       model.ErrorCodeInternalError,
			Message:    fmt.Sprintf("unexpected response (status %d)", resp.StatusCode),
		}
	}
	if !env.Success {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    env.Error,
			Details:    env.Details,
		}
	}

	if err := json.Unmarshal(env.Analysis, out); err != nil {
		return "", fmt.Errorf("failed to decode response payload: %w", err)
	}
	return env.Message, nil
}
