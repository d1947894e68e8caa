package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient(GeminiOptions{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewGeminiClient(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewGeminiClient(GeminiOptions{APIKey: "  "}, logger)
	assert.Error(t, err)

	client, err := NewGeminiClient(GeminiOptions{APIKey: "key"}, logger)
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiModel, client.Model())
	assert.Equal(t, DefaultGeminiBaseURL, client.baseURL)
}

func TestGeminiClient_Complete_RequestShape(t *testing.T) {
	var captured geminiRequest
	var path, apiKey, query string

	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.RawQuery
		apiKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello"}]},"finishReason":"STOP"}]}`))
	})

	completion, err := client.Complete(context.Background(), "describe symptoms", AnalysisGenerationConfig())
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", path)
	assert.Empty(t, query, "api key must not travel in the query string")
	assert.Equal(t, "test-key", apiKey)

	require.Len(t, captured.Contents, 1)
	require.Len(t, captured.Contents[0].Parts, 1)
	assert.Equal(t, "describe symptoms", captured.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.3, captured.GenerationConfig.Temperature)
	assert.Equal(t, 32, captured.GenerationConfig.TopK)
	assert.Equal(t, 1.0, captured.GenerationConfig.TopP)
	assert.Equal(t, 4096, captured.GenerationConfig.MaxOutputTokens)
	require.Len(t, captured.SafetySettings, 4)
	for _, setting := range captured.SafetySettings {
		assert.Equal(t, BlockMediumAndAbove, setting.Threshold)
	}

	assert.Equal(t, FinishCompleted, completion.FinishReason)
	assert.True(t, completion.HasText)
	assert.Equal(t, "hello", completion.Text)
}

func TestGeminiClient_Complete_FinishReasons(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		reason   FinishReason
		hasText  bool
		wantText string
	}{
		{
			name:   "no candidates",
			body:   `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`,
			reason: FinishNone,
		},
		{
			name:     "safety with text",
			body:     `{"candidates":[{"content":{"parts":[{"text":"partial"}]},"finishReason":"SAFETY"}]}`,
			reason:   FinishSafetyBlocked,
			hasText:  true,
			wantText: "partial",
		},
		{
			name:   "prohibited content",
			body:   `{"candidates":[{"finishReason":"PROHIBITED_CONTENT"}]}`,
			reason: FinishSafetyBlocked,
		},
		{
			name:     "max tokens",
			body:     `{"candidates":[{"content":{"parts":[{"text":"{\"conditions\":"}]},"finishReason":"MAX_TOKENS"}]}`,
			reason:   FinishLengthTruncated,
			hasText:  true,
			wantText: `{"conditions":`,
		},
		{
			name:     "multiple parts are joined",
			body:     `{"candidates":[{"content":{"parts":[{"text":"ab"},{"text":"cd"}]},"finishReason":"STOP"}]}`,
			reason:   FinishCompleted,
			hasText:  true,
			wantText: "abcd",
		},
		{
			name:   "recitation without text",
			body:   `{"candidates":[{"finishReason":"RECITATION"}]}`,
			reason: FinishOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			completion, err := client.Complete(context.Background(), "prompt", ReportGenerationConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.reason, completion.FinishReason)
			assert.Equal(t, tt.hasText, completion.HasText)
			assert.Equal(t, tt.wantText, completion.Text)
		})
	}
}

func TestGeminiClient_Complete_NonSuccessStatus(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	})

	_, err := client.Complete(context.Background(), "prompt", AnalysisGenerationConfig())
	require.Error(t, err)

	var serviceErr *ModelServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusServiceUnavailable, serviceErr.HTTPStatusCode())
	assert.Contains(t, serviceErr.Body, "overloaded")
}

func TestGeminiClient_Complete_MalformedBody(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>gateway page</html>`))
	})

	_, err := client.Complete(context.Background(), "prompt", AnalysisGenerationConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	var serviceErr *ModelServiceError
	assert.False(t, errors.As(err, &serviceErr))
}

func TestGeminiClient_Complete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client, err := NewGeminiClient(GeminiOptions{
		APIKey:  "key",
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt", AnalysisGenerationConfig())
	var serviceErr *ModelServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, 0, serviceErr.StatusCode)
}

func TestGeminiClient_Complete_CallerCancellation(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, "prompt", AnalysisGenerationConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewCompleter(t *testing.T) {
	logger := zap.NewNop()

	completer, err := NewCompleter(ProviderOptions{Provider: ProviderGemini}, logger)
	require.NoError(t, err)
	assert.Nil(t, completer)

	completer, err = NewCompleter(ProviderOptions{Provider: ProviderGemini, APIKey: "k"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, completer)

	completer, err = NewCompleter(ProviderOptions{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, completer)

	_, err = NewCompleter(ProviderOptions{Provider: "bard", APIKey: "k"}, logger)
	assert.Error(t, err)
}
