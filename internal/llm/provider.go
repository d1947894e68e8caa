package llm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderOptions selects and configures a Completer implementation
type ProviderOptions struct {
	Provider        string
	APIKey          string
	Model           string
	BaseURL         string
	AzureEndpoint   string
	AzureAPIVersion string
	Timeout         time.Duration
}

// NewCompleter builds the Completer for the configured provider. It returns
// a nil Completer and no error when no API key is configured, so callers can
// report the missing key per request.
func NewCompleter(opts ProviderOptions, logger *zap.Logger) (Completer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, nil
	}

	switch strings.ToLower(opts.Provider) {
	case "", ProviderGemini:
		return NewGeminiClient(GeminiOptions{
			APIKey:  opts.APIKey,
			Model:   opts.Model,
			BaseURL: opts.BaseURL,
			Timeout: opts.Timeout,
		}, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIOptions{
			APIKey:          opts.APIKey,
			Model:           opts.Model,
			BaseURL:         opts.BaseURL,
			AzureEndpoint:   opts.AzureEndpoint,
			AzureAPIVersion: opts.AzureAPIVersion,
			Timeout:         opts.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown model provider %q", opts.Provider)
	}
}
