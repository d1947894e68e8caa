package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vcscsvcscs/symptom-checker/internal/llm"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Model    ModelConfig
	Database DatabaseConfig
	Tracing  TracingConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// ModelConfig holds the language model gateway configuration. The two API
// keys are independent: either pipeline can run without the other.
type ModelConfig struct {
	Provider            string
	Model               string
	BaseURL             string
	AnalysisAPIKey      string
	ReportAPIKey        string
	Timeout             time.Duration
	TopK                int
	TopP                float64
	MaxOutputTokens     int
	AnalysisTemperature float64
	ReportTemperature   float64
	SafetyThreshold     string
	AzureEndpoint       string
	AzureAPIVersion     string
}

// DatabaseConfig holds the optional audit database connection
type DatabaseConfig struct {
	URL string
}

// TracingConfig holds OpenTelemetry exporter configuration
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	ServiceName string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from a .env file (if any), environment variables
// and defaults
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	v.SetDefault("model.provider", llm.ProviderGemini)
	v.SetDefault("model.timeout", llm.DefaultTimeout)
	v.SetDefault("model.topk", llm.DefaultTopK)
	v.SetDefault("model.topp", llm.DefaultTopP)
	v.SetDefault("model.maxoutputtokens", llm.DefaultMaxOutputTokens)
	v.SetDefault("model.analysistemperature", llm.DefaultAnalysisTemperature)
	v.SetDefault("model.reporttemperature", llm.DefaultReportTemperature)
	v.SetDefault("model.safetythreshold", string(llm.DefaultSafetyThreshold))
	v.SetDefault("model.azureapiversion", llm.DefaultAzureAPIVersion)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sampleratio", 1.0)
	v.SetDefault("tracing.servicename", "symptom-checker")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.environment", "ENV", "ENVIRONMENT")
	_ = v.BindEnv("server.shutdowntimeout", "SHUTDOWN_TIMEOUT")

	// Model
	_ = v.BindEnv("model.provider", "MODEL_PROVIDER")
	_ = v.BindEnv("model.model", "MODEL_NAME")
	_ = v.BindEnv("model.baseurl", "MODEL_BASE_URL")
	_ = v.BindEnv("model.analysisapikey", "GEMINI_API_KEY")
	_ = v.BindEnv("model.reportapikey", "GEMINI_API_KEY_2")
	_ = v.BindEnv("model.timeout", "MODEL_TIMEOUT")
	_ = v.BindEnv("model.topk", "MODEL_TOP_K")
	_ = v.BindEnv("model.topp", "MODEL_TOP_P")
	_ = v.BindEnv("model.maxoutputtokens", "MODEL_MAX_OUTPUT_TOKENS")
	_ = v.BindEnv("model.analysistemperature", "ANALYSIS_TEMPERATURE")
	_ = v.BindEnv("model.reporttemperature", "REPORT_TEMPERATURE")
	_ = v.BindEnv("model.safetythreshold", "MODEL_SAFETY_THRESHOLD")
	_ = v.BindEnv("model.azureendpoint", "AZURE_OPENAI_ENDPOINT")
	_ = v.BindEnv("model.azureapiversion", "AZURE_OPENAI_API_VERSION")

	// Database
	_ = v.BindEnv("database.url", "DATABASE_URL")

	// Tracing
	_ = v.BindEnv("tracing.enabled", "OTEL_TRACING_ENABLED")
	_ = v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("tracing.insecure", "OTEL_EXPORTER_OTLP_INSECURE")
	_ = v.BindEnv("tracing.sampleratio", "OTEL_TRACES_SAMPLER_RATIO")
	_ = v.BindEnv("tracing.servicename", "OTEL_SERVICE_NAME")

	// Logging
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid. Missing API keys are not an
// error here; the affected endpoint answers API_KEY_MISSING instead.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}

	switch strings.ToLower(c.Model.Provider) {
	case llm.ProviderGemini:
	case llm.ProviderOpenAI:
		if c.Model.Model == "" && (c.Model.AnalysisAPIKey != "" || c.Model.ReportAPIKey != "") {
			return errors.New("model.model is required for the openai provider")
		}
	default:
		return fmt.Errorf("model.provider must be %q or %q, got %q", llm.ProviderGemini, llm.ProviderOpenAI, c.Model.Provider)
	}

	if c.Model.Timeout <= 0 {
		return errors.New("model.timeout must be positive")
	}
	if c.Model.TopK <= 0 {
		return errors.New("model.topk must be positive")
	}
	if c.Model.TopP <= 0 || c.Model.TopP > 1 {
		return errors.New("model.topp must be in (0, 1]")
	}
	if c.Model.MaxOutputTokens <= 0 {
		return errors.New("model.maxoutputtokens must be positive")
	}
	for name, temperature := range map[string]float64{
		"model.analysistemperature": c.Model.AnalysisTemperature,
		"model.reporttemperature":   c.Model.ReportTemperature,
	} {
		if temperature < 0 || temperature > 2 {
			return fmt.Errorf("%s must be in [0, 2]", name)
		}
	}
	if !llm.ValidThreshold(llm.BlockThreshold(c.Model.SafetyThreshold)) {
		return fmt.Errorf("model.safetythreshold %q is not a known block threshold", c.Model.SafetyThreshold)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("tracing.sampleratio must be in [0, 1]")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// AnalysisProvider returns the gateway options for the analyze pipeline
func (m ModelConfig) AnalysisProvider() llm.ProviderOptions {
	return m.provider(m.AnalysisAPIKey)
}

// ReportProvider returns the gateway options for the report pipeline
func (m ModelConfig) ReportProvider() llm.ProviderOptions {
	return m.provider(m.ReportAPIKey)
}

func (m ModelConfig) provider(apiKey string) llm.ProviderOptions {
	return llm.ProviderOptions{
		Provider:        strings.ToLower(m.Provider),
		APIKey:          apiKey,
		Model:           m.Model,
		BaseURL:         m.BaseURL,
		AzureEndpoint:   m.AzureEndpoint,
		AzureAPIVersion: m.AzureAPIVersion,
		Timeout:         m.Timeout,
	}
}

// AnalysisGeneration returns the generation settings for symptom analysis
func (m ModelConfig) AnalysisGeneration() llm.GenerationConfig {
	return m.generation(m.AnalysisTemperature)
}

// ReportGeneration returns the generation settings for report writing
func (m ModelConfig) ReportGeneration() llm.GenerationConfig {
	return m.generation(m.ReportTemperature)
}

func (m ModelConfig) generation(temperature float64) llm.GenerationConfig {
	return llm.GenerationConfig{
		Temperature:     temperature,
		TopK:            m.TopK,
		TopP:            m.TopP,
		MaxOutputTokens: m.MaxOutputTokens,
		SafetySettings:  llm.SafetySettings(llm.BlockThreshold(m.SafetyThreshold)),
	}
}
