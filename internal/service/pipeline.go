package service

import (
	"context"
	"time"

	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"go.uber.org/zap"
)

// Decoder turns a raw completion into the pipeline result
type Decoder[T any] func(*llm.Completion) (T, error)

// Pipeline sends one prompt to the model and decodes the answer. Both the
// analysis and the report flows are instances of it.
type Pipeline[T any] struct {
	name   string
	client llm.Completer
	config llm.GenerationConfig
	decode Decoder[T]
	logger *zap.Logger
}

// NewPipeline creates a Pipeline. A nil client leaves the pipeline
// unconfigured and every Run fails with ErrAPIKeyMissing.
func NewPipeline[T any](name string, client llm.Completer, cfg llm.GenerationConfig, decode Decoder[T], logger *zap.Logger) *Pipeline[T] {
	return &Pipeline[T]{
		name:   name,
		client: client,
		config: cfg,
		decode: decode,
		logger: logger.With(zap.String("pipeline", name)),
	}
}

// Configured reports whether the pipeline has model credentials
func (p *Pipeline[T]) Configured() bool {
	return p.client != nil
}

// Run performs exactly one model call
func (p *Pipeline[T]) Run(ctx context.Context, prompt string) (T, error) {
	var zero T
	if !p.Configured() {
		return zero, ErrAPIKeyMissing
	}

	startTime := time.Now()
	completion, err := p.client.Complete(ctx, prompt, p.config)
	if err != nil {
		p.logger.Error("model call failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return zero, err
	}

	result, err := p.decode(completion)
	if err != nil {
		p.logger.Warn("model response rejected",
			zap.Error(err),
			zap.String("finish_reason", completion.FinishReason.String()),
			zap.Int("text_chars", len(completion.Text)),
		)
		return zero, err
	}

	p.logger.Info("model response decoded",
		zap.String("finish_reason", completion.FinishReason.String()),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("text_chars", len(completion.Text)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return result, nil
}
