package service

import (
	"context"
	"strings"

	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

// SymptomService turns symptoms and an optional profile into an Analysis
type SymptomService struct {
	pipeline *Pipeline[*model.Analysis]
	logger   *zap.Logger
}

// NewSymptomService creates a new SymptomService
func NewSymptomService(client llm.Completer, cfg llm.GenerationConfig, logger *zap.Logger) *SymptomService {
	return &SymptomService{
		pipeline: NewPipeline("analyze-symptoms", client, cfg, ParseAnalysis, logger),
		logger:   logger,
	}
}

// Configured reports whether the analysis model key is set
func (s *SymptomService) Configured() bool {
	return s.pipeline.Configured()
}

// Analyze validates the symptoms, builds the prompt and runs one model call
func (s *SymptomService) Analyze(ctx context.Context, symptoms string, profile *model.UserProfile) (*model.Analysis, error) {
	if !s.Configured() {
		return nil, ErrAPIKeyMissing
	}
	if strings.TrimSpace(symptoms) == "" {
		return nil, &InputError{Message: "Symptoms description is required"}
	}

	s.logger.Info("analyzing symptoms",
		zap.Int("symptoms_chars", len(symptoms)),
		zap.Bool("has_profile", profile != nil),
	)

	prompt := GenerateAnalysisPrompt(symptoms, BuildProfileContext(profile))
	analysis, err := s.pipeline.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("symptom analysis completed",
		zap.Int("conditions_count", len(analysis.Conditions)),
		zap.String("urgency", string(analysis.UrgencyLevel())),
	)
	return analysis, nil
}
