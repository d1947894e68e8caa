package service

import (
	"context"

	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

// ReportService generates narrative medical reports from a prior analysis
type ReportService struct {
	pipeline *Pipeline[string]
	logger   *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(client llm.Completer, cfg llm.GenerationConfig, logger *zap.Logger) *ReportService {
	s := &ReportService{logger: logger}
	s.pipeline = NewPipeline("generate-medical-report", client, cfg, s.decodeReport, logger)
	return s
}

// Configured reports whether the report model key is set
func (s *ReportService) Configured() bool {
	return s.pipeline.Configured()
}

// GenerateReport builds the report prompt and returns the model's text
func (s *ReportService) GenerateReport(ctx context.Context, req model.ReportRequest) (string, error) {
	if !s.Configured() {
		return "", ErrAPIKeyMissing
	}
	if req.AnalysisData == nil {
		return "", &InputError{Message: "Analysis data is required for report generation"}
	}

	s.logger.Info("generating medical report",
		zap.Int("conditions_count", len(req.AnalysisData.Conditions)),
		zap.Bool("has_profile", req.UserProfile != nil),
	)

	prompt := GenerateReportPrompt(*req.AnalysisData, req.UserProfile, req.Symptoms)
	report, err := s.pipeline.Run(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.logger.Info("medical report generated", zap.Int("report_chars", len(report)))
	return report, nil
}

func (s *ReportService) decodeReport(c *llm.Completion) (string, error) {
	report, err := ReportText(c)
	if err == nil && c.FinishReason == llm.FinishLengthTruncated {
		s.logger.Warn("medical report was truncated by the output token limit",
			zap.Int("report_chars", len(report)),
		)
	}
	return report, err
}
