package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/symptom-checker/internal/audit"
	"github.com/vcscsvcscs/symptom-checker/internal/service"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

const (
	AnalyzeSymptomsPath       = "/api/v1/analyze-symptoms"
	GenerateMedicalReportPath = "/api/v1/generate-medical-report"
)

// Auditor records one event per pipeline request
type Auditor interface {
	Log(ctx context.Context, event audit.Event) error
}

// SymptomHandler serves the analyze and report endpoints
type SymptomHandler struct {
	symptoms  *service.SymptomService
	reports   *service.ReportService
	validator *RequestValidator
	auditor   Auditor
	logger    *zap.Logger

	analyze gin.HandlerFunc
	report  gin.HandlerFunc
}

// NewSymptomHandler creates a new SymptomHandler. validator and auditor may be nil.
func NewSymptomHandler(
	symptoms *service.SymptomService,
	reports *service.ReportService,
	validator *RequestValidator,
	auditor Auditor,
	logger *zap.Logger,
) *SymptomHandler {
	h := &SymptomHandler{
		symptoms:  symptoms,
		reports:   reports,
		validator: validator,
		auditor:   auditor,
		logger:    logger,
	}

	h.analyze = serve(h, endpoint[model.SymptomRequest, *model.Analysis]{
		name:       audit.EndpointAnalyzeSymptoms,
		configured: symptoms.Configured,
		invoke: func(ctx context.Context, req *model.SymptomRequest) (*model.Analysis, error) {
			return symptoms.Analyze(ctx, req.Symptoms, req.UserProfile)
		},
		inputChars:        func(req *model.SymptomRequest) int { return len(req.Symptoms) },
		successMessage:    "Comprehensive symptom analysis with detailed medical guidance completed",
		missingKeyMessage: "API key not configured. Please contact support.",
		serviceLabel:      "AI service",
		unexpectedMessage: "An unexpected error occurred. Please try again later.",
		malformedMessage:  service.AnalysisMessages.NoText,
	})

	h.report = serve(h, endpoint[model.ReportRequest, model.ReportContent]{
		name:       audit.EndpointGenerateMedicalReport,
		configured: reports.Configured,
		invoke: func(ctx context.Context, req *model.ReportRequest) (model.ReportContent, error) {
			content, err := reports.GenerateReport(ctx, *req)
			return model.ReportContent{ReportContent: content}, err
		},
		inputChars:        func(req *model.ReportRequest) int { return len(req.Symptoms) },
		successMessage:    "Medical report generated successfully",
		missingKeyMessage: "Report generation API key not configured. Please contact support.",
		serviceLabel:      "Report generation service",
		unexpectedMessage: "An unexpected error occurred while generating the report. Please try again later.",
	})

	return h
}

// RegisterRoutes mounts the pipeline endpoints and their preflight routes
func (h *SymptomHandler) RegisterRoutes(r gin.IRouter) {
	r.POST(AnalyzeSymptomsPath, h.AnalyzeSymptoms)
	r.OPTIONS(AnalyzeSymptomsPath, Preflight)
	r.POST(GenerateMedicalReportPath, h.GenerateMedicalReport)
	r.OPTIONS(GenerateMedicalReportPath, Preflight)
}

// AnalyzeSymptoms handles POST /api/v1/analyze-symptoms
func (h *SymptomHandler) AnalyzeSymptoms(c *gin.Context) {
	h.analyze(c)
}

// GenerateMedicalReport handles POST /api/v1/generate-medical-report
func (h *SymptomHandler) GenerateMedicalReport(c *gin.Context) {
	h.report(c)
}

func (h *SymptomHandler) recordAudit(c *gin.Context, event audit.Event) {
	if h.auditor == nil {
		return
	}
	event.RequestID = c.GetString("request_id")
	event.IPAddress = c.ClientIP()
	event.UserAgent = c.Request.UserAgent()

	if err := h.auditor.Log(context.WithoutCancel(c.Request.Context()), event); err != nil {
		h.logger.Warn("failed to record audit event", zap.Error(err))
	}
}
