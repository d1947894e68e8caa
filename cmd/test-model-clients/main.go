package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/symptom-checker/internal/config"
	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/internal/pdf"
	"github.com/vcscsvcscs/symptom-checker/internal/repository"
	"github.com/vcscsvcscs/symptom-checker/internal/service"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

// test-model-clients runs both pipelines against the real model provider and
// exercises the configured local state backend. It reads the same environment
// as the server, plus STATE_STORE for the store check.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.Model.AnalysisAPIKey == "" || cfg.Model.ReportAPIKey == "" {
		logger.Fatal("Missing model credentials. Set GEMINI_API_KEY and GEMINI_API_KEY_2")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Test 1: symptom analysis
	logger.Info("=== Testing analysis pipeline ===", zap.String("provider", cfg.Model.Provider))
	analysis, err := testAnalysis(ctx, cfg, logger)
	if err != nil {
		logger.Error("Analysis test failed", zap.Error(err))
	} else {
		logger.Info("✅ Analysis test passed")
	}

	// Test 2: report generation, fed by the analysis above
	if analysis != nil {
		logger.Info("=== Testing report pipeline ===")
		if err := testReport(ctx, cfg, analysis, logger); err != nil {
			logger.Error("Report test failed", zap.Error(err))
		} else {
			logger.Info("✅ Report test passed")
		}
	}

	// Test 3: local state store
	logger.Info("=== Testing local state store ===")
	if err := testStore(ctx, os.Getenv("STATE_STORE"), logger); err != nil {
		logger.Error("Store test failed", zap.Error(err))
	} else {
		logger.Info("✅ Store test passed")
	}

	logger.Info("=== All tests completed ===")
}

var sampleProfile = &model.UserProfile{
	Name:       "Test Patient",
	Age:        "42",
	Gender:     "male",
	Height:     "180",
	Weight:     "82",
	Conditions: []string{"hypertension"},
	City:       "Budapest",
	Country:    "Hungary",
}

const sampleSymptoms = "Throbbing headache on one side for two days, sensitivity to light, mild nausea"

func testAnalysis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*model.Analysis, error) {
	client, err := llm.NewCompleter(cfg.Model.AnalysisProvider(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client: %w", err)
	}

	started := time.Now()
	analysis, err := service.NewSymptomService(client, cfg.Model.AnalysisGeneration(), logger).
		Analyze(ctx, sampleSymptoms, sampleProfile)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	logger.Info("Analysis received",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("conditions", len(analysis.Conditions)),
		zap.Int("recommendations", len(analysis.Recommendations)),
		zap.Int("warnings", len(analysis.Warnings)),
		zap.String("urgency", analysis.Urgency),
	)
	for _, condition := range analysis.Conditions {
		logger.Info("Condition", zap.String("name", condition.Name), zap.Int("probability", condition.Probability))
	}

	if len(analysis.Recommendations) == 0 {
		logger.Warn("⚠️  Analysis has no recommendations, the model may have answered in prose")
	}
	return analysis, nil
}

func testReport(ctx context.Context, cfg *config.Config, analysis *model.Analysis, logger *zap.Logger) error {
	client, err := llm.NewCompleter(cfg.Model.ReportProvider(), logger)
	if err != nil {
		return fmt.Errorf("failed to create report client: %w", err)
	}

	report, err := service.NewReportService(client, cfg.Model.ReportGeneration(), logger).
		GenerateReport(ctx, model.ReportRequest{
			AnalysisData: analysis,
			UserProfile:  sampleProfile,
			Symptoms:     sampleSymptoms,
		})
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	logger.Info("Report received", zap.Int("report_length", len(report)))

	data, err := pdf.NewPDFGenerator(logger).Generate(&pdf.ReportDocument{
		PatientName: sampleProfile.Name,
		Symptoms:    sampleSymptoms,
		Analysis:    analysis,
		Content:     report,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("PDF generation failed: %w", err)
	}

	pdfFile := filepath.Join(os.TempDir(), "test-medical-report.pdf")
	if err := os.WriteFile(pdfFile, data, 0o644); err != nil {
		logger.Warn("Failed to save PDF file", zap.Error(err))
	} else {
		logger.Info("PDF saved", zap.String("file", pdfFile), zap.Int("size_bytes", len(data)))
	}
	return nil
}

func testStore(ctx context.Context, dsn string, logger *zap.Logger) error {
	if dsn == "" {
		dsn = filepath.Join(os.TempDir(), fmt.Sprintf("symptom-checker-test-%d.json", time.Now().Unix()))
	}

	store, err := repository.Open(ctx, dsn, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	state := repository.NewLocalState(store, logger)

	if err := state.SaveProfile(ctx, *sampleProfile); err != nil {
		return err
	}
	entry, err := state.AppendEntry(ctx, model.HealthLogEntry{
		Type:     model.EntryTypeSymptomAnalysis,
		Symptoms: sampleSymptoms,
		Source:   "test-model-clients",
	})
	if err != nil {
		return err
	}

	found, err := state.FindEntry(ctx, entry.ID)
	if err != nil {
		return err
	}
	if found.Symptoms != sampleSymptoms {
		return fmt.Errorf("stored entry doesn't match appended entry")
	}
	logger.Info("Health log entry stored and verified", zap.String("id", entry.ID))

	return state.ClearAll(ctx)
}
