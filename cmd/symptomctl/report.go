package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/symptom-checker/internal/pdf"
	"github.com/vcscsvcscs/symptom-checker/internal/repository"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

const reportSource = analysisSource + "-report-generator"

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [entry-id]",
		Short: "Generate a medical report from an analysis in the health log",
		Long:  "Generates a report from the given analysis entry, or from the most recent analysis when no id is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pdfPath, _ := cmd.Flags().GetString("pdf")

			var (
				source model.HealthLogEntry
				err    error
			)
			if len(args) == 1 {
				source, err = a.state.FindEntry(ctx, args[0])
			} else {
				source, err = a.state.LatestEntry(ctx, model.EntryTypeSymptomAnalysis)
				if errors.Is(err, repository.ErrEntryNotFound) {
					return errors.New("no symptom analysis in the health log yet, run 'symptomctl analyze' first")
				}
			}
			if err != nil {
				return err
			}
			if source.Analysis == nil {
				return fmt.Errorf("entry %s has no analysis to report on", source.ID)
			}

			profile, err := a.state.Profile(ctx)
			if err != nil {
				return err
			}

			content, err := a.api.GenerateReport(ctx, model.ReportRequest{
				AnalysisData: source.Analysis,
				UserProfile:  profile,
				Symptoms:     source.Symptoms,
			})
			if err != nil {
				return err
			}

			entry, err := a.state.AppendEntry(ctx, model.HealthLogEntry{
				Type:          model.EntryTypeMedicalReport,
				Symptoms:      source.Symptoms,
				Analysis:      source.Analysis,
				ReportContent: content,
				Source:        reportSource,
			})
			if err != nil {
				return err
			}

			a.printf("%s\n\nSaved to health log as %s\n", content, entry.ID)

			if pdfPath != "" {
				if err := a.writeReportPDF(pdfPath, profile, entry); err != nil {
					return err
				}
				a.printf("PDF written to %s\n", pdfPath)
			}
			return nil
		},
	}

	cmd.Flags().String("pdf", "", "also write the report to this PDF file")
	return cmd
}

func (a *app) writeReportPDF(path string, profile *model.UserProfile, entry model.HealthLogEntry) error {
	doc := &pdf.ReportDocument{
		Symptoms:    entry.Symptoms,
		Analysis:    entry.Analysis,
		Content:     entry.ReportContent,
		GeneratedAt: entry.Date,
	}
	if profile != nil {
		doc.PatientName = profile.Name
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now()
	}

	data, err := pdf.NewPDFGenerator(a.logger).Generate(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
