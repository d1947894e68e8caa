package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

const disclaimer = "This report was generated by an AI assistant for informational purposes only. " +
	"It is not a diagnosis. Please consult a qualified healthcare professional."

// PDFGenerator renders generated medical reports as printable documents
type PDFGenerator struct {
	logger *zap.Logger
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
	}
}

// ReportDocument contains everything printed in a report
type ReportDocument struct {
	PatientName string
	Symptoms    string
	Analysis    *model.Analysis
	// Content is the model-written report text
	Content     string
	GeneratedAt time.Time
}

// Generate creates a PDF from the report document
func (g *PDFGenerator) Generate(doc *ReportDocument) ([]byte, error) {
	g.logger.Info("generating PDF report",
		zap.Int("content_chars", len(doc.Content)),
		zap.Bool("has_analysis", doc.Analysis != nil),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	g.addTitle(pdf, tr, doc)
	g.addSymptoms(pdf, tr, doc.Symptoms)
	g.addConditions(pdf, tr, doc.Analysis)
	g.addReportBody(pdf, tr, doc.Content)
	g.addDisclaimer(pdf, tr)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, tr func(string) string, doc *ReportDocument) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, "Medical Report", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	generatedAt := doc.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	pdf.SetFont("Arial", "", 12)
	if name := strings.TrimSpace(doc.PatientName); name != "" {
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Patient: %s", name)), "", 1, "L", false, 0, "")
	}
	if doc.Analysis != nil && doc.Analysis.Urgency != "" {
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Urgency: %s", doc.Analysis.Urgency)), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

func (g *PDFGenerator) addSymptoms(pdf *gofpdf.Fpdf, tr func(string) string, symptoms string) {
	g.addSectionHeader(pdf, tr, "Reported Symptoms")

	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		symptoms = "Not specified"
	}
	pdf.MultiCell(0, 5, tr(symptoms), "", "L", false)
	pdf.Ln(5)
}

func (g *PDFGenerator) addConditions(pdf *gofpdf.Fpdf, tr func(string) string, analysis *model.Analysis) {
	if analysis == nil || len(analysis.Conditions) == 0 {
		return
	}
	g.addSectionHeader(pdf, tr, "Possible Conditions")

	for _, condition := range analysis.Conditions {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s (%d%%)", condition.Name, condition.Probability)), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		if condition.Description != "" {
			pdf.MultiCell(0, 5, tr("  "+condition.Description), "", "L", false)
		}
		pdf.Ln(2)
	}
	pdf.Ln(3)
}

// addReportBody prints the model text. Lines wrapped in ** are headings,
// lines starting with "- " or "* " are bullets.
func (g *PDFGenerator) addReportBody(pdf *gofpdf.Fpdf, tr func(string) string, content string) {
	g.addSectionHeader(pdf, tr, "Clinical Report")

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			pdf.Ln(3)
		case isHeading(line):
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 11)
			pdf.MultiCell(0, 6, tr(strings.Trim(line, "*# :")), "", "L", false)
			pdf.SetFont("Arial", "", 10)
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			pdf.MultiCell(0, 5, tr("  - "+stripEmphasis(line[2:])), "", "L", false)
		default:
			pdf.MultiCell(0, 5, tr(stripEmphasis(line)), "", "L", false)
		}
	}
	pdf.Ln(5)
}

func (g *PDFGenerator) addDisclaimer(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 4, tr(disclaimer), "T", "L", false)
	pdf.SetTextColor(0, 0, 0)
}

func isHeading(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	return strings.HasPrefix(line, "**") && strings.HasSuffix(strings.TrimRight(line, ":"), "**") && len(line) > 4
}

func stripEmphasis(line string) string {
	return strings.ReplaceAll(line, "**", "")
}
