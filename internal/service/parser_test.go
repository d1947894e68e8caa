package service

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

const wellFormedAnalysis = `{
  "conditions": [
    {"name": "Common cold", "probability": 70, "description": "Viral infection"},
    {"name": "Influenza", "probability": 20}
  ],
  "recommendations": ["Rest", "Drink fluids"],
  "warnings": ["Seek care if breathing becomes difficult"],
  "urgency": "low",
  "next_steps": "Monitor for 3 days"
}`

func TestParseAnalysis_WellFormedPassesThrough(t *testing.T) {
	expected := &model.Analysis{
		Conditions: []model.Condition{
			{Name: "Common cold", Probability: 70, Description: "Viral infection"},
			{Name: "Influenza", Probability: 20},
		},
		Recommendations: []string{"Rest", "Drink fluids"},
		Warnings:        []string{"Seek care if breathing becomes difficult"},
		Urgency:         "low",
		NextSteps:       "Monitor for 3 days",
	}

	tests := []struct {
		name string
		text string
	}{
		{"plain json", wellFormedAnalysis},
		{"json code fence", "```json\n" + wellFormedAnalysis + "\n```"},
		{"bare code fence", "```\n" + wellFormedAnalysis + "\n```"},
		{"surrounding whitespace", "\n\n  " + wellFormedAnalysis + "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := ParseAnalysis(llm.NewTextCompletion(tt.text))
			require.NoError(t, err)
			assert.Equal(t, expected, analysis)
		})
	}
}

func TestParseAnalysis_FinishReasons(t *testing.T) {
	tests := []struct {
		name       string
		completion *llm.Completion
		wantKind   error
		wantMsg    string
	}{
		{
			name:       "no candidates",
			completion: &llm.Completion{FinishReason: llm.FinishNone},
			wantKind:   ErrEmptyResponse,
			wantMsg:    "No analysis could be generated. Please try rephrasing your symptoms.",
		},
		{
			name:       "nil completion",
			completion: nil,
			wantKind:   ErrEmptyResponse,
		},
		{
			name: "safety block wins over valid text",
			completion: &llm.Completion{
				FinishReason: llm.FinishSafetyBlocked,
				Text:         wellFormedAnalysis,
				HasText:      true,
			},
			wantKind: ErrSafetyBlocked,
			wantMsg:  "Content was blocked for safety reasons. Please rephrase your symptoms.",
		},
		{
			name: "length truncated",
			completion: &llm.Completion{
				FinishReason: llm.FinishLengthTruncated,
				Text:         `{"conditions": [`,
				HasText:      true,
			},
			wantKind: ErrTruncatedResponse,
			wantMsg:  "Response was too long. Please try describing fewer symptoms or be more specific.",
		},
		{
			name:       "completed without text",
			completion: &llm.Completion{FinishReason: llm.FinishCompleted},
			wantKind:   ErrEmptyResponse,
			wantMsg:    "Invalid response from AI service. Please try again.",
		},
		{
			name:       "other finish reason without text",
			completion: &llm.Completion{FinishReason: llm.FinishOther},
			wantKind:   ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := ParseAnalysis(tt.completion)
			assert.Nil(t, analysis)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestParseAnalysis_FallbackForNonJSON(t *testing.T) {
	text := "Based on your symptoms you most likely have a cold."
	analysis, err := ParseAnalysis(llm.NewTextCompletion(text))
	require.NoError(t, err)

	require.Len(t, analysis.Conditions, 1)
	assert.Equal(t, "Analysis Available", analysis.Conditions[0].Name)
	assert.Equal(t, 0, analysis.Conditions[0].Probability)
	assert.Equal(t, "Please see detailed response below", analysis.Conditions[0].Description)
	assert.Equal(t, []string{text}, analysis.Recommendations)
	assert.Equal(t, []string{"Please consult a healthcare professional for proper diagnosis"}, analysis.Warnings)
	assert.Equal(t, "medium", analysis.Urgency)
	assert.Equal(t, "Consider consulting with a healthcare provider for comprehensive evaluation and personalized treatment plan", analysis.NextSteps)
}

func TestParseAnalysis_FallbackTruncatesLongText(t *testing.T) {
	text := strings.Repeat("é", 2000)
	analysis, err := ParseAnalysis(llm.NewTextCompletion(text))
	require.NoError(t, err)

	excerpt := analysis.Recommendations[0]
	assert.True(t, strings.HasSuffix(excerpt, "..."))
	assert.Equal(t, 1503, utf8.RuneCountInString(excerpt))
	assert.True(t, utf8.ValidString(excerpt))
}

func TestParseAnalysis_TrailingProseFallsBack(t *testing.T) {
	analysis, err := ParseAnalysis(llm.NewTextCompletion(wellFormedAnalysis + "\nHope this helps!"))
	require.NoError(t, err)
	assert.Equal(t, "Analysis Available", analysis.Conditions[0].Name)
}

func TestParseAnalysis_InvalidStructure(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
	}{
		{"missing warnings", `{"conditions": [], "recommendations": []}`, "warnings"},
		{"missing conditions", `{"recommendations": [], "warnings": []}`, "conditions"},
		{"recommendations not an array", `{"conditions": [], "recommendations": "rest", "warnings": []}`, "recommendations"},
		{"top level array", `[1, 2, 3]`, "conditions"},
		{"top level string", `"just text"`, "conditions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := ParseAnalysis(llm.NewTextCompletion(tt.text))
			assert.Nil(t, analysis)

			var structureErr *InvalidStructureError
			require.True(t, errors.As(err, &structureErr), "got %v", err)
			assert.Equal(t, tt.field, structureErr.Field)
			assert.Equal(t, "Invalid analysis structure: missing "+tt.field+" array", err.Error())
		})
	}
}

// Parseable JSON with the wrong shape is reported as an error while text that
// is not JSON at all is wrapped in a fallback analysis. This mirrors how the
// symptom checker has always behaved and may be accidental; it is kept as is
// until the product decides whether wrong-shape JSON should fall back too.
func TestParseAnalysis_StructurallyInvalidJSONIsNotReplacedByFallback(t *testing.T) {
	_, err := ParseAnalysis(llm.NewTextCompletion(`{"conditions": [], "recommendations": []}`))
	var structureErr *InvalidStructureError
	assert.True(t, errors.As(err, &structureErr))

	analysis, err := ParseAnalysis(llm.NewTextCompletion(`{"conditions": [`))
	require.NoError(t, err)
	assert.Equal(t, "medium", analysis.Urgency)
}

func TestParseAnalysis_TrailingGarbageFallsBack(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "extra closing brace on partial object", text: `{"conditions":[]}}`},
		{name: "extra closing brace on full object", text: `{"conditions":[],"recommendations":[],"warnings":[]}}`},
		{name: "extra closing bracket", text: `{"conditions":[],"recommendations":[],"warnings":[]}]`},
		{name: "second value", text: `{"conditions":[],"recommendations":[],"warnings":[]} {"a":1}`},
		{name: "trailing prose", text: `{"conditions":[],"recommendations":[],"warnings":[]} hope this helps`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := ParseAnalysis(llm.NewTextCompletion(tt.text))
			require.NoError(t, err)
			require.NotNil(t, analysis)
			require.Len(t, analysis.Conditions, 1)
			assert.Equal(t, "Analysis Available", analysis.Conditions[0].Name)
			assert.Equal(t, "medium", analysis.Urgency)
		})
	}

	analysis, err := ParseAnalysis(llm.NewTextCompletion("{\"conditions\":[],\"recommendations\":[],\"warnings\":[]}\n\n"))
	require.NoError(t, err)
	assert.Empty(t, analysis.Conditions)
}

func TestParseAnalysis_NormalizesDrift(t *testing.T) {
	text := `{
  "conditions": [
    {"name": "Flu", "probability": "80%"},
    {"name": "Cold", "probability": 150},
    {"name": "Allergy", "probability": 12.6},
    {"name": "Other", "probability": -5},
    "Sinusitis"
  ],
  "recommendations": ["Rest", {"item": "fluids"}, null],
  "warnings": [],
  "urgency": "HIGH",
  "next_steps": {"immediate": "rest"}
}`
	analysis, err := ParseAnalysis(llm.NewTextCompletion(text))
	require.NoError(t, err)

	require.Len(t, analysis.Conditions, 5)
	assert.Equal(t, 80, analysis.Conditions[0].Probability)
	assert.Equal(t, 100, analysis.Conditions[1].Probability)
	assert.Equal(t, 13, analysis.Conditions[2].Probability)
	assert.Equal(t, 0, analysis.Conditions[3].Probability)
	assert.Equal(t, "Sinusitis", analysis.Conditions[4].Name)
	assert.Equal(t, []string{"Rest", `{"item":"fluids"}`}, analysis.Recommendations)
	assert.Equal(t, []string{}, analysis.Warnings)
	assert.Equal(t, "HIGH", analysis.Urgency)
	assert.Equal(t, model.UrgencyHigh, analysis.UrgencyLevel())
	assert.Equal(t, `{"immediate":"rest"}`, analysis.NextSteps)
}

func TestProperty_FallbackWrapsUnparseableText(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non JSON text yields a medium urgency fallback quoting the text", prop.ForAll(
		func(body string) bool {
			text := "Note: " + body
			analysis, err := ParseAnalysis(llm.NewTextCompletion(text))
			if err != nil {
				return false
			}
			runes := []rune(text)
			prefix := text
			if len(runes) > 1500 {
				prefix = string(runes[:1500])
			}
			return analysis.Urgency == "medium" &&
				len(analysis.Recommendations) == 1 &&
				strings.HasPrefix(analysis.Recommendations[0], prefix)
		},
		gen.AnyString(),
	))

	properties.Property("a valid object followed by stray closers never raises", prop.ForAll(
		func(closers []bool, withArrays bool) bool {
			text := `{"conditions":[]`
			if withArrays {
				text += `,"recommendations":[],"warnings":[]`
			}
			text += "}"
			for _, brace := range closers {
				if brace {
					text += "}"
				} else {
					text += "]"
				}
			}
			analysis, err := ParseAnalysis(llm.NewTextCompletion(text))
			if err != nil {
				return false
			}
			return analysis.Urgency == "medium" && len(analysis.Conditions) == 1
		},
		gen.SliceOfN(3, gen.Bool()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestReportText(t *testing.T) {
	report, err := ReportText(llm.NewTextCompletion("**1. PATIENT SUMMARY**"))
	require.NoError(t, err)
	assert.Equal(t, "**1. PATIENT SUMMARY**", report)

	report, err = ReportText(&llm.Completion{FinishReason: llm.FinishLengthTruncated, Text: "partial", HasText: true})
	require.NoError(t, err)
	assert.Equal(t, "partial", report)

	_, err = ReportText(&llm.Completion{FinishReason: llm.FinishSafetyBlocked, Text: "x", HasText: true})
	assert.True(t, errors.Is(err, ErrSafetyBlocked))
	assert.Equal(t, "Content was blocked for safety reasons. Please try again.", err.Error())

	_, err = ReportText(&llm.Completion{FinishReason: llm.FinishNone})
	assert.True(t, errors.Is(err, ErrEmptyResponse))
	assert.Equal(t, "No report could be generated. Please try again.", err.Error())

	_, err = ReportText(&llm.Completion{FinishReason: llm.FinishCompleted})
	assert.Equal(t, "Invalid response from report generation service. Please try again.", err.Error())
}
