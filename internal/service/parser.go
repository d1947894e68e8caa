package service

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

const (
	fallbackExcerptLength = 1500

	fallbackConditionName        = "Analysis Available"
	fallbackConditionDescription = "Please see detailed response below"
	fallbackWarning              = "Please consult a healthcare professional for proper diagnosis"
	fallbackUrgency              = "medium"
	fallbackNextSteps            = "Consider consulting with a healthcare provider for comprehensive evaluation and personalized treatment plan"
)

// ResponseMessages holds the user-facing text attached to response errors
type ResponseMessages struct {
	NoCandidates string
	Safety       string
	Truncated    string
	NoText       string
}

// AnalysisMessages are used by the symptom analysis pipeline
var AnalysisMessages = ResponseMessages{
	NoCandidates: "No analysis could be generated. Please try rephrasing your symptoms.",
	Safety:       "Content was blocked for safety reasons. Please rephrase your symptoms.",
	Truncated:    "Response was too long. Please try describing fewer symptoms or be more specific.",
	NoText:       "Invalid response from AI service. Please try again.",
}

// ReportMessages are used by the report pipeline
var ReportMessages = ResponseMessages{
	NoCandidates: "No report could be generated. Please try again.",
	Safety:       "Content was blocked for safety reasons. Please try again.",
	Truncated:    "Report was too long. Please try again.",
	NoText:       "Invalid response from report generation service. Please try again.",
}

// ParseAnalysis turns a raw completion into an Analysis.
//
// Finish reasons are checked before the text, so a safety block wins even
// when partial text came back. Text that is not JSON at all yields a
// fallback analysis wrapping the raw answer. JSON that lacks one of the
// required arrays is an InvalidStructureError.
func ParseAnalysis(c *llm.Completion) (*model.Analysis, error) {
	text, err := completionText(c, AnalysisMessages)
	if err != nil {
		return nil, err
	}

	cleaned := stripCodeFence(text)

	var decoded any
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return fallbackAnalysis(text), nil
	}
	// anything after the value, including a stray closing bracket, is not JSON
	if _, err := decoder.Token(); err != io.EOF {
		return fallbackAnalysis(text), nil
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, &InvalidStructureError{Field: "conditions"}
	}
	for _, field := range []string{"conditions", "recommendations", "warnings"} {
		if _, ok := object[field].([]any); !ok {
			return nil, &InvalidStructureError{Field: field}
		}
	}

	return normalizeAnalysis(object), nil
}

// ReportText extracts the free-text report from a completion. A truncated
// report is still returned, the caller decides whether to warn about it.
func ReportText(c *llm.Completion) (string, error) {
	if c != nil && c.FinishReason == llm.FinishLengthTruncated {
		if c.HasText {
			return c.Text, nil
		}
		return "", &ResponseError{Kind: ErrEmptyResponse, Message: ReportMessages.NoText}
	}
	return completionText(c, ReportMessages)
}

func completionText(c *llm.Completion, messages ResponseMessages) (string, error) {
	if c == nil || c.FinishReason == llm.FinishNone {
		return "", &ResponseError{Kind: ErrEmptyResponse, Message: messages.NoCandidates}
	}
	switch c.FinishReason {
	case llm.FinishSafetyBlocked:
		return "", &ResponseError{Kind: ErrSafetyBlocked, Message: messages.Safety}
	case llm.FinishLengthTruncated:
		return "", &ResponseError{Kind: ErrTruncatedResponse, Message: messages.Truncated}
	}
	if !c.HasText || strings.TrimSpace(c.Text) == "" {
		return "", &ResponseError{Kind: ErrEmptyResponse, Message: messages.NoText}
	}
	return c.Text, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
			text = text[4:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

func fallbackAnalysis(raw string) *model.Analysis {
	excerpt := raw
	if runes := []rune(raw); len(runes) > fallbackExcerptLength {
		excerpt = string(runes[:fallbackExcerptLength]) + "..."
	}

	return &model.Analysis{
		Conditions: []model.Condition{{
			Name:        fallbackConditionName,
			Probability: 0,
			Description: fallbackConditionDescription,
		}},
		Recommendations: []string{excerpt},
		Warnings:        []string{fallbackWarning},
		Urgency:         fallbackUrgency,
		NextSteps:       fallbackNextSteps,
	}
}

// normalizeAnalysis copies a decoded JSON object into an Analysis, tolerating
// the small type drifts models produce (numeric strings, nested objects).
func normalizeAnalysis(object map[string]any) *model.Analysis {
	analysis := &model.Analysis{
		Conditions:      []model.Condition{},
		Recommendations: textList(object["recommendations"]),
		Warnings:        textList(object["warnings"]),
		Urgency:         textValue(object["urgency"]),
		NextSteps:       textValue(object["next_steps"]),
	}

	items, _ := object["conditions"].([]any)
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			analysis.Conditions = append(analysis.Conditions, model.Condition{
				Name:        textValue(v["name"]),
				Probability: probability(v["probability"]),
				Description: textValue(v["description"]),
			})
		case string:
			analysis.Conditions = append(analysis.Conditions, model.Condition{Name: v})
		}
	}
	return analysis
}

func textList(value any) []string {
	items, _ := value.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, textValue(item))
	}
	return out
}

func textValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(v); err != nil {
			return ""
		}
		return strings.TrimSpace(buf.String())
	}
}

// probability reads a 0-100 value from a number or numeric string
func probability(value any) int {
	var f float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}
