package model

import (
	"strings"
	"time"
)

// UserProfile holds the optional patient details sent alongside symptoms.
// Every field is free-form text entered by the user.
type UserProfile struct {
	Name        string   `json:"name,omitempty"`
	Age         string   `json:"age,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Height      string   `json:"height,omitempty"`
	Weight      string   `json:"weight,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
	Medications string   `json:"medications,omitempty"`
	Allergies   string   `json:"allergies,omitempty"`
	Area        string   `json:"area,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	Country     string   `json:"country,omitempty"`
}

// MissingRequiredFields lists the basic fields a profile needs before it is
// considered complete.
func (p *UserProfile) MissingRequiredFields() []string {
	if p == nil {
		return []string{"name", "age", "gender", "height", "weight"}
	}

	required := []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"age", p.Age},
		{"gender", p.Gender},
		{"height", p.Height},
		{"weight", p.Weight},
	}

	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// IsComplete reports whether name, age, gender, height and weight are set.
func (p *UserProfile) IsComplete() bool {
	return len(p.MissingRequiredFields()) == 0
}

// Location returns the non-blank location parts, most specific first.
func (p *UserProfile) Location() []string {
	if p == nil {
		return nil
	}
	var parts []string
	for _, part := range []string{p.Area, p.City, p.State, p.Country} {
		if s := strings.TrimSpace(part); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// SymptomRequest is the body of an analyze call
type SymptomRequest struct {
	Symptoms    string       `json:"symptoms"`
	UserProfile *UserProfile `json:"userProfile,omitempty"`
}

// Condition is one candidate diagnosis in an analysis
type Condition struct {
	Name        string `json:"name"`
	Probability int    `json:"probability"`
	Description string `json:"description,omitempty"`
}

// UrgencyLevel is the normalized urgency of an analysis
type UrgencyLevel string

const (
	UrgencyLow     UrgencyLevel = "low"
	UrgencyMedium  UrgencyLevel = "medium"
	UrgencyHigh    UrgencyLevel = "high"
	UrgencyUnknown UrgencyLevel = "unknown"
)

// Analysis is the structured result of a symptom analysis
type Analysis struct {
	Conditions      []Condition `json:"conditions"`
	Recommendations []string    `json:"recommendations"`
	Warnings        []string    `json:"warnings"`
	Urgency         string      `json:"urgency,omitempty"`
	NextSteps       string      `json:"next_steps,omitempty"`
}

// UrgencyLevel maps the free-text urgency onto low, medium or high.
// The raw value stays untouched in Urgency.
func (a *Analysis) UrgencyLevel() UrgencyLevel {
	switch UrgencyLevel(strings.ToLower(strings.TrimSpace(a.Urgency))) {
	case UrgencyLow:
		return UrgencyLow
	case UrgencyMedium:
		return UrgencyMedium
	case UrgencyHigh:
		return UrgencyHigh
	default:
		return UrgencyUnknown
	}
}

// ReportRequest is the body of a report generation call
type ReportRequest struct {
	AnalysisData *Analysis    `json:"analysisData"`
	UserProfile  *UserProfile `json:"userProfile,omitempty"`
	Symptoms     string       `json:"symptoms"`
}

// ReportContent is the payload returned by a successful report generation
type ReportContent struct {
	ReportContent string `json:"reportContent"`
}

// ErrorCode is the closed set of error codes carried by error envelopes
type ErrorCode string

const (
	ErrorCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrorCodeAPIKeyMissing  ErrorCode = "API_KEY_MISSING"
	ErrorCodeSafetyBlock    ErrorCode = "SAFETY_BLOCK"
	ErrorCodeMaxTokens      ErrorCode = "MAX_TOKENS"
	ErrorCodeGeminiAPIError ErrorCode = "GEMINI_API_ERROR"
	ErrorCodeAnalysisError  ErrorCode = "ANALYSIS_ERROR"
	ErrorCodeInternalError  ErrorCode = "INTERNAL_ERROR"
)

// APIResponse is the uniform envelope returned by every pipeline endpoint.
// Success responses carry Analysis and Message, failures carry Error, Code
// and optionally Details.
type APIResponse struct {
	Success  bool      `json:"success"`
	Analysis any       `json:"analysis,omitempty"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
	Code     ErrorCode `json:"code,omitempty"`
	Details  string    `json:"details,omitempty"`
}

// HealthLogEntryType distinguishes analyses from generated reports in the log
type HealthLogEntryType string

const (
	EntryTypeSymptomAnalysis HealthLogEntryType = "symptom-analysis"
	EntryTypeMedicalReport   HealthLogEntryType = "medical-report"
)

// HealthLogEntry is one record in the local health log
type HealthLogEntry struct {
	ID            string             `json:"id"`
	Date          time.Time          `json:"date"`
	Type          HealthLogEntryType `json:"type,omitempty"`
	Symptoms      string             `json:"symptoms"`
	Analysis      *Analysis          `json:"analysis,omitempty"`
	ReportContent string             `json:"reportContent,omitempty"`
	Source        string             `json:"source,omitempty"`
}

// AppSettings holds the client preferences
type AppSettings struct {
	DarkMode      bool   `json:"darkMode"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
	DataSharing   bool   `json:"dataSharing"`
}

// DefaultAppSettings returns the settings used before the user changes anything
func DefaultAppSettings() AppSettings {
	return AppSettings{
		DarkMode:      false,
		Notifications: true,
		Language:      "en",
		DataSharing:   false,
	}
}

// CommonSymptoms are offered as quick picks when describing symptoms
var CommonSymptoms = []string{
	"Headache",
	"Fever",
	"Cough",
	"Fatigue",
	"Nausea",
	"Sore throat",
	"Body aches",
	"Dizziness",
	"Chest pain",
	"Shortness of breath",
}
