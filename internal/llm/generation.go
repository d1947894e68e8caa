package llm

// HarmCategory names a content category the provider can filter on
type HarmCategory string

const (
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// BlockThreshold is the probability at which a category gets blocked
type BlockThreshold string

const (
	BlockNone           BlockThreshold = "BLOCK_NONE"
	BlockOnlyHigh       BlockThreshold = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove BlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockLowAndAbove    BlockThreshold = "BLOCK_LOW_AND_ABOVE"
)

// ValidThreshold reports whether t is one of the known thresholds
func ValidThreshold(t BlockThreshold) bool {
	switch t {
	case BlockNone, BlockOnlyHigh, BlockMediumAndAbove, BlockLowAndAbove:
		return true
	}
	return false
}

// SafetySetting pairs a harm category with its block threshold
type SafetySetting struct {
	Category  HarmCategory   `json:"category"`
	Threshold BlockThreshold `json:"threshold"`
}

// Generation defaults shared by both pipelines
const (
	DefaultTopK                = 32
	DefaultTopP                = 1.0
	DefaultMaxOutputTokens     = 4096
	DefaultAnalysisTemperature = 0.3
	DefaultReportTemperature   = 0.2
	DefaultSafetyThreshold     = BlockMediumAndAbove
)

// GenerationConfig controls sampling and content filtering for one call
type GenerationConfig struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
	SafetySettings  []SafetySetting
}

// SafetySettings returns the four harm categories at the given threshold
func SafetySettings(threshold BlockThreshold) []SafetySetting {
	return []SafetySetting{
		{Category: HarmCategoryHarassment, Threshold: threshold},
		{Category: HarmCategoryHateSpeech, Threshold: threshold},
		{Category: HarmCategorySexuallyExplicit, Threshold: threshold},
		{Category: HarmCategoryDangerousContent, Threshold: threshold},
	}
}

// DefaultSafetySettings blocks every category at medium probability and above
func DefaultSafetySettings() []SafetySetting {
	return SafetySettings(DefaultSafetyThreshold)
}

// AnalysisGenerationConfig is used for symptom analysis
func AnalysisGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     DefaultAnalysisTemperature,
		TopK:            DefaultTopK,
		TopP:            DefaultTopP,
		MaxOutputTokens: DefaultMaxOutputTokens,
		SafetySettings:  DefaultSafetySettings(),
	}
}

// ReportGenerationConfig is used for report generation
func ReportGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     DefaultReportTemperature,
		TopK:            DefaultTopK,
		TopP:            DefaultTopP,
		MaxOutputTokens: DefaultMaxOutputTokens,
		SafetySettings:  DefaultSafetySettings(),
	}
}
