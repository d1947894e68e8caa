package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

const noProfileContext = "No patient profile provided"

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// BuildProfileContext renders the profile as the text block embedded in the
// analysis prompt. Blank fields are skipped and BMI is only added when both
// height and weight are usable numbers.
func BuildProfileContext(profile *model.UserProfile) string {
	if profile == nil {
		return noProfileContext
	}

	var lines []string
	add := func(format, value string) {
		if v := strings.TrimSpace(value); v != "" {
			lines = append(lines, fmt.Sprintf(format, v))
		}
	}

	add("Name: %s", profile.Name)
	add("Age: %s years", profile.Age)
	add("Gender: %s", profile.Gender)
	add("Height: %s cm", profile.Height)
	add("Weight: %s kg", profile.Weight)

	if bmi, ok := CalculateBMI(profile.Height, profile.Weight); ok {
		lines = append(lines, fmt.Sprintf("BMI: %.1f", bmi))
	}

	if conditions := nonBlank(profile.Conditions); len(conditions) > 0 {
		lines = append(lines, "Medical History: "+strings.Join(conditions, ", "))
	}
	add("Current Medications: %s", profile.Medications)
	add("Known Allergies: %s", profile.Allergies)

	return "Patient Profile:\n" + strings.Join(lines, "\n")
}

// CalculateBMI computes weight / height² from centimetres and kilograms.
// Values are read from their leading number, so "170cm" counts as 170.
func CalculateBMI(heightCM, weightKG string) (float64, bool) {
	height, ok := parseLeadingFloat(heightCM)
	if !ok {
		return 0, false
	}
	weight, ok := parseLeadingFloat(weightKG)
	if !ok {
		return 0, false
	}

	meters := height / 100
	bmi := weight / (meters * meters)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return 0, false
	}
	return bmi, true
}

// parseLeadingFloat returns the positive finite number at the start of s
func parseLeadingFloat(s string) (float64, bool) {
	match := leadingNumber.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) || value <= 0 {
		return 0, false
	}
	return value, true
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
