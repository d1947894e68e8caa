package service

import (
	"fmt"
	"strings"

	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

// GenerateAnalysisPrompt builds the instruction text sent to the model for a
// symptom analysis. The profile context and symptoms are embedded verbatim.
func GenerateAnalysisPrompt(symptoms, profileContext string) string {
	return fmt.Sprintf(`As a comprehensive medical AI assistant, analyze the following symptoms and provide detailed medical insights with practical guidance.

%s

Symptoms: %s

Please provide an exhaustive analysis in this exact JSON format (no additional text):
{
  "conditions": [
    {
      "name": "Condition Name",
      "probability": 75,
      "description": "Detailed description including pathophysiology, causes, typical progression, complications, and how it specifically relates to the presented symptoms. Include differential diagnosis considerations."
    }
  ],
  "recommendations": [
    "MEDICATIONS: List specific over-the-counter medications, dosages, and frequency. Include prescription medications that might be needed (patient should consult doctor for prescription).",
    "HOME REMEDIES: Detailed natural treatments, herbal remedies, dietary modifications, rest recommendations, hydration guidelines, and self-care measures.",
    "LIFESTYLE CHANGES: Specific modifications to daily routine, exercise recommendations, sleep hygiene, stress management techniques.",
    "DIETARY RECOMMENDATIONS: Foods to eat, foods to avoid, nutritional supplements, meal timing and portion recommendations.",
    "PHYSICAL THERAPY: Exercises, stretches, posture corrections, movement restrictions or recommendations.",
    "MONITORING: What symptoms to track, how often to check vitals, when to measure improvement."
  ],
  "warnings": [
    "RED FLAGS: Immediate emergency signs that require 911/emergency care (e.g., chest pain, difficulty breathing, severe bleeding).",
    "SEEK IMMEDIATE CARE: Symptoms requiring urgent medical attention within hours.",
    "MEDICATION WARNINGS: Drug interactions, contraindications based on allergies and current medications, side effects to watch for.",
    "SAFETY PRECAUTIONS: Activities to avoid, when not to drive, work restrictions, isolation recommendations if contagious.",
    "COMPLICATION ALERTS: Signs that condition is worsening or developing complications."
  ],
  "urgency": "low",
  "next_steps": "IMMEDIATE ACTIONS: What to do in the next 24-48 hours. FOLLOW-UP CARE: When to schedule doctor appointments, what type of specialist to see, what tests might be needed. MONITORING PLAN: How to track symptoms, when to reassess, criteria for seeking additional care. PREVENTION: Steps to prevent recurrence or worsening. EXPECTED TIMELINE: How long symptoms typically last and when to expect improvement."
}

The "urgency" value must be one of "low", "medium" or "high".

IMPORTANT ANALYSIS REQUIREMENTS:
- Consider patient's age, gender, BMI, medical history, current medications, and known allergies for ALL recommendations
- Provide specific medication names, dosages, and frequencies where appropriate
- Include detailed home remedies with preparation instructions
- List specific foods, exercises, and lifestyle modifications
- Mention safety precautions and contraindications
- Include progressive care plans (what to try first, then what to try if no improvement)
- Address medication interactions with current medications and allergies
- Provide realistic timelines for improvement
- Include prevention strategies for future occurrences
- Consider cultural and dietary preferences when possible
- Provide both conventional and alternative treatment options
- Include mental health considerations if relevant
- Address work/activity restrictions if needed`, profileContext, symptoms)
}

// GenerateReportPrompt builds the instruction text for a narrative clinical
// report from a previous analysis.
func GenerateReportPrompt(analysis model.Analysis, profile *model.UserProfile, symptoms string) string {
	patientInfo := "Patient information not provided"
	if profile != nil {
		patientInfo = fmt.Sprintf(`
Patient Information:
- Name: %s
- Age: %s
- Gender: %s
- Height: %s cm
- Weight: %s kg
- Medical Conditions: %s
- Current Medications: %s
- Known Allergies: %s
`,
			orDefault(profile.Name, "N/A"),
			orDefault(profile.Age, "N/A"),
			orDefault(profile.Gender, "N/A"),
			orDefault(profile.Height, "N/A"),
			orDefault(profile.Weight, "N/A"),
			orDefault(strings.Join(nonBlank(profile.Conditions), ", "), "None reported"),
			orDefault(profile.Medications, "None reported"),
			orDefault(profile.Allergies, "None reported"),
		)
	}

	conditions := make([]string, 0, len(analysis.Conditions))
	for _, c := range analysis.Conditions {
		line := fmt.Sprintf("%s (%d%% probability)", c.Name, c.Probability)
		if c.Description != "" {
			line += ": " + c.Description
		}
		conditions = append(conditions, line)
	}

	return fmt.Sprintf(`You are a medical professional creating a comprehensive medical report. Based on the AI analysis provided below, generate a professional medical report in a structured format suitable for healthcare providers.

%s

Chief Complaint: %s

AI Analysis Results:
Urgency Level: %s

Possible Conditions:
%s

Recommendations:
%s

Warnings and Precautions:
%s

Next Steps:
%s

Please create a comprehensive medical report that includes:

1. **PATIENT SUMMARY** - Brief overview of patient demographics and chief complaint
2. **CLINICAL ASSESSMENT** - Professional interpretation of the symptoms and possible conditions
3. **DIFFERENTIAL DIAGNOSIS** - List of potential conditions with clinical reasoning
4. **RECOMMENDED INVESTIGATIONS** - Suggested tests, examinations, or consultations
5. **TREATMENT RECOMMENDATIONS** - Proposed management plan including medications, lifestyle changes
6. **FOLLOW-UP CARE** - Monitoring plan and when to seek further medical attention
7. **PATIENT EDUCATION** - Important information for the patient about their condition
8. **MEDICAL DISCLAIMERS** - Professional disclaimers about AI-assisted analysis

Format the report professionally with clear headings, proper medical terminology, and maintain a clinical tone throughout. The report should be suitable for sharing with healthcare providers and serve as a comprehensive medical document.

IMPORTANT: This is an AI-assisted analysis and should be clearly stated in the report. Include appropriate medical disclaimers about the need for professional medical evaluation.`,
		patientInfo,
		orDefault(symptoms, "Not specified"),
		orDefault(analysis.Urgency, "Not specified"),
		orDefault(strings.Join(conditions, "\n"), "No conditions analyzed"),
		orDefault(strings.Join(analysis.Recommendations, "\n"), "No recommendations provided"),
		orDefault(strings.Join(analysis.Warnings, "\n"), "No warnings provided"),
		orDefault(analysis.NextSteps, "Not specified"),
	)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
