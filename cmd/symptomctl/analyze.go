package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

const analysisSource = llm.DefaultGeminiModel

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [symptoms...]",
		Short: "Analyze symptoms and save the result to the health log",
		Example: `  symptomctl analyze "throbbing headache since yesterday, light sensitivity"
  symptomctl analyze --quick Fever --quick Cough "started two days ago"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			quick, _ := cmd.Flags().GetStringSlice("quick")
			withoutProfile, _ := cmd.Flags().GetBool("no-profile")

			symptoms, err := composeSymptoms(quick, args)
			if err != nil {
				return err
			}

			req := model.SymptomRequest{Symptoms: symptoms}
			if !withoutProfile {
				profile, err := a.state.Profile(cmd.Context())
				if err != nil {
					return err
				}
				if profile == nil || !profile.IsComplete() {
					a.printf("Note: your profile is incomplete, results may be less personalised.\n\n")
				}
				req.UserProfile = profile
			}

			result, err := a.api.AnalyzeSymptoms(cmd.Context(), req)
			if err != nil {
				return err
			}

			entry, err := a.state.AppendEntry(cmd.Context(), model.HealthLogEntry{
				Type:     model.EntryTypeSymptomAnalysis,
				Symptoms: symptoms,
				Analysis: &result.Analysis,
				Source:   analysisSource,
			})
			if err != nil {
				return err
			}

			a.printf("%s\n\n", result.Message)
			a.printAnalysis(&result.Analysis)
			a.printf("\nSaved to health log as %s\n", entry.ID)
			return nil
		},
	}

	cmd.Flags().StringSlice("quick", nil, fmt.Sprintf("add a common symptom (%s)", strings.Join(model.CommonSymptoms, ", ")))
	cmd.Flags().Bool("no-profile", false, "do not send the saved profile")
	return cmd
}

// composeSymptoms joins quick picks and free text the way the chat input does
func composeSymptoms(quick, args []string) (string, error) {
	var parts []string
	for _, q := range quick {
		if q = strings.TrimSpace(q); q != "" {
			parts = append(parts, q)
		}
	}
	if text := strings.TrimSpace(strings.Join(args, " ")); text != "" {
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return "", errors.New("describe your symptoms as arguments or with --quick")
	}
	return strings.Join(parts, ", "), nil
}

func (a *app) printAnalysis(analysis *model.Analysis) {
	if len(analysis.Conditions) > 0 {
		a.printf("Possible conditions:\n")
		for _, condition := range analysis.Conditions {
			a.printf("  - %s (%d%%)\n", condition.Name, condition.Probability)
			if condition.Description != "" {
				a.printf("      %s\n", condition.Description)
			}
		}
	}
	if len(analysis.Recommendations) > 0 {
		a.printf("Recommendations:\n")
		for _, r := range analysis.Recommendations {
			a.printf("  - %s\n", r)
		}
	}
	if len(analysis.Warnings) > 0 {
		a.printf("Warning signs:\n")
		for _, w := range analysis.Warnings {
			a.printf("  ! %s\n", w)
		}
	}
	if analysis.Urgency != "" {
		a.printf("Urgency: %s\n", analysis.Urgency)
	}
	if analysis.NextSteps != "" {
		a.printf("Next steps: %s\n", analysis.NextSteps)
	}
}
