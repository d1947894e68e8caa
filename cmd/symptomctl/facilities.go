package main

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

const defaultFacilityType = "clinics+hospitals"

func (a *app) facilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "facilities [type]",
		Short: "Print a map link for healthcare facilities near the profile location",
		Example: `  symptomctl facilities
  symptomctl facilities pharmacies`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facilityType := defaultFacilityType
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				facilityType = strings.Join(strings.Fields(args[0]), "+")
			}

			profile, err := a.state.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if len(profile.Location()) == 0 {
				a.printf("No location in your profile, searching near you.\n")
			}
			a.printf("%s\n", facilitiesMapURL(facilityType, profile))
			return nil
		},
	}
}

// facilitiesMapURL builds an embeddable maps search for facilityType around
// the profile location, or "near me" without one.
func facilitiesMapURL(facilityType string, profile *model.UserProfile) string {
	location := "near+me"
	if parts := profile.Location(); len(parts) > 0 {
		escaped := make([]string, len(parts))
		for i, part := range parts {
			escaped[i] = url.QueryEscape(part)
		}
		location = "in+" + strings.Join(escaped, "+")
	}
	return "https://www.google.com/maps?q=" + facilityType + "+" + location + "&z=12&output=embed"
}
