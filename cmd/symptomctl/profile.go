package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/symptom-checker/internal/service"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
)

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the patient profile sent with every analysis",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.state.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if profile == nil {
				a.printf("No profile saved. Use 'symptomctl profile set' to create one.\n")
				return nil
			}
			return a.printJSON(profile)
		},
	})

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.state.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if profile == nil {
				profile = &model.UserProfile{}
			}

			flags := cmd.Flags()
			fields := map[string]*string{
				"name":        &profile.Name,
				"age":         &profile.Age,
				"gender":      &profile.Gender,
				"height":      &profile.Height,
				"weight":      &profile.Weight,
				"medications": &profile.Medications,
				"allergies":   &profile.Allergies,
				"area":        &profile.Area,
				"city":        &profile.City,
				"state":       &profile.State,
				"country":     &profile.Country,
			}
			changed := 0
			for name, target := range fields {
				if flags.Changed(name) {
					*target, _ = flags.GetString(name)
					changed++
				}
			}
			if flags.Changed("conditions") {
				conditions, _ := flags.GetStringSlice("conditions")
				profile.Conditions = conditions
				changed++
			}
			if changed == 0 {
				return fmt.Errorf("no profile fields given, see --help")
			}

			if err := a.state.SaveProfile(cmd.Context(), *profile); err != nil {
				return err
			}
			a.printf("Profile saved.\n")
			if missing := profile.MissingRequiredFields(); len(missing) > 0 {
				a.printf("Still missing: %s\n", strings.Join(missing, ", "))
			}
			return nil
		},
	}
	for _, name := range []string{"name", "age", "gender", "height", "weight", "medications", "allergies", "area", "city", "state", "country"} {
		setCmd.Flags().String(name, "", "profile "+name)
	}
	setCmd.Flags().StringSlice("conditions", nil, "pre-existing conditions, comma separated")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the saved profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.state.ClearProfile(cmd.Context()); err != nil {
				return err
			}
			a.printf("Profile cleared.\n")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report missing required fields and the BMI",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.state.Profile(cmd.Context())
			if err != nil {
				return err
			}

			if missing := profile.MissingRequiredFields(); len(missing) > 0 {
				a.printf("Profile incomplete. Missing: %s\n", strings.Join(missing, ", "))
			} else {
				a.printf("Profile complete.\n")
			}
			if profile != nil {
				if bmi, ok := service.CalculateBMI(profile.Height, profile.Weight); ok {
					a.printf("BMI: %.1f\n", bmi)
				}
			}
			return nil
		},
	})

	return cmd
}
