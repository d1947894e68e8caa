package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change app preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.state.Settings(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(settings)
		},
	})

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.state.Settings(cmd.Context())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("dark-mode") && !flags.Changed("notifications") &&
				!flags.Changed("language") && !flags.Changed("data-sharing") {
				return fmt.Errorf("no settings given, see --help")
			}
			if flags.Changed("dark-mode") {
				settings.DarkMode, _ = flags.GetBool("dark-mode")
			}
			if flags.Changed("notifications") {
				settings.Notifications, _ = flags.GetBool("notifications")
			}
			if flags.Changed("language") {
				settings.Language, _ = flags.GetString("language")
			}
			if flags.Changed("data-sharing") {
				settings.DataSharing, _ = flags.GetBool("data-sharing")
			}

			if err := a.state.SaveSettings(cmd.Context(), settings); err != nil {
				return err
			}
			return a.printJSON(settings)
		},
	}
	setCmd.Flags().Bool("dark-mode", false, "use the dark theme")
	setCmd.Flags().Bool("notifications", true, "enable notifications")
	setCmd.Flags().String("language", "en", "interface language")
	setCmd.Flags().Bool("data-sharing", false, "share anonymised data")
	cmd.AddCommand(setCmd)

	return cmd
}
