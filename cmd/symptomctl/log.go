package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func (a *app) logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Browse the local health log",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List analyses and reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.state.HealthLog(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.printf("Your health log is empty.\n")
				return nil
			}

			for i := len(entries) - 1; i >= 0; i-- {
				entry := entries[i]
				entryType := string(entry.Type)
				if entryType == "" {
					entryType = "entry"
				}
				a.printf("%s  %-16s  %-16s  %s\n", entry.ID, formatDate(entry.Date), entryType, truncate(entry.Symptoms, 60))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <entry-id>",
		Short: "Print one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := a.state.FindEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			a.printf("%s\n", formatDate(entry.Date))
			a.printf("Symptoms: %s\n", entry.Symptoms)
			if entry.Source != "" {
				a.printf("Source: %s\n", entry.Source)
			}
			if entry.Analysis != nil {
				a.printf("\n")
				a.printAnalysis(entry.Analysis)
			}
			if entry.ReportContent != "" {
				a.printf("\n%s\n", entry.ReportContent)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.state.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Deleted %s\n", args[0])
			return nil
		},
	})

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to clear the health log without --yes")
			}
			if err := a.state.ClearLog(cmd.Context()); err != nil {
				return err
			}
			a.printf("Health log cleared.\n")
			return nil
		},
	}
	clearCmd.Flags().Bool("yes", false, "confirm")
	cmd.AddCommand(clearCmd)

	return cmd
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
