package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func (a *app) resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the profile, health log and settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("this deletes all local data, pass --yes to confirm")
			}
			if err := a.state.ClearAll(cmd.Context()); err != nil {
				return err
			}
			a.printf("All local data deleted.\n")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm")
	return cmd
}
