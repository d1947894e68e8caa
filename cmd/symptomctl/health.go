package main

import (
	"github.com/spf13/cobra"
)

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.api.Health(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(status)
		},
	}
}
