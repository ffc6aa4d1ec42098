package cmd

import (
	"github.com/spf13/cobra"

	"compintel/internal/app"
)

func newPrecacheCmd(app *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "precache",
		Short: "Warm the user-id cache for roster handles not yet resolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := app.Precache()
			if err != nil {
				return err
			}
			return job.Run(cmd.Context())
		},
	}
}
