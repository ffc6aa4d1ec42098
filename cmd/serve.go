package cmd

import (
	"github.com/spf13/cobra"

	"compintel/internal/app"
)

func newServeCmd(app *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the /intel slash command and health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler, err := app.Server()
			if err != nil {
				return err
			}
			return handler.Router().Run(app.Config().Server.Addr)
		},
	}
}
