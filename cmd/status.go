package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"compintel/internal/app"
)

func newStatusCmd(app *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show rotation progress, cache size, and ledger state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), app.StatusReport())
			return nil
		},
	}
}
