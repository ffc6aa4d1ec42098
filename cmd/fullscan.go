package cmd

import (
	"github.com/spf13/cobra"

	"compintel/internal/app"
)

func newFullScanCmd(app *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "fullscan",
		Short: "Scan every roster account once, ignoring the rotation cursor",
		Long:  "Walks the whole roster with long pauses between accounts, posting findings per account as they come in plus a combined summary at the end. Useful after downtime or before a board update.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipeline, err := app.ScanPipeline()
			if err != nil {
				return err
			}
			return pipeline.FullScan(cmd.Context())
		},
	}
}
