package cmd

import (
	"github.com/spf13/cobra"

	"compintel/internal/app"
)

func newScanCmd(app *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one rotation batch: fetch posts, analyze, notify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipeline, err := app.ScanPipeline()
			if err != nil {
				return err
			}
			return pipeline.ScanBatch(cmd.Context())
		},
	}
}
