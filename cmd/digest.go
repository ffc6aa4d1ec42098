package cmd

import (
	"github.com/spf13/cobra"

	"compintel/internal/app"
)

func newDigestCmd(app *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "digest [YYYY-MM-DD]",
		Short: "Send the daily intelligence summary for one day (default: yesterday)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := app.DigestPipeline()
			if err != nil {
				return err
			}
			date := ""
			if len(args) == 1 {
				date = args[0]
			}
			return pipeline.Run(cmd.Context(), date)
		},
	}
}
