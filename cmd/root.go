package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "compintel",
		Short:         "Competitor intelligence monitor: poll social accounts, analyze with an LLM, post digests to Slack",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app := wireApp()

	rootCmd.AddCommand(
		newScanCmd(app),
		newFullScanCmd(app),
		newLinkedInCmd(app),
		newDigestCmd(app),
		newPrecacheCmd(app),
		newStatusCmd(app),
		newServeCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
