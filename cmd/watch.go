package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"compintel/internal/app"
)

func newWatchCmd(app *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run scan cycles on the cron cadence until interrupted",
		Long:  "Starts the cron scheduler and runs one rotation scan per tick. Each tick also checks the daily digest window, so a cadence that lands on the configured minute sends the morning summary too.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			watch, err := app.Watch()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := watch.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return watch.Stop(shutdownCtx)
		},
	}
}
