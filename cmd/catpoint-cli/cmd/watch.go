package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/service/watcher"
)

// watchCommand polls the server and prints every alarm status change.
func watchCommand() *cobra.Command {
	var (
		interval    time.Duration
		exitOnAlarm bool
	)

	command := &cobra.Command{
		Use:   "watch",
		Short: "Poll the server and print alarm status changes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return watcher.Run(ctx, &watcher.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  interval,
				ExitOnAlarm:   exitOnAlarm,
				Output:        cmd.OutOrStdout(),
			})
		},
	}

	command.Flags().DurationVarP(&interval, "interval", "i", watcher.DefaultPollInterval, "polling interval")
	command.Flags().BoolVar(&exitOnAlarm, "exit-on-alarm", false, "stop watching once the alarm is triggered")

	return command
}
