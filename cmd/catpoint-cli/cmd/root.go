package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/client"
	"github.com/oshokin/catpoint/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// serverAddress overrides the server address from the configuration.
	serverAddress string

	// rootCmd represents the base command for talking to the security server.
	rootCmd = &cobra.Command{
		Use:   "catpoint-cli",
		Short: "Control the home security server.",
		Long: `Command line client for the catpoint security server.

Arm or disarm the system, manage sensors, feed camera frames and inspect the
current state. Every command prints the resulting state.`,
		SilenceUsage: true,
	}
)

// Execute runs the catpoint-cli and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run performs action with the shared flags and signal handling.
func run(cmd *cobra.Command, action client.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	options := &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Output:        cmd.OutOrStdout(),
	}

	return client.Run(ctx, options, action)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "server address (overrides config)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show arming status, alarm status and sensors.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, client.Status())
			},
		},
		&cobra.Command{
			Use:       "arm {home|away}",
			Short:     "Arm the system.",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"home", "away"},
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := domain.ParseArmingStatus("armed-" + args[0])
				if err != nil {
					return err
				}

				return run(cmd, client.Arm(status))
			},
		},
		&cobra.Command{
			Use:   "disarm",
			Short: "Disarm the system and clear the alarm.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, client.Arm(domain.Disarmed))
			},
		},
		&cobra.Command{
			Use:   "image FILE",
			Short: "Send a camera frame (PNG, JPEG or GIF) for cat detection.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, client.SendImage(args[0]))
			},
		},
		sensorCommand(),
		watchCommand(),
	)
}
