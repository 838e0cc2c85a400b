package cmd

import (
	"github.com/spf13/cobra"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/client"
)

// sensorCommand groups the sensor management subcommands.
func sensorCommand() *cobra.Command {
	sensor := &cobra.Command{
		Use:   "sensor",
		Short: "Manage sensors.",
	}

	sensor.AddCommand(
		sensorSubcommand("add", "Register a sensor.", client.AddSensor),
		sensorSubcommand("remove", "Unregister a sensor.", client.RemoveSensor),
		sensorSubcommand("activate", "Report a sensor as active.", func(s *domain.Sensor) client.Action {
			return client.SetSensorActive(s, true)
		}),
		sensorSubcommand("deactivate", "Report a sensor as inactive.", func(s *domain.Sensor) client.Action {
			return client.SetSensorActive(s, false)
		}),
	)

	return sensor
}

func sensorSubcommand(use, short string, action func(*domain.Sensor) client.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME {door|window|motion}",
		Short: short,
		Args:  cobra.ExactArgs(2), //nolint:mnd // Name and type.
		RunE: func(cmd *cobra.Command, args []string) error {
			sensorType, err := domain.ParseSensorType(args[1])
			if err != nil {
				return err
			}

			sensor, err := domain.NewSensor(args[0], sensorType)
			if err != nil {
				return err
			}

			return run(cmd, action(sensor))
		},
	}
}
