package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewTemperatureCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "temperature [celsius]",
		Short:   "Set the simulated caliper temperature",
		GroupID: gAdvanced,
		Long: `Set the caliper temperature reading, in °C.

Intended for bench testing. A reading above 90 °C makes the next
diagnostics pass record an over-temperature fault.`,
		RunE: func(_ *cobra.Command, args []string) error {
			celsius, err := parseUint16Arg(args, "temperature")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetTemperature(celsius)
			if err != nil {
				return err
			}

			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	}
}

func NewInterlockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interlock",
		Short:   "Control the safety interlock",
		GroupID: gAdvanced,
		Long: `Control the safety interlock.

With the interlock disengaged every pressure command is rejected with a
fault. The interlock can only be re-engaged by re-running init.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "disengage",
			Short: "Disengage the safety interlock until the next init",
			RunE: func(_ *cobra.Command, _ []string) error {
				ret, err := apiClient.DisengageInterlock()
				if err != nil {
					return err
				}

				logrus.Infof("daemon responded: %s", ret)
				return nil
			},
		},
	)

	return cmd
}
