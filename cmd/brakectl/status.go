package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openbrake/brakectl/pkg/brake"
	"github.com/openbrake/brakectl/pkg/client"
)

type statusData struct {
	status      *brake.Status
	calibration *client.CalibrationInfo
	fault       *client.FaultInfo
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	st, err := apiClient.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get brake status: %w", err)
	}

	cal, err := apiClient.GetCalibration()
	if err != nil {
		return nil, fmt.Errorf("failed to get calibration: %w", err)
	}

	fault, err := apiClient.GetFault()
	if err != nil {
		return nil, fmt.Errorf("failed to get fault: %w", err)
	}

	return &statusData{
		status:      st,
		calibration: cal,
		fault:       fault,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of the brake controller",
		Long:    `Get controller state, active fault, and calibration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			cmd.Println(bold("Brake status:"))
			cmd.Printf("  Mode: %s\n", modeText(data.status.Mode))
			cmd.Printf("  Pressure: %s\n", bold("%d kPa", data.status.Pressure))
			cmd.Printf("  Temperature: %s\n", bold("%d °C", data.status.Temperature))
			cmd.Println("  Safety interlock engaged: " + bool2Text(data.status.Interlock))
			if data.status.Interlock {
				cmd.Println("    Pressure commands are accepted.")
			} else {
				cmd.Println("    Pressure commands will be rejected until the next init.")
			}

			cmd.Println()

			cmd.Println(bold("Diagnostics:"))
			cmd.Printf("  Last fault: %s\n", faultText(data.fault.Code, data.fault.Name))

			cmd.Println()

			cmd.Println(bold("Calibration:"))
			cmd.Printf("  Working offset: %s\n", bold("%d kPa", data.calibration.WorkingOffset))
			cmd.Printf("  Stored offset: %s\n", bold("%d kPa", data.calibration.StoredOffset))
			cmd.Printf("  Record signature: %s\n", bold("0x%08X", data.calibration.Signature))
			return nil
		},
	}
}
