package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewCalibrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calibration",
		Short:   "Inspect or store the calibration offset",
		GroupID: gAdvanced,
		Long: `Inspect or store the pressure calibration offset.

The offset is added to every commanded pressure. Storing a new offset
writes it to NVM with a signed record, so it survives restarts.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the current calibration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				info, err := apiClient.GetCalibration()
				if err != nil {
					return err
				}

				cmd.Printf("Working offset: %s\n", bold("%d kPa", info.WorkingOffset))
				cmd.Printf("Stored offset: %s\n", bold("%d kPa", info.StoredOffset))
				cmd.Printf("Record signature: %s\n", bold("0x%08X", info.Signature))
				return nil
			},
		},
		&cobra.Command{
			Use:   "store [offset]",
			Short: "Store a new calibration offset to NVM",
			RunE: func(_ *cobra.Command, args []string) error {
				offset, err := parseUint16Arg(args, "offset")
				if err != nil {
					return err
				}

				ret, err := apiClient.StoreCalibration(offset)
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

func NewTimingOffsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "timing-offset [offset]",
		Short:   "Set the working timing offset",
		GroupID: gAdvanced,
		Long: `Set the working timing offset, in kPa.

Unlike 'calibration store', this only changes the in-memory offset used
for subsequent pressure commands. It is not persisted to NVM.`,
		RunE: func(_ *cobra.Command, args []string) error {
			offset, err := parseUint16Arg(args, "offset")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetTimingOffset(offset)
			if err != nil {
				return err
			}

			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	}
}
