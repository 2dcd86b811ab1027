package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openbrake/brakectl/pkg/diag"
)

func NewFaultCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fault",
		Short:   "Inspect or clear the recorded fault",
		GroupID: gBasic,
		Long: `Inspect or clear the last recorded fault.

The diagnostics recorder keeps only the most recent fault. Clearing
requires naming the fault code so a newer fault is not wiped by a stale
clear request.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the last recorded fault",
			RunE: func(cmd *cobra.Command, _ []string) error {
				info, err := apiClient.GetFault()
				if err != nil {
					return err
				}

				cmd.Printf("Last fault: %s\n", faultText(info.Code, info.Name))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear [code]",
			Short: "Clear the fault with the given code",
			Long: `Clear the recorded fault, but only if its code matches the given one.
A mismatched code leaves the fault untouched.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				code, err := parseUint16Arg(args, "fault code")
				if err != nil {
					return err
				}
				if code > 0xFF {
					return fmt.Errorf("invalid fault code: must fit in one byte")
				}

				ret, err := apiClient.ClearFault(diag.Code(code))
				if err != nil {
					return err
				}

				logrus.Infof("daemon responded: %s", ret)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the fault recorder unconditionally",
			RunE: func(_ *cobra.Command, _ []string) error {
				ret, err := apiClient.ResetFaults()
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
