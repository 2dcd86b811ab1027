package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openbrake/brakectl/pkg/brake"
	"github.com/openbrake/brakectl/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "apply [pressure]",
		Short:   "Apply brake pressure",
		GroupID: gBasic,
		Long: `Apply brake pressure, in kPa.

The commanded pressure must not exceed 120 kPa and the safety interlock
must be engaged, otherwise the command is rejected and a fault is
recorded. The calibration offset is added to the commanded value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseUint16Arg(args, "pressure")
			if err != nil {
				return err
			}

			st, err := apiClient.Apply(target)
			if err != nil {
				return err
			}

			cmd.Printf("Brake %s at %s\n", modeText(st.Mode), bold("%d kPa", st.Pressure))
			return nil
		},
	}
}

func NewReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "release",
		Short:   "Release brake pressure",
		GroupID: gBasic,
		Long:    `Release brake pressure. Always allowed, and returns the controller to standby.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.Release()
			if err != nil {
				return err
			}

			cmd.Printf("Brake %s at %s\n", modeText(st.Mode), bold("%d kPa", st.Pressure))
			return nil
		},
	}
}

func NewDiagnoseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "diagnose",
		Short:   "Run a diagnostics pass now",
		GroupID: gBasic,
		Long: `Run a diagnostics pass immediately, in addition to the daemon's
periodic checks. Reports the resulting controller state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.RunDiagnostics()
			if err != nil {
				return err
			}

			fault, err := apiClient.GetFault()
			if err != nil {
				return err
			}

			cmd.Printf("Mode: %s\n", modeText(st.Mode))
			cmd.Printf("Fault: %s\n", faultText(fault.Code, fault.Name))
			return nil
		},
	}
}

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		Short:   "Re-run the power-on init sequence",
		GroupID: gAdvanced,
		Long: `Re-run the power-on init sequence: release pressure, re-engage the
safety interlock, and reload the calibration offset from NVM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.Reinit()
			if err != nil {
				return err
			}

			cmd.Printf("Brake %s, interlock %s\n", modeText(st.Mode), bool2Text(st.Interlock))
			return nil
		},
	}
}

func modeText(m brake.Mode) string {
	switch m {
	case brake.ModeActive:
		return color.New(color.Bold, color.FgGreen).Sprint(m.String())
	case brake.ModeError:
		return color.New(color.Bold, color.FgRed).Sprint(m.String())
	}
	return bold("%s", m.String())
}

func faultText(code uint8, name string) string {
	if code == 0 {
		return color.GreenString("none")
	}
	return color.New(color.Bold, color.FgRed).Sprintf("%s (code %d)", name, code)
}
