package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openbrake/brakectl/pkg/daemon"
	"github.com/openbrake/brakectl/pkg/version"
)

// NewDaemonCommand runs the brakectl daemon. Normally invoked by the
// init system, not by users, hence hidden.
func NewDaemonCommand() *cobra.Command {
	alwaysAllowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "daemon",
		Hidden:  true,
		Short:   "Run the brakectl daemon",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.Infof("brakectl daemon %s (%s)", version.Version, version.GitCommit)
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
		},
	}

	cmd.Flags().BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false, "Always allow non-root users to access the daemon.")

	return cmd
}
