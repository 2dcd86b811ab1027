// Package version carries build metadata, set via ldflags.
package version

var (
	// Version is the brakectl version, overridden at build time with
	// -ldflags "-X github.com/openbrake/brakectl/pkg/version.Version=...".
	Version = "dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
)
