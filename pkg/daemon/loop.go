package daemon

import (
	"time"

	"github.com/sirupsen/logrus"
)

// diagnosticsLoop runs the periodic diagnostics pass. Every tick checks
// telemetry thresholds and publishes the diagnostic status frame, so
// external observers see the controller heartbeat even when no command
// arrives.
func diagnosticsLoop(interval time.Duration, stop <-chan struct{}) {
	logrus.WithField("interval", interval).Debug("diagnostics loop starts")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			logrus.Debug("diagnostics loop stopped")
			return
		case <-ticker.C:
			ctrl.RunDiagnostics()
		}
	}
}
