// Package daemon runs the brake controller behind an HTTP API on a
// unix socket. It owns the bootstrap sequence, the periodic diagnostics
// loop, and the optional scheduled self-test.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openbrake/brakectl/pkg/brake"
	"github.com/openbrake/brakectl/pkg/canbus"
	"github.com/openbrake/brakectl/pkg/config"
	"github.com/openbrake/brakectl/pkg/diag"
	"github.com/openbrake/brakectl/pkg/nvm"
)

var (
	conf *config.Config
	ctrl *brake.Controller
	rec  *diag.Recorder

	cal *nvm.Store
	bus canbus.Bus

	scheduler *Scheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/status", getStatus)
	router.POST("/apply", postApply)
	router.POST("/release", postRelease)
	router.PUT("/timing-offset", putTimingOffset)
	router.GET("/calibration", getCalibration)
	router.PUT("/calibration", putCalibration)
	router.POST("/diagnostics", postDiagnostics)
	router.POST("/diagnostics/reset", postDiagnosticsReset)
	router.GET("/fault", getFault)
	router.DELETE("/fault", deleteFault)
	router.PUT("/temperature", putTemperature)
	router.POST("/interlock/disengage", postInterlockDisengage)
	router.POST("/init", postInit)
	router.GET("/version", getVersion)

	return router
}

func buildBus(cfg *config.Config) (canbus.Bus, error) {
	switch cfg.Bus.Kind {
	case config.BusMQTT:
		return canbus.NewMQTTBus(cfg.Bus.Broker)
	case config.BusLoopback:
		return canbus.NewMemoryBus(), nil
	}
	return nil, fmt.Errorf("unsupported bus kind %q", cfg.Bus.Kind)
}

// bootstrap runs the fixed bring-up sequence: init the controller
// (power-on self-test passed, interlock engaged, calibration loaded),
// clear any stale fault, then install the initial working timing
// offset. Only after this baseline is any apply command accepted.
func bootstrap(cfg *config.Config) {
	ctrl.Init()
	rec.Clear(diag.CodeNone)
	ctrl.UpdateTiming(cfg.Calibration.InitialTimingOffset)
}

// Run starts the daemon and blocks until SIGINT/SIGTERM.
func Run(configPath string, socketOverride string, allowNonRoot bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if socketOverride != "" {
		cfg.Listen.Socket = socketOverride
	}
	conf = cfg

	bus, err = buildBus(cfg)
	if err != nil {
		return err
	}

	cal = nvm.NewStore(cfg.Calibration.Path)
	rec = diag.NewRecorder(bus)
	ctrl = brake.New(diag.Guard(bus, rec), rec, cal)

	bootstrap(cfg)
	logrus.WithFields(logrus.Fields{
		"bus":          cfg.Bus.Kind,
		"calibration":  cfg.Calibration.Path,
		"timingOffset": ctrl.TimingOffset(),
	}).Info("brake controller ready")

	router := setupRoutes()
	srv := &http.Server{Handler: router}

	l, err := net.Listen("unix", cfg.Listen.Socket)
	if err != nil {
		return err
	}

	if cfg.Listen.AllowNonRoot || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", cfg.Listen.Socket)
		if err := os.Chmod(cfg.Listen.Socket, 0777); err != nil {
			return err
		}
	}

	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	stopLoop := make(chan struct{})
	go diagnosticsLoop(cfg.Diagnostics.Interval(), stopLoop)

	if expr := cfg.Diagnostics.SelfTestCron; expr != "" {
		scheduler = NewScheduler(selfTest)
		if err := scheduler.Schedule(expr); err != nil {
			return fmt.Errorf("invalid self-test cron %q: %w", expr, err)
		}
		scheduler.Start()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logrus.Infof("caught signal %q: shutting down", sig)

	close(stopLoop)
	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	// Leave the brake in a safe state before exiting.
	ctrl.Release()

	logrus.Info("closing bus")
	if err := bus.Close(); err != nil {
		logrus.Errorf("failed to close bus: %v", err)
	}

	logrus.Info("exiting")
	return nil
}

// selfTest is the scheduled maintenance pass: release pressure, then a
// full diagnostics run whose result lands on the diag bus id.
func selfTest() error {
	logrus.Info("running scheduled brake self-test")
	ctrl.Release()
	ctrl.RunDiagnostics()
	if fault := rec.LastFault(); fault != diag.CodeNone {
		return fmt.Errorf("self-test left fault %s", fault)
	}
	return nil
}
