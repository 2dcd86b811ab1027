// Package brake implements the brake controller state machine: pressure
// commands gated by the safety interlock and the pressure limit, status
// published on the CAN bus, faults handed to the diagnostics recorder,
// and a calibration offset loaded from and persisted to NVM.
package brake

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/openbrake/brakectl/pkg/canbus"
	"github.com/openbrake/brakectl/pkg/diag"
	"github.com/openbrake/brakectl/pkg/nvm"
)

// Mode is the controller operating mode.
type Mode uint8

const (
	ModeStandby Mode = 0
	ModeActive  Mode = 1
	ModeError   Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeStandby:
		return "standby"
	case ModeActive:
		return "active"
	case ModeError:
		return "error"
	}
	return "unknown"
}

const (
	// MaxPressure is the highest accepted target pressure in kPa.
	// The check is strict: a target equal to MaxPressure is applied.
	MaxPressure uint16 = 120

	// OverTempLimit is the temperature in degrees Celsius above which
	// RunDiagnostics forces the error mode.
	OverTempLimit uint16 = 90

	initialTemperature uint16 = 25
)

// Status is an immutable snapshot of the controller state.
type Status struct {
	Mode        Mode   `json:"mode"`
	Pressure    uint16 `json:"pressureKPa"`
	Temperature uint16 `json:"temperatureC"`
	Interlock   bool   `json:"interlockEngaged"`
}

// Controller owns the brake state. All state mutation is serialized
// behind one mutex per instance: the HTTP handlers above it run
// concurrently, and the design assumes at most one writer at a time.
type Controller struct {
	mu     sync.Mutex
	status Status
	offset uint16

	bus canbus.Bus
	rec *diag.Recorder
	cal *nvm.Store
}

// New wires a controller to its collaborators. Call Init before use.
func New(bus canbus.Bus, rec *diag.Recorder, cal *nvm.Store) *Controller {
	return &Controller{
		status: Status{Mode: ModeStandby, Temperature: initialTemperature, Interlock: true},
		bus:    bus,
		rec:    rec,
		cal:    cal,
	}
}

// Init resets the controller to the power-on state: standby, zero
// pressure, interlock engaged, calibration offset loaded from NVM.
// This is the only place the interlock is re-engaged; it represents a
// passed power-on self-test.
func (c *Controller) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Mode = ModeStandby
	c.status.Pressure = 0
	c.status.Interlock = true
	c.offset = c.cal.Load()
	logrus.WithField("pressureOffset", c.offset).Info("brake controller initialized")
}

// Apply commands a target pressure. A disengaged interlock or a target
// above MaxPressure rejects the command: the fault is recorded, the
// mode flips to error, the pressure stays unchanged, and no status
// frame is sent. An accepted command applies target plus the working
// calibration offset, wrapping at the 16-bit width of the wire field.
func (c *Controller) Apply(target uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.status.Interlock {
		c.rec.Record(diag.CodeSafetyInterlock)
		c.status.Mode = ModeError
		logrus.WithField("targetKPa", target).Warn("apply rejected: interlock disengaged")
		return
	}
	if target > MaxPressure {
		c.rec.Record(diag.CodePressureLimit)
		c.status.Mode = ModeError
		logrus.WithFields(logrus.Fields{
			"targetKPa": target,
			"limitKPa":  MaxPressure,
		}).Warn("apply rejected: over pressure limit")
		return
	}

	c.status.Mode = ModeActive
	c.status.Pressure = target + c.offset
	c.sendStatusLocked()
}

// Release drops pressure to zero and returns to standby. Releasing is
// always safe: it is never blocked by the interlock or the mode.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Pressure = 0
	c.status.Mode = ModeStandby
	c.sendStatusLocked()
}

// UpdateTiming overwrites the working calibration offset used by
// subsequent Apply calls. It neither persists the offset nor touches
// the current pressure.
func (c *Controller) UpdateTiming(offset uint16) {
	c.mu.Lock()
	c.offset = offset
	c.mu.Unlock()
}

// RunDiagnostics checks telemetry thresholds and always reports the
// diagnostic status frame, whatever the outcome. This is the only path
// that can force the error mode from telemetry alone.
func (c *Controller) RunDiagnostics() {
	c.mu.Lock()
	if c.status.Temperature > OverTempLimit {
		c.rec.Record(diag.CodeOverTemp)
		c.status.Mode = ModeError
	}
	mode := c.status.Mode
	c.mu.Unlock()

	c.rec.ReportStatus(uint8(mode))
}

// StoreCalibration sets the working offset and persists it. A
// persistence error is returned for the caller to escalate; calibration
// corruption must not silently degrade braking.
func (c *Controller) StoreCalibration(offset uint16) error {
	c.mu.Lock()
	c.offset = offset
	c.mu.Unlock()
	return c.cal.Save(offset)
}

// TimingOffset returns the working calibration offset.
func (c *Controller) TimingOffset() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// SetTemperature feeds a temperature telemetry reading. The value is
// only acted on by the next RunDiagnostics.
func (c *Controller) SetTemperature(celsius uint16) {
	c.mu.Lock()
	c.status.Temperature = celsius
	c.mu.Unlock()
}

// DisengageInterlock drops the safety interlock, blocking all apply
// commands until the next Init. There is no re-engage operation short
// of a full re-init.
func (c *Controller) DisengageInterlock() {
	c.mu.Lock()
	c.status.Interlock = false
	c.mu.Unlock()
	logrus.Warn("safety interlock disengaged")
}

// Status returns a copy of the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// sendStatusLocked publishes the 4-byte status frame. The send result
// is deliberately dropped: status reporting is fire-and-forget and a
// transport fault must not fail the command that triggered it.
func (c *Controller) sendStatusLocked() {
	if err := c.bus.Send(EncodeStatus(c.status)); err != nil {
		logrus.WithError(err).Debug("brake status frame dropped")
	}
}
