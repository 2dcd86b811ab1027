// Package diag records the single most-recent diagnostic fault and
// mirrors it onto the bus. It deliberately holds no history: a newer
// fault always overwrites an older unresolved one, and a clear only
// lands if the caller names the fault that is still active.
package diag

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/openbrake/brakectl/pkg/canbus"
)

// Code is a diagnostic fault code as it appears on the wire.
type Code uint8

const (
	CodeNone            Code = 0
	CodeSafetyInterlock Code = 10
	CodePressureLimit   Code = 11
	CodeOverTemp        Code = 12
	CodeBusError        Code = 13
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeSafetyInterlock:
		return "safety-interlock"
	case CodePressureLimit:
		return "pressure-limit"
	case CodeOverTemp:
		return "over-temp"
	case CodeBusError:
		return "bus-error"
	}
	return "unknown"
}

// Recorder holds the last fault and reports diagnostic status frames.
type Recorder struct {
	mu        sync.Mutex
	lastFault Code
	bus       canbus.Bus
}

// NewRecorder creates a Recorder reporting over the given bus.
func NewRecorder(bus canbus.Bus) *Recorder {
	return &Recorder{bus: bus}
}

// Record sets the last fault unconditionally. Last write wins; there is
// no severity ordering.
func (r *Recorder) Record(code Code) {
	r.mu.Lock()
	r.lastFault = code
	r.mu.Unlock()
	logrus.WithField("fault", code.String()).Debug("fault recorded")
}

// Clear resets the last fault only if it still equals code. This keeps
// a caller from clearing a fault that was superseded after it last
// looked.
func (r *Recorder) Clear(code Code) {
	r.mu.Lock()
	if r.lastFault == code {
		r.lastFault = CodeNone
	}
	r.mu.Unlock()
}

// LastFault returns the active fault code.
func (r *Recorder) LastFault() Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFault
}

// ResetAll clears the fault unconditionally. Used at system bring-up.
func (r *Recorder) ResetAll() {
	r.mu.Lock()
	r.lastFault = CodeNone
	r.mu.Unlock()
}

// ReportStatus sends the 2-byte diagnostic frame {last fault, mode}.
// Reporting is best-effort: a transport failure is logged and dropped,
// it must never block or fail brake control.
func (r *Recorder) ReportStatus(mode uint8) {
	r.mu.Lock()
	fault := r.lastFault
	r.mu.Unlock()

	frame := canbus.NewFrame(canbus.IDDiagStatus, []byte{byte(fault), mode})
	if err := r.bus.Send(frame); err != nil {
		r.Record(CodeBusError)
		logrus.WithError(err).Debug("diag status frame dropped")
	}
}
