package diag

import "github.com/openbrake/brakectl/pkg/canbus"

// GuardedBus wraps a canbus.Bus so that every failed send leaves a
// BusError fault on the recorder. The error is still returned: a send
// is an explicit best-effort operation whose result the caller may
// ignore, not one that is swallowed here.
type GuardedBus struct {
	Bus canbus.Bus
	Rec *Recorder
}

// Guard wraps bus with fault recording on rec.
func Guard(bus canbus.Bus, rec *Recorder) *GuardedBus {
	return &GuardedBus{Bus: bus, Rec: rec}
}

// Send transmits through the wrapped bus, recording BusError on failure.
func (g *GuardedBus) Send(frame canbus.Frame) error {
	err := g.Bus.Send(frame)
	if err != nil {
		g.Rec.Record(CodeBusError)
	}
	return err
}

// Close closes the wrapped bus.
func (g *GuardedBus) Close() error {
	return g.Bus.Close()
}
