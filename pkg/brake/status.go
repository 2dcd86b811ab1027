package brake

import "github.com/openbrake/brakectl/pkg/canbus"

// EncodeStatus builds the brake status frame. Layout is protocol-locked
// (4 bytes, little-endian pressure):
//
//	0 mode (0=standby, 1=active, 2=error)
//	1 pressure low byte
//	2 pressure high byte
//	3 interlock (1=engaged)
//
// No IO, no side effects.
func EncodeStatus(s Status) canbus.Frame {
	interlock := byte(0)
	if s.Interlock {
		interlock = 1
	}
	return canbus.NewFrame(canbus.IDBrakeStatus, []byte{
		byte(s.Mode),
		byte(s.Pressure & 0xFF),
		byte(s.Pressure >> 8),
		interlock,
	})
}
