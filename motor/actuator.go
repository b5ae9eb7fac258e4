// Package motor implements the Motor Controller (spec.md §4.2): it applies
// planner output to an abstract stepper actuator and guarantees no
// at-speed reversal. The concrete stepper silicon (step-pulse generation,
// UART/SPI configuration of a driver chip) is out of scope (spec.md §1)
// and is represented here only by the Actuator capability interface,
// mirroring the teacher's tmc2209 package (a RegisterComm interface wraps
// the concrete UART/SPI transport; the driver struct only ever talks to
// the interface).
package motor

import "github.com/isochron-fw/isochron/profile"

// Actuator is the driver collaborator contract from spec.md §6: "Stepper
// driver: set_rpm(u16), set_direction(cw|ccw), enable(bool), stall
// observation". Concrete implementations (real silicon, or the in-repo
// drivers/sim stand-in) satisfy this; Controller is generic only over it,
// never over a concrete board (spec.md §9).
type Actuator interface {
	SetRPM(rpm float64)
	SetDirection(d profile.Direction)
	Enable(on bool)
	IsStalled() bool
}
