// Package gpio provides pin access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "errors"

// Levels is one sample of the raw input pins (true = high).
// Inversion of the active-low inputs is left to the caller.
type Levels struct {
	Switch bool // reset push-button, low when closed
	Halt   bool // CPU HALT line, low when the CPU reports halted
}

// Reader reads the input pins.
type Reader interface {
	// Read samples both inputs once.
	Read() (Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// OpenDrain is an output that can only pull its line low or let go of it.
type OpenDrain interface {
	// Assert drives the line low.
	Assert() error

	// Release puts the line in high impedance; an external pull-up
	// brings it high.
	Release() error
}

// Output is a push-pull output.
type Output interface {
	Set(high bool) error
}

// Pins holds BCM line offsets for every signal.
type Pins struct {
	Switch   int `yaml:"switch"`
	Halt     int `yaml:"halt"`
	Reset    int `yaml:"reset"`
	ExtReset int `yaml:"ext_reset"`
	LED      int `yaml:"led"`
}

// Default pin assignment (BCM numbering).
const (
	DefaultPinSwitch   = 17
	DefaultPinHalt     = 27
	DefaultPinReset    = 22
	DefaultPinExtReset = 23
	DefaultPinLED      = 24
)

// DefaultChip is the GPIO character device the pins live on.
const DefaultChip = "gpiochip0"

// DefaultPins returns the default pin assignment.
func DefaultPins() Pins {
	return Pins{
		Switch:   DefaultPinSwitch,
		Halt:     DefaultPinHalt,
		Reset:    DefaultPinReset,
		ExtReset: DefaultPinExtReset,
		LED:      DefaultPinLED,
	}
}

// releaseBus negates reset the way a running supervisor does: the dedicated
// line goes high before HALT and RESET are let go. Every step is attempted.
func releaseBus(ext Output, halt, reset OpenDrain) error {
	var errs []error
	if err := ext.Set(true); err != nil {
		errs = append(errs, err)
	}
	if err := halt.Release(); err != nil {
		errs = append(errs, err)
	}
	if err := reset.Release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
