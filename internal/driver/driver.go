// Package driver applies supervisor outputs to the physical pins.
package driver

import (
	"errors"

	"github.com/sweeney/reset-supervisor/internal/gpio"
	"github.com/sweeney/reset-supervisor/internal/logic"
)

// Pins is the set of outputs the driver owns.
type Pins struct {
	Halt     gpio.OpenDrain // CPU HALT, shared bus
	Reset    gpio.OpenDrain // CPU RESET, shared bus
	ExtReset gpio.Output    // dedicated reset line, active-low
	LED      gpio.Output    // halt indicator, active-high
}

// Driver writes every output on every tick; nothing is latched here.
type Driver struct {
	pins Pins
}

// New returns a Driver for the given pins.
func New(pins Pins) *Driver {
	return &Driver{pins: pins}
}

// Apply drives the pins for one tick. Every write is attempted even if an
// earlier one fails; the failures are joined.
//
// Asserting pulls the shared bus first and then the dedicated line.
// Negating releases them in the opposite order.
func (d *Driver) Apply(out logic.Outputs) error {
	var errs []error
	try := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if out.ResetAsserted {
		try(d.pins.Halt.Assert())
		try(d.pins.Reset.Assert())
		try(d.pins.ExtReset.Set(false))
	} else {
		try(d.pins.ExtReset.Set(true))
		try(d.pins.Halt.Release())
		try(d.pins.Reset.Release())
	}

	try(d.pins.LED.Set(out.HaltLED))

	return errors.Join(errs...)
}
