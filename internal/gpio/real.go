//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Board owns every supervisor line on a Linux GPIO chip.
// Opening it performs the one-time pin setup; the control loop never
// reconfigures anything except the open-drain direction toggles.
type Board struct {
	chip     *gpiocdev.Chip
	switchIn *gpiocdev.Line
	haltBus  *openDrainLine
	resetBus *openDrainLine
	extReset *outputLine
	led      *outputLine
}

// Open requests all lines. The switch becomes an input with pull-up; HALT,
// RESET and the dedicated reset line start driven low, so the host CPU is
// held in reset from the first instant; the LED starts off.
func Open(chipName string, pins Pins) (*Board, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("reset-supervisor"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	b := &Board{chip: chip}

	b.switchIn, err = chip.RequestLine(pins.Switch, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request switch pin %d: %w", pins.Switch, err)
	}

	halt, err := chip.RequestLine(pins.Halt, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request HALT pin %d: %w", pins.Halt, err)
	}
	b.haltBus = &openDrainLine{name: "HALT", line: halt, asserted: true}

	reset, err := chip.RequestLine(pins.Reset, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request RESET pin %d: %w", pins.Reset, err)
	}
	b.resetBus = &openDrainLine{name: "RESET", line: reset, asserted: true}

	ext, err := chip.RequestLine(pins.ExtReset, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request reset output pin %d: %w", pins.ExtReset, err)
	}
	b.extReset = &outputLine{name: "EXT_RESET", line: ext}

	led, err := chip.RequestLine(pins.LED, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pins.LED, err)
	}
	b.led = &outputLine{name: "LED", line: led}

	return b, nil
}

// Read samples the switch and the HALT bus line.
// HALT is the same line the supervisor drives: while asserted it reads low,
// so the LED also shows halts the supervisor causes itself.
func (b *Board) Read() (Levels, error) {
	sw, err := b.switchIn.Value()
	if err != nil {
		return Levels{}, fmt.Errorf("read switch pin: %w", err)
	}

	halt, err := b.haltBus.line.Value()
	if err != nil {
		return Levels{}, fmt.Errorf("read HALT pin: %w", err)
	}

	return Levels{Switch: sw != 0, Halt: halt != 0}, nil
}

// HaltBus returns the CPU HALT open-drain line.
func (b *Board) HaltBus() OpenDrain { return b.haltBus }

// ResetBus returns the CPU RESET open-drain line.
func (b *Board) ResetBus() OpenDrain { return b.resetBus }

// ExtReset returns the dedicated active-low reset output.
func (b *Board) ExtReset() Output { return b.extReset }

// LED returns the halt indicator output.
func (b *Board) LED() Output { return b.led }

// Close releases GPIO resources.
// Reset is negated first, dedicated line before the shared bus, then every
// line is reconfigured as an input with pull-up so nothing stays driven.
func (b *Board) Close() error {
	var errs []error

	if b.extReset != nil && b.haltBus != nil && b.resetBus != nil {
		if err := releaseBus(b.extReset, b.haltBus, b.resetBus); err != nil {
			errs = append(errs, err)
		}
	}

	var lines []namedLine
	if b.extReset != nil {
		lines = append(lines, namedLine{"reset output", b.extReset.line})
	}
	if b.haltBus != nil {
		lines = append(lines, namedLine{"HALT", b.haltBus.line})
	}
	if b.resetBus != nil {
		lines = append(lines, namedLine{"RESET", b.resetBus.line})
	}
	if b.led != nil {
		lines = append(lines, namedLine{"LED", b.led.line})
	}
	lines = append(lines, namedLine{"switch", b.switchIn})

	errs = append(errs, closeLines(lines)...)
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// closeLines leaves each line as an input with pull-up and closes it.
func closeLines(lines []namedLine) []error {
	var errs []error
	for _, l := range lines {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	return errs
}

// Inputs is a read-only view of the switch and HALT lines. Both are
// requested as inputs with pull-up, so opening it never drives the bus.
type Inputs struct {
	chip     *gpiocdev.Chip
	switchIn *gpiocdev.Line
	halt     *gpiocdev.Line
}

// OpenInputs requests only the two input lines, for diagnostics on a
// running board.
func OpenInputs(chipName string, pins Pins) (*Inputs, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("reset-supervisor"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	in := &Inputs{chip: chip}
	in.switchIn, err = chip.RequestLine(pins.Switch, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("request switch pin %d: %w", pins.Switch, err)
	}
	in.halt, err = chip.RequestLine(pins.Halt, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("request HALT pin %d: %w", pins.Halt, err)
	}
	return in, nil
}

// Read samples the switch and HALT lines.
func (in *Inputs) Read() (Levels, error) {
	sw, err := in.switchIn.Value()
	if err != nil {
		return Levels{}, fmt.Errorf("read switch pin: %w", err)
	}
	halt, err := in.halt.Value()
	if err != nil {
		return Levels{}, fmt.Errorf("read HALT pin: %w", err)
	}
	return Levels{Switch: sw != 0, Halt: halt != 0}, nil
}

// Close releases the lines and the chip.
func (in *Inputs) Close() error {
	var errs []error
	for _, l := range []namedLine{{"switch", in.switchIn}, {"HALT", in.halt}} {
		if l.line == nil {
			continue
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if in.chip != nil {
		if err := in.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

type namedLine struct {
	name string
	line *gpiocdev.Line
}

// openDrainLine emulates an open-drain output by switching direction:
// output-low to assert, input with pull-up to release.
type openDrainLine struct {
	name     string
	line     *gpiocdev.Line
	asserted bool
}

func (o *openDrainLine) Assert() error {
	if o.asserted {
		return nil
	}
	if err := o.line.Reconfigure(gpiocdev.AsOutput(0)); err != nil {
		return fmt.Errorf("assert %s: %w", o.name, err)
	}
	o.asserted = true
	return nil
}

func (o *openDrainLine) Release() error {
	if !o.asserted {
		return nil
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		return fmt.Errorf("release %s: %w", o.name, err)
	}
	o.asserted = false
	return nil
}

type outputLine struct {
	name string
	line *gpiocdev.Line
}

func (o *outputLine) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", o.name, err)
	}
	return nil
}
