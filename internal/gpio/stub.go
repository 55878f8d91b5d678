//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported")

// Board is not available on non-Linux platforms.
type Board struct{}

// Open returns an error on non-Linux platforms.
func Open(chipName string, pins Pins) (*Board, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (b *Board) Read() (Levels, error) {
	return Levels{}, errUnsupported
}

func (b *Board) HaltBus() OpenDrain  { return unsupportedLine{} }
func (b *Board) ResetBus() OpenDrain { return unsupportedLine{} }
func (b *Board) ExtReset() Output    { return unsupportedLine{} }
func (b *Board) LED() Output         { return unsupportedLine{} }

// Close is not implemented on non-Linux platforms.
func (b *Board) Close() error {
	return nil
}

// Inputs is not available on non-Linux platforms.
type Inputs struct{}

// OpenInputs returns an error on non-Linux platforms.
func OpenInputs(chipName string, pins Pins) (*Inputs, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (in *Inputs) Read() (Levels, error) { return Levels{}, errUnsupported }
func (in *Inputs) Close() error          { return nil }

type unsupportedLine struct{}

func (unsupportedLine) Assert() error  { return errUnsupported }
func (unsupportedLine) Release() error { return errUnsupported }
func (unsupportedLine) Set(bool) error { return errUnsupported }
