package gpio

import (
	"errors"
	"fmt"
)

// FakeReader is a test double that returns scripted input levels.
type FakeReader struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Levels

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Levels) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Levels, error) {
	if f.ReadError != nil {
		return Levels{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Levels{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// Journal records pin writes across several fakes in the order they happen.
type Journal struct {
	Writes []string
}

func (j *Journal) record(format string, args ...any) {
	if j != nil {
		j.Writes = append(j.Writes, fmt.Sprintf(format, args...))
	}
}

// Reset clears the recorded writes.
func (j *Journal) Reset() {
	j.Writes = nil
}

// FakeOpenDrain is an OpenDrain that remembers whether it is asserted.
// Writes are recorded as "<name> assert" / "<name> release".
type FakeOpenDrain struct {
	Name     string
	Asserted bool
	Journal  *Journal

	// WriteError, if set, is returned by Assert and Release.
	WriteError error
}

// Assert drives the fake line low.
func (f *FakeOpenDrain) Assert() error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Asserted = true
	f.Journal.record("%s assert", f.Name)
	return nil
}

// Release lets go of the fake line.
func (f *FakeOpenDrain) Release() error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Asserted = false
	f.Journal.record("%s release", f.Name)
	return nil
}

// FakeOutput is an Output that remembers its level.
// Writes are recorded as "<name> high" / "<name> low".
type FakeOutput struct {
	Name    string
	High    bool
	Journal *Journal

	// WriteError, if set, is returned by Set.
	WriteError error
}

// Set records the new level.
func (f *FakeOutput) Set(high bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.High = high
	if high {
		f.Journal.record("%s high", f.Name)
	} else {
		f.Journal.record("%s low", f.Name)
	}
	return nil
}
