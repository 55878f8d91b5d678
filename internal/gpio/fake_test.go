package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	samples := []Levels{
		{Switch: true, Halt: false},
		{Switch: false, Halt: true},
		{Switch: true, Halt: true},
	}

	f := NewFakeReader(samples)

	for i, want := range samples {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: expected %+v, got %+v", i, want, got)
		}
	}

	// Fourth read should repeat last sample
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != samples[2] {
		t.Errorf("sample 3 (repeat): expected %+v, got %+v", samples[2], got)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Levels{{Switch: true, Halt: true}})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderCloseAndReset(t *testing.T) {
	f := NewFakeReader([]Levels{{Switch: false}, {Switch: true}})

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Read()
	f.Reset()
	if f.Closed {
		t.Error("Reset should clear Closed")
	}

	got, _ := f.Read()
	if got.Switch {
		t.Errorf("after reset: expected first sample, got %+v", got)
	}
}

func TestFakeLinesShareJournal(t *testing.T) {
	j := &Journal{}
	halt := &FakeOpenDrain{Name: "HALT", Journal: j}
	led := &FakeOutput{Name: "LED", Journal: j}

	halt.Assert()
	led.Set(true)
	halt.Release()
	led.Set(false)

	want := []string{"HALT assert", "LED high", "HALT release", "LED low"}
	if len(j.Writes) != len(want) {
		t.Fatalf("expected %d writes, got %v", len(want), j.Writes)
	}
	for i := range want {
		if j.Writes[i] != want[i] {
			t.Errorf("write %d: got %q, want %q", i, j.Writes[i], want[i])
		}
	}
	if halt.Asserted {
		t.Error("HALT should be released")
	}
	if led.High {
		t.Error("LED should be low")
	}

	j.Reset()
	if j.Writes != nil {
		t.Error("Reset should clear writes")
	}
}

func TestFakeLinesWithoutJournal(t *testing.T) {
	od := &FakeOpenDrain{Name: "RESET"}
	if err := od.Assert(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !od.Asserted {
		t.Error("expected asserted")
	}
}

func TestFakeLinesWriteError(t *testing.T) {
	fault := errors.New("line busy")
	od := &FakeOpenDrain{Name: "RESET", WriteError: fault}
	out := &FakeOutput{Name: "LED", WriteError: fault}

	if err := od.Assert(); !errors.Is(err, fault) {
		t.Errorf("Assert: got %v", err)
	}
	if err := od.Release(); !errors.Is(err, fault) {
		t.Errorf("Release: got %v", err)
	}
	if err := out.Set(true); !errors.Is(err, fault) {
		t.Errorf("Set: got %v", err)
	}
	if od.Asserted || out.High {
		t.Error("failed writes must not change state")
	}
}

func TestDefaultPins(t *testing.T) {
	p := DefaultPins()
	seen := map[int]bool{}
	for _, pin := range []int{p.Switch, p.Halt, p.Reset, p.ExtReset, p.LED} {
		if seen[pin] {
			t.Errorf("pin %d assigned twice", pin)
		}
		seen[pin] = true
	}
}

func TestReleaseBusOrder(t *testing.T) {
	j := &Journal{}
	ext := &FakeOutput{Name: "ext_reset", Journal: j}
	halt := &FakeOpenDrain{Name: "halt", Asserted: true, Journal: j}
	reset := &FakeOpenDrain{Name: "reset", Asserted: true, Journal: j}

	if err := releaseBus(ext, halt, reset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same order as a negate on a running tick: the dedicated line never
	// stays low after the shared bus has floated high.
	want := []string{"ext_reset high", "halt release", "reset release"}
	if len(j.Writes) != len(want) {
		t.Fatalf("expected %v, got %v", want, j.Writes)
	}
	for i := range want {
		if j.Writes[i] != want[i] {
			t.Errorf("write %d: got %q, want %q", i, j.Writes[i], want[i])
		}
	}
	if !ext.High || halt.Asserted || reset.Asserted {
		t.Error("expected reset fully negated")
	}
}

func TestReleaseBusContinuesAfterError(t *testing.T) {
	fault := errors.New("line busy")
	j := &Journal{}
	ext := &FakeOutput{Name: "ext_reset", Journal: j, WriteError: fault}
	halt := &FakeOpenDrain{Name: "halt", Asserted: true, Journal: j}
	reset := &FakeOpenDrain{Name: "reset", Asserted: true, Journal: j}

	err := releaseBus(ext, halt, reset)
	if !errors.Is(err, fault) {
		t.Errorf("expected joined fault, got %v", err)
	}
	if halt.Asserted || reset.Asserted {
		t.Error("bus must still be released when the dedicated line fails")
	}
}
