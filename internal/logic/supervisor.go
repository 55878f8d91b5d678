package logic

import "time"

// Supervisor owns both trackers and advances them once per tick.
type Supervisor struct {
	physical SwitchTracker
	logical  SwitchTracker
	outputs  Outputs

	ticks         uint64
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewSupervisor returns a supervisor in its power-on state: both trackers
// Released, the logical hold timer loaded so reset stays asserted for the
// first MinimumHoldTicks, and outputs matching the asserted pins the board
// is configured with.
func NewSupervisor(startTime time.Time) *Supervisor {
	return &Supervisor{
		physical:      SwitchTracker{State: Released},
		logical:       SwitchTracker{State: Released, Timer: MinimumHoldTicks},
		outputs:       Outputs{ResetAsserted: true},
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Step advances one tick and returns the new outputs plus any edges.
// State advancement is complete before outputs are derived.
func (s *Supervisor) Step(in Input) (Outputs, []Event) {
	prevPhysical := s.physical.State
	prev := s.outputs

	if s.logical.Timer != 0 {
		s.logical.Timer--
	}
	debounce(&s.physical, !in.Switch)
	latch(&s.logical, s.physical.State)

	s.outputs = Outputs{
		ResetAsserted: resetAsserted(s.logical),
		HaltLED:       !in.Halt,
	}
	tick := s.ticks
	s.ticks++

	var events []Event
	emit := func(t EventType) {
		events = append(events, Event{
			Timestamp:     in.Time,
			Tick:          tick,
			Type:          t,
			ResetAsserted: s.outputs.ResetAsserted,
			ButtonPressed: s.physical.State.AtLeastPressed(),
			CPUHalted:     s.outputs.HaltLED,
		})
	}

	// Order: button, then reset, then halt, so a press and the reset it
	// causes are reported in cause-effect order.
	if wasPressed, isPressed := prevPhysical.AtLeastPressed(), s.physical.State.AtLeastPressed(); wasPressed != isPressed {
		if isPressed {
			emit(EventButtonPressed)
		} else {
			emit(EventButtonReleased)
		}
	}
	if prev.ResetAsserted != s.outputs.ResetAsserted {
		if s.outputs.ResetAsserted {
			emit(EventResetAsserted)
		} else {
			emit(EventResetReleased)
		}
	}
	if prev.HaltLED != s.outputs.HaltLED {
		if s.outputs.HaltLED {
			emit(EventCPUHalted)
		} else {
			emit(EventCPURunning)
		}
	}

	for _, e := range events {
		switch e.Type {
		case EventButtonPressed:
			s.eventCounts.ButtonPresses++
		case EventButtonReleased:
			s.eventCounts.ButtonReleases++
		case EventResetAsserted:
			s.eventCounts.ResetAsserts++
		case EventResetReleased:
			s.eventCounts.ResetReleases++
		case EventCPUHalted:
			s.eventCounts.CPUHalts++
		case EventCPURunning:
			s.eventCounts.CPUResumes++
		}
	}

	return s.outputs, events
}

// debounce advances the physical tracker with one sample.
// A new level must be seen for DebounceTicks consecutive ticks; any contrary
// sample sends the tracker back to the settled state it came from.
func debounce(t *SwitchTracker, pressed bool) {
	switch t.State {
	case Released:
		if pressed {
			t.enter(Pressing)
		}
	case Pressing:
		if !pressed {
			t.enter(Released)
			return
		}
		t.Timer++
		if t.Timer == DebounceTicks {
			t.enter(Pressed)
		}
	case Pressed:
		if !pressed {
			t.enter(Releasing)
		}
	case Releasing:
		if pressed {
			t.enter(Pressed)
			return
		}
		t.Timer++
		if t.Timer == DebounceTicks {
			t.enter(Released)
		}
	}
}

func (t *SwitchTracker) enter(state SwitchState) {
	t.State = state
	t.Timer = 0
}

// latch advances the logical tracker from the physical state. Only Released
// and Pressed are used. Entering Pressed reloads the hold timer; leaving it
// does not touch the timer, which keeps counting down.
func latch(t *SwitchTracker, physical SwitchState) {
	switch t.State {
	case Released:
		if physical.AtLeastPressed() {
			t.Timer = MinimumHoldTicks
			t.State = Pressed
		}
	case Pressed:
		if !physical.AtLeastPressed() {
			t.State = Released
		}
	}
}

// resetAsserted holds reset for the minimum time or as long as the button is
// held, whichever is longer.
func resetAsserted(logical SwitchTracker) bool {
	return logical.State == Pressed || logical.Timer != 0
}

// Physical returns a copy of the debounce tracker.
func (s *Supervisor) Physical() SwitchTracker {
	return s.physical
}

// Logical returns a copy of the latch tracker.
func (s *Supervisor) Logical() SwitchTracker {
	return s.logical
}

// Outputs returns the outputs computed by the most recent tick.
func (s *Supervisor) Outputs() Outputs {
	return s.outputs
}

// Ticks returns the number of ticks processed.
func (s *Supervisor) Ticks() uint64 {
	return s.ticks
}

// EventCountsSnapshot returns a copy of the current event counts.
func (s *Supervisor) EventCountsSnapshot() EventCounts {
	return s.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// if interval is <= 0 (disabled).
func (s *Supervisor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Ticks:     s.ticks,
		Counts:    s.eventCounts,
	}
}
