// Package logic contains the pure control logic of the reset supervisor.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Durations are counted in ticks; wall-clock time only flows through for event
// timestamps and heartbeats.
package logic

import "time"

const (
	// DebounceTicks is how long a new switch level must persist before it is
	// accepted (25 ms at 1 kHz).
	DebounceTicks = 25

	// MinimumHoldTicks is the minimum time a reset request stays asserted
	// (250 ms at 1 kHz).
	MinimumHoldTicks = 250
)

// SwitchState is the state of a SwitchTracker. The order matters: states at
// or above Pressed count as "at least pressed".
type SwitchState uint8

const (
	Released SwitchState = iota
	Pressing
	Pressed
	Releasing
)

func (s SwitchState) String() string {
	switch s {
	case Released:
		return "RELEASED"
	case Pressing:
		return "PRESSING"
	case Pressed:
		return "PRESSED"
	case Releasing:
		return "RELEASING"
	}
	return "UNKNOWN"
}

// AtLeastPressed reports whether s is a debounced press (Pressed, or
// Releasing while the release is still being confirmed).
func (s SwitchState) AtLeastPressed() bool {
	return s >= Pressed
}

// SwitchTracker is a state plus a tick counter. The physical tracker counts
// debounce ticks; the logical tracker counts down the remaining hold.
type SwitchTracker struct {
	State SwitchState
	Timer uint16
}

// Input is one tick's worth of raw pin levels (true = high).
// Both inputs are active-low.
type Input struct {
	Switch bool
	Halt   bool
	Time   time.Time
}

// Outputs is the pin state derived from one tick.
type Outputs struct {
	// ResetAsserted drives HALT, RESET and the dedicated reset line low.
	ResetAsserted bool
	// HaltLED is the active-high LED level.
	HaltLED bool
}

// EventType represents an edge observed by the supervisor.
type EventType string

const (
	EventButtonPressed  EventType = "BUTTON_PRESSED"
	EventButtonReleased EventType = "BUTTON_RELEASED"
	EventResetAsserted  EventType = "RESET_ASSERTED"
	EventResetReleased  EventType = "RESET_RELEASED"
	EventCPUHalted      EventType = "CPU_HALTED"
	EventCPURunning     EventType = "CPU_RUNNING"
)

// Event is an edge to be published. The state fields describe the
// supervisor after the tick that produced it.
type Event struct {
	Timestamp     time.Time
	Tick          uint64
	Type          EventType
	ResetAsserted bool
	ButtonPressed bool
	CPUHalted     bool
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	ButtonPresses  int
	ButtonReleases int
	ResetAsserts   int
	ResetReleases  int
	CPUHalts       int
	CPUResumes     int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Ticks     uint64
	Counts    EventCounts
}
