// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/reset-supervisor/internal/logic"
)

// Topic is the MQTT topic for supervisor events.
const Topic = "supervisor/reset/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "supervisor/reset/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a supervisor event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Supervisor SupervisorPayload `json:"supervisor"`
}

// SupervisorPayload contains the event details.
type SupervisorPayload struct {
	Timestamp string    `json:"timestamp"`
	Event     string    `json:"event"`
	Tick      uint64    `json:"tick"`
	Reset     LineState `json:"reset"`
	Button    LineState `json:"button"`
	Halt      LineState `json:"halt"`
}

// LineState represents a single signal's state.
type LineState struct {
	State string `json:"state"`
}

// State strings used in payloads.
const (
	StateAsserted = "ASSERTED"
	StateNegated  = "NEGATED"
	StatePressed  = "PRESSED"
	StateReleased = "RELEASED"
	StateHalted   = "HALTED"
	StateRunning  = "RUNNING"
)

// FormatPayload creates the JSON payload for a supervisor event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Supervisor: SupervisorPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Tick:      event.Tick,
			Reset:     LineState{State: pick(event.ResetAsserted, StateAsserted, StateNegated)},
			Button:    LineState{State: pick(event.ButtonPressed, StatePressed, StateReleased)},
			Halt:      LineState{State: pick(event.CPUHalted, StateHalted, StateRunning)},
		},
	}
	return json.Marshal(payload)
}

func pick(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Discard is a Publisher for running without a broker.
type Discard struct{}

func (Discard) Publish(logic.Event) error       { return nil }
func (Discard) PublishSystem(SystemEvent) error { return nil }
func (Discard) Close() error                    { return nil }
func (Discard) IsConnected() bool               { return false }
