package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/reset-supervisor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Reset         string       `json:"reset"`
	HaltLED       bool         `json:"halt_led"`
	Physical      TrackerJSON  `json:"physical"`
	Logical       TrackerJSON  `json:"logical"`
	Ticks         uint64       `json:"ticks"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Errors        ErrorsJSON   `json:"errors"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// TrackerJSON is the JSON representation of a switch tracker.
type TrackerJSON struct {
	State string `json:"state"`
	Timer uint16 `json:"timer"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ButtonPresses  int `json:"button_presses"`
	ButtonReleases int `json:"button_releases"`
	ResetAsserts   int `json:"reset_asserts"`
	ResetReleases  int `json:"reset_releases"`
	CPUHalts       int `json:"cpu_halts"`
	CPUResumes     int `json:"cpu_resumes"`
}

// ErrorsJSON reports cumulative failures.
type ErrorsJSON struct {
	GPIORead      uint64 `json:"gpio_read"`
	GPIOWrite     uint64 `json:"gpio_write"`
	DroppedEvents uint64 `json:"dropped_events"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip             string   `json:"chip"`
	Pins             PinsJSON `json:"pins"`
	DebounceTicks    int      `json:"debounce_ticks"`
	MinimumHoldTicks int      `json:"minimum_hold_ticks"`
	HeartbeatMs      int64    `json:"heartbeat_ms"`
	Broker           string   `json:"broker"`
	HTTPAddr         string   `json:"http_addr"`
}

// PinsJSON lists the BCM line offsets in use.
type PinsJSON struct {
	Switch   int `json:"switch"`
	Halt     int `json:"halt"`
	Reset    int `json:"reset"`
	ExtReset int `json:"ext_reset"`
	LED      int `json:"led"`
}

// ResetState returns "ASSERTED" or "NEGATED".
func ResetState(o logic.Outputs) string {
	if o.ResetAsserted {
		return "ASSERTED"
	}
	return "NEGATED"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Reset:         ResetState(snap.Outputs),
		HaltLED:       snap.Outputs.HaltLED,
		Physical:      TrackerJSON{State: snap.Physical.State.String(), Timer: snap.Physical.Timer},
		Logical:       TrackerJSON{State: snap.Logical.State.String(), Timer: snap.Logical.Timer},
		Ticks:         snap.Ticks,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ButtonPresses:  snap.Counts.ButtonPresses,
			ButtonReleases: snap.Counts.ButtonReleases,
			ResetAsserts:   snap.Counts.ResetAsserts,
			ResetReleases:  snap.Counts.ResetReleases,
			CPUHalts:       snap.Counts.CPUHalts,
			CPUResumes:     snap.Counts.CPUResumes,
		},
		Errors: ErrorsJSON{
			GPIORead:      snap.ReadErrors,
			GPIOWrite:     snap.WriteErrors,
			DroppedEvents: snap.DroppedEvents,
		},
		Config: ConfigJSON{
			Chip: snap.Config.Chip,
			Pins: PinsJSON{
				Switch:   snap.Config.Pins.Switch,
				Halt:     snap.Config.Pins.Halt,
				Reset:    snap.Config.Pins.Reset,
				ExtReset: snap.Config.Pins.ExtReset,
				LED:      snap.Config.Pins.LED,
			},
			DebounceTicks:    logic.DebounceTicks,
			MinimumHoldTicks: logic.MinimumHoldTicks,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
