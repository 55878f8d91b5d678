package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/reset-supervisor/internal/gpio"
	"github.com/sweeney/reset-supervisor/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// pressedSupervisor returns a supervisor just past the power-on hold with
// the button held long enough to latch.
func pressedSupervisor() *logic.Supervisor {
	sup := logic.NewSupervisor(start)
	for i := 0; i < logic.MinimumHoldTicks; i++ {
		sup.Step(logic.Input{Switch: true, Halt: true})
	}
	for i := 0; i <= logic.DebounceTicks; i++ {
		sup.Step(logic.Input{Switch: false, Halt: false})
	}
	return sup
}

func TestNewTracker(t *testing.T) {
	cfg := Config{Chip: "gpiochip0", Pins: gpio.DefaultPins(), Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if !snap.Outputs.ResetAsserted {
		t.Error("expected reset asserted before the first tick")
	}
	if snap.Logical.Timer != logic.MinimumHoldTicks {
		t.Errorf("Logical.Timer: got %d, want %d", snap.Logical.Timer, logic.MinimumHoldTicks)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, Config{})
	sup := pressedSupervisor()

	tr.Update(sup)

	snap := tr.Snapshot()
	if snap.Physical.State != logic.Pressed {
		t.Errorf("Physical: got %s, want PRESSED", snap.Physical.State)
	}
	if snap.Logical != (logic.SwitchTracker{State: logic.Pressed, Timer: logic.MinimumHoldTicks}) {
		t.Errorf("Logical: got %+v", snap.Logical)
	}
	if !snap.Outputs.ResetAsserted || !snap.Outputs.HaltLED {
		t.Errorf("Outputs: got %+v", snap.Outputs)
	}
	if snap.Ticks != uint64(logic.MinimumHoldTicks+logic.DebounceTicks+1) {
		t.Errorf("Ticks: got %d", snap.Ticks)
	}
	if snap.Counts.ButtonPresses != 1 || snap.Counts.ResetAsserts != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestSetters(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.SetErrors(3, 1)
	tr.SetDroppedEvents(7)
	tr.SetMQTTConnected(true)
	tr.SetNetwork(&NetworkInfo{Type: "ethernet", IP: "10.0.0.5", Status: "connected"})

	snap := tr.Snapshot()
	if snap.ReadErrors != 3 || snap.WriteErrors != 1 {
		t.Errorf("errors: got read=%d write=%d", snap.ReadErrors, snap.WriteErrors)
	}
	if snap.DroppedEvents != 7 {
		t.Errorf("DroppedEvents: got %d, want 7", snap.DroppedEvents)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	if snap.Network == nil || snap.Network.IP != "10.0.0.5" {
		t.Errorf("Network: got %+v", snap.Network)
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	if snap.Uptime() != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(start, Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	sup := logic.NewSupervisor(start)
	tr.Update(sup)

	snap1 := tr.Snapshot()

	for i := 0; i < logic.MinimumHoldTicks; i++ {
		sup.Step(logic.Input{Switch: true, Halt: true})
	}
	tr.Update(sup)

	if !snap1.Outputs.ResetAsserted {
		t.Error("snapshot should be a copy; Outputs was modified")
	}
	if snap1.Ticks != 0 {
		t.Error("snapshot should be a copy; Ticks was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Physical:      logic.SwitchTracker{State: logic.Releasing, Timer: 12},
		Logical:       logic.SwitchTracker{State: logic.Pressed, Timer: 180},
		Outputs:       logic.Outputs{ResetAsserted: true, HaltLED: true},
		Ticks:         1234,
		Counts:        logic.EventCounts{ButtonPresses: 5, ResetAsserts: 5, ResetReleases: 4},
		ReadErrors:    2,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			Chip:        "gpiochip0",
			Pins:        gpio.DefaultPins(),
			HeartbeatMs: 900000,
			Broker:      "tcp://localhost:1883",
			HTTPAddr:    ":80",
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Reset != "ASSERTED" {
		t.Errorf("Reset: got %q, want ASSERTED", s.Reset)
	}
	if !s.HaltLED {
		t.Error("expected HaltLED=true")
	}
	if s.Physical != (TrackerJSON{State: "RELEASING", Timer: 12}) {
		t.Errorf("Physical: got %+v", s.Physical)
	}
	if s.Logical != (TrackerJSON{State: "PRESSED", Timer: 180}) {
		t.Errorf("Logical: got %+v", s.Logical)
	}
	if s.Ticks != 1234 {
		t.Errorf("Ticks: got %d", s.Ticks)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("MQTT: got %+v", s.MQTT)
	}
	if s.Counts.ButtonPresses != 5 || s.Counts.ResetReleases != 4 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Errors.GPIORead != 2 {
		t.Errorf("Errors.GPIORead: got %d, want 2", s.Errors.GPIORead)
	}
	if s.Config.DebounceTicks != logic.DebounceTicks || s.Config.MinimumHoldTicks != logic.MinimumHoldTicks {
		t.Errorf("Config ticks: got %+v", s.Config)
	}
	if s.Config.Pins.Switch != gpio.DefaultPinSwitch {
		t.Errorf("Config.Pins.Switch: got %d", s.Config.Pins.Switch)
	}
	// Event and Reason should be omitted
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected no event/reason for web format, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONNegated(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Reset != "NEGATED" {
		t.Errorf("Reset: got %q, want NEGATED", parsed.Status.Reset)
	}
	if parsed.Status.Physical.State != "RELEASED" {
		t.Errorf("Physical.State: got %q", parsed.Status.Physical.State)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		Outputs:   logic.Outputs{ResetAsserted: false},
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	tests := []struct {
		event, reason string
	}{
		{"STARTUP", ""},
		{"HEARTBEAT", ""},
		{"SHUTDOWN", "SIGTERM"},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			data := FormatStatusEvent(snap, tt.event, tt.reason)

			var raw map[string]interface{}
			if err := json.Unmarshal(data, &raw); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			status := raw["status"].(map[string]interface{})
			if status["event"] != tt.event {
				t.Errorf("event: got %v, want %s", status["event"], tt.event)
			}
			reason, exists := status["reason"]
			if tt.reason == "" && exists {
				t.Error("reason should be omitted when empty")
			}
			if tt.reason != "" && reason != tt.reason {
				t.Errorf("reason: got %v, want %s", reason, tt.reason)
			}
			if status["uptime_seconds"] != float64(1800) {
				t.Errorf("uptime_seconds: got %v", status["uptime_seconds"])
			}
		})
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(time.Minute),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})
	sup := logic.NewSupervisor(start)
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			sup.Step(logic.Input{Switch: i%50 < 30, Halt: true})
			tr.Update(sup)
			tr.SetErrors(uint64(i), 0)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
