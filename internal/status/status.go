// Package status provides a thread-safe status tracker for the supervisor daemon.
// The control loop writes it every tick; HTTP handlers and MQTT system events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/reset-supervisor/internal/gpio"
	"github.com/sweeney/reset-supervisor/internal/logic"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	Pins        gpio.Pins
	Broker      string
	HeartbeatMs int64
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Physical      logic.SwitchTracker
	Logical       logic.SwitchTracker
	Outputs       logic.Outputs
	Ticks         uint64
	Counts        logic.EventCounts
	ReadErrors    uint64
	WriteErrors   uint64
	DroppedEvents uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// Until the first Update the outputs read as asserted, matching the pins.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Logical:   logic.SwitchTracker{State: logic.Released, Timer: logic.MinimumHoldTicks},
			Outputs:   logic.Outputs{ResetAsserted: true},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the supervisor state. Called from runLoop on every tick.
func (t *Tracker) Update(sup *logic.Supervisor) {
	physical, logical, outputs := sup.Physical(), sup.Logical(), sup.Outputs()
	ticks, counts := sup.Ticks(), sup.EventCountsSnapshot()

	t.mu.Lock()
	t.snap.Physical = physical
	t.snap.Logical = logical
	t.snap.Outputs = outputs
	t.snap.Ticks = ticks
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetErrors sets the cumulative pin read/write failure counts.
func (t *Tracker) SetErrors(read, write uint64) {
	t.mu.Lock()
	t.snap.ReadErrors = read
	t.snap.WriteErrors = write
	t.mu.Unlock()
}

// SetDroppedEvents sets how many events could not be queued for MQTT.
func (t *Tracker) SetDroppedEvents(n uint64) {
	t.mu.Lock()
	t.snap.DroppedEvents = n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
