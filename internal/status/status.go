// Package status provides a thread-safe status tracker for the radio-node daemon.
// It is read by HTTP handlers and the serial diagnostic console.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/radio-node/internal/logic"
	"github.com/sweeney/radio-node/internal/node"
)

// PacketInfo describes the most recent packet exchanged over the air.
type PacketInfo struct {
	Timestamp time.Time
	Direction string // "RX" or "TX"
	Length    int
	RSSI      float64 // RX only
	LQI       int     // RX only
	Seq       int     // TX only
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HoldMs      int64
	SettleMs    int64
	Broker      string
	HTTPPort    string
	SPIPort     string
	ConsolePort string // serial console device (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Mode          node.Mode
	Button        logic.SwitchState
	Counts        node.EventCounts
	LastPacket    *PacketInfo
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
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
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the mode, button state, and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(mode node.Mode, button logic.SwitchState, counts node.EventCounts) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.Button = button
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetLastPacket records the most recent packet exchange.
func (t *Tracker) SetLastPacket(info *PacketInfo) {
	t.mu.Lock()
	t.snap.LastPacket = info
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
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
