// Package mqtt publishes node telemetry with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/radio-node/internal/node"
)

// Topic is the MQTT topic for radio events.
const Topic = "radio/node/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "radio/node/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a radio event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event node.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Config    *SystemConfig
	Retained  bool // Whether the message should be retained by the broker
}

// SystemConfig carries the daemon configuration in startup events.
type SystemConfig struct {
	PollMs     int64  `json:"poll_ms"`
	DebounceMs int64  `json:"debounce_ms"`
	HoldMs     int64  `json:"hold_ms"`
	SettleMs   int64  `json:"settle_ms"`
	Broker     string `json:"broker"`
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Radio RadioPayload `json:"radio"`
}

// RadioPayload contains the radio event details. The packet payload is
// base64-encoded by encoding/json since it is opaque bytes.
type RadioPayload struct {
	Timestamp string   `json:"timestamp"`
	Event     string   `json:"event"`
	Mode      string   `json:"mode"`
	Payload   []byte   `json:"payload,omitempty"`
	RSSI      *float64 `json:"rssi,omitempty"`
	LQI       *int     `json:"lqi,omitempty"`
	Seq       *int     `json:"seq,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a radio event.
func FormatPayload(event node.Event) ([]byte, error) {
	rp := RadioPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Mode:      string(event.Mode),
		Payload:   event.Payload,
		Error:     event.Err,
	}
	switch event.Type {
	case node.EventPacketReceived:
		rssi, lqi := event.RSSI, event.LQI
		rp.RSSI, rp.LQI = &rssi, &lqi
	case node.EventTransmitOK, node.EventTransmitFailed:
		seq := event.Seq
		rp.Seq = &seq
	}
	return json.Marshal(Payload{Radio: rp})
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	Reason    string        `json:"reason,omitempty"`
	Config    *SystemConfig `json:"config,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
		},
	}
	return json.Marshal(payload)
}
