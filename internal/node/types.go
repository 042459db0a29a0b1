// Package node contains the mode coordinator: it owns the node's operating
// mode, toggles it on debounced press edges, and drives the radio through
// its receive or transmit cycle using interrupt-set completion flags.
package node

import "time"

// Mode is the node's operating role. Exactly one mode is active at a time;
// the radio is half-duplex.
type Mode string

const (
	ModeReceive  Mode = "RECEIVE"
	ModeTransmit Mode = "TRANSMIT"
)

// Toggled returns the other mode.
func (m Mode) Toggled() Mode {
	if m == ModeReceive {
		return ModeTransmit
	}
	return ModeReceive
}

// EventType classifies a reportable node event.
type EventType string

const (
	EventModeChange     EventType = "MODE_CHANGE"
	EventPacketReceived EventType = "PACKET_RECEIVED"
	EventPacketCorrupt  EventType = "PACKET_CORRUPT"
	EventReceiveError   EventType = "RECEIVE_ERROR"
	EventTransmitOK     EventType = "TRANSMIT_OK"
	EventTransmitFailed EventType = "TRANSMIT_FAILED"
)

// Event is a reportable outcome produced by a coordinator tick. The loop
// turns events into diagnostic lines and telemetry.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Mode      Mode

	// Payload carries the received packet bytes for EventPacketReceived.
	Payload []byte
	// RSSI and LQI are the link metrics of the received packet.
	RSSI float64
	LQI  int

	// Seq is the transmission sequence number for transmit outcomes.
	Seq int
	// Err carries the failure text for error events.
	Err string
}

// EventCounts tracks per-type event totals since startup.
type EventCounts struct {
	ModeChanges int
	Received    int
	Corrupt     int
	RxErrors    int
	TxOK        int
	TxFailed    int
}
