// Package radio defines the half-duplex transceiver contract consumed by
// the node coordinator, and the CC1101 driver that implements it.
package radio

import "errors"

// MaxPayload is the largest payload StartTransmit accepts.
const MaxPayload = 255

var (
	// ErrCRCMismatch marks a received payload that failed the hardware
	// CRC check. The payload is discarded.
	ErrCRCMismatch = errors.New("radio: payload CRC mismatch")

	// ErrPayloadSize is returned by StartTransmit for empty or oversized
	// payloads.
	ErrPayloadSize = errors.New("radio: payload must be 1..255 bytes")
)

// Transceiver is the half-duplex radio contract. Only one receive or
// transmit operation is ever in flight at a time.
type Transceiver interface {
	// Start powers up and configures the radio. Failure is fatal.
	Start() error

	// StartReceive arms the receiver. A completed reception is announced
	// through the OnReceiveDone callback.
	StartReceive() error

	// StartTransmit begins sending payload (1..255 bytes). It is
	// non-blocking unless the payload exceeds the hardware FIFO, in
	// which case it blocks until the tail has been buffered. Completion
	// is announced through the OnTransmitDone callback.
	StartTransmit(payload []byte) error

	// ReadData returns the pending received payload. It returns
	// ErrCRCMismatch for a corrupt packet (payload discarded).
	ReadData() ([]byte, error)

	// FinishTransmit disables the transmitter after a completed
	// transmission. It must be called once per completion before the
	// next StartTransmit.
	FinishTransmit() error

	// SignalStrength returns the RSSI of the last received packet in dBm.
	SignalStrength() float64

	// LinkQuality returns the link quality indicator of the last
	// received packet. Lower is better.
	LinkQuality() int

	// OnReceiveDone registers the receive-completion callback. It is
	// invoked from the driver's interrupt goroutine and must only set a
	// flag (no blocking, no radio I/O).
	OnReceiveDone(func())

	// OnTransmitDone registers the transmit-completion callback, with
	// the same constraints as OnReceiveDone.
	OnTransmitDone(func())

	// Close powers the radio down and releases resources.
	Close() error
}
