package node

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/radio-node/internal/radio"
)

// receiveHandler keeps the receiver armed and reports completed receptions.
type receiveHandler struct {
	c *Coordinator
}

// onEnter arms the receiver. A failure to start listening has no recovery
// path and is fatal.
func (h *receiveHandler) onEnter(now time.Time) ([]Event, error) {
	if err := h.c.radio.StartReceive(); err != nil {
		return nil, fmt.Errorf("start listening: %w", err)
	}
	return nil, nil
}

// onTick drains the receive-completion flag, reads and reports the pending
// packet, and re-arms the receiver. Re-arming happens strictly after the
// payload has been read and reported, so a pending packet is never
// overwritten unconsumed, and it happens on every completion whether the
// payload was valid or not.
func (h *receiveHandler) onTick(now time.Time) ([]Event, error) {
	if !h.c.rxDone.TakeAndClear() {
		return nil, nil
	}

	var events []Event
	payload, err := h.c.radio.ReadData()
	switch {
	case err == nil:
		h.c.counts.Received++
		events = append(events, Event{
			Timestamp: now,
			Type:      EventPacketReceived,
			Mode:      ModeReceive,
			Payload:   payload,
			RSSI:      h.c.radio.SignalStrength(),
			LQI:       h.c.radio.LinkQuality(),
		})
	case errors.Is(err, radio.ErrCRCMismatch):
		h.c.counts.Corrupt++
		events = append(events, Event{
			Timestamp: now,
			Type:      EventPacketCorrupt,
			Mode:      ModeReceive,
			Err:       err.Error(),
		})
	default:
		h.c.counts.RxErrors++
		events = append(events, Event{
			Timestamp: now,
			Type:      EventReceiveError,
			Mode:      ModeReceive,
			Err:       err.Error(),
		})
	}

	if err := h.c.radio.StartReceive(); err != nil {
		return events, fmt.Errorf("re-arm listening: %w", err)
	}
	return events, nil
}
