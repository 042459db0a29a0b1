package node

import (
	"fmt"
	"time"
)

// transmitHandler sends packets back to back, reporting each completion.
// The outcome of the in-flight send is recorded at initiation and reported
// when the completion flag fires, possibly many ticks later.
type transmitHandler struct {
	c      *Coordinator
	settle time.Duration

	seq     int
	pending error // immediate return status of the in-flight send
}

// onEnter issues the first send of this transmit session.
func (h *transmitHandler) onEnter(now time.Time) ([]Event, error) {
	h.pending = h.c.radio.StartTransmit(h.payload())
	return nil, nil
}

// onTick drains the transmit-completion flag, reports the recorded outcome,
// runs the post-transmit cleanup (unconditionally, success or failure),
// waits the settling delay, and issues the next send.
func (h *transmitHandler) onTick(now time.Time) ([]Event, error) {
	if !h.c.txDone.TakeAndClear() {
		return nil, nil
	}

	var events []Event
	if h.pending == nil {
		h.c.counts.TxOK++
		events = append(events, Event{
			Timestamp: now,
			Type:      EventTransmitOK,
			Mode:      ModeTransmit,
			Seq:       h.seq,
		})
	} else {
		h.c.counts.TxFailed++
		events = append(events, Event{
			Timestamp: now,
			Type:      EventTransmitFailed,
			Mode:      ModeTransmit,
			Seq:       h.seq,
			Err:       h.pending.Error(),
		})
	}

	// Cleanup errors are not actionable mid-cycle; the next send's
	// return status is the authoritative outcome.
	_ = h.c.radio.FinishTransmit()

	h.c.sleep(h.settle)

	h.seq++
	h.pending = h.c.radio.StartTransmit(h.payload())
	return events, nil
}

func (h *transmitHandler) payload() []byte {
	return []byte(fmt.Sprintf("radio-node packet #%d", h.seq))
}
