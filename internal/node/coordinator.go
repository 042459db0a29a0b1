package node

import (
	"fmt"
	"time"

	"github.com/sweeney/radio-node/internal/logic"
	"github.com/sweeney/radio-node/internal/radio"
)

// Config holds coordinator parameters.
type Config struct {
	// InitialMode is the mode the node boots into. Defaults to ModeReceive.
	InitialMode Mode
	// SettleDelay is the wait between a completed transmission and the
	// next send. This is the one deliberate blocking wait in the loop.
	SettleDelay time.Duration
	// Sleep is injectable for tests. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// handler drives one operating mode. onEnter runs exactly once on the tick
// the mode is entered; onTick runs on every tick the mode is active,
// including the entry tick, after onEnter.
type handler interface {
	onEnter(now time.Time) ([]Event, error)
	onTick(now time.Time) ([]Event, error)
}

// Coordinator toggles between the two radio roles on debounced press edges
// and runs the role-appropriate handler every tick. A non-nil error from
// Tick is fatal: the caller must stop the loop.
type Coordinator struct {
	radio  radio.Transceiver
	button *logic.Button
	sleep  func(time.Duration)

	mode        Mode
	modeChanged bool

	rxDone radio.Flag
	txDone radio.Flag

	recv handler
	xmit handler

	counts EventCounts
}

// NewCoordinator wires a coordinator onto its collaborators and registers
// the completion callbacks with the radio. The radio must not be started
// yet.
func NewCoordinator(r radio.Transceiver, b *logic.Button, cfg Config) *Coordinator {
	if cfg.InitialMode == "" {
		cfg.InitialMode = ModeReceive
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}

	c := &Coordinator{
		radio:  r,
		button: b,
		sleep:  cfg.Sleep,
		mode:   cfg.InitialMode,
		// The first tick performs the initial mode's entry action.
		modeChanged: true,
	}
	c.recv = &receiveHandler{c: c}
	c.xmit = &transmitHandler{c: c, settle: cfg.SettleDelay}

	// The callbacks run in the driver's interrupt goroutine and only set
	// a flag.
	r.OnReceiveDone(c.rxDone.Set)
	r.OnTransmitDone(c.txDone.Set)
	return c
}

// Start powers up the radio. Failure is fatal.
func (c *Coordinator) Start() error {
	if err := c.radio.Start(); err != nil {
		return fmt.Errorf("start radio: %w", err)
	}
	return nil
}

// Tick advances the node by one poll iteration: it feeds the raw button
// sample through the debouncer, toggles the mode on a press edge, and runs
// the active mode's handler. The returned events are the outcomes to
// report; a non-nil error is fatal.
func (c *Coordinator) Tick(rawPressed bool, now time.Time) ([]Event, error) {
	c.button.Update(rawPressed, now)

	var events []Event
	if c.button.WasPressed() {
		c.mode = c.mode.Toggled()
		c.modeChanged = true
		c.counts.ModeChanges++
		events = append(events, Event{Timestamp: now, Type: EventModeChange, Mode: c.mode})

		// A completion belonging to the mode being left is stale;
		// discard it so the new mode does not act on it.
		c.rxDone.TakeAndClear()
		c.txDone.TakeAndClear()
	}

	h := c.recv
	if c.mode == ModeTransmit {
		h = c.xmit
	}

	if c.modeChanged {
		c.modeChanged = false
		evs, err := h.onEnter(now)
		events = append(events, evs...)
		if err != nil {
			return events, err
		}
	}

	evs, err := h.onTick(now)
	events = append(events, evs...)
	return events, err
}

// Mode returns the currently active operating mode.
func (c *Coordinator) Mode() Mode { return c.mode }

// ButtonState returns the debounced button state, for status reporting.
func (c *Coordinator) ButtonState() logic.SwitchState { return c.button.State() }

// Counts returns the per-type event totals since startup.
func (c *Coordinator) Counts() EventCounts { return c.counts }
