package logic

import "time"

// Button turns a noisy raw input sample stream into a stable logical switch
// state and delivers exactly-once edge events.
type Button struct {
	debounce time.Duration
	hold     time.Duration

	current  SwitchState
	previous SwitchState

	lastReading bool      // last raw sample (true = physically depressed)
	lastChange  time.Time // when the raw sample last changed value
	pressStart  time.Time // when the current press was first registered
	sampled     bool      // whether any raw sample has been seen yet
}

// NewButton creates a Button with the given debounce and hold durations.
// The debounce duration is the minimum time a raw reading must hold its
// value before it is trusted; the hold duration is the continuous-press
// time after which PRESSED escalates to HELD.
func NewButton(debounce, hold time.Duration) *Button {
	return &Button{
		debounce: debounce,
		hold:     hold,
		current:  StateReleased,
		previous: StateReleased,
	}
}

// Update takes the current raw sample and must be called once per poll tick.
// Every raw flicker restarts the settling timer: the raw value only affects
// logical state once it has held steady for longer than the debounce
// duration. Logical transitions:
//
//	stable-active   while RELEASED -> PRESSED (press start recorded)
//	stable-active   while PRESSED  -> HELD once the hold duration elapses
//	stable-inactive while not RELEASED -> RELEASED
//
// HELD is sticky until release.
func (b *Button) Update(raw bool, now time.Time) {
	if !b.sampled || raw != b.lastReading {
		b.lastChange = now
		b.lastReading = raw
		b.sampled = true
	}

	if now.Sub(b.lastChange) <= b.debounce {
		return
	}

	switch {
	case raw && b.current == StateReleased:
		b.current = StatePressed
		b.pressStart = now
	case raw && b.current == StatePressed:
		if now.Sub(b.pressStart) > b.hold {
			b.current = StateHeld
		}
	case !raw && b.current != StateReleased:
		b.current = StateReleased
	}
}

// State returns the current logical switch state.
func (b *Button) State() SwitchState { return b.current }

// IsPressed reports whether the button is currently in the PRESSED state.
func (b *Button) IsPressed() bool { return b.current == StatePressed }

// IsHeld reports whether the button is currently in the HELD state.
func (b *Button) IsHeld() bool { return b.current == StateHeld }

// IsReleased reports whether the button is currently in the RELEASED state.
func (b *Button) IsReleased() bool { return b.current == StateReleased }

// WasPressed reports whether the button transitioned into PRESSED since
// the last edge query. Each call advances the previous-state snapshot as a
// side effect, so call at most one edge query (WasPressed or WasReleased)
// per tick; calling both, or calling one twice, corrupts edge detection.
func (b *Button) WasPressed() bool {
	if b.current == StatePressed && b.previous != StatePressed {
		b.previous = StatePressed
		return true
	}
	b.previous = b.current
	return false
}

// WasReleased reports whether the button transitioned into RELEASED since
// the last edge query. It carries the same one-call-per-tick contract as
// WasPressed.
func (b *Button) WasReleased() bool {
	if b.current == StateReleased && b.previous != StateReleased {
		b.previous = StateReleased
		return true
	}
	b.previous = b.current
	return false
}
