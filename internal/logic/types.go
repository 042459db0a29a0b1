// Package logic contains pure business logic for the mode button state
// machine. This package has NO external dependencies (no GPIO, radio, OS,
// or time.Sleep). Time is always injectable via time.Time parameters.
package logic

// SwitchState represents the logical state of the mode button.
type SwitchState string

const (
	StateReleased SwitchState = "RELEASED"
	StatePressed  SwitchState = "PRESSED"
	StateHeld     SwitchState = "HELD"
)
