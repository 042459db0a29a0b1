// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the mode button input.
type Reader interface {
	// Read returns the logical button state (true = pressed).
	// The raw line is pulled up and active-low: raw low = pressed.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPinButton is the BCM line the mode button is wired to.
const DefaultPinButton = 17
