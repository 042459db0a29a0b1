package diag

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialSink writes diagnostic lines to a serial debug console. Useful when
// the node runs headless with only a UART attached.
type SerialSink struct {
	port serial.Port
}

// NewSerial opens the named serial port (e.g. /dev/ttyAMA0) at the given
// baud rate and returns a sink writing CRLF-terminated lines to it.
func NewSerial(device string, baud int) (*SerialSink, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open console %s: %w", device, err)
	}
	return &SerialSink{port: port}, nil
}

// Line writes one diagnostic line to the console. Write errors are dropped:
// a detached console must not disturb the control loop.
func (s *SerialSink) Line(line string) {
	s.port.Write([]byte(line + "\r\n"))
}

// Close releases the serial port.
func (s *SerialSink) Close() error {
	return s.port.Close()
}
