// Package diag provides the line-oriented diagnostic sink the node reports
// through. The default sink writes to the process log; an alternative sink
// writes to a serial debug console for headless installations.
package diag

import "log"

// Sink receives human-readable diagnostic lines. The format is for humans,
// not machine parsing.
type Sink interface {
	Line(s string)
	Close() error
}

// LogSink writes diagnostic lines through the standard library logger.
type LogSink struct{}

// NewLog creates a Sink backed by the process log.
func NewLog() *LogSink {
	return &LogSink{}
}

// Line writes one diagnostic line.
func (s *LogSink) Line(line string) {
	log.Print(line)
}

// Close is a no-op for the log sink.
func (s *LogSink) Close() error { return nil }
