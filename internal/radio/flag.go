package radio

import "sync/atomic"

// Flag is a single-producer/single-consumer completion cell. The producer
// is the driver's interrupt goroutine calling Set; the consumer drains it
// with TakeAndClear from the polling loop.
type Flag struct {
	v atomic.Bool
}

// Set marks a completion. Safe to call from the interrupt goroutine while
// the consumer is clearing.
func (f *Flag) Set() { f.v.Store(true) }

// TakeAndClear atomically reads and clears the flag, returning the value
// it held. A completion observed here is consumed and cannot be observed
// twice.
func (f *Flag) TakeAndClear() bool { return f.v.Swap(false) }

// Peek returns the current value without consuming it.
func (f *Flag) Peek() bool { return f.v.Load() }
