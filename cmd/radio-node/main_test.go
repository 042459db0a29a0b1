package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/radio-node/internal/diag"
	"github.com/sweeney/radio-node/internal/gpio"
	"github.com/sweeney/radio-node/internal/logic"
	"github.com/sweeney/radio-node/internal/mqtt"
	"github.com/sweeney/radio-node/internal/node"
	"github.com/sweeney/radio-node/internal/radio"
	"github.com/sweeney/radio-node/internal/status"
)

const (
	testDebounce = 50 * time.Millisecond
	testHold     = time.Second
	testTick     = 10 * time.Millisecond
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeat returns n copies of sample.
func repeat(sample bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

// pressSequence is a full debounced press: enough pressed samples for the
// edge to register at a 10ms tick, then enough released samples to settle
// back.
func pressSequence() []bool {
	return append(repeat(true, 7), repeat(false, 7)...)
}

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
// No shared mutable state — the fault range is fixed at construction.
type faultReader struct {
	inner      *gpio.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (bool, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		return false, errors.New("gpio fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

// loopHarness bundles the fakes runLoop is driven with.
type loopHarness struct {
	fake    *radio.FakeTransceiver
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	sink    *diag.Recorder
	coord   *node.Coordinator
}

func newLoopHarness() *loopHarness {
	fake := radio.NewFakeTransceiver()
	button := logic.NewButton(testDebounce, testHold)
	coord := node.NewCoordinator(fake, button, node.Config{
		Sleep: func(time.Duration) {},
	})
	return &loopHarness{
		fake:    fake,
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(time.Now(), status.Config{}),
		sink:    diag.NewRecorder(),
		coord:   coord,
	}
}

// runRunLoop drives runLoop with the given samples and signal, returning
// the loop error for assertions.
func runRunLoop(t *testing.T, h *loopHarness, reader gpio.Reader, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testTick)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(reader, h.coord, h.pub, h.pub, h.tracker, h.sink, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func TestRunLoopQuietUntilShutdown(t *testing.T) {
	h := newLoopHarness()
	reader := gpio.NewFakeReader(repeat(false, 5))

	err := runRunLoop(t, h, reader, 5, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 published events, got %d", len(h.pub.Events))
	}

	// Should have exactly one system event: SHUTDOWN
	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	se := h.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN event, got %q", se.Event)
	}
	if se.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected shutdown event to be retained")
	}

	// Boot arms the receiver exactly once
	if h.fake.ReceiveCalls != 1 {
		t.Errorf("ReceiveCalls = %d, want 1", h.fake.ReceiveCalls)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	h := newLoopHarness()
	reader := gpio.NewFakeReader(repeat(false, 2))

	err := runRunLoop(t, h, reader, 2, syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(h.pub.SystemEvents) != 1 || h.pub.SystemEvents[0].Reason != "SIGINT" {
		t.Errorf("expected SHUTDOWN with reason SIGINT, got %+v", h.pub.SystemEvents)
	}
}

func TestRunLoopPressPublishesModeChange(t *testing.T) {
	h := newLoopHarness()
	samples := append(repeat(false, 2), pressSequence()...)
	reader := gpio.NewFakeReader(samples)

	err := runRunLoop(t, h, reader, len(samples), syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var modeChanges int
	for _, e := range h.pub.Events {
		if e.Type == node.EventModeChange {
			modeChanges++
			if e.Mode != node.ModeTransmit {
				t.Errorf("mode change to %q, want TRANSMIT", e.Mode)
			}
		}
	}
	if modeChanges != 1 {
		t.Errorf("expected 1 MODE_CHANGE event, got %d", modeChanges)
	}

	// Entering transmit mode sends the first packet
	if len(h.fake.TransmitSent) != 1 {
		t.Errorf("TransmitSent = %d packets, want 1", len(h.fake.TransmitSent))
	}

	// The diagnostic sink saw the mode change
	found := false
	for _, line := range h.sink.Lines {
		if strings.Contains(line, "mode changed to TRANSMIT") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing mode change diagnostic line, got %v", h.sink.Lines)
	}

	// Tracker reflects the new mode
	snap := h.tracker.Snapshot()
	if snap.Mode != node.ModeTransmit {
		t.Errorf("tracker mode = %q, want TRANSMIT", snap.Mode)
	}
	if snap.Counts.ModeChanges != 1 {
		t.Errorf("tracker mode changes = %d, want 1", snap.Counts.ModeChanges)
	}
}

func TestRunLoopReceivedPacketReported(t *testing.T) {
	h := newLoopHarness()
	h.fake.ReadResults = []radio.ReadResult{{Payload: []byte("hello")}}
	h.fake.RSSI = -48
	h.fake.LQI = 12
	reader := gpio.NewFakeReader(repeat(false, 4))

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testTick)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(reader, h.coord, h.pub, h.pub, h.tracker, h.sink, clock, tick, sig)
	}()

	tick <- time.Time{} // arms the receiver
	h.fake.CompleteReceive()
	tick <- time.Time{} // drains the completion
	sig <- syscall.SIGTERM

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var received []node.Event
	for _, e := range h.pub.Events {
		if e.Type == node.EventPacketReceived {
			received = append(received, e)
		}
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 PACKET_RECEIVED event, got %d", len(received))
	}
	if string(received[0].Payload) != "hello" {
		t.Errorf("payload = %q, want hello", received[0].Payload)
	}

	found := false
	for _, line := range h.sink.Lines {
		if strings.Contains(line, "received 5 bytes") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing receive diagnostic line, got %v", h.sink.Lines)
	}

	snap := h.tracker.Snapshot()
	if snap.LastPacket == nil {
		t.Fatal("expected tracker last packet")
	}
	if snap.LastPacket.Direction != "RX" || snap.LastPacket.Length != 5 {
		t.Errorf("last packet = %+v, want RX of 5 bytes", snap.LastPacket)
	}
}

func TestRunLoopGPIOReadErrorContinues(t *testing.T) {
	h := newLoopHarness()
	// 2 valid reads then 2 faults. Loop should continue past errors
	// and still publish SHUTDOWN.
	reader := &faultReader{
		inner:      gpio.NewFakeReader(repeat(false, 2)),
		faultStart: 2,
		faultEnd:   4,
	}

	err := runRunLoop(t, h, reader, 4, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	found := false
	for _, se := range h.pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event after GPIO errors")
	}
}

func TestRunLoopPublishErrorDoesNotCrash(t *testing.T) {
	h := newLoopHarness()
	h.pub.PublishError = fmt.Errorf("broker unavailable")
	samples := append(repeat(false, 2), pressSequence()...)
	reader := gpio.NewFakeReader(samples)

	err := runRunLoop(t, h, reader, len(samples), syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// Events are not recorded (publish fails) but SHUTDOWN still goes out
	// via PublishSystem.
	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(h.pub.Events))
	}
	if len(h.pub.SystemEvents) != 1 || h.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN despite publish errors, got %+v", h.pub.SystemEvents)
	}
}

func TestRunLoopRadioStartFatal(t *testing.T) {
	h := newLoopHarness()
	h.fake.StartErr = errors.New("spi timeout")
	reader := gpio.NewFakeReader(repeat(false, 1))

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testTick)

	err := runLoop(reader, h.coord, h.pub, h.pub, h.tracker, h.sink, clock, tick, sig)
	if err == nil {
		t.Fatal("expected fatal error when radio start fails")
	}
	if !strings.Contains(err.Error(), "spi timeout") {
		t.Errorf("error = %v, want wrapped spi timeout", err)
	}
}

func TestRunLoopListenFailureFatal(t *testing.T) {
	h := newLoopHarness()
	h.fake.StartReceiveErrs = []error{errors.New("chip wedged")}
	reader := gpio.NewFakeReader(repeat(false, 1))

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testTick)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(reader, h.coord, h.pub, h.pub, h.tracker, h.sink, clock, tick, sig)
	}()

	tick <- time.Time{}

	err := <-errCh
	if err == nil {
		t.Fatal("expected fatal error when arming the receiver fails")
	}
	if !strings.Contains(err.Error(), "chip wedged") {
		t.Errorf("error = %v, want wrapped chip wedged", err)
	}
}

func TestFormatEvent(t *testing.T) {
	cases := []struct {
		name  string
		event node.Event
		want  string
	}{
		{
			name:  "mode change",
			event: node.Event{Type: node.EventModeChange, Mode: node.ModeTransmit},
			want:  "mode changed to TRANSMIT",
		},
		{
			name:  "packet received",
			event: node.Event{Type: node.EventPacketReceived, Payload: []byte("hi"), RSSI: -48.5, LQI: 12},
			want:  `received 2 bytes (rssi=-48.5 dBm lqi=12): "hi"`,
		},
		{
			name:  "packet corrupt",
			event: node.Event{Type: node.EventPacketCorrupt},
			want:  "received corrupt packet (crc mismatch), discarded",
		},
		{
			name:  "receive error",
			event: node.Event{Type: node.EventReceiveError, Err: "rx overflow"},
			want:  "receive error: rx overflow",
		},
		{
			name:  "transmit ok",
			event: node.Event{Type: node.EventTransmitOK, Seq: 4},
			want:  "transmitted packet #4",
		},
		{
			name:  "transmit failed",
			event: node.Event{Type: node.EventTransmitFailed, Seq: 2, Err: "tx underflow"},
			want:  "transmit #2 failed: tx underflow",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatEvent(tc.event); got != tc.want {
				t.Errorf("formatEvent() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseConsole(t *testing.T) {
	device, baud, err := parseConsole("/dev/ttyAMA0@115200")
	if err != nil {
		t.Fatalf("parseConsole() error = %v", err)
	}
	if device != "/dev/ttyAMA0" {
		t.Errorf("device = %q, want /dev/ttyAMA0", device)
	}
	if baud != 115200 {
		t.Errorf("baud = %d, want 115200", baud)
	}
}

func TestParseConsoleRejectsBadSpecs(t *testing.T) {
	for _, spec := range []string{"/dev/ttyAMA0", "@9600", "/dev/ttyAMA0@", "/dev/ttyAMA0@fast", "/dev/ttyAMA0@-1"} {
		if _, _, err := parseConsole(spec); err == nil {
			t.Errorf("parseConsole(%q) should fail", spec)
		}
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want node.Mode
	}{
		{"RECEIVE", node.ModeReceive},
		{"receive", node.ModeReceive},
		{"rx", node.ModeReceive},
		{"TRANSMIT", node.ModeTransmit},
		{"tx", node.ModeTransmit},
	}
	for _, tc := range cases {
		got, err := parseMode(tc.in)
		if err != nil {
			t.Errorf("parseMode(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := parseMode("standby"); err == nil {
		t.Error("parseMode(standby) should fail")
	}
}
