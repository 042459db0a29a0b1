package radio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// CC1101 command strobes.
const (
	strobeSRES  = 0x30 // reset chip
	strobeSCAL  = 0x33 // calibrate frequency synthesizer
	strobeSRX   = 0x34 // enable RX
	strobeSTX   = 0x35 // enable TX
	strobeSIDLE = 0x36 // exit RX/TX
	strobeSPWD  = 0x39 // power down when CSn deasserts
	strobeSFRX  = 0x3A // flush RX FIFO
	strobeSFTX  = 0x3B // flush TX FIFO
)

// CC1101 configuration registers.
const (
	regIOCFG0   = 0x02
	regFIFOTHR  = 0x03
	regPKTLEN   = 0x06
	regPKTCTRL1 = 0x07
	regPKTCTRL0 = 0x08
	regCHANNR   = 0x0A
	regMCSM1    = 0x17
	regMCSM0    = 0x18
)

// CC1101 status registers (read with the burst bit set).
const (
	regVERSION = 0x31
	regTXBYTES = 0x3A
	regRXBYTES = 0x3B
)

const (
	regFIFO     = 0x3F
	headerBurst = 0x40
	headerRead  = 0x80

	fifoSize = 64
)

// SPI is the transaction interface the driver needs.
// periph.io's spi.Conn satisfies it; tests substitute a mock.
type SPI interface {
	// Tx sends w and reads into r. len(r) must be >= len(w).
	Tx(w, r []byte) error
}

// Pin is the completion-interrupt pin (GDO0) interface.
// periph.io's gpio.PinIO satisfies it; tests substitute a mock.
type Pin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
}

// Config holds the CC1101 wiring and RF parameters.
type Config struct {
	// Port is the spireg port name, e.g. "SPI0.0".
	Port string
	// GDO0Pin is the gpioreg name of the packet-done pin, e.g. "GPIO24".
	GDO0Pin string
	// Channel selects the RF channel within the configured band.
	Channel byte
}

// CC1101 drives a TI CC1101 sub-GHz transceiver over SPI.
//
// GDO0 is configured to assert on sync word and deassert at the end of a
// packet, so its falling edge is the completion signal for both a finished
// reception and a finished transmission. The edge watcher runs in its own
// goroutine and invokes the registered completion callback for whichever
// operation is in flight.
type CC1101 struct {
	cfg  Config
	spi  SPI
	gdo0 Pin
	port io.Closer // underlying SPI port, closed on Close

	mu       sync.Mutex
	inTx     bool
	watching bool
	lastRSSI float64
	lastLQI  int

	onRxDone func()
	onTxDone func()
	stop     chan struct{}
}

// newCC1101 wires a driver onto already-open hardware interfaces.
func newCC1101(conn SPI, gdo0 Pin, cfg Config) *CC1101 {
	return &CC1101{
		cfg:  cfg,
		spi:  conn,
		gdo0: gdo0,
		stop: make(chan struct{}),
	}
}

// Start resets and configures the radio, verifies the chip is responding,
// and launches the completion watcher. Failure here is fatal to the node.
func (d *CC1101) Start() error {
	if _, err := d.strobe(strobeSRES); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	time.Sleep(time.Millisecond)

	regs := []struct{ addr, val byte }{
		{regIOCFG0, 0x06},  // GDO0: assert on sync word, deassert at packet end
		{regFIFOTHR, 0x47}, // FIFO thresholds
		{regPKTLEN, 0xFF},  // maximum packet length
		{regPKTCTRL1, 0x04}, // append RSSI/LQI status bytes to RX FIFO
		{regPKTCTRL0, 0x05}, // variable packet length, hardware CRC
		{regCHANNR, d.cfg.Channel},
		{regMCSM1, 0x30}, // return to IDLE after RX and TX
		{regMCSM0, 0x18}, // auto-calibrate on IDLE to RX/TX
	}
	for _, r := range regs {
		if err := d.writeReg(r.addr, r.val); err != nil {
			return fmt.Errorf("write reg 0x%02X: %w", r.addr, err)
		}
	}

	version, err := d.readStatusReg(regVERSION)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if version == 0x00 || version == 0xFF {
		return fmt.Errorf("cc1101 not responding (version 0x%02X): check wiring/power", version)
	}

	if _, err := d.strobe(strobeSCAL); err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}

	if d.gdo0 != nil {
		if err := d.gdo0.In(gpio.Float, gpio.FallingEdge); err != nil {
			return fmt.Errorf("configure GDO0: %w", err)
		}
		d.mu.Lock()
		if !d.watching {
			d.watching = true
			go d.watch()
		}
		d.mu.Unlock()
	}
	return nil
}

// StartReceive flushes the RX FIFO and arms the receiver.
func (d *CC1101) StartReceive() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range []byte{strobeSIDLE, strobeSFRX, strobeSRX} {
		if _, err := d.strobe(s); err != nil {
			return fmt.Errorf("enter rx: %w", err)
		}
	}
	d.inTx = false
	return nil
}

// StartTransmit buffers payload into the TX FIFO and starts sending.
// The hardware FIFO holds 64 bytes; longer payloads are topped up as the
// FIFO drains, so this call blocks until the tail has been buffered.
func (d *CC1101) StartTransmit(payload []byte) error {
	if len(payload) == 0 || len(payload) > MaxPayload {
		return ErrPayloadSize
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range []byte{strobeSIDLE, strobeSFTX} {
		if _, err := d.strobe(s); err != nil {
			return fmt.Errorf("enter tx: %w", err)
		}
	}

	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, byte(len(payload)))
	frame = append(frame, payload...)

	first := len(frame)
	if first > fifoSize {
		first = fifoSize
	}
	if err := d.writeBurst(regFIFO, frame[:first]); err != nil {
		return fmt.Errorf("fill tx fifo: %w", err)
	}
	if _, err := d.strobe(strobeSTX); err != nil {
		return fmt.Errorf("strobe tx: %w", err)
	}
	d.inTx = true

	rest := frame[first:]
	for len(rest) > 0 {
		n, err := d.readStatusReg(regTXBYTES)
		if err != nil {
			return fmt.Errorf("read tx fifo level: %w", err)
		}
		free := fifoSize - int(n&0x7F)
		if free <= 0 {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		chunk := free
		if chunk > len(rest) {
			chunk = len(rest)
		}
		if err := d.writeBurst(regFIFO, rest[:chunk]); err != nil {
			return fmt.Errorf("top up tx fifo: %w", err)
		}
		rest = rest[chunk:]
	}
	return nil
}

// ReadData drains the pending packet from the RX FIFO. The two appended
// status bytes update the RSSI/LQI readings; a clear CRC_OK bit discards
// the payload and returns ErrCRCMismatch.
func (d *CC1101) ReadData() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	avail, err := d.readStatusReg(regRXBYTES)
	if err != nil {
		return nil, fmt.Errorf("read rx fifo level: %w", err)
	}
	avail &= 0x7F
	if avail < 3 {
		d.strobe(strobeSFRX)
		return nil, fmt.Errorf("rx fifo underflow (%d bytes)", avail)
	}

	length, err := d.readReg(regFIFO)
	if err != nil {
		return nil, fmt.Errorf("read packet length: %w", err)
	}
	if int(length)+3 > int(avail) {
		d.strobe(strobeSFRX)
		return nil, fmt.Errorf("truncated packet (len %d, fifo %d)", length, avail)
	}

	payload, err := d.readBurst(regFIFO, int(length))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	status, err := d.readBurst(regFIFO, 2)
	if err != nil {
		return nil, fmt.Errorf("read status bytes: %w", err)
	}

	d.lastRSSI = decodeRSSI(status[0])
	d.lastLQI = int(status[1] & 0x7F)
	if status[1]&0x80 == 0 {
		return nil, ErrCRCMismatch
	}
	return payload, nil
}

// FinishTransmit takes the radio out of TX and flushes the TX FIFO. Must
// run once per completed transmission, success or failure.
func (d *CC1101) FinishTransmit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range []byte{strobeSIDLE, strobeSFTX} {
		if _, err := d.strobe(s); err != nil {
			return fmt.Errorf("finish tx: %w", err)
		}
	}
	d.inTx = false
	return nil
}

// SignalStrength returns the RSSI of the last received packet in dBm.
func (d *CC1101) SignalStrength() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRSSI
}

// LinkQuality returns the LQI of the last received packet. Lower is better.
func (d *CC1101) LinkQuality() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastLQI
}

// OnReceiveDone registers the receive-completion callback. Register before
// calling Start.
func (d *CC1101) OnReceiveDone(fn func()) { d.onRxDone = fn }

// OnTransmitDone registers the transmit-completion callback. Register
// before calling Start.
func (d *CC1101) OnTransmitDone(fn func()) { d.onTxDone = fn }

// Close idles the radio, powers it down and releases the SPI port.
func (d *CC1101) Close() error {
	d.mu.Lock()
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
	d.strobe(strobeSIDLE)
	d.strobe(strobeSPWD)
	d.mu.Unlock()

	if d.port != nil {
		return d.port.Close()
	}
	return nil
}

// watch blocks on GDO0 falling edges and dispatches completions to the
// registered callbacks. It runs until Close.
func (d *CC1101) watch() {
	for {
		ok := d.gdo0.WaitForEdge(-1)
		select {
		case <-d.stop:
			return
		default:
		}
		if !ok {
			continue
		}

		d.mu.Lock()
		tx := d.inTx
		d.mu.Unlock()

		if tx {
			if d.onTxDone != nil {
				d.onTxDone()
			}
		} else if d.onRxDone != nil {
			d.onRxDone()
		}
	}
}

// strobe issues a single-byte command and returns the chip status byte.
func (d *CC1101) strobe(cmd byte) (byte, error) {
	var r [1]byte
	if err := d.spi.Tx([]byte{cmd}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (d *CC1101) writeReg(addr, val byte) error {
	var r [2]byte
	return d.spi.Tx([]byte{addr, val}, r[:])
}

func (d *CC1101) readReg(addr byte) (byte, error) {
	var r [2]byte
	if err := d.spi.Tx([]byte{addr | headerRead, 0}, r[:]); err != nil {
		return 0, err
	}
	return r[1], nil
}

// readStatusReg reads one of the 0x30..0x3D status registers, which share
// addresses with the strobes and are distinguished by the burst bit.
func (d *CC1101) readStatusReg(addr byte) (byte, error) {
	return d.readReg(addr | headerBurst)
}

func (d *CC1101) readBurst(addr byte, n int) ([]byte, error) {
	w := make([]byte, n+1)
	w[0] = addr | headerRead | headerBurst
	r := make([]byte, n+1)
	if err := d.spi.Tx(w, r); err != nil {
		return nil, err
	}
	return r[1:], nil
}

func (d *CC1101) writeBurst(addr byte, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, addr|headerBurst)
	w = append(w, data...)
	r := make([]byte, len(w))
	return d.spi.Tx(w, r)
}

// decodeRSSI converts the raw appended RSSI byte to dBm.
func decodeRSSI(raw byte) float64 {
	if raw >= 128 {
		return float64(int(raw)-256)/2 - 74
	}
	return float64(raw)/2 - 74
}
