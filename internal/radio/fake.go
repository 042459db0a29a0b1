package radio

// ReadResult scripts one ReadData outcome for the fake.
type ReadResult struct {
	Payload []byte
	Err     error
}

// FakeTransceiver is a scripted test double for the Transceiver interface.
// Error and read queues are consumed one entry per call; past the end of a
// queue the call succeeds (or returns an empty payload for ReadData).
type FakeTransceiver struct {
	StartErr          error
	StartReceiveErrs  []error
	StartTransmitErrs []error
	FinishErr         error
	ReadResults       []ReadResult
	RSSI              float64
	LQI               int

	StartCalls    int
	ReceiveCalls  int
	TransmitSent  [][]byte
	FinishCalls   int
	ReadCalls     int
	Closed        bool

	onRxDone func()
	onTxDone func()
}

// NewFakeTransceiver creates an empty fake.
func NewFakeTransceiver() *FakeTransceiver {
	return &FakeTransceiver{}
}

func (f *FakeTransceiver) Start() error {
	f.StartCalls++
	return f.StartErr
}

func (f *FakeTransceiver) StartReceive() error {
	f.ReceiveCalls++
	if n := f.ReceiveCalls - 1; n < len(f.StartReceiveErrs) {
		return f.StartReceiveErrs[n]
	}
	return nil
}

func (f *FakeTransceiver) StartTransmit(payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.TransmitSent = append(f.TransmitSent, cp)
	if n := len(f.TransmitSent) - 1; n < len(f.StartTransmitErrs) {
		return f.StartTransmitErrs[n]
	}
	return nil
}

func (f *FakeTransceiver) ReadData() ([]byte, error) {
	f.ReadCalls++
	if n := f.ReadCalls - 1; n < len(f.ReadResults) {
		return f.ReadResults[n].Payload, f.ReadResults[n].Err
	}
	return nil, nil
}

func (f *FakeTransceiver) FinishTransmit() error {
	f.FinishCalls++
	return f.FinishErr
}

func (f *FakeTransceiver) SignalStrength() float64 { return f.RSSI }

func (f *FakeTransceiver) LinkQuality() int { return f.LQI }

func (f *FakeTransceiver) OnReceiveDone(fn func()) { f.onRxDone = fn }

func (f *FakeTransceiver) OnTransmitDone(fn func()) { f.onTxDone = fn }

func (f *FakeTransceiver) Close() error {
	f.Closed = true
	return nil
}

// CompleteReceive simulates the interrupt announcing a finished reception.
func (f *FakeTransceiver) CompleteReceive() {
	if f.onRxDone != nil {
		f.onRxDone()
	}
}

// CompleteTransmit simulates the interrupt announcing a finished
// transmission.
func (f *FakeTransceiver) CompleteTransmit() {
	if f.onTxDone != nil {
		f.onTxDone()
	}
}
