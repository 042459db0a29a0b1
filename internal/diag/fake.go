package diag

// Recorder is a test double that captures diagnostic lines.
type Recorder struct {
	Lines  []string
	Closed bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Line records the diagnostic line.
func (r *Recorder) Line(line string) {
	r.Lines = append(r.Lines, line)
}

// Close marks the recorder as closed.
func (r *Recorder) Close() error {
	r.Closed = true
	return nil
}
