package audiosink

import "context"

// NamePrefix prefixes every sink name so leftovers are easy to find with
// `pactl list short sinks`.
const NamePrefix = "sndx-"

// Sink is one virtual audio output. Handle is set only while the sink is open.
type Sink struct {
	ID     string
	Name   string
	Handle string
}

// NewSink allocates an unopened sink for id.
func NewSink(id string) *Sink {
	return &Sink{ID: id, Name: NamePrefix + id}
}

// MonitorName is the loopback source the encoder records from.
func (s *Sink) MonitorName() string {
	return s.Name + ".monitor"
}

// IsOpen reports whether the OS resource currently exists.
func (s *Sink) IsOpen() bool {
	return s != nil && s.Handle != ""
}

func (s *Sink) String() string {
	if s == nil {
		return "<nil sink>"
	}
	return s.Name
}

// Manager creates and destroys virtual sinks.
//
// Open may return a non-nil sink together with an error when the OS resource
// was created but could not be fully registered; callers must still Close it.
// Close is best-effort: its error is for reporting only.
type Manager interface {
	Open(ctx context.Context) (*Sink, error)
	Close(ctx context.Context, sink *Sink) error
}
