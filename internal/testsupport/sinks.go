package testsupport

import (
	"context"
	"fmt"
	"sync"

	"sndx/internal/audiosink"
)

// FakeSinks is an in-memory audiosink.Manager. OpenErr, when set, fails
// every Open.
type FakeSinks struct {
	IDs     *audiosink.IDGenerator
	OpenErr error

	mu     sync.Mutex
	opened []string
	closed []string
}

func (f *FakeSinks) Open(context.Context) (*audiosink.Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	if f.IDs == nil {
		f.IDs = audiosink.NewIDGenerator()
	}
	id, err := f.IDs.Next()
	if err != nil {
		return nil, err
	}
	sink := audiosink.NewSink(id)
	sink.Handle = fmt.Sprint(len(f.opened) + 1)
	f.opened = append(f.opened, sink.Name)
	return sink, nil
}

func (f *FakeSinks) Close(_ context.Context, sink *audiosink.Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, sink.Name)
	sink.Handle = ""
	return nil
}

// Opened returns the names of every opened sink.
func (f *FakeSinks) Opened() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

// Closed returns the names of every closed sink, in close order.
func (f *FakeSinks) Closed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}
