package testsupport

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"

	"sndx/internal/capture"
)

// FakeEncoder stands in for ffmpeg. Processes it starts exit when they
// receive a signal through Signal. Err, when set, fails every Start.
// ExitEarly, when set, makes every process exit at once with that status.
type FakeEncoder struct {
	Err       error
	ExitEarly error

	mu      sync.Mutex
	nextPid int
	started [][]string
	signals map[int][]unix.Signal
	procs   map[int]*fakeProcess
}

type fakeProcess struct {
	pid     int
	exited  chan struct{}
	once    sync.Once
	exitErr error
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Wait() error {
	<-p.exited
	return p.exitErr
}

func (p *fakeProcess) exit() { p.once.Do(func() { close(p.exited) }) }

func (e *FakeEncoder) Start(_ context.Context, _ string, args []string) (capture.Process, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	if e.procs == nil {
		e.procs = make(map[int]*fakeProcess)
		e.signals = make(map[int][]unix.Signal)
		e.nextPid = 1000
	}
	e.nextPid++
	proc := &fakeProcess{pid: e.nextPid, exited: make(chan struct{})}
	if e.ExitEarly != nil {
		proc.exitErr = e.ExitEarly
		proc.exit()
	}
	e.procs[proc.pid] = proc
	e.started = append(e.started, append([]string(nil), args...))
	return proc, nil
}

// Signal satisfies capture.SignalFunc.
func (e *FakeEncoder) Signal(pid int, sig unix.Signal) error {
	e.mu.Lock()
	proc, ok := e.procs[pid]
	if ok {
		e.signals[pid] = append(e.signals[pid], sig)
	}
	e.mu.Unlock()
	if !ok {
		return unix.ESRCH
	}
	proc.exit()
	return nil
}

// Controller returns a capture controller wired to the fake.
func (e *FakeEncoder) Controller() *capture.Controller {
	return capture.NewController(capture.WithStarter(e), capture.WithSignal(e.Signal))
}

// Started returns the argument lists of every spawned encoder.
func (e *FakeEncoder) Started() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.started...)
}

// SignalCount returns how many signals were delivered across all processes.
func (e *FakeEncoder) SignalCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, sigs := range e.signals {
		n += len(sigs)
	}
	return n
}

// Running counts started processes that have not exited.
func (e *FakeEncoder) Running() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, proc := range e.procs {
		select {
		case <-proc.exited:
		default:
			n++
		}
	}
	return n
}
