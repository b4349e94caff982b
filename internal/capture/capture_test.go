package capture_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"sndx/internal/audiosink"
	"sndx/internal/capture"
	"sndx/internal/services"
)

type fakeProcess struct {
	pid    int
	exited chan struct{}
	once   sync.Once
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Wait() error {
	<-p.exited
	return nil
}

func (p *fakeProcess) exit() { p.once.Do(func() { close(p.exited) }) }

type fakeStarter struct {
	mu     sync.Mutex
	binary string
	args   []string
	proc   *fakeProcess
	err    error
}

func (s *fakeStarter) Start(_ context.Context, binary string, args []string) (capture.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.binary = binary
	s.args = append([]string(nil), args...)
	s.proc = &fakeProcess{pid: 4242, exited: make(chan struct{})}
	return s.proc, nil
}

type signalRecorder struct {
	mu    sync.Mutex
	sent  []unix.Signal
	pids  []int
	onSig func()
	err   error
}

func (r *signalRecorder) send(pid int, sig unix.Signal) error {
	r.mu.Lock()
	r.sent = append(r.sent, sig)
	r.pids = append(r.pids, pid)
	fn := r.onSig
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
	return r.err
}

func TestStartSpawnsEncoderOnMonitor(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Ondes.mp3")
	if err := os.WriteFile(dest, []byte("stale recording"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	starter := &fakeStarter{}
	sig := &signalRecorder{}
	c := capture.NewController(capture.WithStarter(starter), capture.WithSignal(sig.send))
	sink := audiosink.NewSink("abc123")

	rec, err := c.Start(context.Background(), sink, dest)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer starter.proc.exit()

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected output truncated, size=%d", info.Size())
	}
	if starter.binary != "ffmpeg" {
		t.Fatalf("unexpected binary %q", starter.binary)
	}
	want := "-y -f pulse -i sndx-abc123.monitor -ac 2 -vn -b:a 192k " + dest
	if got := strings.Join(starter.args, " "); got != want {
		t.Fatalf("unexpected args:\n got %s\nwant %s", got, want)
	}
	if rec.Filename != dest || rec.Sink != sink {
		t.Fatalf("unexpected recording %+v", rec)
	}
}

func TestStopSendsSIGINTOnce(t *testing.T) {
	starter := &fakeStarter{}
	sig := &signalRecorder{}
	c := capture.NewController(capture.WithStarter(starter), capture.WithSignal(sig.send))

	rec, err := c.Start(context.Background(), audiosink.NewSink("abc123"), filepath.Join(t.TempDir(), "a.mp3"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sig.onSig = starter.proc.exit

	if err := c.Stop(rec); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if len(sig.sent) != 1 || sig.sent[0] != unix.SIGINT || sig.pids[0] != 4242 {
		t.Fatalf("expected one SIGINT to pid 4242, got %v %v", sig.sent, sig.pids)
	}
	select {
	case <-rec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("encoder was not reaped")
	}
}

func TestStopAfterExitIsNoop(t *testing.T) {
	starter := &fakeStarter{}
	sig := &signalRecorder{}
	c := capture.NewController(capture.WithStarter(starter), capture.WithSignal(sig.send))

	rec, err := c.Start(context.Background(), audiosink.NewSink("abc123"), filepath.Join(t.TempDir(), "a.mp3"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	starter.proc.exit()
	<-rec.Done()

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(sig.sent) != 0 {
		t.Fatalf("no signal expected for exited encoder, got %v", sig.sent)
	}
}

func TestStopSignalFailure(t *testing.T) {
	starter := &fakeStarter{}
	sig := &signalRecorder{err: unix.EPERM}
	c := capture.NewController(capture.WithStarter(starter), capture.WithSignal(sig.send))

	rec, err := c.Start(context.Background(), audiosink.NewSink("abc123"), filepath.Join(t.TempDir(), "a.mp3"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer starter.proc.exit()
	if err := rec.Stop(); !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected capture error, got %v", err)
	}

	gone := &signalRecorder{err: unix.ESRCH}
	c = capture.NewController(capture.WithStarter(starter), capture.WithSignal(gone.send))
	rec, err = c.Start(context.Background(), audiosink.NewSink("abc124"), filepath.Join(t.TempDir(), "b.mp3"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer starter.proc.exit()
	if err := rec.Stop(); err != nil {
		t.Fatalf("vanished process should not be an error, got %v", err)
	}
}

func TestStartFailures(t *testing.T) {
	c := capture.NewController(capture.WithStarter(&fakeStarter{err: errors.New("exec: \"ffmpeg\": not found")}))
	dest := filepath.Join(t.TempDir(), "a.mp3")
	if _, err := c.Start(context.Background(), audiosink.NewSink("abc123"), dest); !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected capture error for spawn failure, got %v", err)
	}
	if _, err := c.Start(context.Background(), nil, dest); !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected capture error for nil sink, got %v", err)
	}
	missingDir := filepath.Join(t.TempDir(), "missing", "a.mp3")
	if _, err := capture.NewController(capture.WithStarter(&fakeStarter{})).Start(context.Background(), audiosink.NewSink("abc123"), missingDir); !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected capture error for unwritable destination, got %v", err)
	}
}

func TestArgsHonourOptions(t *testing.T) {
	c := capture.NewController(capture.WithBitrate("96k"), capture.WithChannels(1), capture.WithBinary("/opt/ffmpeg"))
	got := strings.Join(c.Args(audiosink.NewSink("xyz789"), "/out/x.mp3"), " ")
	if got != "-y -f pulse -i sndx-xyz789.monitor -ac 1 -vn -b:a 96k /out/x.mp3" {
		t.Fatalf("unexpected args %s", got)
	}
}
