package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"sndx/internal/audiosink"
	"sndx/internal/logging"
	"sndx/internal/services"
)

const (
	DefaultBinary   = "ffmpeg"
	DefaultBitrate  = "192k"
	DefaultChannels = 2
)

// SignalFunc delivers sig to pid.
type SignalFunc func(pid int, sig unix.Signal) error

// Option configures a Controller.
type Option func(*Controller)

func WithBinary(binary string) Option {
	return func(c *Controller) {
		if binary = strings.TrimSpace(binary); binary != "" {
			c.binary = binary
		}
	}
}

func WithBitrate(bitrate string) Option {
	return func(c *Controller) {
		if bitrate = strings.TrimSpace(bitrate); bitrate != "" {
			c.bitrate = bitrate
		}
	}
}

func WithChannels(channels int) Option {
	return func(c *Controller) {
		if channels > 0 {
			c.channels = channels
		}
	}
}

// WithStarter injects a process starter (primarily for tests).
func WithStarter(s Starter) Option {
	return func(c *Controller) {
		if s != nil {
			c.starter = s
		}
	}
}

// WithSignal replaces unix.Kill (primarily for tests).
func WithSignal(fn SignalFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.signal = fn
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.NewComponentLogger(logger, "capture")
	}
}

// Controller starts and stops recordings.
type Controller struct {
	binary   string
	bitrate  string
	channels int
	starter  Starter
	signal   SignalFunc
	logger   *slog.Logger
}

// NewController constructs a controller with ffmpeg defaults.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		binary:   DefaultBinary,
		bitrate:  DefaultBitrate,
		channels: DefaultChannels,
		starter:  ExecStarter{},
		signal:   unix.Kill,
		logger:   logging.NewComponentLogger(nil, "capture"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Args returns the encoder command line for recording sink into dest.
func (c *Controller) Args(sink *audiosink.Sink, dest string) []string {
	return []string{
		"-y",
		"-f", "pulse",
		"-i", sink.MonitorName(),
		"-ac", strconv.Itoa(c.channels),
		"-vn",
		"-b:a", c.bitrate,
		dest,
	}
}

// Start truncates dest and spawns the encoder on the sink's monitor source.
// There is no retry.
func (c *Controller) Start(ctx context.Context, sink *audiosink.Sink, dest string) (*Recording, error) {
	if sink == nil {
		return nil, services.Wrap(services.ErrCapture, "capture", "start", "sink required", nil)
	}
	f, err := os.Create(dest)
	if err != nil {
		return nil, services.Wrap(services.ErrCapture, "capture", "create output", dest, err)
	}
	if err := f.Close(); err != nil {
		return nil, services.Wrap(services.ErrCapture, "capture", "create output", dest, err)
	}

	proc, err := c.starter.Start(ctx, c.binary, c.Args(sink, dest))
	if err != nil {
		return nil, services.Wrap(services.ErrCapture, "capture", "spawn encoder", c.binary, err)
	}
	logger := logging.WithContext(ctx, c.logger).With(
		logging.String(logging.FieldSink, sink.Name),
		logging.String("file", dest),
		logging.Int("pid", proc.Pid()),
	)
	logger.Info("capture started")

	rec := &Recording{
		Sink:     sink,
		Filename: dest,
		proc:     proc,
		signal:   c.signal,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go rec.reap()
	return rec, nil
}

// Stop interrupts rec's encoder. See Recording.Stop.
func (c *Controller) Stop(rec *Recording) error {
	if rec == nil {
		return nil
	}
	return rec.Stop()
}

// Recording is one running capture.
type Recording struct {
	Sink     *audiosink.Sink
	Filename string

	proc   Process
	signal SignalFunc
	logger *slog.Logger

	done    chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

func (r *Recording) reap() {
	r.waitErr = r.proc.Wait()
	close(r.done)
	r.logger.Debug("encoder exited", logging.Error(r.waitErr))
}

// Stop sends SIGINT to the encoder and returns without waiting for it to
// exit. Calling Stop again, or after the encoder already exited, is a no-op.
func (r *Recording) Stop() error {
	r.stopOnce.Do(func() {
		select {
		case <-r.done:
			r.logger.Warn("encoder exited before stop", logging.Error(r.waitErr))
			return
		default:
		}
		err := r.signal(r.proc.Pid(), unix.SIGINT)
		if err != nil && !errors.Is(err, unix.ESRCH) {
			r.stopErr = services.Wrap(services.ErrCapture, "capture", "interrupt encoder",
				fmt.Sprintf("pid %d", r.proc.Pid()), err)
			return
		}
		r.logger.Info("capture stopped")
	})
	return r.stopErr
}

// Done is closed once the encoder has exited and been reaped.
func (r *Recording) Done() <-chan struct{} { return r.done }

// ExitErr is the encoder's exit status; valid after Done is closed.
func (r *Recording) ExitErr() error {
	select {
	case <-r.done:
		return r.waitErr
	default:
		return nil
	}
}
