package audiosink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"sndx/internal/logging"
	"sndx/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args ...string) (string, error)
}

// Option configures the manager.
type Option func(*PulseManager)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(m *PulseManager) {
		if exec != nil {
			m.exec = exec
		}
	}
}

// WithIDGenerator shares an ID generator, so sink and session IDs never overlap.
func WithIDGenerator(ids *IDGenerator) Option {
	return func(m *PulseManager) {
		if ids != nil {
			m.ids = ids
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *PulseManager) {
		m.logger = logging.NewComponentLogger(logger, "audiosink")
	}
}

// PulseManager loads and unloads module-null-sink through pactl.
type PulseManager struct {
	binary string
	exec   Executor
	ids    *IDGenerator
	logger *slog.Logger
}

// NewPulseManager constructs a manager that drives the given pactl binary.
func NewPulseManager(binary string, opts ...Option) (*PulseManager, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("pactl binary required")
	}
	m := &PulseManager{
		binary: binary,
		exec:   commandExecutor{},
		ids:    NewIDGenerator(),
		logger: logging.NewComponentLogger(nil, "audiosink"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Open creates a null sink and records the pactl module index as its handle.
func (m *PulseManager) Open(ctx context.Context) (*Sink, error) {
	id, err := m.ids.Next()
	if err != nil {
		return nil, services.Wrap(services.ErrResource, "audiosink", "allocate id", "", err)
	}
	sink := NewSink(id)
	m.logger.Info("opening sink", logging.String(logging.FieldSink, sink.Name))

	out, err := m.exec.Output(ctx, m.binary, "load-module", "module-null-sink", "sink_name="+sink.Name)
	if err != nil {
		return nil, services.Wrap(services.ErrResource, "audiosink", "load-module", sink.Name, err)
	}
	sink.Handle = strings.TrimSpace(out)
	if sink.Handle == "" {
		// The module may exist without an index we can address; the caller
		// still runs Close so the attempt is logged.
		return sink, services.Wrap(services.ErrResource, "audiosink", "load-module", sink.Name+": empty module index", nil)
	}
	return sink, nil
}

// Close unloads the sink's module. Failures are logged and returned but never
// panic or block sibling cleanup.
func (m *PulseManager) Close(ctx context.Context, sink *Sink) error {
	if sink == nil {
		return nil
	}
	if !sink.IsOpen() {
		m.logger.Debug("sink has no module handle; nothing to unload", logging.String(logging.FieldSink, sink.Name))
		return nil
	}
	m.logger.Info("closing sink", logging.String(logging.FieldSink, sink.Name), logging.String("module", sink.Handle))

	if _, err := m.exec.Output(ctx, m.binary, "unload-module", sink.Handle); err != nil {
		wrapped := services.Wrap(services.ErrResource, "audiosink", "unload-module", sink.Name, err)
		m.logger.Warn("sink unload failed; module may linger until the audio server restarts",
			logging.String(logging.FieldSink, sink.Name),
			logging.Error(wrapped),
		)
		return wrapped
	}
	sink.Handle = ""
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s %s: %w: %s", binary, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	return string(out), nil
}
