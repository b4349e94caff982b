package capture

import (
	"context"
	"io"
	"os/exec"
)

// Process is a spawned encoder.
type Process interface {
	Pid() int
	Wait() error
}

// Starter spawns encoder processes.
type Starter interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

// ExecStarter runs the encoder with os/exec. The process is not bound to ctx:
// it runs until interrupted, so a cancelled run still produces a finalized
// file when the session stops it.
type ExecStarter struct {
	// Stderr receives encoder diagnostics; nil discards them.
	Stderr io.Writer
}

func (s ExecStarter) Start(_ context.Context, binary string, args []string) (Process, error) {
	cmd := exec.Command(binary, args...) //nolint:gosec
	if s.Stderr != nil {
		cmd.Stderr = s.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) Pid() int    { return p.cmd.Process.Pid }
func (p execProcess) Wait() error { return p.cmd.Wait() }
