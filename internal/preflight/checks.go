package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"sndx/internal/config"
	"sndx/internal/deps"
)

// CheckSystemDeps evaluates the external binaries for the given config. Both
// the extract command and doctor use this to avoid duplicating the list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	return append(statuses, deps.CheckBrowser(cfg.Browser.Executable))
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckAudioServer runs `pactl info` to confirm a PulseAudio-compatible
// server is answering.
func CheckAudioServer(ctx context.Context, pactl string) Result {
	const name = "Audio server"

	pactl = strings.TrimSpace(pactl)
	if pactl == "" {
		return Result{Name: name, Detail: "pactl not configured"}
	}
	if _, err := exec.LookPath(pactl); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", pactl)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(checkCtx, pactl, "info").Output() //nolint:gosec
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("pactl info failed (%v)", err)}
	}
	for _, line := range strings.Split(string(out), "\n") {
		if key, value, ok := strings.Cut(line, ":"); ok && strings.TrimSpace(key) == "Server Name" {
			return Result{Name: name, Passed: true, Detail: strings.TrimSpace(value)}
		}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckPortal verifies the login page answers. It is advisory: the portal
// may throttle probes.
func CheckPortal(ctx context.Context, loginURL string) Result {
	const name = "Portal"

	loginURL = strings.TrimSpace(loginURL)
	if loginURL == "" {
		return Result{Name: name, Optional: true, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, loginURL, nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: summarizeHTTPError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("Reachable (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Optional: true, Detail: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (portal unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (portal unreachable)"
	}
	return err.Error()
}
