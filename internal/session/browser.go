package session

import (
	"context"
	"errors"
	"os"
	"sync"

	"sndx/internal/audiosink"
	"sndx/internal/browser"
	"sndx/internal/services"
)

// Browser is one launched browser bound to a profile and a sink. The sink is
// borrowed; the pool that opened it closes it.
type Browser struct {
	ID         string
	ProfileID  string
	ProfileDir string
	Sink       *audiosink.Sink
	Headless   bool
	ExecPath   string

	mu         sync.Mutex
	page       browser.Page
	terminated bool
}

// Launch starts the browser. A Browser launches at most once.
func (b *Browser) Launch(ctx context.Context, launcher browser.Launcher) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.page != nil || b.terminated {
		return services.Wrap(services.ErrLaunch, "session", "launch", b.ProfileID+": already launched", nil)
	}
	if err := os.MkdirAll(b.ProfileDir, 0o755); err != nil {
		return services.Wrap(services.ErrLaunch, "session", "create profile", b.ProfileDir, err)
	}
	opts := browser.LaunchOptions{
		ProfileDir: b.ProfileDir,
		Headless:   b.Headless,
		ExecPath:   b.ExecPath,
	}
	if b.Sink != nil {
		opts.SinkName = b.Sink.Name
	}
	page, err := launcher.Launch(ctx, opts)
	if err != nil {
		if errors.Is(err, services.ErrLaunch) {
			return err
		}
		return services.Wrap(services.ErrLaunch, "session", "launch", b.ProfileID, err)
	}
	b.page = page
	return nil
}

// Page returns the launched page, or nil.
func (b *Browser) Page() browser.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// Launched reports whether Launch succeeded and Terminate has not run.
func (b *Browser) Launched() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page != nil && !b.terminated
}

// Terminate closes the browser. It is a no-op before a successful launch and
// on every call after the first.
func (b *Browser) Terminate(ctx context.Context) error {
	b.mu.Lock()
	page := b.page
	if page == nil || b.terminated {
		b.mu.Unlock()
		return nil
	}
	b.terminated = true
	b.mu.Unlock()
	return page.Close(ctx)
}
