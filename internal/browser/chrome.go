package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"sndx/internal/logging"
	"sndx/internal/services"
)

const defaultLaunchTimeout = 30 * time.Second

// ChromeOption configures a ChromeLauncher.
type ChromeOption func(*ChromeLauncher)

// WithLaunchTimeout bounds how long Launch waits for the browser to answer.
func WithLaunchTimeout(d time.Duration) ChromeOption {
	return func(l *ChromeLauncher) {
		if d > 0 {
			l.launchTimeout = d
		}
	}
}

// WithLogger sets the launcher logger.
func WithLogger(logger *slog.Logger) ChromeOption {
	return func(l *ChromeLauncher) {
		l.logger = logging.NewComponentLogger(logger, "browser")
	}
}

// ChromeLauncher starts Chrome or Chromium over the DevTools protocol.
type ChromeLauncher struct {
	launchTimeout time.Duration
	logger        *slog.Logger
}

// NewChromeLauncher constructs a launcher.
func NewChromeLauncher(opts ...ChromeOption) *ChromeLauncher {
	l := &ChromeLauncher{
		launchTimeout: defaultLaunchTimeout,
		logger:        logging.NewComponentLogger(nil, "browser"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func allocatorOptions(opts LaunchOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		// chromedp's headless preset mutes audio, which would leave the sink silent.
		chromedp.Flag("mute-audio", false),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.UserDataDir(opts.ProfileDir),
	)
	if opts.SinkName != "" {
		allocOpts = append(allocOpts,
			chromedp.Flag("audio-output-sink", opts.SinkName),
			chromedp.Env("PULSE_SINK="+opts.SinkName),
		)
	}
	if path := strings.TrimSpace(opts.ExecPath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}
	return allocOpts
}

// Launch starts a browser with its own profile directory and audio sink.
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Page, error) {
	if strings.TrimSpace(opts.ProfileDir) == "" {
		return nil, services.Wrap(services.ErrLaunch, "browser", "launch", "profile directory required", nil)
	}
	logger := logging.WithContext(ctx, l.logger)
	logger.Info("launching browser",
		logging.String("profile", opts.ProfileDir),
		logging.String(logging.FieldSink, opts.SinkName),
		logging.Bool("headless", opts.Headless),
	)

	// The browser outlives the launch call, so it must not inherit ctx's
	// cancellation. Close tears it down.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(opts)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithErrorf(func(format string, args ...any) {
		logger.Debug("devtools error", logging.String("detail", fmt.Sprintf(format, args...)))
	}))

	// The first Run allocates the browser; a deadline on it would kill the
	// browser when it expires, so the timeout is enforced out of band.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(l.launchTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-started:
	case <-timer.C:
		err = fmt.Errorf("browser did not respond within %s", l.launchTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		cancelTab()
		cancelAlloc()
		return nil, services.Wrap(services.ErrLaunch, "browser", "launch", opts.ProfileDir, err)
	}

	return &chromePage{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}, nil
}

type chromePage struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// run executes actions on the tab, aborting when ctx is cancelled.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) Location(ctx context.Context) (string, error) {
	var href string
	if err := p.run(ctx, chromedp.Location(&href)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return href, nil
}

func (p *chromePage) QueryAll(ctx context.Context, loc Locator) ([]Element, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(loc.XPath(), &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, chromeElement{node: n})
	}
	return elements, nil
}

func (p *chromePage) TextContent(ctx context.Context, el Element) (string, error) {
	node, err := chromeNode(el)
	if err != nil {
		return "", err
	}
	var text string
	if err := p.run(ctx, chromedp.TextContent([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("text of <%s>: %w", el.Tag(), err)
	}
	return text, nil
}

func (p *chromePage) Click(ctx context.Context, el Element) error {
	node, err := chromeNode(el)
	if err != nil {
		return err
	}
	if err := p.run(ctx, chromedp.MouseClickNode(node)); err != nil {
		return fmt.Errorf("click <%s>: %w", el.Tag(), err)
	}
	return nil
}

func (p *chromePage) Type(ctx context.Context, selector, text string) error {
	if err := p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Close(context.Context) error {
	p.closeOnce.Do(func() {
		err := chromedp.Cancel(p.tabCtx)
		p.cancelTab()
		p.cancelAlloc()
		if err != nil && !errors.Is(err, context.Canceled) {
			p.closeErr = fmt.Errorf("close browser: %w", err)
			p.logger.Warn("browser close reported error", logging.Error(p.closeErr))
		}
	})
	return p.closeErr
}

type chromeElement struct {
	node *cdp.Node
}

func (e chromeElement) Tag() string { return strings.ToLower(e.node.NodeName) }

func chromeNode(el Element) (*cdp.Node, error) {
	ce, ok := el.(chromeElement)
	if !ok || ce.node == nil {
		return nil, fmt.Errorf("element %v was not produced by a chrome page", el)
	}
	return ce.node, nil
}
