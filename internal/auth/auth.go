package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sndx/internal/browser"
	"sndx/internal/logging"
	"sndx/internal/services"
)

// DefaultLoginURL is the portal's sign-in page.
const DefaultLoginURL = "https://vod.catalogue-crc.org/connexion.html"

// DefaultSettleWait gives the portal's scripts time to render after navigation.
const DefaultSettleWait = 2 * time.Second

// Credentials are the portal account used by every session of a run.
type Credentials struct {
	Email    string
	Password string
}

// String keeps the password out of logs.
func (c Credentials) String() string {
	return c.Email + ":***"
}

// State tracks an Authenticator's progress.
type State int

const (
	StateUnknown State = iota
	StateCheckingLogin
	StateLoggingIn
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateCheckingLogin:
		return "checking_login"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLoginURL overrides DefaultLoginURL.
func WithLoginURL(url string) Option {
	return func(a *Authenticator) {
		if url = strings.TrimSpace(url); url != "" {
			a.loginURL = url
		}
	}
}

// WithSettleWait overrides DefaultSettleWait.
func WithSettleWait(d time.Duration) Option {
	return func(a *Authenticator) {
		if d >= 0 {
			a.settle = d
		}
	}
}

// WithWaitFunc replaces the settle timer (primarily for tests).
func WithWaitFunc(wait browser.WaitFunc) Option {
	return func(a *Authenticator) {
		if wait != nil {
			a.wait = wait
		}
	}
}

// WithLogger sets the authenticator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logging.NewComponentLogger(logger, "auth")
	}
}

// Authenticator runs the login protocol for one browser session.
type Authenticator struct {
	loginURL string
	settle   time.Duration
	wait     browser.WaitFunc
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// New constructs an Authenticator in StateUnknown.
func New(opts ...Option) *Authenticator {
	a := &Authenticator{
		loginURL: DefaultLoginURL,
		settle:   DefaultSettleWait,
		wait:     browser.Wait,
		logger:   logging.NewComponentLogger(nil, "auth"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State reports the most recent state reached.
func (a *Authenticator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Authenticator) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// NeedsLogin reports whether the current page shows exactly one login prompt.
// Zero prompts, or several, are read as an authenticated page.
func NeedsLogin(ctx context.Context, page browser.Page) (bool, error) {
	prompts, err := page.QueryAll(ctx, browser.LoginPrompt)
	if err != nil {
		return false, err
	}
	return len(prompts) == 1, nil
}

// EnsureLoggedIn leaves page on targetURL with the session authenticated.
// After a login the target is reopened without a settle wait; callers
// settle before reading the page.
// Driver failures are returned marked services.ErrAuthentication.
func (a *Authenticator) EnsureLoggedIn(ctx context.Context, page browser.Page, targetURL string, creds Credentials) error {
	logger := logging.WithContext(ctx, a.logger)

	a.setState(StateCheckingLogin)
	if err := a.visit(ctx, page, targetURL); err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "open target", targetURL, err)
	}
	needsLogin, err := NeedsLogin(ctx, page)
	if err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "check login", targetURL, err)
	}
	if !needsLogin {
		logger.Debug("session already authenticated")
		a.setState(StateLoggedIn)
		return nil
	}

	a.setState(StateLoggingIn)
	logger.Info("logging in", logging.String("email", creds.Email))
	if err := a.visit(ctx, page, a.loginURL); err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "open login page", a.loginURL, err)
	}
	if err := page.Type(ctx, browser.EmailField, creds.Email); err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "fill email", "", err)
	}
	if err := page.Type(ctx, browser.PasswordField, creds.Password); err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "fill password", "", err)
	}
	buttons, err := page.QueryAll(ctx, browser.LoginSubmit)
	if err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "find submit", "", err)
	}
	if len(buttons) != 1 {
		return services.Wrap(services.ErrAuthentication, "auth", "find submit",
			fmt.Sprintf("expected one Connexion button, found %d", len(buttons)), nil)
	}
	if err := page.Click(ctx, buttons[0]); err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "submit", "", err)
	}
	if err := a.wait(ctx, a.settle); err != nil {
		return err
	}
	if err := page.Navigate(ctx, targetURL); err != nil {
		return services.Wrap(services.ErrAuthentication, "auth", "reopen target", targetURL, err)
	}
	a.setState(StateLoggedIn)
	logger.Info("login submitted")
	return nil
}

func (a *Authenticator) visit(ctx context.Context, page browser.Page, url string) error {
	if err := page.Navigate(ctx, url); err != nil {
		return err
	}
	return a.wait(ctx, a.settle)
}
