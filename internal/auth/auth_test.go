package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sndx/internal/auth"
	"sndx/internal/browser"
	"sndx/internal/services"
)

const (
	targetURL = "https://portal.test/notice/7"
	loginURL  = "https://portal.test/connexion.html"
)

const loginForm = `<html><body><form>
<input name="email"><input name="password" type="password">
<button type="submit">Connexion</button>
</form></body></html>`

func prompts(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		b.WriteString("<button>Se connecter</button>")
	}
	b.WriteString("<h1>notice</h1></body></html>")
	return b.String()
}

type waitRecorder struct {
	calls []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.calls = append(w.calls, d)
	return ctx.Err()
}

func newPage(t *testing.T, targetPrompts int) *browser.StaticPage {
	t.Helper()
	page := browser.NewStaticPage()
	if err := page.AddHTML(targetURL, prompts(targetPrompts)); err != nil {
		t.Fatalf("AddHTML target: %v", err)
	}
	if err := page.AddHTML(loginURL, loginForm); err != nil {
		t.Fatalf("AddHTML login: %v", err)
	}
	return page
}

func newAuthenticator(w *waitRecorder) *auth.Authenticator {
	return auth.New(
		auth.WithLoginURL(loginURL),
		auth.WithSettleWait(2*time.Second),
		auth.WithWaitFunc(w.wait),
	)
}

func TestEnsureLoggedInDecision(t *testing.T) {
	cases := []struct {
		name      string
		prompts   int
		wantLogin bool
	}{
		{"anonymous page", 1, true},
		{"no prompt", 0, false},
		{"ambiguous prompts", 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := newPage(t, tc.prompts)
			w := &waitRecorder{}
			a := newAuthenticator(w)
			creds := auth.Credentials{Email: "user@example.com", Password: "s3cret"}

			if err := a.EnsureLoggedIn(context.Background(), page, targetURL, creds); err != nil {
				t.Fatalf("EnsureLoggedIn: %v", err)
			}
			if a.State() != auth.StateLoggedIn {
				t.Fatalf("expected logged_in, got %s", a.State())
			}
			visits := page.Visits()
			if tc.wantLogin {
				want := []string{targetURL, loginURL, targetURL}
				if strings.Join(visits, ",") != strings.Join(want, ",") {
					t.Fatalf("unexpected visits %v", visits)
				}
				if got, _ := page.Typed(browser.EmailField); got != creds.Email {
					t.Fatalf("email not typed, got %q", got)
				}
				if got, _ := page.Typed(browser.PasswordField); got != creds.Password {
					t.Fatalf("password not typed, got %q", got)
				}
				if clicks := page.Clicks(); len(clicks) != 1 || clicks[0] != "Connexion" {
					t.Fatalf("unexpected clicks %v", clicks)
				}
				if len(w.calls) != 3 {
					t.Fatalf("expected settle after target, login page and submit, got %v", w.calls)
				}
				return
			}
			if len(visits) != 1 || visits[0] != targetURL {
				t.Fatalf("expected only the target visit, got %v", visits)
			}
			if len(page.Clicks()) != 0 {
				t.Fatal("no login expected")
			}
			if len(w.calls) != 1 || w.calls[0] != 2*time.Second {
				t.Fatalf("expected one settle wait, got %v", w.calls)
			}
		})
	}
}

func TestEnsureLoggedInMissingSubmit(t *testing.T) {
	page := newPage(t, 1)
	if err := page.AddHTML(loginURL, `<html><body><input name="email"><input name="password"></body></html>`); err != nil {
		t.Fatalf("AddHTML: %v", err)
	}
	a := newAuthenticator(&waitRecorder{})
	err := a.EnsureLoggedIn(context.Background(), page, targetURL, auth.Credentials{Email: "a", Password: "b"})
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if a.State() != auth.StateLoggingIn {
		t.Fatalf("expected state to stay logging_in, got %s", a.State())
	}
}

func TestEnsureLoggedInNavigationFailure(t *testing.T) {
	page := browser.NewStaticPage()
	a := newAuthenticator(&waitRecorder{})
	err := a.EnsureLoggedIn(context.Background(), page, targetURL, auth.Credentials{})
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestEnsureLoggedInCancelled(t *testing.T) {
	page := newPage(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := auth.New(auth.WithLoginURL(loginURL))
	err := a.EnsureLoggedIn(ctx, page, targetURL, auth.Credentials{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCredentialsStringHidesPassword(t *testing.T) {
	c := auth.Credentials{Email: "user@example.com", Password: "hunter2"}
	if strings.Contains(c.String(), "hunter2") {
		t.Fatalf("password leaked: %s", c)
	}
}
