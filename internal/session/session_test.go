package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sndx/internal/audiosink"
	"sndx/internal/auth"
	"sndx/internal/browser"
	"sndx/internal/services"
	"sndx/internal/session"
	"sndx/internal/testsupport"
)

const (
	noticeURL = "https://portal.test/notice/9"
	loginURL  = "https://portal.test/connexion.html"
)

type waits struct {
	durations []time.Duration
}

func (w *waits) wait(ctx context.Context, d time.Duration) error {
	w.durations = append(w.durations, d)
	return ctx.Err()
}

type fixture struct {
	page    *browser.StaticPage
	encoder *testsupport.FakeEncoder
	waits   *waits
	runner  *session.Runner
	browser *session.Browser
	outDir  string
}

func newFixture(t *testing.T, noticeHTML string) *fixture {
	t.Helper()
	page := browser.NewStaticPage()
	if noticeHTML != "" {
		if err := page.AddHTML(noticeURL, noticeHTML); err != nil {
			t.Fatalf("AddHTML: %v", err)
		}
	}
	launcher := &testsupport.StaticLauncher{Build: func(browser.LaunchOptions) (*browser.StaticPage, error) {
		return page, nil
	}}
	b := &session.Browser{
		ID:         "abc123",
		ProfileID:  "sndx-profile-0",
		ProfileDir: filepath.Join(t.TempDir(), "sndx-profile-0"),
		Sink:       audiosink.NewSink("abc123"),
		Headless:   true,
	}
	if err := b.Launch(context.Background(), launcher); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	f := &fixture{
		page:    page,
		encoder: &testsupport.FakeEncoder{},
		waits:   &waits{},
		browser: b,
		outDir:  t.TempDir(),
	}
	f.runner = session.NewRunner(b, session.RunnerConfig{
		OutputDir:   f.outDir,
		SettleWait:  2 * time.Second,
		LoginURL:    loginURL,
		Credentials: auth.Credentials{Email: "user@example.com", Password: "pw"},
		Capture:     f.encoder.Controller(),
		Wait:        f.waits.wait,
	})
	return f
}

func TestRunCompletesPipeline(t *testing.T) {
	f := newFixture(t, testsupport.NoticeHTML("Les ondes: partie 1", "5:30"))

	res, err := f.runner.Run(context.Background(), noticeURL)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != session.StateCompleted {
		t.Fatalf("expected completed, got %s", res.State)
	}
	wantFile := filepath.Join(f.outDir, "Les_ondes_partie_1.mp3")
	if res.File != wantFile {
		t.Fatalf("unexpected file %q, want %q", res.File, wantFile)
	}
	if res.Metadata.Duration != 330*time.Second {
		t.Fatalf("unexpected duration %s", res.Metadata.Duration)
	}

	started := f.encoder.Started()
	if len(started) != 1 {
		t.Fatalf("expected one encoder, got %d", len(started))
	}
	if got := strings.Join(started[0], " "); !strings.Contains(got, "-i sndx-abc123.monitor") || !strings.HasSuffix(got, wantFile) {
		t.Fatalf("unexpected encoder args %s", got)
	}
	if f.encoder.SignalCount() != 1 || f.encoder.Running() != 0 {
		t.Fatalf("expected exactly one stop, signals=%d running=%d", f.encoder.SignalCount(), f.encoder.Running())
	}
	if clicks := f.page.Clicks(); len(clicks) != 1 || clicks[0] != "Audio bas débit" {
		t.Fatalf("expected playback click, got %v", clicks)
	}
	// login check settle, pre-extraction settle, then the recording itself.
	want := []time.Duration{2 * time.Second, 2 * time.Second, 330 * time.Second}
	if len(f.waits.durations) != len(want) {
		t.Fatalf("unexpected waits %v", f.waits.durations)
	}
	for i := range want {
		if f.waits.durations[i] != want[i] {
			t.Fatalf("wait %d = %s, want %s", i, f.waits.durations[i], want[i])
		}
	}
}

func TestRunUsesFallbackTitle(t *testing.T) {
	f := newFixture(t, testsupport.NoticeHTML("   ", "0:01"))
	res, err := f.runner.Run(context.Background(), noticeURL)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(res.File) != "no-title.mp3" {
		t.Fatalf("unexpected file %q", res.File)
	}
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name        string
		html        string
		encoderErr  error
		wantErr     error
		wantAt      session.State
		wantSignals int
	}{
		{
			name:    "auth navigation",
			html:    "",
			wantErr: services.ErrAuthentication,
			wantAt:  session.StateCreated,
		},
		{
			name:    "extraction",
			html:    `<html><body><h1>lonely</h1></body></html>`,
			wantErr: services.ErrExtraction,
			wantAt:  session.StateAuthenticated,
		},
		{
			name:    "duration format",
			html:    testsupport.NoticeHTML("T", "soon"),
			wantErr: services.ErrFormat,
			wantAt:  session.StateAuthenticated,
		},
		{
			name:       "capture start",
			html:       testsupport.NoticeHTML("T", "1:00"),
			encoderErr: errors.New("ffmpeg missing"),
			wantErr:    services.ErrCapture,
			wantAt:     session.StateMetadataExtracted,
		},
		{
			name:        "playback link",
			html:        strings.Replace(testsupport.NoticeHTML("T", "1:00"), "Audio bas débit", "Audio haut débit", 1),
			wantErr:     services.ErrExtraction,
			wantAt:      session.StateCapturing,
			wantSignals: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.html)
			f.encoder.Err = tc.encoderErr

			res, err := f.runner.Run(context.Background(), noticeURL)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if res.State != session.StateFailed || res.FailedAt != tc.wantAt {
				t.Fatalf("expected failed at %s, got state=%s at=%s", tc.wantAt, res.State, res.FailedAt)
			}
			if res.Err != err {
				t.Fatalf("result error should be the returned error")
			}
			if got := f.encoder.SignalCount(); got != tc.wantSignals {
				t.Fatalf("expected %d stop signals, got %d", tc.wantSignals, got)
			}
			if f.encoder.Running() != 0 {
				t.Fatal("encoder left running after failure")
			}
		})
	}
}

func TestRunCancelledDuringCaptureStopsEncoder(t *testing.T) {
	f := newFixture(t, testsupport.NoticeHTML("T", "1:00:00"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := session.NewRunner(f.browser, session.RunnerConfig{
		OutputDir: f.outDir,
		LoginURL:  loginURL,
		Capture:   f.encoder.Controller(),
		Wait: func(ctx context.Context, d time.Duration) error {
			if d == time.Hour {
				cancel()
			}
			return ctx.Err()
		},
	})
	res, err := runner.Run(ctx, noticeURL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if res.FailedAt != session.StateCapturing {
		t.Fatalf("expected failure while capturing, got %s", res.FailedAt)
	}
	if f.encoder.SignalCount() != 1 || f.encoder.Running() != 0 {
		t.Fatal("capture must be stopped exactly once on cancellation")
	}
}

func TestRunFailsWhenEncoderExitsEarly(t *testing.T) {
	f := newFixture(t, testsupport.NoticeHTML("T", "1:00"))
	exitStatus := errors.New("exit status 1")
	f.encoder.ExitEarly = exitStatus

	runner := session.NewRunner(f.browser, session.RunnerConfig{
		OutputDir: f.outDir,
		LoginURL:  loginURL,
		Capture:   f.encoder.Controller(),
		Wait: func(ctx context.Context, d time.Duration) error {
			if d == time.Minute {
				<-ctx.Done()
			}
			return nil
		},
	})
	res, err := runner.Run(context.Background(), noticeURL)
	if !errors.Is(err, services.ErrCapture) || !errors.Is(err, exitStatus) {
		t.Fatalf("expected capture error wrapping the exit status, got %v", err)
	}
	if res.FailedAt != session.StateCapturing {
		t.Fatalf("expected failure while capturing, got %s", res.FailedAt)
	}
	if f.encoder.SignalCount() != 0 {
		t.Fatalf("exited encoder must not be signalled, got %d", f.encoder.SignalCount())
	}
}

func TestRunWithoutLaunchedBrowser(t *testing.T) {
	b := &session.Browser{ID: "zzz999", ProfileDir: t.TempDir()}
	runner := session.NewRunner(b, session.RunnerConfig{OutputDir: t.TempDir()})
	if _, err := runner.Run(context.Background(), noticeURL); !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestBrowserLifecycle(t *testing.T) {
	page := browser.NewStaticPage()
	failing := &testsupport.StaticLauncher{Build: func(browser.LaunchOptions) (*browser.StaticPage, error) {
		return nil, errors.New("chrome not found")
	}}
	b := &session.Browser{ID: "abc123", ProfileDir: filepath.Join(t.TempDir(), "p"), Sink: audiosink.NewSink("abc123")}
	if err := b.Launch(context.Background(), failing); !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if err := b.Terminate(context.Background()); err != nil {
		t.Fatalf("terminate before launch should be a no-op: %v", err)
	}

	ok := &testsupport.StaticLauncher{Build: func(browser.LaunchOptions) (*browser.StaticPage, error) { return page, nil }}
	if err := b.Launch(context.Background(), ok); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if opts := ok.Launches(); len(opts) != 1 || opts[0].SinkName != "sndx-abc123" {
		t.Fatalf("sink not passed to launcher: %+v", opts)
	}
	if err := b.Launch(context.Background(), ok); !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("second launch should fail, got %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := b.Terminate(context.Background()); err != nil {
			t.Fatalf("Terminate: %v", err)
		}
	}
	if page.Closes() != 1 {
		t.Fatalf("expected exactly one close, got %d", page.Closes())
	}
	if b.Launched() {
		t.Fatal("terminated browser should not report launched")
	}
}
