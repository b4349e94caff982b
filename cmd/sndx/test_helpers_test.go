package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sndx/internal/audiosink"
	"sndx/internal/browser"
	"sndx/internal/config"
	"sndx/internal/logging"
	"sndx/internal/notifications"
	"sndx/internal/session"
	"sndx/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	sinks      *testsupport.FakeSinks
	launcher   *testsupport.StaticLauncher
	encoder    *testsupport.FakeEncoder
	notifier   *recordingNotifier
	notices    map[string]string
}

type recordingNotifier struct {
	started   []int
	completed []notifications.RunSummary
	errors    []error
	tests     int
}

func (n *recordingNotifier) NotifyRunStarted(_ context.Context, urls, _ int) error {
	n.started = append(n.started, urls)
	return nil
}

func (n *recordingNotifier) NotifyRunCompleted(_ context.Context, summary notifications.RunSummary) error {
	n.completed = append(n.completed, summary)
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, err error, _ string) error {
	n.errors = append(n.errors, err)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error {
	n.tests++
	return nil
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("CHROMIUM_PATH", "")

	configPath := filepath.Join(homeDir, ".config", "sndx", "config.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		sinks:      &testsupport.FakeSinks{},
		encoder:    &testsupport.FakeEncoder{},
		notifier:   &recordingNotifier{},
		notices:    map[string]string{},
	}
	env.launcher = &testsupport.StaticLauncher{
		Build: func(browser.LaunchOptions) (*browser.StaticPage, error) {
			page := browser.NewStaticPage()
			for url, title := range env.notices {
				if err := page.AddHTML(url, testsupport.NoticeHTML(title, "0:00")); err != nil {
					return nil, err
				}
			}
			return page, nil
		},
	}
	return env
}

// addNotice serves a recording page titled title at url.
func (e *cliTestEnv) addNotice(url, title string) {
	e.notices[url] = title
}

func (e *cliTestEnv) backends() backends {
	return backends{
		sinks: func(_ *config.Config, ids *audiosink.IDGenerator, _ *slog.Logger) (audiosink.Manager, error) {
			e.sinks.IDs = ids
			return e.sinks, nil
		},
		launcher: func(*config.Config, *slog.Logger) browser.Launcher { return e.launcher },
		capturer: func(*config.Config, *slog.Logger) session.Capturer { return e.encoder.Controller() },
		notifier: func(*config.Config) notifications.Service { return e.notifier },
		logger:   func(*config.Config) (*slog.Logger, error) { return logging.NewNop(), nil },
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWith(env.backends())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func noticeURL(i int) string { return fmt.Sprintf("https://portal.test/notice/%d", i) }

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
