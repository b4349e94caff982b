package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"sndx/internal/services"
)

func TestChromeLaunchRequiresProfile(t *testing.T) {
	l := NewChromeLauncher()
	_, err := l.Launch(context.Background(), LaunchOptions{SinkName: "sndx-abc123"})
	if !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestAllocatorOptionsCount(t *testing.T) {
	base := len(allocatorOptions(LaunchOptions{ProfileDir: "/tmp/p"}))
	withSink := len(allocatorOptions(LaunchOptions{ProfileDir: "/tmp/p", SinkName: "sndx-abc123"}))
	withExec := len(allocatorOptions(LaunchOptions{ProfileDir: "/tmp/p", SinkName: "sndx-abc123", ExecPath: "/usr/bin/chromium"}))
	if withSink != base+2 {
		t.Fatalf("sink should add the output flag and PULSE_SINK: base=%d withSink=%d", base, withSink)
	}
	if withExec != withSink+1 {
		t.Fatalf("exec path should add one option: %d vs %d", withExec, withSink)
	}
}

func TestChromeElementTag(t *testing.T) {
	if _, err := chromeNode(chromeElement{}); err == nil {
		t.Fatal("expected error for empty element")
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := Wait(context.Background(), 0); err != nil {
		t.Fatalf("zero wait should succeed, got %v", err)
	}
}
