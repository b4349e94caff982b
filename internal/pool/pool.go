package pool

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"

	"sndx/internal/audiosink"
	"sndx/internal/auth"
	"sndx/internal/browser"
	"sndx/internal/logging"
	"sndx/internal/metadata"
	"sndx/internal/services"
	"sndx/internal/session"
)

// ProfileID names the browser profile of the index-th session.
func ProfileID(index int) string {
	return fmt.Sprintf("sndx-profile-%d", index)
}

// Job is one batch.
type Job struct {
	URLs        []string
	Credentials auth.Credentials
	Concurrency int
}

// Config holds settings shared by every session of a run.
type Config struct {
	ProfileRoot string
	OutputDir   string
	LoginURL    string
	SettleWait  time.Duration
	IdleWait    time.Duration
	Headless    bool
	ExecPath    string
}

// CompleteFunc observes every completed recording. It runs on the session's
// goroutine and must be safe for concurrent use.
type CompleteFunc func(ctx context.Context, res session.Result)

// Option configures a Pool.
type Option func(*Pool)

// WithCapturer replaces the default ffmpeg controller.
func WithCapturer(c session.Capturer) Option {
	return func(p *Pool) {
		if c != nil {
			p.capture = c
		}
	}
}

// WithIDGenerator sets the generator for session IDs. Share it with the sink
// manager so sink and session IDs never collide.
func WithIDGenerator(ids *audiosink.IDGenerator) Option {
	return func(p *Pool) {
		if ids != nil {
			p.ids = ids
		}
	}
}

// WithWaitFunc replaces the timer used for settle, capture, and idle waits.
func WithWaitFunc(wait browser.WaitFunc) Option {
	return func(p *Pool) {
		if wait != nil {
			p.wait = wait
		}
	}
}

// WithOnComplete registers a hook for completed recordings.
func WithOnComplete(fn CompleteFunc) Option {
	return func(p *Pool) {
		p.onComplete = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.baseLogger = logger
		p.logger = logging.NewComponentLogger(logger, "pool")
	}
}

// Pool allocates sessions and dispatches URLs to them.
type Pool struct {
	sinks      audiosink.Manager
	launcher   browser.Launcher
	capture    session.Capturer
	ids        *audiosink.IDGenerator
	cfg        Config
	wait       browser.WaitFunc
	onComplete CompleteFunc
	baseLogger *slog.Logger
	logger     *slog.Logger
}

// New constructs a pool.
func New(sinks audiosink.Manager, launcher browser.Launcher, cfg Config, opts ...Option) *Pool {
	p := &Pool{
		sinks:    sinks,
		launcher: launcher,
		cfg:      cfg,
		ids:      audiosink.NewIDGenerator(),
		wait:     browser.Wait,
		logger:   logging.NewComponentLogger(nil, "pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes job. The returned error is the allocation or launch failure,
// or the aggregate of per-URL failures. The report is always non-nil.
func (p *Pool) Run(ctx context.Context, job Job) (report *Report, err error) {
	runID, _ := services.RunIDFromContext(ctx)
	report = &Report{RunID: runID, StartedAt: time.Now()}
	logger := logging.WithContext(ctx, p.logger)
	if job.Concurrency < 1 {
		return report, services.Wrap(services.ErrConfiguration, "pool", "run",
			fmt.Sprintf("concurrency must be at least 1, got %d", job.Concurrency), nil)
	}

	var (
		sinks    []*audiosink.Sink
		browsers []*session.Browser
	)
	defer func() {
		p.teardown(ctx, report, browsers, sinks)
		report.FinishedAt = time.Now()
	}()

	logger.Info("allocating sessions", logging.Int("sessions", job.Concurrency), logging.Int("urls", len(job.URLs)))
	for i := 0; i < job.Concurrency; i++ {
		sink, openErr := p.sinks.Open(ctx)
		if sink != nil {
			sinks = append(sinks, sink)
		}
		if openErr != nil {
			logger.Error("sink allocation failed", logging.Int("index", i), logging.Error(openErr))
			return report, openErr
		}
	}

	browsers = make([]*session.Browser, 0, job.Concurrency)
	for i, sink := range sinks {
		id, idErr := p.ids.Next()
		if idErr != nil {
			return report, services.Wrap(services.ErrResource, "pool", "session id", "", idErr)
		}
		profile := ProfileID(i)
		browsers = append(browsers, &session.Browser{
			ID:         id,
			ProfileID:  profile,
			ProfileDir: filepath.Join(p.cfg.ProfileRoot, profile),
			Sink:       sink,
			Headless:   p.cfg.Headless,
			ExecPath:   p.cfg.ExecPath,
		})
		report.Sessions = append(report.Sessions, SessionInfo{ID: id, ProfileID: profile, Sink: sink.Name})
	}

	if launchErr := p.launchAll(ctx, browsers); launchErr != nil {
		logger.Error("browser launch failed; nothing dispatched", logging.Error(launchErr), logging.ErrorKind(launchErr))
		return report, launchErr
	}

	if len(job.URLs) == 0 {
		logger.Info("no urls queued; holding sessions open", logging.Duration("idle", p.cfg.IdleWait))
		return report, p.wait(ctx, p.cfg.IdleWait)
	}

	report.Outcomes = p.dispatch(ctx, job, browsers)
	for _, o := range report.Outcomes {
		if o.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", o.URL, o.Err))
		}
	}
	logger.Info("run finished",
		logging.Int("completed", len(report.Completed())),
		logging.Int("failed", len(report.Failed())),
	)
	return report, err
}

func (p *Pool) launchAll(ctx context.Context, browsers []*session.Browser) error {
	errs := make([]error, len(browsers))
	var wg sync.WaitGroup
	for i, b := range browsers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sctx := services.WithSessionID(ctx, b.ID)
			if err := b.Launch(sctx, p.launcher); err != nil {
				errs[i] = err
				return
			}
			logging.WithContext(sctx, p.logger).Info("browser ready",
				logging.String("profile", b.ProfileID),
				logging.String(logging.FieldSink, b.Sink.Name),
			)
		}()
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

type indexedURL struct {
	index int
	url   string
}

func (p *Pool) dispatch(ctx context.Context, job Job, browsers []*session.Browser) []Outcome {
	queue := make(chan indexedURL)
	outcomes := make([]Outcome, len(job.URLs))
	dispatched := make([]bool, len(job.URLs))

	go func() {
		defer close(queue)
		for i, url := range job.URLs {
			select {
			case queue <- indexedURL{index: i, url: url}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for _, b := range browsers {
		runner := session.NewRunner(b, session.RunnerConfig{
			OutputDir:   p.cfg.OutputDir,
			SettleWait:  p.cfg.SettleWait,
			LoginURL:    p.cfg.LoginURL,
			Credentials: job.Credentials,
			Capture:     p.capture,
			Extractor:   metadata.NewExtractor(p.baseLogger),
			Wait:        p.wait,
			Logger:      p.baseLogger,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				if ctx.Err() != nil {
					continue
				}
				res, err := runner.Run(ctx, item.url)
				// Each index is written by exactly one worker.
				dispatched[item.index] = true
				outcomes[item.index] = Outcome{
					URL:       item.url,
					SessionID: b.ID,
					State:     res.State,
					FailedAt:  res.FailedAt,
					Metadata:  res.Metadata,
					File:      res.File,
					Err:       err,
				}
				if err == nil && p.onComplete != nil {
					p.onComplete(services.WithSessionID(ctx, b.ID), res)
				}
			}
		}()
	}
	wg.Wait()

	for i, url := range job.URLs {
		if !dispatched[i] {
			cause := ctx.Err()
			if cause == nil {
				cause = context.Canceled
			}
			outcomes[i] = Outcome{URL: url, State: session.StateCreated, Err: fmt.Errorf("not dispatched: %w", cause)}
		}
	}
	return outcomes
}

// teardown terminates browsers, then closes sinks. It runs on a context
// detached from cancellation so an interrupted run still releases everything.
func (p *Pool) teardown(ctx context.Context, report *Report, browsers []*session.Browser, sinks []*audiosink.Sink) {
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, p.logger)
	for _, b := range browsers {
		if err := b.Terminate(ctx); err != nil {
			logger.Warn("browser terminate failed", logging.String("profile", b.ProfileID), logging.Error(err))
			report.CleanupErrors = append(report.CleanupErrors, fmt.Errorf("terminate %s: %w", b.ProfileID, err))
		}
	}
	for _, s := range sinks {
		if err := p.sinks.Close(ctx, s); err != nil {
			logger.Warn("sink close failed", logging.String(logging.FieldSink, s.Name), logging.Error(err))
			report.CleanupErrors = append(report.CleanupErrors, fmt.Errorf("close %s: %w", s.Name, err))
		}
	}
	if len(browsers) > 0 || len(sinks) > 0 {
		logger.Info("sessions released",
			logging.Int("browsers", len(browsers)),
			logging.Int("sinks", len(sinks)),
			logging.Int("cleanup_errors", len(report.CleanupErrors)),
		)
	}
}
