package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"sndx/internal/audiosink"
	"sndx/internal/auth"
	"sndx/internal/browser"
	"sndx/internal/capture"
	"sndx/internal/logging"
	"sndx/internal/metadata"
	"sndx/internal/services"
	"sndx/internal/textutil"
)

// State is a recording's position in the pipeline.
type State int

const (
	StateCreated State = iota
	StateAuthenticated
	StateMetadataExtracted
	StateCapturing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAuthenticated:
		return "authenticated"
	case StateMetadataExtracted:
		return "metadata_extracted"
	case StateCapturing:
		return "capturing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Capturer starts and stops recordings. *capture.Controller implements it.
type Capturer interface {
	Start(ctx context.Context, sink *audiosink.Sink, dest string) (*capture.Recording, error)
	Stop(rec *capture.Recording) error
}

// Result describes one processed URL. FailedAt is the last state reached
// before a failure.
type Result struct {
	URL      string
	State    State
	FailedAt State
	Metadata metadata.RecordingMetadata
	File     string
	Err      error
}

// RunnerConfig holds a Runner's collaborators.
type RunnerConfig struct {
	OutputDir   string
	SettleWait  time.Duration
	LoginURL    string
	Credentials auth.Credentials
	Capture     Capturer
	Extractor   *metadata.Extractor
	Wait        browser.WaitFunc
	Logger      *slog.Logger
}

// Runner processes URLs on a single Browser, one at a time.
type Runner struct {
	browser   *Browser
	auth      *auth.Authenticator
	creds     auth.Credentials
	extractor *metadata.Extractor
	capture   Capturer
	outputDir string
	settle    time.Duration
	wait      browser.WaitFunc
	logger    *slog.Logger
}

// NewRunner binds cfg to b. The login state is kept across URLs.
func NewRunner(b *Browser, cfg RunnerConfig) *Runner {
	wait := cfg.Wait
	if wait == nil {
		wait = browser.Wait
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = metadata.NewExtractor(cfg.Logger)
	}
	capturer := cfg.Capture
	if capturer == nil {
		capturer = capture.NewController(capture.WithLogger(cfg.Logger))
	}
	return &Runner{
		browser: b,
		auth: auth.New(
			auth.WithLoginURL(cfg.LoginURL),
			auth.WithSettleWait(cfg.SettleWait),
			auth.WithWaitFunc(wait),
			auth.WithLogger(cfg.Logger),
		),
		creds:     cfg.Credentials,
		extractor: extractor,
		capture:   capturer,
		outputDir: cfg.OutputDir,
		settle:    cfg.SettleWait,
		wait:      wait,
		logger:    logging.NewComponentLogger(cfg.Logger, "session"),
	}
}

// Destination is the output path for a recording with md.
func (r *Runner) Destination(md metadata.RecordingMetadata) string {
	return Destination(r.outputDir, md)
}

// Destination is the file a recording of md is written to under outputDir.
func Destination(outputDir string, md metadata.RecordingMetadata) string {
	return filepath.Join(outputDir, textutil.SafeFilename(md.FileTitle())+".mp3")
}

// Run records url. Any step failure ends in StateFailed with the step's error
// returned unchanged; a started capture is always stopped before Run returns.
func (r *Runner) Run(ctx context.Context, url string) (res Result, err error) {
	ctx = services.WithSessionID(services.WithURL(ctx, url), r.browser.ID)
	logger := logging.WithContext(ctx, r.logger)
	res = Result{URL: url, State: StateCreated}

	defer func() {
		if err != nil {
			res.FailedAt = res.State
			res.State = StateFailed
			res.Err = err
			logger.Error("recording failed",
				logging.String(logging.FieldStage, res.FailedAt.String()),
				logging.Error(err),
				logging.ErrorKind(err),
			)
		}
	}()

	page := r.browser.Page()
	if page == nil {
		return res, services.Wrap(services.ErrLaunch, "session", "run", "browser not launched", nil)
	}

	if err := r.auth.EnsureLoggedIn(ctx, page, url, r.creds); err != nil {
		return res, err
	}
	res.State = StateAuthenticated
	if err := r.wait(ctx, r.settle); err != nil {
		return res, err
	}

	md, err := r.extractor.Extract(ctx, page)
	if err != nil {
		return res, err
	}
	res.State = StateMetadataExtracted
	res.Metadata = md
	res.File = r.Destination(md)

	rec, err := r.capture.Start(ctx, r.browser.Sink, res.File)
	if err != nil {
		return res, err
	}
	res.State = StateCapturing
	stopped := false
	defer func() {
		if !stopped {
			if stopErr := r.capture.Stop(rec); stopErr != nil {
				logger.Warn("capture stop failed during cleanup", logging.Error(stopErr))
			}
		}
	}()

	if err := r.play(ctx, page); err != nil {
		return res, err
	}
	logger.Info("recording",
		logging.String("title", md.Title),
		logging.Duration("duration", md.Duration),
		logging.String("file", res.File),
	)
	if err := r.record(ctx, rec, md.Duration); err != nil {
		return res, err
	}

	stopped = true
	if err := r.capture.Stop(rec); err != nil {
		return res, err
	}
	res.State = StateCompleted
	logger.Info("recording completed", logging.String("file", res.File))
	return res, nil
}

// record waits d while rec captures. It fails early if the encoder exits
// before d has elapsed.
func (r *Runner) record(ctx context.Context, rec *capture.Recording, d time.Duration) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-rec.Done():
			cancel()
		case <-waitCtx.Done():
		}
	}()

	err := r.wait(waitCtx, d)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	select {
	case <-rec.Done():
		return services.Wrap(services.ErrCapture, "session", "record",
			"encoder exited before the recording ended", rec.ExitErr())
	default:
	}
	return err
}

func (r *Runner) play(ctx context.Context, page browser.Page) error {
	links, err := page.QueryAll(ctx, browser.LowBitrateAudio)
	if err != nil {
		return services.Wrap(services.ErrExtraction, "session", "find player", "", err)
	}
	if len(links) == 0 {
		return services.Wrap(services.ErrExtraction, "session", "find player", "no low bitrate audio link", nil)
	}
	if err := page.Click(ctx, links[0]); err != nil {
		return services.Wrap(services.ErrExtraction, "session", "start playback", "", err)
	}
	return nil
}
