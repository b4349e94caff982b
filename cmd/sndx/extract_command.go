package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sndx/internal/audiosink"
	"sndx/internal/auth"
	"sndx/internal/catalog"
	"sndx/internal/config"
	"sndx/internal/logging"
	"sndx/internal/notifications"
	"sndx/internal/pool"
	"sndx/internal/preflight"
	"sndx/internal/runlock"
	"sndx/internal/services"
	"sndx/internal/session"
)

type extractOptions struct {
	email     string
	password  string
	browsers  int
	urlsFile  string
	headed    bool
	force     bool
	skipCheck bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract [URL...]",
		Short: "Record the audio of portal recording pages",
		Long: `Open one browser per audio sink, log in, and record each URL to
<output_dir>/<title>.mp3. With no URLs the sessions are opened, held for
pool.idle_wait_seconds, and released.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			urls, err := collectURLs(args, opts.urlsFile)
			if err != nil {
				return err
			}
			return runExtract(cmd.Context(), cmd.OutOrStdout(), ctx.backends, cfg, logger, urls, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.email, "email", "e", "", "Portal account email")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "Portal account password")
	cmd.Flags().IntVarP(&opts.browsers, "browsers", "b", 0, "Number of concurrent browser sessions")
	cmd.Flags().StringVar(&opts.urlsFile, "urls-file", "", "File with one URL per line (# starts a comment)")
	cmd.Flags().BoolVar(&opts.headed, "headed", false, "Show browser windows instead of running headless")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Record URLs already present in the catalog")
	cmd.Flags().BoolVar(&opts.skipCheck, "skip-checks", false, "Skip the preflight checks")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("browsers")

	return cmd
}

func runExtract(ctx context.Context, out io.Writer, b backends, cfg *config.Config, logger *slog.Logger, urls []string, opts extractOptions) error {
	if opts.browsers < 1 {
		return fmt.Errorf("--browsers must be at least 1, got %d", opts.browsers)
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "extract"))

	if !opts.skipCheck {
		if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
			for _, r := range failed {
				logger.Error("preflight check failed", logging.String("check", r.Name), logging.String("detail", r.Detail))
			}
			return services.Wrap(services.ErrExternalTool, "extract", "preflight",
				fmt.Sprintf("%d check(s) failed; run `sndx doctor` for details", len(failed)), nil)
		}
	}

	lock, err := runlock.Acquire(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	logger.Debug("run lock acquired", logging.String("path", lock.Path()))
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("run lock release failed", logging.Error(err))
		}
	}()

	var store *catalog.Store
	if cfg.Catalog.Enabled {
		store, err = catalog.Open(cfg.Paths.CatalogPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if cfg.Catalog.SkipRecorded && !opts.force && len(urls) > 0 {
			requested := len(urls)
			urls, err = skipRecorded(ctx, store, urls, logger)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				fmt.Fprintf(out, "Nothing to record: all %d URL(s) are already in the catalog (use --force to record again)\n", requested)
				return nil
			}
		}
	}

	ids := audiosink.NewIDGenerator()
	sinks, err := b.sinks(cfg, ids, logger)
	if err != nil {
		return err
	}

	poolOpts := []pool.Option{
		pool.WithIDGenerator(ids),
		pool.WithCapturer(b.capturer(cfg, logger)),
		pool.WithLogger(logger),
	}
	if store != nil {
		poolOpts = append(poolOpts, pool.WithOnComplete(func(ctx context.Context, res session.Result) {
			entry := catalog.NewEntry(res.Metadata, res.File, runID)
			entry.URL = res.URL
			if _, err := store.Record(ctx, entry); err != nil {
				logging.WithContext(ctx, logger).Warn("catalog record failed", logging.Error(err))
			}
		}))
	}

	p := pool.New(sinks, b.launcher(cfg, logger), pool.Config{
		ProfileRoot: cfg.Paths.ProfileRootDir,
		OutputDir:   cfg.Paths.OutputDir,
		LoginURL:    cfg.Portal.LoginURL,
		SettleWait:  cfg.SettleWait(),
		IdleWait:    cfg.IdleWait(),
		Headless:    cfg.Browser.Headless && !opts.headed,
		ExecPath:    cfg.Browser.Executable,
	}, poolOpts...)

	notifier := b.notifier(cfg)
	if len(urls) > 0 {
		if err := notifier.NotifyRunStarted(ctx, len(urls), opts.browsers); err != nil {
			logger.Warn("run start notification failed", logging.Error(err))
		}
	}

	report, runErr := p.Run(ctx, pool.Job{
		URLs:        urls,
		Credentials: auth.Credentials{Email: opts.email, Password: opts.password},
		Concurrency: opts.browsers,
	})
	printReport(out, report)
	notifyRunFinished(context.WithoutCancel(ctx), notifier, report, runErr, logger)
	return runErr
}

func notifyRunFinished(ctx context.Context, notifier notifications.Service, report *pool.Report, runErr error, logger *slog.Logger) {
	if runErr != nil {
		if err := notifier.NotifyError(ctx, runErr, "extract"); err != nil {
			logger.Warn("error notification failed", logging.Error(err))
		}
		return
	}
	if report == nil || len(report.Outcomes) == 0 {
		return
	}
	summary := notifications.RunSummary{
		RunID:    report.RunID,
		Failed:   len(report.Failed()),
		Duration: report.FinishedAt.Sub(report.StartedAt),
	}
	for _, o := range report.Completed() {
		summary.Recorded = append(summary.Recorded, filepath.Base(o.File))
	}
	if err := notifier.NotifyRunCompleted(ctx, summary); err != nil {
		logger.Warn("run completion notification failed", logging.Error(err))
	}
}

func skipRecorded(ctx context.Context, store *catalog.Store, urls []string, logger *slog.Logger) ([]string, error) {
	kept := make([]string, 0, len(urls))
	for _, url := range urls {
		recorded, err := store.Has(ctx, url)
		if err != nil {
			return nil, err
		}
		if recorded {
			logger.Info("skipping recorded url", logging.String(logging.FieldURL, url))
			continue
		}
		kept = append(kept, url)
	}
	return kept, nil
}

// collectURLs merges positional URLs with the lines of path, keeping the
// first occurrence of each.
func collectURLs(args []string, path string) ([]string, error) {
	candidates := append([]string(nil), args...)
	if path = strings.TrimSpace(path); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open urls file: %w", err)
		}
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			candidates = append(candidates, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read urls file: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	urls := make([]string, 0, len(candidates))
	for _, url := range candidates {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls, nil
}

func printReport(out io.Writer, report *pool.Report) {
	if report == nil {
		return
	}
	if len(report.Outcomes) > 0 {
		rows := make([][]string, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			status := "recorded"
			detail := o.File
			if !o.Succeeded() {
				status = fmt.Sprintf("failed (%s)", o.FailedAt)
				detail = outcomeError(o)
			}
			rows = append(rows, []string{o.URL, o.SessionID, status, formatDuration(o.Metadata.Duration), detail})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"URL", "Session", "Status", "Duration", "File / Error"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(out, "Run %s: %d session(s), %d recorded, %d failed (%s)\n",
		report.RunID,
		len(report.Sessions),
		len(report.Completed()),
		len(report.Failed()),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
	for _, err := range report.CleanupErrors {
		fmt.Fprintf(out, "cleanup: %v\n", err)
	}
}

func outcomeError(o pool.Outcome) string {
	if o.Err == nil {
		return o.State.String()
	}
	return o.Err.Error()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
