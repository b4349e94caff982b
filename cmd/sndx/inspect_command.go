package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sndx/internal/browser"
	"sndx/internal/logging"
	"sndx/internal/metadata"
	"sndx/internal/session"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var pageURL string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect <page.html>",
		Short: "Extract recording metadata from a saved page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if jsonOut {
				logger = logging.NewNop()
			}
			path := args[0]
			url := strings.TrimSpace(pageURL)
			if url == "" {
				abs, err := filepath.Abs(path)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", path, err)
				}
				url = "file://" + abs
			}

			page := browser.NewStaticPage()
			if err := page.LoadFile(url, path); err != nil {
				return err
			}
			if err := page.Navigate(cmd.Context(), url); err != nil {
				return err
			}
			md, err := metadata.NewExtractor(logger).Extract(cmd.Context(), page)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			file := session.Destination(cfg.Paths.OutputDir, md)
			if jsonOut {
				return writeJSON(cmd, metadataView(md, file))
			}
			rows := [][]string{
				{"URL", md.URL},
				{"Category", md.Category},
				{"Title", md.Title},
				{"Subtitle", md.Subtitle},
				{"Code", md.Code},
				{"Date", md.Date},
				{"Place", md.Place},
				{"Authors", strings.Join(md.Authors, ", ")},
				{"Duration", formatDuration(md.Duration)},
				{"File", file},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "URL to report for the page (defaults to a file:// URL)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print metadata as JSON")
	return cmd
}
