package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sndx/internal/catalog"
	"sndx/internal/config"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect recordings completed by earlier runs",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))
	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded URLs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(ctx, func(store *catalog.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, catalogView(entries))
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No recordings in catalog")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.RecordedAt.Local().Format(time.DateTime),
						e.Code,
						e.Title,
						formatDuration(e.Duration),
						formatSize(e.SizeBytes),
						e.URL,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Recorded", "Code", "Title", "Duration", "Size", "URL"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entries as JSON")
	return cmd
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <url>...",
		Short: "Forget recordings so the next extract records them again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(ctx, func(store *catalog.Store) error {
				out := cmd.OutOrStdout()
				missing := 0
				for _, url := range args {
					removed, err := store.Remove(cmd.Context(), strings.TrimSpace(url))
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed %s\n", url)
					} else {
						fmt.Fprintf(out, "Not in catalog: %s\n", url)
						missing++
					}
				}
				if missing == len(args) {
					return errors.New("no catalog entries removed")
				}
				return nil
			})
		},
	}
}

func withCatalog(ctx *commandContext, fn func(*catalog.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Catalog.Enabled {
		return errors.New("catalog is disabled (set catalog.enabled = true)")
	}
	store, err := catalog.Open(cfg.Paths.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func catalogEnabled(cfg *config.Config) string {
	if cfg == nil || !cfg.Catalog.Enabled {
		return "disabled"
	}
	return cfg.Paths.CatalogPath
}
