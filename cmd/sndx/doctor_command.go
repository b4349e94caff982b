package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sndx/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var skipPortal bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories, and portal reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			if !skipPortal {
				results = append(results, preflight.CheckPortal(cmd.Context(), cfg.Portal.LoginURL))
			}

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			configDetail := ctx.configPath
			if !ctx.configSeen {
				configDetail += " (not found, defaults used)"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("Catalog", statusInfo, catalogEnabled(cfg), colorize))
			fmt.Fprintln(out, renderStatusLine("Headless", statusInfo, yesNo(cfg.Browser.Headless), colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Checks", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				fmt.Fprintln(out, renderStatusLine(r.Name, checkKind(r), r.Detail, colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPortal, "offline", false, "Skip the portal reachability check")
	return cmd
}
