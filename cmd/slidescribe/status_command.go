package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"slidescribe/internal/config"
	"slidescribe/internal/history"
	"slidescribe/internal/preflight"
	"slidescribe/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tool, directory and run history status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			configLabel := ctx.configPath
			if !ctx.configSeen {
				configLabel += " (not found, using defaults)"
			}
			fmt.Fprintln(stdout, renderStatusLine("Config", statusInfo, configLabel, colorize))
			fmt.Fprintln(stdout)

			results := preflight.RunAll(cmd.Context(), cfg)
			printSection(stdout, "Preflight", checkLines(results, toolVersions(cmd.Context(), results), colorize), colorize)
			printSection(stdout, "Detection", detectionLines(cfg, colorize), colorize)

			if !cfg.History.Enabled {
				printSection(stdout, "Run History", []string{renderStatusLine("History", statusWarn, "Disabled", colorize)}, colorize)
			} else {
				err := ctx.withStore(func(store *history.Store) error {
					lines, rows := historyStatus(cmd.Context(), store, colorize)
					printSection(stdout, "Run History", lines, colorize)
					if len(rows) > 0 {
						printTable(stdout, []string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
					}
					return nil
				})
				if err != nil {
					printSection(stdout, "Run History", []string{renderStatusLine("History", statusError, err.Error(), colorize)}, colorize)
				}
			}

			if failed := preflight.Failures(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "status", "preflight", preflight.Summarize(failed), nil)
			}
			return nil
		},
	}
}

func printSection(w io.Writer, title string, lines []string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(w, line)
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// toolVersions asks each available binary for its version string.
func toolVersions(ctx context.Context, results []preflight.Result) map[string]string {
	versions := make(map[string]string)
	for _, result := range results {
		if !result.Passed || (result.Name != "FFmpeg" && result.Name != "FFprobe") {
			continue
		}
		if version, err := preflight.ToolVersion(ctx, result.Detail); err == nil {
			versions[result.Name] = version
		}
	}
	return versions
}

func detectionLines(cfg *config.Config, colorize bool) []string {
	return []string{
		renderStatusLine("Anchor", statusInfo, cfg.Detection.Anchor, colorize),
		renderStatusLine("Threshold", statusInfo, strconv.FormatFloat(cfg.Detection.Threshold, 'f', -1, 64), colorize),
		renderStatusLine("Min duration", statusInfo, formatSeconds(cfg.Detection.MinSlideDuration), colorize),
		renderStatusLine("Sample interval", statusInfo, formatSeconds(cfg.Detection.SampleInterval), colorize),
	}
}

func historyStatus(ctx context.Context, store *history.Store, colorize bool) ([]string, [][]string) {
	health, err := store.CheckHealth(ctx)
	if err != nil {
		return []string{renderStatusLine("Database", statusError, err.Error(), colorize)}, nil
	}
	lines := []string{renderStatusLine("Database", statusOK, health.DBPath, colorize)}
	if health.IntegrityCheck {
		lines = append(lines, renderStatusLine("Integrity", statusOK, fmt.Sprintf("schema v%d", health.SchemaVersion), colorize))
	} else {
		lines = append(lines, renderStatusLine("Integrity", statusError, "integrity check failed", colorize))
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		return append(lines, renderStatusLine("Runs", statusError, err.Error(), colorize)), nil
	}
	if summary.Total == 0 {
		return append(lines, renderStatusLine("Runs", statusInfo, "No runs recorded", colorize)), nil
	}
	rows := [][]string{
		{string(history.StatusCompleted), strconv.Itoa(summary.Completed)},
		{string(history.StatusFailed), strconv.Itoa(summary.Failed)},
		{string(history.StatusRunning), strconv.Itoa(summary.Running)},
	}
	return lines, rows
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + "s"
}
