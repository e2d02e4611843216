package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slidescribe/internal/history"
	"slidescribe/internal/services"
	"slidescribe/internal/transcript"
)

const shortRunIDLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded extraction runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"runs": runs})
				}
				stdout := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(stdout, "No runs recorded")
					return nil
				}
				printTable(stdout,
					[]string{"Run", "Video", "Status", "Slides", "Dropped", "Started"},
					buildHistoryRows(runs, time.Now()),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				)
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its slides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, history.ErrRunNotFound) {
						return services.Wrap(services.ErrValidation, "history", "show", "", err)
					}
					return err
				}
				records, err := store.Slides(cmd.Context(), run.RunID)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range runDetailLines(run, colorize) {
					fmt.Fprintln(stdout, line)
				}
				if len(records) == 0 {
					return nil
				}
				fmt.Fprintln(stdout)
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						strconv.Itoa(rec.Ordinal + 1),
						transcript.FormatTimestamp(rec.Timestamp),
						strconv.Itoa(rec.FrameIndex),
						filepath.Base(rec.ImagePath),
						humanize.Comma(int64(rec.TextChars)),
					})
				}
				printTable(stdout,
					[]string{"#", "Time", "Frame", "Image", "Text chars"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignRight},
				)
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := parseAge(olderThan)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "history", "--older-than", "", err)
			}
			return ctx.withStore(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-age))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "30d", "Minimum age of runs to delete (e.g. 12h, 7d)")
	return cmd
}

func buildHistoryRows(runs []*history.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.RunID),
			filepath.Base(run.VideoPath),
			string(run.Status),
			strconv.Itoa(run.SlideCount),
			strconv.Itoa(run.DroppedSegments),
			humanize.RelTime(run.CreatedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func runDetailLines(run *history.Run, colorize bool) []string {
	statusText := string(run.Status)
	if run.ErrorKind != "" {
		statusText = fmt.Sprintf("%s (%s)", statusText, run.ErrorKind)
	}

	lines := []string{
		renderStatusLine("Run", statusInfo, run.RunID, colorize),
		renderStatusLine("Status", runStatusKind(run.Status), statusText, colorize),
	}
	if run.ErrorMessage != "" {
		lines = append(lines, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
	}
	lines = append(lines,
		renderStatusLine("Video", statusInfo, run.VideoPath, colorize),
		renderStatusLine("Transcript", statusInfo, valueOrDash(run.TranscriptPath), colorize),
		renderStatusLine("Document", statusInfo, valueOrDash(run.OutputPath), colorize),
		renderStatusLine("Slides", statusInfo, strconv.Itoa(run.SlideCount), colorize),
		renderStatusLine("Segments", statusInfo,
			fmt.Sprintf("%d (%d dropped)", run.SegmentCount, run.DroppedSegments), colorize),
		renderStatusLine("Detection", statusInfo,
			fmt.Sprintf("threshold %s, min %s, anchor %s",
				strconv.FormatFloat(run.Threshold, 'f', -1, 64), formatSeconds(run.MinSlideDuration), valueOrDash(run.Anchor)), colorize),
		renderStatusLine("Started", statusInfo, run.CreatedAt.Local().Format(time.RFC3339), colorize),
	)
	if d := run.Duration(); d > 0 {
		lines = append(lines, renderStatusLine("Duration", statusInfo, d.Round(time.Millisecond).String(), colorize))
	}
	return lines
}

// parseAge accepts Go durations plus a "d" suffix for whole days.
func parseAge(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	age, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid age %q", value)
	}
	if age < 0 {
		return 0, fmt.Errorf("age must not be negative, got %q", value)
	}
	return age, nil
}

func shortRunID(id string) string {
	if len(id) <= shortRunIDLength {
		return id
	}
	return id[:shortRunIDLength]
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
