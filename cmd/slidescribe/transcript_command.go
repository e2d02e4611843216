package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"slidescribe/internal/services"
	"slidescribe/internal/transcript"
)

const transcriptPreviewRunes = 60

type transcriptSegmentJSON struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func newTranscriptCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "transcript <file>",
		Short:       "Parse a timestamped transcript and list its segments",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "transcript", "open", args[0], err)
			}
			defer file.Close()

			segments, err := transcript.Parse(file)
			if err != nil {
				return err
			}

			if jsonOutput {
				out := make([]transcriptSegmentJSON, 0, len(segments))
				for _, seg := range segments {
					out = append(out, transcriptSegmentJSON{Start: seg.Start, End: seg.End, Text: seg.Text})
				}
				return writeJSON(cmd, map[string]any{"segments": out})
			}

			stdout := cmd.OutOrStdout()
			if len(segments) == 0 {
				fmt.Fprintln(stdout, "No segments found")
				return nil
			}
			rows := make([][]string, 0, len(segments))
			for i, seg := range segments {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					transcript.FormatTimestamp(seg.Start),
					transcript.FormatTimestamp(seg.End),
					previewText(seg.Text, transcriptPreviewRunes),
				})
			}
			printTable(stdout,
				[]string{"#", "Start", "End", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print segments as JSON")
	return cmd
}

// previewText collapses whitespace and truncates to limit runes.
func previewText(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-3]) + "..."
}
