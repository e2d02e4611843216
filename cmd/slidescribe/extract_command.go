package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slidescribe/internal/config"
	"slidescribe/internal/services"
	"slidescribe/internal/slides"
	"slidescribe/internal/transcript"
	"slidescribe/internal/workflow"
)

type extractOptions struct {
	video          string
	transcript     string
	output         string
	slidesDir      string
	sampleInterval float64
	threshold      float64
	minDuration    float64
	anchor         string
	title          string
	clipboard      bool
	json           bool
}

type extractSlideJSON struct {
	Ordinal   int     `json:"ordinal"`
	Timestamp float64 `json:"timestamp"`
	Frame     int     `json:"frame"`
	Image     string  `json:"image"`
	TextChars int     `json:"text_chars"`
}

type extractJSON struct {
	RunID           string             `json:"run_id"`
	Video           string             `json:"video"`
	Transcript      string             `json:"transcript,omitempty"`
	Document        string             `json:"document"`
	SlidesDir       string             `json:"slides_dir"`
	Segments        int                `json:"segments"`
	DroppedSegments int                `json:"dropped_segments"`
	FramesDecoded   int                `json:"frames_decoded"`
	FramesSampled   int                `json:"frames_sampled"`
	Copied          bool               `json:"copied"`
	ElapsedSeconds  float64            `json:"elapsed_seconds"`
	Slides          []extractSlideJSON `json:"slides"`
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Detect slides in a lecture video and align transcript text to them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyExtractOverrides(cmd, cfg, opts); err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			pipeline, err := workflow.New(cfg, logger)
			if err != nil {
				return err
			}
			result, err := pipeline.Run(cmd.Context(), workflow.Request{
				VideoPath:       opts.video,
				TranscriptPath:  opts.transcript,
				Title:           opts.title,
				CopyToClipboard: opts.clipboard,
			})
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd, buildExtractJSON(result))
			}
			printExtractSummary(cmd.OutOrStdout(), result, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.video, "video", "i", "", "Lecture video file")
	cmd.Flags().StringVarP(&opts.transcript, "transcript", "t", "", "Transcript file with (M:SS - M:SS) markers")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (default: paths.output_dir)")
	cmd.Flags().StringVar(&opts.slidesDir, "slides-dir", "", "Slide image directory, relative to the output directory")
	cmd.Flags().Float64Var(&opts.sampleInterval, "sample-interval", 0, "Seconds between analysed frames")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "Similarity below which a frame starts a new slide")
	cmd.Flags().Float64Var(&opts.minDuration, "min-duration", 0, "Minimum seconds between slides")
	cmd.Flags().StringVar(&opts.anchor, "anchor", "", "Region compared between frames ("+anchorChoices()+")")
	cmd.Flags().StringVar(&opts.title, "title", "", "Document title (default: derived from the video file name)")
	cmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "Copy the generated document to the clipboard")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the run result as JSON")
	_ = cmd.MarkFlagRequired("video")

	return cmd
}

// applyExtractOverrides copies explicitly set flags onto cfg and validates the
// result. Flags left at their zero value keep the configured setting.
func applyExtractOverrides(cmd *cobra.Command, cfg *config.Config, opts extractOptions) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		dir, err := config.ExpandPath(strings.TrimSpace(opts.output))
		if err != nil || dir == "" {
			return services.Wrap(services.ErrConfiguration, "extract", "--output", "invalid output directory", err)
		}
		cfg.Paths.OutputDir = dir
	}
	if flags.Changed("slides-dir") {
		cfg.Output.SlidesDir = strings.Trim(strings.TrimSpace(opts.slidesDir), "/")
		if cfg.Output.SlidesDir == "" {
			return services.Wrap(services.ErrConfiguration, "extract", "--slides-dir", "must not be empty", nil)
		}
	}
	if flags.Changed("sample-interval") {
		cfg.Detection.SampleInterval = opts.sampleInterval
	}
	if flags.Changed("threshold") {
		cfg.Detection.Threshold = opts.threshold
	}
	if flags.Changed("min-duration") {
		cfg.Detection.MinSlideDuration = opts.minDuration
	}
	if flags.Changed("anchor") {
		anchor, err := slides.ParseAnchor(opts.anchor)
		if err != nil {
			return err
		}
		cfg.Detection.Anchor = anchor.String()
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "extract", "validate flags", "", err)
	}
	return nil
}

func anchorChoices() string {
	names := make([]string, 0, len(slides.Anchors()))
	for _, anchor := range slides.Anchors() {
		names = append(names, anchor.String())
	}
	return strings.Join(names, ", ")
}

func buildExtractJSON(result *workflow.Result) extractJSON {
	out := extractJSON{
		RunID:           result.RunID,
		Video:           result.VideoPath,
		Transcript:      result.TranscriptPath,
		Document:        result.DocumentPath,
		SlidesDir:       result.SlidesDir,
		Segments:        result.Stats.Segments,
		DroppedSegments: result.Stats.Dropped,
		FramesDecoded:   result.FramesDecoded,
		FramesSampled:   result.FramesSampled,
		Copied:          result.Copied,
		ElapsedSeconds:  result.Elapsed.Seconds(),
		Slides:          make([]extractSlideJSON, 0, len(result.SlidePaths)),
	}
	for i, path := range result.SlidePaths {
		out.Slides = append(out.Slides, extractSlideJSON{
			Ordinal:   i + 1,
			Timestamp: result.SlideTimes[i],
			Frame:     result.SlideFrames[i],
			Image:     path,
			TextChars: utf8.RuneCountInString(textAt(result.Texts, i)),
		})
	}
	return out
}

func printExtractSummary(w io.Writer, result *workflow.Result, colorize bool) {
	rows := make([][]string, 0, len(result.SlidePaths))
	for i, path := range result.SlidePaths {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			transcript.FormatTimestamp(result.SlideTimes[i]),
			strconv.Itoa(result.SlideFrames[i]),
			filepath.Base(path),
			humanize.Comma(int64(utf8.RuneCountInString(textAt(result.Texts, i)))),
		})
	}
	printTable(w,
		[]string{"#", "Time", "Frame", "Image", "Text chars"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignRight},
	)
	fmt.Fprintln(w)

	fmt.Fprintln(w, renderStatusLine("Document", statusOK,
		fmt.Sprintf("%s (%s)", result.DocumentPath, humanize.Bytes(uint64(result.DocumentBytes))), colorize))
	fmt.Fprintln(w, renderStatusLine("Slides", statusOK,
		fmt.Sprintf("%d written to %s", len(result.SlidePaths), result.SlidesDir), colorize))

	segmentKind := statusOK
	segmentMessage := fmt.Sprintf("%d aligned", result.Stats.Segments-result.Stats.Dropped)
	if result.TranscriptPath == "" {
		segmentKind = statusWarn
		segmentMessage = "no transcript given"
	} else if result.Stats.Dropped > 0 {
		segmentKind = statusWarn
		segmentMessage += fmt.Sprintf(", %d dropped", result.Stats.Dropped)
	}
	fmt.Fprintln(w, renderStatusLine("Segments", segmentKind, segmentMessage, colorize))
	fmt.Fprintln(w, renderStatusLine("Frames", statusInfo,
		fmt.Sprintf("%d decoded, %d sampled", result.FramesDecoded, result.FramesSampled), colorize))
	if result.Copied {
		fmt.Fprintln(w, renderStatusLine("Clipboard", statusOK, "Document copied", colorize))
	}
	fmt.Fprintln(w, renderStatusLine("Run", statusInfo,
		fmt.Sprintf("%s in %s", result.RunID, result.Elapsed.Round(time.Millisecond)), colorize))
}

func textAt(texts []string, i int) string {
	if i < 0 || i >= len(texts) {
		return ""
	}
	return texts[i]
}
