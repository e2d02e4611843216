package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"slidescribe/internal/config"
	"slidescribe/internal/logging"
	"slidescribe/internal/services"
	"slidescribe/internal/slides"
	"slidescribe/internal/transcript"
	"slidescribe/internal/video"
)

// Request names the inputs of one extraction run. Tuning comes from the
// pipeline's config.
type Request struct {
	VideoPath      string
	TranscriptPath string
	// Title overrides output.title and the title derived from the video name.
	Title string
	// CopyToClipboard copies the rendered document after it is written.
	CopyToClipboard bool
}

// Result summarises a successful run.
type Result struct {
	RunID          string
	VideoPath      string
	TranscriptPath string
	DocumentPath   string
	SlidesDir      string
	SlidePaths     []string
	SlideTimes     []float64
	SlideFrames    []int
	Texts          []string
	Stats          transcript.Stats
	Video          video.Info
	FramesDecoded  int
	FramesSampled  int
	DocumentBytes  int
	Copied         bool
	Elapsed        time.Duration
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClipboard replaces the clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.copyText = fn
		}
	}
}

// WithClock replaces time.Now for front matter and elapsed time.
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.now = fn
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		p.runID = strings.TrimSpace(id)
	}
}

// Pipeline runs slide detection and transcript alignment for one video.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	copyText func(string) error
	now      func() time.Time
	runID    string
}

// New constructs a pipeline. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("workflow requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		copyText: clipboard.WriteAll,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes the full extraction. Failures after the run has been recorded
// in history are recorded with their classification.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	runID := p.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)
	started := p.now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := p.normalizeRequest(req)
	if err != nil {
		return nil, err
	}
	outputDir := p.cfg.Paths.OutputDir

	if err := p.runPreflightChecks(services.WithStage(ctx, "preflight"), logger); err != nil {
		return nil, err
	}

	segments, err := p.loadTranscript(services.WithStage(ctx, "transcript"), req.TranscriptPath)
	if err != nil {
		return nil, err
	}

	unlock, err := lockOutput(outputDir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec := p.openRecorder(ctx, logger, runID, req)
	defer rec.close()

	result, err := p.execute(ctx, logger, req, segments)
	if err != nil {
		rec.fail(ctx, err)
		kind := services.Classify(err)
		logging.ErrorWithContext(logger, "extraction failed", "run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, hintFor(kind)),
		)
		return nil, err
	}
	result.RunID = runID
	result.Elapsed = p.now().Sub(started)
	rec.complete(ctx, result)

	logger.Info("extraction completed",
		logging.String(logging.FieldEventType, "run_completed"),
		logging.String("output", result.DocumentPath),
		logging.Int("slide_count", len(result.SlidePaths)),
		logging.Int("segment_count", result.Stats.Segments),
		logging.Int("dropped_segments", result.Stats.Dropped),
		logging.Bool("copied", result.Copied),
		logging.Duration("stage_duration", result.Elapsed),
	)
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, req Request, segments []transcript.Segment) (*Result, error) {
	detected, err := p.detectSlides(services.WithStage(ctx, "detect"), req.VideoPath)
	if err != nil {
		return nil, err
	}
	if len(detected.slides) == 0 {
		return nil, services.Wrap(services.ErrNoSlides, "detect", "", fmt.Sprintf("no frames decoded from %s", req.VideoPath), nil)
	}

	slidesDir := filepath.Join(p.cfg.Paths.OutputDir, filepath.FromSlash(p.cfg.Output.SlidesDir))
	slidePaths, err := p.writeSlides(services.WithStage(ctx, "write_slides"), slidesDir, detected.slides)
	if err != nil {
		return nil, err
	}

	times := slides.Timestamps(detected.slides)
	assignment := p.assignText(services.WithStage(ctx, "align"), times, segments)

	documentPath := filepath.Join(p.cfg.Paths.OutputDir, p.cfg.Output.MarkdownFile)
	result := &Result{
		VideoPath:      req.VideoPath,
		TranscriptPath: req.TranscriptPath,
		DocumentPath:   documentPath,
		SlidesDir:      slidesDir,
		SlidePaths:     slidePaths,
		SlideTimes:     times,
		SlideFrames:    frameIndexes(detected.slides),
		Texts:          assignment.Texts,
		Stats:          assignment.Stats,
		Video:          detected.info,
		FramesDecoded:  detected.decoded,
		FramesSampled:  detected.sampled,
	}

	written, err := p.writeDocument(services.WithStage(ctx, "render"), req, result)
	if err != nil {
		return nil, err
	}
	result.DocumentBytes = len(written)

	if req.CopyToClipboard {
		if err := p.copyText(string(written)); err != nil {
			logging.WarnWithContext(logger, "clipboard copy failed", "clipboard_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "install xclip, xsel or wl-clipboard, or open the file directly"),
				logging.String(logging.FieldImpact, "document written but not copied"),
			)
		} else {
			result.Copied = true
		}
	}
	return result, nil
}

func (p *Pipeline) normalizeRequest(req Request) (Request, error) {
	req.VideoPath = strings.TrimSpace(req.VideoPath)
	req.TranscriptPath = strings.TrimSpace(req.TranscriptPath)
	req.Title = strings.TrimSpace(req.Title)
	if req.VideoPath == "" {
		return req, services.Wrap(services.ErrConfiguration, "extract", "validate request", "video path is required", nil)
	}
	videoPath, err := config.ExpandPath(req.VideoPath)
	if err != nil {
		return req, services.Wrap(services.ErrConfiguration, "extract", "validate request", "", err)
	}
	if abs, err := filepath.Abs(videoPath); err == nil {
		videoPath = abs
	}
	req.VideoPath = videoPath
	if info, err := os.Stat(videoPath); err != nil {
		return req, services.Wrap(services.ErrConfiguration, "extract", "validate request", "video file unavailable", err)
	} else if info.IsDir() {
		return req, services.Wrap(services.ErrConfiguration, "extract", "validate request", videoPath+" is a directory", nil)
	}
	if req.TranscriptPath != "" {
		transcriptPath, err := config.ExpandPath(req.TranscriptPath)
		if err != nil {
			return req, services.Wrap(services.ErrConfiguration, "extract", "validate request", "", err)
		}
		if abs, err := filepath.Abs(transcriptPath); err == nil {
			transcriptPath = abs
		}
		req.TranscriptPath = transcriptPath
	}
	return req, nil
}

func frameIndexes(found []slides.Slide) []int {
	out := make([]int, len(found))
	for i, s := range found {
		out[i] = s.SourceFrameIndex
	}
	return out
}

func hintFor(kind services.Kind) string {
	switch kind {
	case services.KindConfiguration:
		return "check the command flags and config file"
	case services.KindParse:
		return "fix the reported transcript line and rerun"
	case services.KindDegraded:
		return "verify the video has a decodable video stream"
	case services.KindExternal:
		return "run 'slidescribe status' to verify ffmpeg and ffprobe"
	default:
		return "rerun with --log-level debug for details"
	}
}
