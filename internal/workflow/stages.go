package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"slidescribe/internal/fileutil"
	"slidescribe/internal/logging"
	"slidescribe/internal/markdown"
	"slidescribe/internal/preflight"
	"slidescribe/internal/services"
	"slidescribe/internal/slides"
	"slidescribe/internal/textutil"
	"slidescribe/internal/transcript"
	"slidescribe/internal/video"
)

const generatorTag = "slidescribe"

// runPreflightChecks validates tool and directory readiness before decoding.
// Returns nil when all required checks pass.
func (p *Pipeline) runPreflightChecks(ctx context.Context, logger *slog.Logger) error {
	logger = logging.WithContext(ctx, logger)
	results := preflight.RunAll(ctx, p.cfg)
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue or run 'slidescribe status'"),
		)
	}
	if failed := preflight.Failures(results); len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "", preflight.Summarize(failed), nil)
	}
	return nil
}

// loadTranscript parses the transcript file. An empty path yields no
// segments so every slide gets the placeholder.
func (p *Pipeline) loadTranscript(ctx context.Context, path string) ([]transcript.Segment, error) {
	logger := logging.WithContext(ctx, p.logger)
	if path == "" {
		logging.WarnWithContext(logger, "no transcript supplied", "transcript_missing",
			logging.String(logging.FieldErrorHint, "pass --transcript to attach spoken text"),
			logging.String(logging.FieldImpact, "every slide receives the placeholder text"),
		)
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcript", "open transcript", "", err)
	}
	defer file.Close()

	segments, err := transcript.Parse(file)
	if err != nil {
		var perr *transcript.ParseError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrConfiguration, "transcript", "read transcript", path, err)
	}
	logger.Info("transcript parsed",
		logging.String("transcript", path),
		logging.Int("segment_count", len(segments)),
	)
	return segments, nil
}

type detection struct {
	slides  []slides.Slide
	info    video.Info
	decoded int
	sampled int
}

// detectSlides owns the decode handle for the duration of detection.
func (p *Pipeline) detectSlides(ctx context.Context, videoPath string) (detection, error) {
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	anchor, err := slides.ParseAnchor(p.cfg.Detection.Anchor)
	if err != nil {
		return detection{}, err
	}
	detector, err := slides.NewDetector(slides.DetectorConfig{
		Threshold:        p.cfg.Detection.Threshold,
		MinSlideDuration: p.cfg.Detection.MinSlideDuration,
		Anchor:           anchor,
	})
	if err != nil {
		return detection{}, err
	}

	dec, err := video.Open(ctx, videoPath, video.Options{
		FFmpeg:  p.cfg.FFmpegBinary(),
		FFprobe: p.cfg.FFprobeBinary(),
	})
	if err != nil {
		return detection{}, err
	}
	defer dec.Close()

	info := dec.Info()
	sampler, err := slides.NewSampler(dec, p.cfg.Detection.SampleInterval)
	if err != nil {
		return detection{}, err
	}
	logger.Info("decoding video",
		logging.String("video", videoPath),
		logging.String("resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)),
		logging.Float64("frame_rate", info.FrameRate),
		logging.Int("sample_step", sampler.Step()),
		logging.String("anchor", anchor.String()),
	)

	sampled := 0
	detector = detector.WithObserver(func(frame slides.SampledFrame, decision slides.Decision) {
		sampled++
		if decision.Outcome != slides.OutcomeAccepted {
			reason := textutil.Ternary(decision.Outcome == slides.OutcomeDebounced,
				"within min_slide_duration of the previous slide", "similarity at or above threshold")
			attrs := append(logging.DecisionAttrs("slide_boundary", string(decision.Outcome), reason),
				logging.Int("frame_index", frame.Index),
				logging.String("timestamp", transcript.FormatTimestamp(frame.Timestamp)),
				logging.Float64("similarity", decision.Similarity),
			)
			logger.Debug("frame skipped", logging.Args(attrs...)...)
			return
		}
		logger.Info("slide detected",
			logging.String("timestamp", transcript.FormatTimestamp(frame.Timestamp)),
			logging.Int("frame_index", frame.Index),
			logging.Float64("similarity", decision.Similarity),
		)
	})

	found, err := detector.Run(ctx, sampler)
	if err != nil {
		return detection{}, err
	}
	logger.Info("detection finished",
		logging.Int("slide_count", len(found)),
		logging.Int("frames_sampled", sampled),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return detection{slides: found, info: info, decoded: dec.Frames(), sampled: sampled}, nil
}

func (p *Pipeline) writeSlides(ctx context.Context, dir string, found []slides.Slide) ([]string, error) {
	logger := logging.WithContext(ctx, p.logger)
	paths, err := slides.WriteSlides(dir, found)
	if err != nil {
		return nil, services.Wrap(nil, "write_slides", "", dir, err)
	}
	var total int64
	for _, path := range paths {
		if info, statErr := os.Stat(path); statErr == nil {
			total += info.Size()
		}
	}
	logger.Info("slides written",
		logging.String("slides_dir", dir),
		logging.Int("slide_count", len(paths)),
		logging.Int64("image_bytes", total),
	)
	return paths, nil
}

func (p *Pipeline) assignText(ctx context.Context, times []float64, segments []transcript.Segment) transcript.Assignment {
	logger := logging.WithContext(ctx, p.logger)
	assignment := transcript.Distribute(times, segments)
	if assignment.Stats.Dropped > 0 {
		logging.WarnWithContext(logger, "transcript segments outside every slide", "segments_dropped",
			logging.Alert("text_loss"),
			logging.Int("dropped_segments", assignment.Stats.Dropped),
			logging.Int("segment_count", assignment.Stats.Segments),
			logging.String(logging.FieldErrorHint, "lower detection.threshold or check the transcript timing"),
			logging.String(logging.FieldImpact, "their text is missing from the document"),
		)
	}
	logger.Debug("transcript aligned",
		logging.Int("segment_count", assignment.Stats.Segments),
		logging.Int("split_segments", assignment.Stats.Split),
	)
	return assignment
}

func (p *Pipeline) writeDocument(ctx context.Context, req Request, result *Result) ([]byte, error) {
	logger := logging.WithContext(ctx, p.logger)
	title := req.Title
	if title == "" {
		title = p.cfg.Output.Title
	}
	if title == "" {
		title = textutil.DeriveTitle(req.VideoPath)
	}

	doc := markdown.Document{
		Title:       title,
		SlidesDir:   p.cfg.Output.SlidesDir,
		Placeholder: p.cfg.Output.Placeholder,
		Slides:      make([]markdown.Slide, len(result.SlidePaths)),
	}
	for i, path := range result.SlidePaths {
		doc.Slides[i] = markdown.Slide{
			Timestamp: result.SlideTimes[i],
			FileName:  filepath.Base(path),
			Text:      result.Texts[i],
		}
	}
	if p.cfg.Output.FrontMatter {
		runID, _ := services.RunIDFromContext(ctx)
		doc.FrontMatter = &markdown.FrontMatter{
			Title:            title,
			Video:            req.VideoPath,
			Transcript:       req.TranscriptPath,
			GeneratedAt:      p.now().UTC().Truncate(time.Second),
			RunID:            runID,
			Threshold:        p.cfg.Detection.Threshold,
			MinSlideDuration: p.cfg.Detection.MinSlideDuration,
			SampleInterval:   p.cfg.Detection.SampleInterval,
			Anchor:           p.cfg.Detection.Anchor,
			Tags:             []string{generatorTag, "lecture"},
		}
	}

	data, err := markdown.Render(doc)
	if err != nil {
		return nil, services.Wrap(nil, "render", "", "", err)
	}
	if err := fileutil.WriteFileAtomic(result.DocumentPath, data, 0o644); err != nil {
		return nil, services.Wrap(nil, "render", "write document", result.DocumentPath, err)
	}
	logger.Info("document written",
		logging.String("output", result.DocumentPath),
		logging.Int("slide_count", len(doc.Slides)),
	)
	return data, nil
}
