package workflow

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"slidescribe/internal/history"
	"slidescribe/internal/logging"
	"slidescribe/internal/services"
)

// recorder mirrors the run into the history store. History problems never
// fail a run; they are logged and recording stops.
type recorder struct {
	store  *history.Store
	runID  string
	logger *slog.Logger
}

func (p *Pipeline) openRecorder(ctx context.Context, logger *slog.Logger, runID string, req Request) *recorder {
	rec := &recorder{runID: runID, logger: logger}
	if !p.cfg.History.Enabled {
		return rec
	}
	store, err := history.Open(p.cfg)
	if err != nil {
		rec.warn("history unavailable", err)
		return rec
	}
	_, err = store.Begin(ctx, history.BeginParams{
		RunID:            runID,
		VideoPath:        req.VideoPath,
		TranscriptPath:   req.TranscriptPath,
		OutputPath:       p.cfg.Paths.OutputDir,
		Threshold:        p.cfg.Detection.Threshold,
		MinSlideDuration: p.cfg.Detection.MinSlideDuration,
		Anchor:           p.cfg.Detection.Anchor,
	})
	if err != nil {
		_ = store.Close()
		rec.warn("history record failed", err)
		return rec
	}
	rec.store = store
	return rec
}

func (r *recorder) complete(ctx context.Context, result *Result) {
	if r.store == nil {
		return
	}
	records := make([]history.SlideRecord, len(result.SlidePaths))
	for i, path := range result.SlidePaths {
		records[i] = history.SlideRecord{
			Ordinal:    i,
			Timestamp:  result.SlideTimes[i],
			FrameIndex: result.SlideFrames[i],
			ImagePath:  path,
			TextChars:  utf8.RuneCountInString(result.Texts[i]),
		}
	}
	outcome := history.Outcome{
		SegmentCount:    result.Stats.Segments,
		DroppedSegments: result.Stats.Dropped,
		Slides:          records,
	}
	if err := r.store.Complete(context.WithoutCancel(ctx), r.runID, outcome); err != nil {
		r.warn("history record failed", err)
	}
}

func (r *recorder) fail(ctx context.Context, runErr error) {
	if r.store == nil {
		return
	}
	kind := services.Classify(runErr)
	if err := r.store.Fail(context.WithoutCancel(ctx), r.runID, string(kind), runErr.Error()); err != nil {
		r.warn("history record failed", err)
	}
}

func (r *recorder) close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

func (r *recorder) warn(msg string, err error) {
	logging.WarnWithContext(r.logger, msg, "history_unavailable",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "delete the history database if the schema changed"),
		logging.String(logging.FieldImpact, "run is not recorded in 'slidescribe history'"),
	)
}
