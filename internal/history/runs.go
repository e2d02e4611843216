package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, run_id, video_path, transcript_path, output_path, status, error_kind, error_message, slide_count, segment_count, dropped_segments, threshold, min_slide_duration, anchor, created_at, finished_at"

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Begin records a run in the running state.
func (s *Store) Begin(ctx context.Context, params BeginParams) (*Run, error) {
	runID := strings.TrimSpace(params.RunID)
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	if strings.TrimSpace(params.VideoPath) == "" {
		return nil, errors.New("video path is required")
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO runs (run_id, video_path, transcript_path, output_path, status, threshold, min_slide_duration, anchor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		params.VideoPath,
		nullableString(params.TranscriptPath),
		nullableString(params.OutputPath),
		StatusRunning,
		params.Threshold,
		params.MinSlideDuration,
		nullableString(params.Anchor),
		now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Run{
		ID:               id,
		RunID:            runID,
		VideoPath:        params.VideoPath,
		TranscriptPath:   params.TranscriptPath,
		OutputPath:       params.OutputPath,
		Status:           StatusRunning,
		Threshold:        params.Threshold,
		MinSlideDuration: params.MinSlideDuration,
		Anchor:           params.Anchor,
		CreatedAt:        now,
	}, nil
}

// Complete marks a running run as completed and stores its slides.
func (s *Store) Complete(ctx context.Context, runID string, outcome Outcome) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin complete tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`UPDATE runs SET status = ?, slide_count = ?, segment_count = ?, dropped_segments = ?, finished_at = ?
			 WHERE run_id = ? AND status = ?`,
			StatusCompleted,
			len(outcome.Slides),
			outcome.SegmentCount,
			outcome.DroppedSegments,
			time.Now().UTC().Format(timeLayout),
			runID,
			StatusRunning,
		)
		if err != nil {
			return fmt.Errorf("complete run: %w", err)
		}
		if err := expectOneRow(res, runID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO slides (run_id, ordinal, timestamp, frame_index, image_path, text_chars) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare slide insert: %w", err)
		}
		defer stmt.Close()
		for _, slide := range outcome.Slides {
			if _, err := stmt.ExecContext(ctx, runID, slide.Ordinal, slide.Timestamp, slide.FrameIndex, nullableString(slide.ImagePath), slide.TextChars); err != nil {
				return fmt.Errorf("insert slide %d: %w", slide.Ordinal, err)
			}
		}
		return tx.Commit()
	})
}

// Fail marks a running run as failed with the classified error.
func (s *Store) Fail(ctx context.Context, runID, kind, message string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error_message = ?, finished_at = ?
		 WHERE run_id = ? AND status = ?`,
		StatusFailed,
		nullableString(kind),
		nullableString(message),
		time.Now().UTC().Format(timeLayout),
		runID,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return expectOneRow(res, runID)
}

// Get returns the run with runID. A unique prefix of the id is accepted.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE run_id = ? OR run_id LIKE ? ESCAPE '\' ORDER BY run_id = ? DESC, id LIMIT 2`,
		runID, escapeLike(runID)+"%", runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	case matches[0].RunID == runID || len(matches) == 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", runID)
	}
}

// List returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Slides returns the slides recorded for runID in ordinal order.
func (s *Store) Slides(ctx context.Context, runID string) ([]SlideRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT ordinal, timestamp, frame_index, image_path, text_chars FROM slides WHERE run_id = ? ORDER BY ordinal`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	defer rows.Close()

	var slides []SlideRecord
	for rows.Next() {
		var (
			rec       SlideRecord
			imagePath sql.NullString
		)
		if err := rows.Scan(&rec.Ordinal, &rec.Timestamp, &rec.FrameIndex, &imagePath, &rec.TextChars); err != nil {
			return nil, fmt.Errorf("scan slide: %w", err)
		}
		rec.ImagePath = imagePath.String
		slides = append(slides, rec)
	}
	return slides, rows.Err()
}

// Summarize counts runs per status.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusRunning:
			summary.Running += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

// Prune deletes finished runs created before cutoff along with their slides.
// Running rows are kept.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE status != ? AND created_at < ?`,
		StatusRunning,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func expectOneRow(res sql.Result, runID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no running run %s", ErrRunNotFound, runID)
	}
	return nil
}
