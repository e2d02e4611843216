package history

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id               int64
		runID            string
		videoPath        string
		transcriptPath   sql.NullString
		outputPath       sql.NullString
		statusStr        string
		errorKind        sql.NullString
		errorMessage     sql.NullString
		slideCount       int
		segmentCount     int
		droppedSegments  int
		threshold        sql.NullFloat64
		minSlideDuration sql.NullFloat64
		anchor           sql.NullString
		createdRaw       string
		finishedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&videoPath,
		&transcriptPath,
		&outputPath,
		&statusStr,
		&errorKind,
		&errorMessage,
		&slideCount,
		&segmentCount,
		&droppedSegments,
		&threshold,
		&minSlideDuration,
		&anchor,
		&createdRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:               id,
		RunID:            runID,
		VideoPath:        videoPath,
		TranscriptPath:   transcriptPath.String,
		OutputPath:       outputPath.String,
		Status:           Status(statusStr),
		ErrorKind:        errorKind.String,
		ErrorMessage:     errorMessage.String,
		SlideCount:       slideCount,
		SegmentCount:     segmentCount,
		DroppedSegments:  droppedSegments,
		Threshold:        threshold.Float64,
		MinSlideDuration: minSlideDuration.Float64,
		Anchor:           anchor.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		run.CreatedAt = created
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards. Queries using it must add ESCAPE '\'.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
