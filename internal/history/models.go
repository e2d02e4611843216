package history

import "time"

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one extraction attempt.
type Run struct {
	ID               int64
	RunID            string
	VideoPath        string
	TranscriptPath   string
	OutputPath       string
	Status           Status
	ErrorKind        string
	ErrorMessage     string
	SlideCount       int
	SegmentCount     int
	DroppedSegments  int
	Threshold        float64
	MinSlideDuration float64
	Anchor           string
	CreatedAt        time.Time
	FinishedAt       *time.Time
}

// Duration returns the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil || r.CreatedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// SlideRecord is a detected slide stored with its run.
type SlideRecord struct {
	Ordinal    int
	Timestamp  float64
	FrameIndex int
	ImagePath  string
	TextChars  int
}

// BeginParams describes a run as it starts.
type BeginParams struct {
	RunID            string
	VideoPath        string
	TranscriptPath   string
	OutputPath       string
	Threshold        float64
	MinSlideDuration float64
	Anchor           string
}

// Outcome summarises a successful run.
type Outcome struct {
	SegmentCount    int
	DroppedSegments int
	Slides          []SlideRecord
}

// Summary aggregates run counts per status.
type Summary struct {
	Total     int
	Running   int
	Completed int
	Failed    int
}

// DatabaseHealth captures diagnostic information about the history database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	IntegrityCheck   bool
	TotalRuns        int
	Error            string
}
