package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"slidescribe/internal/history"
	"slidescribe/internal/testsupport"
)

func TestBeginAndComplete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.BeginRun(t, store, "run-aaa", "/videos/talk.mp4")
	if run.ID == 0 || run.Status != history.StatusRunning {
		t.Fatalf("unexpected run: %#v", run)
	}

	outcome := history.Outcome{
		SegmentCount:    4,
		DroppedSegments: 1,
		Slides: []history.SlideRecord{
			{Ordinal: 0, Timestamp: 0, FrameIndex: 0, ImagePath: "/out/slides/slide_001.png", TextChars: 12},
			{Ordinal: 1, Timestamp: 45, FrameIndex: 1125, ImagePath: "/out/slides/slide_002.png"},
		},
	}
	if err := store.Complete(ctx, "run-aaa", outcome); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := store.Get(ctx, "run-aaa")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != history.StatusCompleted || got.SlideCount != 2 || got.SegmentCount != 4 || got.DroppedSegments != 1 {
		t.Fatalf("unexpected completed run: %#v", got)
	}
	if got.FinishedAt == nil || got.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %#v", got.FinishedAt)
	}
	if got.Threshold != 0.92 || got.Anchor != "bottom_left" {
		t.Fatalf("detection parameters not persisted: %#v", got)
	}

	slides, err := store.Slides(ctx, "run-aaa")
	if err != nil {
		t.Fatalf("Slides: %v", err)
	}
	if len(slides) != 2 || slides[1].FrameIndex != 1125 || slides[0].TextChars != 12 {
		t.Fatalf("unexpected slides: %#v", slides)
	}

	if err := store.Complete(ctx, "run-aaa", outcome); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected completing a finished run to fail, got %v", err)
	}
}

func TestFail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.BeginRun(t, store, "run-bbb", "/videos/talk.mp4")
	if err := store.Fail(ctx, "run-bbb", "parse", "line 3: bad timestamp"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, err := store.Get(ctx, "run-bbb")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != history.StatusFailed || got.ErrorKind != "parse" || got.ErrorMessage != "line 3: bad timestamp" {
		t.Fatalf("unexpected failed run: %#v", got)
	}
	if err := store.Fail(ctx, "missing", "failure", "x"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestBeginValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Begin(ctx, history.BeginParams{VideoPath: "/v.mp4"}); err == nil {
		t.Fatal("expected error without run id")
	}
	if _, err := store.Begin(ctx, history.BeginParams{RunID: "x"}); err == nil {
		t.Fatal("expected error without video path")
	}
	testsupport.BeginRun(t, store, "dup", "/v.mp4")
	if _, err := store.Begin(ctx, history.BeginParams{RunID: "dup", VideoPath: "/v.mp4"}); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
}

func TestGetByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.BeginRun(t, store, "abc12345", "/v1.mp4")
	testsupport.BeginRun(t, store, "abd99999", "/v2.mp4")

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get prefix: %v", err)
	}
	if got.VideoPath != "/v1.mp4" {
		t.Fatalf("unexpected run for prefix: %#v", got)
	}
	if _, err := store.Get(ctx, "ab"); err == nil {
		t.Fatal("expected ambiguous prefix error")
	}
	if _, err := store.Get(ctx, "zzz"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "a_"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected underscore to match literally, got %v", err)
	}
}

func TestListAndSummarize(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		testsupport.BeginRun(t, store, id, "/videos/"+id+".mp4")
	}
	if err := store.Complete(ctx, "r1", history.Outcome{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := store.Fail(ctx, "r2", "external", "ffmpeg exited"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r3" || runs[1].RunID != "r2" {
		t.Fatalf("expected newest first, got %v", runIDs(runs))
	}
	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := history.Summary{Total: 3, Running: 1, Completed: 1, Failed: 1}
	if summary != want {
		t.Fatalf("Summarize() = %+v, want %+v", summary, want)
	}
}

func TestPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.BeginRun(t, store, "old", "/v.mp4")
	if err := store.Complete(ctx, "old", history.Outcome{Slides: []history.SlideRecord{{Ordinal: 0}}}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	testsupport.BeginRun(t, store, "active", "/v.mp4")

	removed, err := store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned run, got %d", removed)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected pruned run to be gone, got %v", err)
	}
	slides, err := store.Slides(ctx, "old")
	if err != nil {
		t.Fatalf("Slides: %v", err)
	}
	if len(slides) != 0 {
		t.Fatalf("expected slides to cascade, got %d", len(slides))
	}
	if _, err := store.Get(ctx, "active"); err != nil {
		t.Fatalf("running run should survive prune: %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.BeginRun(t, store, "h1", "/v.mp4")

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.TotalRuns != 1 || health.SchemaVersion != 1 {
		t.Fatalf("unexpected counts: %+v", health)
	}
	if health.DBPath != cfg.HistoryPath() {
		t.Fatalf("DBPath = %q, want %q", health.DBPath, cfg.HistoryPath())
	}
}

func TestSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.HistoryPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func runIDs(runs []*history.Run) []string {
	ids := make([]string, 0, len(runs))
	for _, run := range runs {
		ids = append(ids, run.RunID)
	}
	return ids
}
