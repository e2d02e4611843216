package testsupport

import (
	"context"
	"testing"

	"slidescribe/internal/config"
	"slidescribe/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun records a running run for tests using the provided store.
func BeginRun(t testing.TB, store *history.Store, runID, videoPath string) *history.Run {
	t.Helper()

	run, err := store.Begin(context.Background(), history.BeginParams{
		RunID:     runID,
		VideoPath: videoPath,
		Threshold: 0.92,
		Anchor:    "bottom_left",
	})
	if err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return run
}
