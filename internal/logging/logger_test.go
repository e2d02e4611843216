package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidescribe/internal/config"
	"slidescribe/internal/logging"
	"slidescribe/internal/services"
)

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "error"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("file only", logging.String("video", "talk.mp4"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode log record %q: %v", content, err)
	}
	if record["msg"] != "file only" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["level"] != "debug" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if record["video"] != "talk.mp4" {
		t.Fatalf("unexpected video attr: %v", record["video"])
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(services.WithRunID(context.Background(), "0123456789abcdef"), "detect")
	component := logging.NewComponentLogger(logger, "workflow")
	logging.WithContext(ctx, component).Info("slide accepted",
		logging.Int("slide_count", 3),
		logging.Float64("similarity", 0.5),
		logging.String("frame_path", "/tmp/hidden"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	for _, want := range []string{"INFO [workflow] Run 01234567 (detect) – slide accepted", "- Slides: 3", "- Similarity: 0.5000", "+ 1 more field hidden"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
	if strings.Contains(out, "/tmp/hidden") {
		t.Fatalf("expected path field hidden at info level, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug disabled for unknown level")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info enabled for unknown level")
	}
}

type captureHandler struct {
	records *[]slog.Record
	attrs   []slog.Attr
}

func (h captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h captureHandler) Handle(_ context.Context, r slog.Record) error {
	r.AddAttrs(h.attrs...)
	*h.records = append(*h.records, r)
	return nil
}

func (h captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return captureHandler{records: h.records, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h captureHandler) WithGroup(string) slog.Handler { return h }

func recordAttrs(r slog.Record) map[string]string {
	out := map[string]string{}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})
	return out
}

func TestWithContextAddsFields(t *testing.T) {
	var records []slog.Record
	logger := slog.New(captureHandler{records: &records})

	ctx := services.WithRunID(context.Background(), "run-xyz")
	ctx = services.WithStage(ctx, "distribute")
	logging.WithContext(ctx, logger).Info("contextual log")

	if len(records) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(records))
	}
	attrs := recordAttrs(records[0])
	if attrs[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("run id = %q", attrs[logging.FieldRunID])
	}
	if attrs[logging.FieldStage] != "distribute" {
		t.Fatalf("stage = %q", attrs[logging.FieldStage])
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var records []slog.Record
	logger := slog.New(captureHandler{records: &records})

	logging.WarnWithContext(logger, "segment dropped", "segment_dropped", logging.String(logging.FieldImpact, "text missing"))

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	attrs := recordAttrs(records[0])
	if attrs[logging.FieldEventType] != "segment_dropped" {
		t.Fatalf("event type = %q", attrs[logging.FieldEventType])
	}
	if attrs[logging.FieldErrorHint] == "" {
		t.Fatal("expected default error hint")
	}
	if attrs[logging.FieldImpact] != "text missing" {
		t.Fatalf("impact overwritten: %q", attrs[logging.FieldImpact])
	}
}

func TestFilePathReceivesDebugCopy(t *testing.T) {
	dir := t.TempDir()
	consolePath := filepath.Join(dir, "console.log")
	jsonPath := filepath.Join(dir, "debug.jsonl")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{consolePath},
		FilePath:    jsonPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("frame skipped")
	logger.Error("boom", logging.Error(errors.New("bad frame")))

	console, err := os.ReadFile(consolePath)
	if err != nil {
		t.Fatalf("read console log: %v", err)
	}
	if strings.Contains(string(console), "frame skipped") || !strings.Contains(string(console), "boom") {
		t.Fatalf("console output filtered incorrectly: %q", console)
	}
	jsonLog, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json log: %v", err)
	}
	for _, want := range []string{"frame skipped", "bad frame"} {
		if !strings.Contains(string(jsonLog), want) {
			t.Fatalf("expected %q in json log, got %q", want, jsonLog)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected no-op logger to be disabled")
	}
	logging.WarnWithContext(nil, "ignored", "noop")
}
