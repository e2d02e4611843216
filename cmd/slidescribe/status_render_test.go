package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"slidescribe/internal/history"
	"slidescribe/internal/preflight"
	"slidescribe/internal/services"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Document", statusOK, "written", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestCheckLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "FFmpeg", Passed: false, Detail: `binary "ffmpeg" not found`},
		{Name: "FFprobe", Passed: true, Detail: "/usr/bin/ffprobe"},
		{Name: "Clipboard", Passed: false, Optional: true, Detail: "no clipboard utility"},
	}
	lines := checkLines(results, map[string]string{"FFprobe": "ffprobe version 6.1"}, false)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[ERROR] 1 of 3 checks failed") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], `[ERROR] binary "ffmpeg" not found`) {
		t.Fatalf("expected error detail in second line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] /usr/bin/ffprobe (ffprobe version 6.1)") {
		t.Fatalf("expected ready detail with version, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN] no clipboard utility") {
		t.Fatalf("expected optional failure as warning, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "Failed checks:") || !strings.Contains(lines[4], "FFmpeg") {
		t.Fatalf("expected failed checks summary, got %q", lines[4])
	}
}

func TestCheckLinesAllPassed(t *testing.T) {
	lines := checkLines([]preflight.Result{{Name: "Output directory", Passed: true, Detail: "/tmp/out (read/write ok)"}}, nil, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] All 1 checks passed") {
		t.Fatalf("unexpected summary %q", lines[0])
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Preflight ", false)
	if lines[0] != "== Preflight ==" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", len(lines[0])) {
		t.Fatalf("rule = %q", lines[1])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestFormatErrorIncludesKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrParse, "transcript", "parse", "line 3", nil), "Error (parse): "},
		{services.Wrap(services.ErrExternalTool, "detect", "ffmpeg", "", nil), "Error (external): "},
		{errors.New("boom"), "Error (failure): boom"},
	}
	for _, tt := range tests {
		if got := formatError(tt.err); !strings.HasPrefix(got, tt.want) {
			t.Fatalf("formatError(%v) = %q, want prefix %q", tt.err, got, tt.want)
		}
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([]string{"#", "Time"}, [][]string{{"1", "0:00"}, {"12"}}, []columnAlignment{alignRight, alignLeft})
	if !strings.Contains(out, "TIME") && !strings.Contains(out, "Time") {
		t.Fatalf("expected header in table:\n%s", out)
	}
	if !strings.Contains(out, "0:00") || !strings.Contains(out, "12") {
		t.Fatalf("expected rows in table:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty table for no headers")
	}
}

func TestRunStatusKind(t *testing.T) {
	tests := map[history.Status]statusKind{
		history.StatusCompleted: statusOK,
		history.StatusFailed:    statusError,
		history.StatusRunning:   statusWarn,
		history.Status("other"): statusInfo,
	}
	for status, want := range tests {
		if got := runStatusKind(status); got != want {
			t.Fatalf("runStatusKind(%q) = %v, want %v", status, got, want)
		}
	}
}
