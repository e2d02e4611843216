package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"slidescribe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SLIDESCRIBE_LOG_LEVEL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "slidescribe")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Detection.Threshold != 0.92 {
		t.Fatalf("unexpected threshold: %v", cfg.Detection.Threshold)
	}
	if cfg.Detection.MinSlideDuration != 30 {
		t.Fatalf("unexpected min slide duration: %v", cfg.Detection.MinSlideDuration)
	}
	if cfg.Detection.SampleInterval != 1.0 {
		t.Fatalf("unexpected sample interval: %v", cfg.Detection.SampleInterval)
	}
	if cfg.Detection.Anchor != "bottom_left" {
		t.Fatalf("unexpected anchor: %q", cfg.Detection.Anchor)
	}
	if cfg.Output.MarkdownFile != "output.md" || cfg.Output.SlidesDir != "slides" {
		t.Fatalf("unexpected output names: %+v", cfg.Output)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected tool binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "slidescribe.toml")
	t.Setenv("SLIDESCRIBE_LOG_LEVEL", "")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
			StateDir  string `toml:"state_dir"`
		} `toml:"paths"`
		Detection struct {
			Threshold        float64 `toml:"threshold"`
			MinSlideDuration float64 `toml:"min_slide_duration"`
			Anchor           string  `toml:"anchor"`
		} `toml:"detection"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "notes")
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Detection.Threshold = 0.85
	custom.Detection.MinSlideDuration = 10
	custom.Detection.Anchor = "Top-Right"
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.OutputDir != custom.Paths.OutputDir {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Detection.Threshold != 0.85 || cfg.Detection.MinSlideDuration != 10 {
		t.Fatalf("unexpected detection values: %+v", cfg.Detection)
	}
	if cfg.Detection.Anchor != "top_right" {
		t.Fatalf("expected anchor to be normalized, got %q", cfg.Detection.Anchor)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected logging format to be normalized, got %q", cfg.Logging.Format)
	}
	if cfg.Detection.SampleInterval != config.Default().Detection.SampleInterval {
		t.Fatalf("expected unset sample interval to keep default, got %v", cfg.Detection.SampleInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SLIDESCRIBE_LOG_LEVEL", "")
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "threshold too low", content: "[detection]\nthreshold = 0.2\n", want: "detection.threshold"},
		{name: "threshold too high", content: "[detection]\nthreshold = 1.5\n", want: "detection.threshold"},
		{name: "interval", content: "[detection]\nsample_interval = 0.01\n", want: "detection.sample_interval"},
		{name: "negative debounce", content: "[detection]\nmin_slide_duration = -1\n", want: "detection.min_slide_duration"},
		{name: "anchor", content: "[detection]\nanchor = \"middle\"\n", want: "detection.anchor"},
		{name: "slides dir escape", content: "[output]\nslides_dir = \"../outside\"\n", want: "output.slides_dir"},
		{name: "markdown path", content: "[output]\nmarkdown_file = \"sub/out.md\"\n", want: "output.markdown_file"},
		{name: "log format", content: "[logging]\nformat = \"xml\"\n", want: "logging.format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "slidescribe.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error to mention %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadLogLevelFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SLIDESCRIBE_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	t.Setenv("SLIDESCRIBE_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to report exists=false")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Detection.Anchor != "bottom_left" {
		t.Fatalf("unexpected anchor: %q", cfg.Detection.Anchor)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SLIDESCRIBE_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	defaults := config.Default()
	if cfg.Detection.Threshold != defaults.Detection.Threshold {
		t.Fatalf("sample threshold %v differs from default %v", cfg.Detection.Threshold, defaults.Detection.Threshold)
	}
	if cfg.Output.Placeholder != defaults.Output.Placeholder {
		t.Fatalf("sample placeholder %q differs from default", cfg.Output.Placeholder)
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/videos")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "videos") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SLIDESCRIBE_LOG_LEVEL", "")
	cfg := config.Default()
	cfg.Detection.Threshold = 0.8
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Detection.Threshold != 0.8 {
		t.Fatalf("unexpected threshold after reload: %v", loaded.Detection.Threshold)
	}
}
