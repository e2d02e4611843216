package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"slidescribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDetection overrides the detector tuning on the test config.
func WithDetection(threshold, minSlideDuration, sampleInterval float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detection.Threshold = threshold
		b.cfg.Detection.MinSlideDuration = minSlideDuration
		b.cfg.Detection.SampleInterval = sampleInterval
	}
}

// WithHistory toggles the run history database.
func WithHistory(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = enabled
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := stubDir(b)
		for _, name := range names {
			writeStub(b.t, filepath.Join(binDir, name), "#!/bin/sh\nexit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithFakeDecoder points the tool config at stub ffprobe/ffmpeg scripts. The
// ffprobe stub reports a single video stream of the given geometry and frame
// rate; the ffmpeg stub streams rawPath to stdout as rgb24 frames.
func WithFakeDecoder(width, height int, frameRate, rawPath string) ConfigOption {
	return func(b *configBuilder) {
		binDir := stubDir(b)
		probe := filepath.Join(binDir, "ffprobe")
		writeStub(b.t, probe, "#!/bin/sh\ncat <<'JSON'\n"+ProbeJSON(width, height, frameRate)+"\nJSON\n")
		ffmpeg := filepath.Join(binDir, "ffmpeg")
		writeStub(b.t, ffmpeg, "#!/bin/sh\ncat '"+rawPath+"'\n")
		b.cfg.Tools.FFprobe = probe
		b.cfg.Tools.FFmpeg = ffmpeg
	}
}

func stubDir(b *configBuilder) string {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return binDir
}

func writeStub(t testing.TB, path, script string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", filepath.Base(path), err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
