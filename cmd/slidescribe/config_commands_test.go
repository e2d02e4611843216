package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"slidescribe/internal/config"
	"slidescribe/internal/services"
	"slidescribe/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	t.Setenv("HOME", t.TempDir())
	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, target)
}

func TestConfigValidateMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	missing := filepath.Join(t.TempDir(), "absent.toml")
	out, _, err := runCLI(t, []string{"config", "validate"}, missing)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "defaults were used")
}

func TestConfigValidateRejectsBadThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Detection.Threshold = 0.2
	path := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if kind := services.Classify(err); kind != services.KindConfiguration {
		t.Fatalf("kind = %q, want %q", kind, services.KindConfiguration)
	}
	if !strings.Contains(err.Error(), "detection.threshold") {
		t.Fatalf("error should name the field, got %v", err)
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDetection(0.8, 12, 2))
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "show", "--log-level", "warn"}, path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: "+path)

	body := strings.SplitN(out, "\n", 2)[1]
	var shown config.Config
	if err := toml.Unmarshal([]byte(body), &shown); err != nil {
		t.Fatalf("unmarshal shown config: %v", err)
	}
	if shown.Detection.Threshold != 0.8 || shown.Detection.MinSlideDuration != 12 || shown.Detection.SampleInterval != 2 {
		t.Fatalf("detection = %+v", shown.Detection)
	}
	if shown.Logging.Level != "warn" {
		t.Fatalf("log level = %q, want warn from --log-level", shown.Logging.Level)
	}
	if shown.Paths.OutputDir != cfg.Paths.OutputDir {
		t.Fatalf("output dir = %q, want %q", shown.Paths.OutputDir, cfg.Paths.OutputDir)
	}
}

func TestVerboseFlagSelectsDebug(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "show", "-v"}, path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var shown config.Config
	if err := toml.Unmarshal([]byte(strings.SplitN(out, "\n", 2)[1]), &shown); err != nil {
		t.Fatalf("unmarshal shown config: %v", err)
	}
	if shown.Logging.Level != "debug" {
		t.Fatalf("log level = %q, want debug", shown.Logging.Level)
	}
}

func TestUnknownLogLevelIsConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"config", "show", "--log-level", "loud"}, path)
	if services.Classify(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
