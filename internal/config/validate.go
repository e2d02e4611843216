package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if math.IsNaN(d.SampleInterval) || d.SampleInterval < 0.1 || d.SampleInterval > 10 {
		return fmt.Errorf("detection.sample_interval must be between 0.1 and 10 seconds, got %v", d.SampleInterval)
	}
	if math.IsNaN(d.Threshold) || d.Threshold < 0.5 || d.Threshold > 1 {
		return fmt.Errorf("detection.threshold must be between 0.5 and 1.0, got %v", d.Threshold)
	}
	if math.IsNaN(d.MinSlideDuration) || d.MinSlideDuration < 0 {
		return errors.New("detection.min_slide_duration must be >= 0")
	}
	if !slices.Contains(Anchors, d.Anchor) {
		return fmt.Errorf("detection.anchor must be one of %s, got %q", strings.Join(Anchors, ", "), d.Anchor)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if filepath.IsAbs(c.Output.SlidesDir) {
		return errors.New("output.slides_dir must be relative to the output directory")
	}
	if strings.Contains(c.Output.SlidesDir, "..") {
		return errors.New("output.slides_dir must not leave the output directory")
	}
	if strings.ContainsAny(c.Output.MarkdownFile, `/\`) {
		return errors.New("output.markdown_file must be a file name, not a path")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
