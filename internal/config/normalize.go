package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeOutput()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, defaultLogDirName)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetection() {
	c.Detection.Anchor = strings.ToLower(strings.TrimSpace(c.Detection.Anchor))
	c.Detection.Anchor = strings.ReplaceAll(c.Detection.Anchor, "-", "_")
	if c.Detection.Anchor == "" {
		c.Detection.Anchor = defaultAnchor
	}
}

func (c *Config) normalizeOutput() {
	c.Output.MarkdownFile = strings.TrimSpace(c.Output.MarkdownFile)
	if c.Output.MarkdownFile == "" {
		c.Output.MarkdownFile = defaultMarkdownFile
	}
	c.Output.SlidesDir = strings.Trim(strings.TrimSpace(c.Output.SlidesDir), "/")
	if c.Output.SlidesDir == "" {
		c.Output.SlidesDir = defaultSlidesDir
	}
	c.Output.Title = strings.TrimSpace(c.Output.Title)
	if strings.TrimSpace(c.Output.Placeholder) == "" {
		c.Output.Placeholder = defaultPlaceholder
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("SLIDESCRIBE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
