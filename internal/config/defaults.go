package config

const (
	defaultConfigPath       = "~/.config/slidescribe/config.toml"
	defaultOutputDir        = "."
	defaultStateDir         = "~/.local/share/slidescribe"
	defaultLogDirName       = "logs"
	defaultSampleInterval   = 1.0
	defaultThreshold        = 0.92
	defaultMinSlideDuration = 30.0
	defaultAnchor           = "bottom_left"
	defaultMarkdownFile     = "output.md"
	defaultSlidesDir        = "slides"
	defaultPlaceholder      = "_[No transcript text for this slide]_"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Anchors lists the accepted detection.anchor values.
var Anchors = []string{"bottom_left", "bottom_right", "top_right", "top_left", "center"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Detection: Detection{
			SampleInterval:   defaultSampleInterval,
			Threshold:        defaultThreshold,
			MinSlideDuration: defaultMinSlideDuration,
			Anchor:           defaultAnchor,
		},
		Output: Output{
			MarkdownFile: defaultMarkdownFile,
			SlidesDir:    defaultSlidesDir,
			Placeholder:  defaultPlaceholder,
			FrontMatter:  true,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
