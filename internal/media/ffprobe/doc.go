// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: video/audio stream properties including frame rate
//   - Format: container-level metadata (duration, size)
//
// Inspect executes ffprobe and returns the parsed Result; Parse decodes an
// already captured payload. Stream.FrameRate resolves the rational frame rate
// strings ffprobe reports.
package ffprobe
