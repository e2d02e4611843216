package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// DecoderRequirements lists the binaries video decoding needs.
func DecoderRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     defaultCommand(ffmpeg, "ffmpeg"),
			Description: "Required for frame decoding",
		},
		{
			Name:        "FFprobe",
			Command:     defaultCommand(ffprobe, "ffprobe"),
			Description: "Required for stream inspection",
		},
	}
}

// ResolveBinary returns the absolute path of command. Commands containing a
// path separator are checked in place; bare names are resolved from PATH.
func ResolveBinary(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", errors.New("command not configured")
	}
	if strings.ContainsRune(command, filepath.Separator) {
		info, err := os.Stat(command)
		if err != nil {
			return "", fmt.Errorf("binary %q not found", command)
		}
		if !isExecutable(info) {
			return "", fmt.Errorf("binary %q is not executable", command)
		}
		abs, err := filepath.Abs(command)
		if err != nil {
			return command, nil
		}
		return abs, nil
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("binary %q not found", command)
	}
	return resolved, nil
}

func defaultCommand(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
