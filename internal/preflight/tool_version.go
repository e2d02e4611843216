package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ToolVersion runs "<binary> -version" and returns the first line of output,
// e.g. "ffmpeg version 6.1.1". It gives up after two seconds.
func ToolVersion(ctx context.Context, binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "", fmt.Errorf("binary not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s -version: empty output", binary)
	}
	if idx := strings.Index(line, " Copyright"); idx > 0 {
		line = line[:idx]
	}
	return line, nil
}
