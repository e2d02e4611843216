package preflight

import (
	"context"
	"fmt"
	"strings"

	"slidescribe/internal/config"
	"slidescribe/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range deps.CheckBinaries(deps.DecoderRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary())) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckWritableTarget("Output directory", cfg.Paths.OutputDir))
	if cfg.History.Enabled {
		results = append(results, CheckWritableTarget("State directory", cfg.Paths.StateDir))
	}
	return results
}

// Failures returns the required checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summarize joins failed checks into a single line for error messages.
func Summarize(failed []Result) string {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return strings.Join(parts, "; ")
}

func fromStatus(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Command
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Optional: status.Optional,
		Detail:   detail,
	}
}
