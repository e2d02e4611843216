package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"slidescribe/internal/history"
	"slidescribe/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// renderStatusLine formats "  Label:   [KIND] message", coloured by kind when
// colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	body := "[" + style.label + "]"
	if message != "" {
		body += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", body)
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// runStatusKind maps a recorded run status onto a display kind.
func runStatusKind(status history.Status) statusKind {
	switch status {
	case history.StatusCompleted:
		return statusOK
	case history.StatusFailed:
		return statusError
	case history.StatusRunning:
		return statusWarn
	default:
		return statusInfo
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// checkLines renders preflight results with a summary line first. versions
// maps a check name to the tool version reported by the binary, when known.
func checkLines(results []preflight.Result, versions map[string]string, colorize bool) []string {
	lines := make([]string, 0, len(results)+2)
	failed := preflight.Failures(results)
	switch {
	case len(results) == 0:
		lines = append(lines, renderStatusLine("Summary", statusInfo, "No checks configured", colorize))
	case len(failed) == 0:
		lines = append(lines, renderStatusLine("Summary", statusOK, fmt.Sprintf("All %d checks passed", len(results)), colorize))
	default:
		lines = append(lines, renderStatusLine("Summary", statusError, fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), colorize))
	}

	for _, result := range results {
		detail := strings.TrimSpace(result.Detail)
		if result.Passed {
			message := "Ready"
			if detail != "" {
				message = detail
			}
			if version := versions[result.Name]; version != "" {
				message = fmt.Sprintf("%s (%s)", message, version)
			}
			lines = append(lines, renderStatusLine(result.Name, statusOK, message, colorize))
			continue
		}
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if result.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(result.Name, kind, detail, colorize))
	}

	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, result := range failed {
			names = append(names, result.Name)
		}
		lines = append(lines, renderStatusLine("Failed checks", statusError, strings.Join(names, ", "), colorize))
	}
	return lines
}
