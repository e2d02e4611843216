package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const logTimestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(logTimestampLayout)
}

// plainString renders v without quoting.
func plainString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		// Bool, Int64, Uint64 and Duration already print the way we want.
		return v.String()
	}
}

func attrString(v slog.Value) string {
	return plainString(v)
}

// formatValue is plainString with quoting for empty strings or control characters.
func formatValue(v slog.Value) string {
	s := plainString(v)
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == '"' })
}

func formatBytes(value int64) string {
	if value < 0 {
		return strconv.FormatInt(value, 10)
	}
	return humanize.IBytes(uint64(value))
}

func formatDurationHuman(d time.Duration) string {
	step := 100 * time.Millisecond
	if d < time.Second {
		step = time.Millisecond
	}
	return d.Round(step).String()
}

func formatRatio(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}
