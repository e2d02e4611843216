package transcript

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"slidescribe/internal/services"
)

// Segment is one timed block of transcript text.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Duration returns End - Start in seconds.
func (s Segment) Duration() float64 { return s.End - s.Start }

// markerPattern matches any colon-bearing digit token; ParseTimestamp checks the part count.
var markerPattern = regexp.MustCompile(`\|?\(\s*([\d:]*:[\d:]*)\s*-\s*([\d:]*:[\d:]*)\s*\)`)

// ParseError reports a malformed timestamp or marker.
type ParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse transcript")
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	fmt.Fprintf(&b, ": %q", e.Token)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrParse}
	}
	return []error{services.ErrParse, e.Err}
}

var (
	errTimestampFormat = errors.New("timestamp must be M:SS or H:MM:SS")
	errEndBeforeStart  = errors.New("segment ends before it starts")
)

// ParseTimestamp converts "M:SS" or "H:MM:SS" to seconds.
func ParseTimestamp(value string) (float64, error) {
	token := strings.TrimSpace(value)
	parts := strings.Split(token, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &ParseError{Token: value, Err: errTimestampFormat}
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, &ParseError{Token: value, Err: errTimestampFormat}
		}
		total = total*60 + n
	}
	return float64(total), nil
}

// FormatTimestamp renders seconds as H:MM:SS when an hour or more, else M:SS.
// Fractions are truncated.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ParseString parses transcript text. See Parse.
func ParseString(text string) ([]Segment, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var segments []Segment
	for i := 0; i < len(lines); {
		match := markerPattern.FindStringSubmatch(lines[i])
		if match == nil {
			i++
			continue
		}
		markerLine := i + 1
		start, err := parseMarkerTime(match[1], markerLine)
		if err != nil {
			return nil, err
		}
		end, err := parseMarkerTime(match[2], markerLine)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, &ParseError{Line: markerLine, Token: strings.TrimSpace(match[0]), Err: errEndBeforeStart}
		}

		i++
		var textLines []string
		for ; i < len(lines); i++ {
			line := strings.TrimSpace(lines[i])
			line = strings.TrimSpace(strings.TrimPrefix(line, "|"))
			if markerPattern.MatchString(line) {
				break
			}
			if line != "" {
				textLines = append(textLines, line)
			}
		}
		if len(textLines) > 0 {
			segments = append(segments, Segment{Start: start, End: end, Text: strings.Join(textLines, " ")})
		}
	}
	return segments, nil
}

// Parse reads a transcript made of blocks introduced by a "(START - END)"
// marker line, optionally prefixed with "|", followed by text lines up to the
// next marker. Text lines lose a leading "|", blank lines are skipped and the
// rest are joined with single spaces. Markers without text are dropped.
func Parse(r io.Reader) ([]Segment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return ParseString(string(data))
}

func parseMarkerTime(token string, line int) (float64, error) {
	value, err := ParseTimestamp(token)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Line = line
		}
		return 0, err
	}
	return value, nil
}
