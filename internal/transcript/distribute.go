package transcript

import (
	"math"
	"regexp"
	"strings"
)

// Assignment holds the text gathered for each slide, indexed by the slide's
// zero-based ordinal.
type Assignment struct {
	Texts []string
	Stats Stats
}

// Stats summarises a distribution pass.
type Stats struct {
	Segments int
	// Dropped counts segments that touched no slide.
	Dropped int
	// Split counts segments spread across more than one slide.
	Split int
}

// Text returns the text for slide ordinal i, or "" when out of range.
func (a Assignment) Text(i int) string {
	if i < 0 || i >= len(a.Texts) {
		return ""
	}
	return a.Texts[i]
}

// Len returns the number of slides covered.
func (a Assignment) Len() int { return len(a.Texts) }

// sentenceDelimiter keeps the punctuation and following whitespace with the
// sentence it ends.
var sentenceDelimiter = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// Distribute assigns each segment's text to the slides whose on-screen
// interval it overlaps. Slide i is shown over [t_i, t_{i+1}); the last slide
// extends forever. A segment spanning several slides is split at sentence
// boundaries in proportion to the time each slide is on screen.
func Distribute(slideTimes []float64, segments []Segment) Assignment {
	fragments := make([][]string, len(slideTimes))
	stats := Stats{Segments: len(segments)}

	for _, seg := range segments {
		touched := touchedSlides(slideTimes, seg)
		switch len(touched) {
		case 0:
			stats.Dropped++
		case 1:
			fragments[touched[0]] = append(fragments[touched[0]], seg.Text)
		default:
			stats.Split++
			for _, part := range splitProportionally(seg, slideTimes, touched) {
				fragments[part.slide] = append(fragments[part.slide], part.text)
			}
		}
	}

	texts := make([]string, len(slideTimes))
	for i, parts := range fragments {
		texts[i] = strings.Join(parts, "\n\n")
	}
	return Assignment{Texts: texts, Stats: stats}
}

// touchedSlides returns the ordinals of slides whose interval overlaps seg.
// A zero-length segment touches the slide on screen at its start.
func touchedSlides(slideTimes []float64, seg Segment) []int {
	var touched []int
	for i, start := range slideTimes {
		next := math.Inf(1)
		if i+1 < len(slideTimes) {
			next = slideTimes[i+1]
		}
		var hit bool
		if seg.End <= seg.Start {
			hit = start <= seg.Start && seg.Start < next
		} else {
			hit = seg.Start < next && seg.End > start
		}
		if hit {
			touched = append(touched, i)
		}
	}
	return touched
}

type textPart struct {
	slide int
	text  string
}

func splitProportionally(seg Segment, slideTimes []float64, touched []int) []textPart {
	units := splitSentences(seg.Text)
	if len(units) == 0 {
		units = []string{seg.Text}
	}
	k := len(touched)
	duration := seg.Duration()

	var parts []textPart
	next := 0
	for j, ordinal := range touched {
		// Only the outer bounds snap to the segment; inner bounds are raw midpoints.
		windowStart := seg.Start
		if j > 0 {
			windowStart = (slideTimes[touched[j-1]] + slideTimes[ordinal]) / 2
		}
		windowEnd := seg.End
		if j < k-1 {
			windowEnd = (slideTimes[ordinal] + slideTimes[touched[j+1]]) / 2
		}

		ratio := 1 / float64(k)
		if duration > 0 {
			ratio = math.Max(0, windowEnd-windowStart) / duration
		}
		share := max(1, int(math.RoundToEven(float64(len(units))*ratio)))

		end := min(next+share, len(units))
		text := strings.TrimSpace(strings.Join(units[next:end], ""))
		next = end
		if text != "" {
			parts = append(parts, textPart{slide: ordinal, text: text})
		}
	}

	if next < len(units) && len(parts) > 0 {
		if rest := strings.TrimSpace(strings.Join(units[next:], "")); rest != "" {
			last := &parts[len(parts)-1]
			last.text += " " + rest
		}
	}
	return parts
}

// splitSentences cuts text after each run of sentence punctuation that is
// followed by whitespace or the end of the text. Delimiters stay attached and
// a trailing fragment without punctuation is kept as its own unit.
func splitSentences(text string) []string {
	var units []string
	prev := 0
	for _, loc := range sentenceDelimiter.FindAllStringIndex(text, -1) {
		units = append(units, text[prev:loc[1]])
		prev = loc[1]
	}
	if tail := text[prev:]; strings.TrimSpace(tail) != "" {
		units = append(units, tail)
	}
	return units
}
