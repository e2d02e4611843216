// Package transcript parses timed lecture transcripts and aligns their text
// with detected slides.
//
// Parse turns "(M:SS - M:SS)" marker blocks into Segments. Distribute maps
// each segment onto the slides it overlaps and, when a segment spans several
// slides, splits it at sentence boundaries in proportion to screen time. The
// result is keyed by slide ordinal.
package transcript
