package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"slidescribe/internal/fileutil"
	"slidescribe/internal/transcript"
)

// GeneratorLine is the italic line placed under the document title.
const GeneratorLine = "_Generated automatically by slidescribe_"

// DefaultPlaceholder is used for slides without transcript text when the
// document does not set one.
const DefaultPlaceholder = "_[No transcript text for this slide]_"

const sectionSeparator = "\n---\n\n"

// Slide is one rendered section.
type Slide struct {
	Timestamp float64
	FileName  string
	Text      string
}

// FrontMatter is serialised as the YAML header of the document.
type FrontMatter struct {
	Title            string    `yaml:"title"`
	Video            string    `yaml:"video,omitempty"`
	Transcript       string    `yaml:"transcript,omitempty"`
	Slides           int       `yaml:"slides"`
	GeneratedAt      time.Time `yaml:"generated_at"`
	RunID            string    `yaml:"run_id,omitempty"`
	Threshold        float64   `yaml:"threshold,omitempty"`
	MinSlideDuration float64   `yaml:"min_slide_duration,omitempty"`
	SampleInterval   float64   `yaml:"sample_interval,omitempty"`
	Anchor           string    `yaml:"anchor,omitempty"`
	Tags             []string  `yaml:"tags,omitempty"`
}

// Document describes everything Render needs.
type Document struct {
	Title       string
	SlidesDir   string
	Placeholder string
	Slides      []Slide
	// FrontMatter is emitted when non-nil. Its Slides count is overwritten
	// with len(Slides).
	FrontMatter *FrontMatter
}

// Render produces the Markdown bytes for doc.
func Render(doc Document) ([]byte, error) {
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		return nil, errors.New("markdown: document title is empty")
	}
	placeholder := doc.Placeholder
	if strings.TrimSpace(placeholder) == "" {
		placeholder = DefaultPlaceholder
	}
	slidesDir := strings.Trim(doc.SlidesDir, "/")

	var buf bytes.Buffer
	if doc.FrontMatter != nil {
		fm := *doc.FrontMatter
		fm.Slides = len(doc.Slides)
		if fm.Title == "" {
			fm.Title = title
		}
		encoded, err := yaml.Marshal(fm)
		if err != nil {
			return nil, fmt.Errorf("markdown: encode front matter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(encoded)
		buf.WriteString("---\n\n")
	}

	fmt.Fprintf(&buf, "# %s\n\n", title)
	buf.WriteString(GeneratorLine + "\n\n")
	fmt.Fprintf(&buf, "**Total slides:** %d\n\n", len(doc.Slides))
	buf.WriteString("---\n\n")

	for i, slide := range doc.Slides {
		if i > 0 {
			buf.WriteString(sectionSeparator)
		}
		if err := writeSection(&buf, i+1, slide, slidesDir, placeholder); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeSection(buf *bytes.Buffer, number int, slide Slide, slidesDir, placeholder string) error {
	name := strings.TrimSpace(slide.FileName)
	if name == "" {
		return fmt.Errorf("markdown: slide %d has no image file", number)
	}
	fmt.Fprintf(buf, "## Slide %d (%s)\n\n", number, transcript.FormatTimestamp(slide.Timestamp))
	fmt.Fprintf(buf, "![Slide %d](<%s>)\n\n", number, imageLink(slidesDir, name))
	text := strings.TrimSpace(slide.Text)
	if text == "" {
		text = placeholder
	}
	buf.WriteString(text)
	buf.WriteString("\n")
	return nil
}

// imageLink returns the relative link used inside angle brackets so that
// directory names with spaces survive.
func imageLink(slidesDir, name string) string {
	if slidesDir == "" {
		return "./" + name
	}
	return "./" + path.Join(slidesDir, name)
}

// Write renders doc and writes it to target atomically. It returns the number
// of bytes written.
func Write(target string, doc Document) (int, error) {
	data, err := Render(doc)
	if err != nil {
		return 0, err
	}
	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return 0, fmt.Errorf("markdown: write %s: %w", target, err)
	}
	return len(data), nil
}
