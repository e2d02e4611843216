package slides

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// FileName returns the image file name for the zero-based slide ordinal.
func FileName(ordinal int) string {
	return fmt.Sprintf("slide_%03d.png", ordinal+1)
}

// WriteSlides encodes every slide as PNG into dir and returns the paths in
// slide order.
func WriteSlides(dir string, slides []Slide) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slides directory: %w", err)
	}
	paths := make([]string, 0, len(slides))
	for i, slide := range slides {
		if slide.Image == nil {
			return nil, fmt.Errorf("slide %d has no image", i+1)
		}
		path := filepath.Join(dir, FileName(i))
		if err := imaging.Save(slide.Image, path); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
