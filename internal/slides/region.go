package slides

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"slidescribe/internal/services"
)

// Anchor names the frame region compared between sampled frames. Pick the
// area the presenter never covers.
type Anchor int

const (
	AnchorBottomLeft Anchor = iota
	AnchorBottomRight
	AnchorTopRight
	AnchorTopLeft
	AnchorCenter
)

const (
	cornerFraction = 0.30
	centerFraction = 0.50
)

var anchorNames = map[Anchor]string{
	AnchorBottomLeft:  "bottom_left",
	AnchorBottomRight: "bottom_right",
	AnchorTopRight:    "top_right",
	AnchorTopLeft:     "top_left",
	AnchorCenter:      "center",
}

// Anchors lists every anchor in display order.
func Anchors() []Anchor {
	return []Anchor{AnchorBottomLeft, AnchorBottomRight, AnchorTopRight, AnchorTopLeft, AnchorCenter}
}

func (a Anchor) String() string {
	if name, ok := anchorNames[a]; ok {
		return name
	}
	return fmt.Sprintf("anchor(%d)", int(a))
}

// Fraction returns the share of each frame dimension covered by the region.
func (a Anchor) Fraction() float64 {
	if a == AnchorCenter {
		return centerFraction
	}
	return cornerFraction
}

// ParseAnchor accepts snake_case or kebab-case anchor names, case-insensitively.
func ParseAnchor(value string) (Anchor, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	for anchor, name := range anchorNames {
		if name == normalized {
			return anchor, nil
		}
	}
	return 0, services.Wrap(services.ErrConfiguration, "detect", "parse anchor", fmt.Sprintf("unknown anchor %q", value), nil)
}

// RegionBounds returns the comparison rectangle for a frame of the given
// bounds. Crop sizes truncate toward zero.
func RegionBounds(bounds image.Rectangle, anchor Anchor) (image.Rectangle, error) {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, services.Wrap(services.ErrConfiguration, "detect", "extract region", fmt.Sprintf("empty frame %dx%d", w, h), nil)
	}
	if _, ok := anchorNames[anchor]; !ok {
		return image.Rectangle{}, services.Wrap(services.ErrConfiguration, "detect", "extract region", "unknown anchor "+anchor.String(), nil)
	}

	fraction := anchor.Fraction()
	cropW := int(fraction * float64(w))
	cropH := int(fraction * float64(h))
	if cropW <= 0 || cropH <= 0 {
		return image.Rectangle{}, services.Wrap(services.ErrConfiguration, "detect", "extract region", fmt.Sprintf("frame %dx%d too small for %s region", w, h, anchor), nil)
	}

	var x, y int
	switch anchor {
	case AnchorBottomLeft:
		x, y = 0, h-cropH
	case AnchorBottomRight:
		x, y = w-cropW, h-cropH
	case AnchorTopLeft:
		x, y = 0, 0
	case AnchorTopRight:
		x, y = w-cropW, 0
	case AnchorCenter:
		x, y = (w-cropW)/2, (h-cropH)/2
	}

	rect := image.Rect(x, y, x+cropW, y+cropH).Add(bounds.Min)
	if !rect.In(bounds) {
		return image.Rectangle{}, services.Wrap(services.ErrConfiguration, "detect", "extract region", fmt.Sprintf("region %v outside frame %v", rect, bounds), nil)
	}
	return rect, nil
}

// ExtractRegion copies the anchor region out of frame. The result owns its
// pixels and has its origin at (0,0).
func ExtractRegion(frame image.Image, anchor Anchor) (image.Image, error) {
	if frame == nil {
		return nil, services.Wrap(services.ErrConfiguration, "detect", "extract region", "nil frame", nil)
	}
	rect, err := RegionBounds(frame.Bounds(), anchor)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(frame, rect), nil
}
