package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"testing"
)

// Pattern computes the grey level of a synthetic frame pixel.
type Pattern func(x, y int) uint8

// VerticalStripes alternates black and white columns of the given width.
func VerticalStripes(width int) Pattern {
	return func(x, _ int) uint8 {
		if (x/width)%2 == 0 {
			return 0
		}
		return 255
	}
}

// HorizontalStripes alternates black and white rows of the given height.
func HorizontalStripes(height int) Pattern {
	return func(_, y int) uint8 {
		if (y/height)%2 == 0 {
			return 0
		}
		return 255
	}
}

// Checker draws a checkerboard with square cells.
func Checker(cell int) Pattern {
	return func(x, y int) uint8 {
		if ((x/cell)+(y/cell))%2 == 0 {
			return 30
		}
		return 220
	}
}

// Solid fills the frame with one grey level.
func Solid(level uint8) Pattern {
	return func(int, int) uint8 { return level }
}

// Noise produces a deterministic pseudo-random texture for the seed.
func Noise(seed uint32) Pattern {
	return func(x, y int) uint8 {
		v := seed ^ uint32(x)*2654435761 ^ uint32(y)*40503
		v ^= v >> 13
		v *= 0x5bd1e995
		v ^= v >> 15
		return uint8(v)
	}
}

// Frame renders pattern into an opaque RGBA image.
func Frame(width, height int, pattern Pattern) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := pattern(x, y)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// RawRGB24 packs frames into the byte layout ffmpeg emits for -pix_fmt rgb24.
func RawRGB24(frames ...image.Image) []byte {
	var out []byte
	for _, frame := range frames {
		b := frame.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := frame.At(x, y).RGBA()
				out = append(out, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			}
		}
	}
	return out
}

// WriteRawVideo writes frames as a headerless rgb24 stream.
func WriteRawVideo(t testing.TB, path string, frames ...image.Image) string {
	t.Helper()
	writeBytes(t, path, RawRGB24(frames...))
	return path
}

// ProbeJSON returns an ffprobe payload describing one video stream.
func ProbeJSON(width, height int, frameRate string) string {
	return fmt.Sprintf(`{"streams":[{"index":0,"codec_name":"h264","codec_type":"video","width":%d,"height":%d,"pix_fmt":"yuv420p","r_frame_rate":%q,"avg_frame_rate":%q}],"format":{"filename":"talk.mp4","nb_streams":1,"duration":"60.0","format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}`,
		width, height, frameRate, frameRate)
}

// FileExists reports whether path exists, failing the test on unexpected errors.
func FileExists(t testing.TB, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("stat %s: %v", path, err)
	return false
}
