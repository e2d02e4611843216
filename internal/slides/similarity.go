package slides

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	blurKernelSize   = 5
	ssimWindow       = 7
	ssimK1           = 0.01
	ssimK2           = 0.03
	ssimDataRange    = 255.0
	pixelDiffCeiling = 3.0
)

// Comparison holds both similarity metrics for a pair of regions.
type Comparison struct {
	SSIM       float64
	PixelRatio float64
	// Score is max(SSIM, PixelRatio) clamped to [0,1].
	Score float64
	// Resized is set when b had to be scaled to a's shape.
	Resized bool
}

// Score returns the similarity of two regions in [0,1]; 1 means identical.
func Score(a, b image.Image) float64 {
	return Compare(a, b).Score
}

// Compare converts both regions to blurred luminance planes and reports the
// structural similarity alongside the share of near-identical pixels.
func Compare(a, b image.Image) Comparison {
	var cmp Comparison
	aw, ah := a.Bounds().Dx(), a.Bounds().Dy()
	if aw <= 0 || ah <= 0 {
		return cmp
	}
	if b.Bounds().Dx() != aw || b.Bounds().Dy() != ah {
		b = imaging.Resize(b, aw, ah, imaging.Linear)
		cmp.Resized = true
	}

	pa := gaussianBlur(luminance(a))
	pb := gaussianBlur(luminance(b))

	cmp.SSIM = ssim(pa, pb)
	cmp.PixelRatio = pixelRatio(pa, pb)
	cmp.Score = clamp01(math.Max(cmp.SSIM, cmp.PixelRatio))
	return cmp
}

type plane struct {
	w, h int
	pix  []float64
}

func (p plane) at(x, y int) float64 { return p.pix[y*p.w+x] }

// luminance converts to ITU-R BT.601 luma in the 0-255 range.
func luminance(img image.Image) plane {
	b := img.Bounds()
	p := plane{w: b.Dx(), h: b.Dy()}
	p.pix = make([]float64, p.w*p.h)
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < p.h; y++ {
			row := src.Pix[(b.Min.Y-src.Rect.Min.Y+y)*src.Stride+(b.Min.X-src.Rect.Min.X)*4:]
			for x := 0; x < p.w; x++ {
				px := row[x*4 : x*4+3]
				p.pix[y*p.w+x] = luma(float64(px[0]), float64(px[1]), float64(px[2]))
			}
		}
	case *image.RGBA:
		for y := 0; y < p.h; y++ {
			row := src.Pix[(b.Min.Y-src.Rect.Min.Y+y)*src.Stride+(b.Min.X-src.Rect.Min.X)*4:]
			for x := 0; x < p.w; x++ {
				px := row[x*4 : x*4+3]
				p.pix[y*p.w+x] = luma(float64(px[0]), float64(px[1]), float64(px[2]))
			}
		}
	default:
		for y := 0; y < p.h; y++ {
			for x := 0; x < p.w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				p.pix[y*p.w+x] = luma(float64(r>>8), float64(g>>8), float64(bl>>8))
			}
		}
	}
	return p
}

func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// gaussianKernel derives sigma from the kernel size the way OpenCV does when
// no sigma is given.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*((float64(size)-1)*0.5-1) + 0.8
	kernel := make([]float64, size)
	center := size / 2
	var sum float64
	for i := range kernel {
		d := float64(i - center)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// reflect101 mirrors out-of-range indices without repeating the edge sample.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func gaussianBlur(src plane) plane {
	kernel := gaussianKernel(blurKernelSize)
	radius := blurKernelSize / 2

	tmp := make([]float64, len(src.pix))
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += weight * src.at(reflect101(x+k-radius, src.w), y)
			}
			tmp[y*src.w+x] = acc
		}
	}

	out := plane{w: src.w, h: src.h, pix: make([]float64, len(src.pix))}
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += weight * tmp[reflect101(y+k-radius, src.h)*src.w+x]
			}
			out.pix[y*src.w+x] = acc
		}
	}
	return out
}

// boxSums returns the sum of every win×win window whose top-left corner is
// (x, y), for x in [0, w-win] and y in [0, h-win], in row-major order.
func boxSums(values []float64, w, h, win int) []float64 {
	ow, oh := w-win+1, h-win+1
	rows := make([]float64, ow*h)
	for y := 0; y < h; y++ {
		for x := 0; x < ow; x++ {
			var acc float64
			for k := 0; k < win; k++ {
				acc += values[y*w+x+k]
			}
			rows[y*ow+x] = acc
		}
	}
	out := make([]float64, ow*oh)
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			var acc float64
			for k := 0; k < win; k++ {
				acc += rows[(y+k)*ow+x]
			}
			out[y*ow+x] = acc
		}
	}
	return out
}

// ssim computes the mean structural similarity over all 7×7 windows lying
// fully inside the planes, with sample covariance normalisation. Planes
// smaller than one window are treated as a single global window.
func ssim(a, b plane) float64 {
	win := ssimWindow
	if a.w < win || a.h < win {
		return globalSSIM(a, b)
	}

	n := len(a.pix)
	xx := make([]float64, n)
	yy := make([]float64, n)
	xy := make([]float64, n)
	for i := range a.pix {
		xx[i] = a.pix[i] * a.pix[i]
		yy[i] = b.pix[i] * b.pix[i]
		xy[i] = a.pix[i] * b.pix[i]
	}

	np := float64(win * win)
	sx := boxSums(a.pix, a.w, a.h, win)
	sy := boxSums(b.pix, a.w, a.h, win)
	sxx := boxSums(xx, a.w, a.h, win)
	syy := boxSums(yy, a.w, a.h, win)
	sxy := boxSums(xy, a.w, a.h, win)

	var total float64
	for i := range sx {
		total += ssimTerm(sx[i]/np, sy[i]/np, sxx[i]/np, syy[i]/np, sxy[i]/np, np)
	}
	return total / float64(len(sx))
}

func globalSSIM(a, b plane) float64 {
	np := float64(len(a.pix))
	if np == 0 {
		return 0
	}
	var sx, sy, sxx, syy, sxy float64
	for i := range a.pix {
		x, y := a.pix[i], b.pix[i]
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
	}
	return ssimTerm(sx/np, sy/np, sxx/np, syy/np, sxy/np, np)
}

// ssimTerm evaluates the SSIM formula from window means. Every expression is
// symmetric in x and y so swapping the inputs yields the identical value.
func ssimTerm(ux, uy, uxx, uyy, uxy, np float64) float64 {
	covNorm := 1.0
	if np > 1 {
		covNorm = np / (np - 1)
	}
	vx := covNorm * (uxx - ux*ux)
	vy := covNorm * (uyy - uy*uy)
	vxy := covNorm * (uxy - ux*uy)

	c1 := (ssimK1 * ssimDataRange) * (ssimK1 * ssimDataRange)
	c2 := (ssimK2 * ssimDataRange) * (ssimK2 * ssimDataRange)

	num := (2*ux*uy + c1) * (2*vxy + c2)
	den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
	return num / den
}

func pixelRatio(a, b plane) float64 {
	if len(a.pix) == 0 {
		return 0
	}
	near := 0
	for i := range a.pix {
		if math.Abs(a.pix[i]-b.pix[i]) < pixelDiffCeiling {
			near++
		}
	}
	return float64(near) / float64(len(a.pix))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
