package slides

import (
	"context"
	"fmt"
	"image"
	"math"

	"slidescribe/internal/services"
)

// FrameSource yields decoded frames in presentation order. ReadFrame returns
// io.EOF once the stream is exhausted.
type FrameSource interface {
	FrameRate() float64
	ReadFrame(ctx context.Context) (image.Image, error)
}

// SampledFrame is one frame kept by the sampler.
type SampledFrame struct {
	Image image.Image
	// Timestamp is the presentation time in seconds.
	Timestamp float64
	// Index is the zero-based frame number in the source stream.
	Index int
}

// Sampler keeps one frame per sampling interval and discards the rest. It is
// forward-only.
type Sampler struct {
	src     FrameSource
	fps     float64
	step    int
	counter int
}

// NewSampler builds a sampler keeping every round(fps*interval)-th frame.
func NewSampler(src FrameSource, interval float64) (*Sampler, error) {
	if src == nil {
		return nil, services.Wrap(services.ErrConfiguration, "sample", "new sampler", "nil frame source", nil)
	}
	fps := src.FrameRate()
	if !(fps > 0) || math.IsInf(fps, 0) {
		return nil, services.Wrap(services.ErrConfiguration, "sample", "new sampler", fmt.Sprintf("invalid frame rate %v", fps), nil)
	}
	if !(interval > 0) || math.IsInf(interval, 0) {
		return nil, services.Wrap(services.ErrConfiguration, "sample", "new sampler", fmt.Sprintf("invalid sample interval %v", interval), nil)
	}
	return &Sampler{src: src, fps: fps, step: SampleStep(fps, interval)}, nil
}

// SampleStep returns the number of source frames between two samples.
func SampleStep(fps, interval float64) int {
	step := int(math.Round(fps * interval))
	if step < 1 {
		return 1
	}
	return step
}

// Step reports the frame stride in use.
func (s *Sampler) Step() int { return s.step }

// Next returns the next sampled frame, or io.EOF when the source ends.
func (s *Sampler) Next(ctx context.Context) (SampledFrame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return SampledFrame{}, err
		}
		img, err := s.src.ReadFrame(ctx)
		if err != nil {
			return SampledFrame{}, err
		}
		index := s.counter
		s.counter++
		if index%s.step == 0 {
			return SampledFrame{Image: img, Timestamp: float64(index) / s.fps, Index: index}, nil
		}
	}
}
