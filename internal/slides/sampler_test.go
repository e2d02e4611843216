package slides_test

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"

	"slidescribe/internal/services"
	"slidescribe/internal/slides"
	"slidescribe/internal/testsupport"
)

type fakeSource struct {
	fps    float64
	frames []image.Image
	next   int
}

func (f *fakeSource) FrameRate() float64 { return f.fps }

func (f *fakeSource) ReadFrame(context.Context) (image.Image, error) {
	if f.next >= len(f.frames) {
		return nil, io.EOF
	}
	img := f.frames[f.next]
	f.next++
	return img, nil
}

func newFakeSource(fps float64, count int) *fakeSource {
	frame := testsupport.Frame(8, 8, testsupport.Solid(0))
	frames := make([]image.Image, count)
	for i := range frames {
		frames[i] = frame
	}
	return &fakeSource{fps: fps, frames: frames}
}

func drain(t *testing.T, sampler *slides.Sampler) []slides.SampledFrame {
	t.Helper()
	var out []slides.SampledFrame
	for {
		frame, err := sampler.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, frame)
	}
}

func TestSamplerKeepsOneFramePerInterval(t *testing.T) {
	sampler, err := slides.NewSampler(newFakeSource(10, 25), 1.0)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	frames := drain(t, sampler)
	if len(frames) != 3 {
		t.Fatalf("expected 3 sampled frames, got %d", len(frames))
	}
	for i, frame := range frames {
		if frame.Index != i*10 {
			t.Fatalf("frame %d index = %d, want %d", i, frame.Index, i*10)
		}
		if frame.Timestamp != float64(i) {
			t.Fatalf("frame %d timestamp = %v, want %d", i, frame.Timestamp, i)
		}
	}
}

func TestSampleStep(t *testing.T) {
	tests := []struct {
		fps, interval float64
		want          int
	}{
		{fps: 30, interval: 1, want: 30},
		{fps: 29.97, interval: 1, want: 30},
		{fps: 25, interval: 0.5, want: 13},
		{fps: 24, interval: 0.01, want: 1},
		{fps: 60, interval: 2, want: 120},
	}
	for _, tc := range tests {
		if got := slides.SampleStep(tc.fps, tc.interval); got != tc.want {
			t.Fatalf("SampleStep(%v, %v) = %d, want %d", tc.fps, tc.interval, got, tc.want)
		}
	}
}

func TestSamplerTimestampsUseFrameRate(t *testing.T) {
	sampler, err := slides.NewSampler(newFakeSource(4, 9), 0.5)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	if sampler.Step() != 2 {
		t.Fatalf("unexpected step %d", sampler.Step())
	}
	frames := drain(t, sampler)
	want := []float64{0, 0.5, 1, 1.5, 2}
	if len(frames) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(frames))
	}
	for i := range want {
		if frames[i].Timestamp != want[i] {
			t.Fatalf("frame %d timestamp = %v, want %v", i, frames[i].Timestamp, want[i])
		}
	}
}

func TestNewSamplerRejectsInvalidInput(t *testing.T) {
	if _, err := slides.NewSampler(newFakeSource(0, 1), 1); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for fps 0, got %v", err)
	}
	if _, err := slides.NewSampler(newFakeSource(30, 1), 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for interval 0, got %v", err)
	}
	if _, err := slides.NewSampler(nil, 1); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil source, got %v", err)
	}
}

func TestSamplerHonoursCancellation(t *testing.T) {
	sampler, err := slides.NewSampler(newFakeSource(10, 100), 1)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sampler.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
