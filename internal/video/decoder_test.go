package video_test

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"slidescribe/internal/config"
	"slidescribe/internal/services"
	"slidescribe/internal/testsupport"
	"slidescribe/internal/video"
)

func optionsFor(cfg *config.Config) video.Options {
	return video.Options{FFmpeg: cfg.FFmpegBinary(), FFprobe: cfg.FFprobeBinary()}
}

func TestDecoderStreamsFrames(t *testing.T) {
	base := t.TempDir()
	frames := []image.Image{
		testsupport.Frame(4, 2, testsupport.Solid(10)),
		testsupport.Frame(4, 2, testsupport.Solid(20)),
		testsupport.Frame(4, 2, testsupport.VerticalStripes(1)),
	}
	raw := testsupport.WriteRawVideo(t, filepath.Join(base, "frames.raw"), frames...)
	cfg := testsupport.NewConfig(t, testsupport.WithFakeDecoder(4, 2, "25/1", raw))
	videoPath := testsupport.WriteVideoFile(t, filepath.Join(base, "talk.mp4"))

	dec, err := video.Open(context.Background(), videoPath, optionsFor(cfg))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()

	if dec.FrameRate() != 25 {
		t.Fatalf("unexpected frame rate %v", dec.FrameRate())
	}
	info := dec.Info()
	if info.Width != 4 || info.Height != 2 || info.Codec != "h264" {
		t.Fatalf("unexpected info %+v", info)
	}

	for i, want := range frames {
		got, err := dec.ReadFrame(context.Background())
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
		if got.Bounds() != want.Bounds() {
			t.Fatalf("frame %d bounds %v", i, got.Bounds())
		}
		for y := 0; y < 2; y++ {
			for x := 0; x < 4; x++ {
				gr, gg, gb, ga := got.At(x, y).RGBA()
				wr, wg, wb, _ := want.At(x, y).RGBA()
				if gr != wr || gg != wg || gb != wb || ga != 0xffff {
					t.Fatalf("frame %d pixel (%d,%d) mismatch", i, x, y)
				}
			}
		}
	}
	if _, err := dec.ReadFrame(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
	if dec.Frames() != 3 {
		t.Fatalf("expected 3 frames read, got %d", dec.Frames())
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDecoderCloseBeforeEnd(t *testing.T) {
	base := t.TempDir()
	var frames []image.Image
	for i := 0; i < 50; i++ {
		frames = append(frames, testsupport.Frame(32, 32, testsupport.Noise(uint32(i))))
	}
	raw := testsupport.WriteRawVideo(t, filepath.Join(base, "frames.raw"), frames...)
	cfg := testsupport.NewConfig(t, testsupport.WithFakeDecoder(32, 32, "30000/1001", raw))
	videoPath := testsupport.WriteVideoFile(t, filepath.Join(base, "talk.mp4"))

	dec, err := video.Open(context.Background(), videoPath, optionsFor(cfg))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := dec.ReadFrame(context.Background()); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenRejectsNonVideoInput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFakeDecoder(4, 2, "25/1", "/dev/null"))
	path := filepath.Join(t.TempDir(), "slide.png")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	_, err := video.Open(context.Background(), path, optionsFor(cfg))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := video.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), video.Options{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestOpenReportsProbeFailure(t *testing.T) {
	base := t.TempDir()
	probe := filepath.Join(base, "ffprobe")
	if err := os.WriteFile(probe, []byte("#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	videoPath := testsupport.WriteVideoFile(t, filepath.Join(base, "talk.mp4"))
	_, err := video.Open(context.Background(), videoPath, video.Options{FFprobe: probe, FFmpeg: "ffmpeg"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestReadFrameReportsFFmpegFailure(t *testing.T) {
	base := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithFakeDecoder(4, 2, "25/1", filepath.Join(base, "missing.raw")))
	videoPath := testsupport.WriteVideoFile(t, filepath.Join(base, "talk.mp4"))

	dec, err := video.Open(context.Background(), videoPath, optionsFor(cfg))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()
	if _, err := dec.ReadFrame(context.Background()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestProbeRejectsUnknownFrameRate(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFakeDecoder(4, 2, "0/0", "/dev/null"))
	videoPath := testsupport.WriteVideoFile(t, filepath.Join(t.TempDir(), "talk.mp4"))
	_, err := video.Probe(context.Background(), videoPath, cfg.FFprobeBinary())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
