package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/h2non/filetype"

	"slidescribe/internal/media/ffprobe"
	"slidescribe/internal/services"
)

const sniffLength = 261

// Options names the external tools used for decoding.
type Options struct {
	FFmpeg  string
	FFprobe string
}

// Info describes the decoded video stream.
type Info struct {
	Path      string
	Container string
	Codec     string
	Width     int
	Height    int
	FrameRate float64
	Duration  float64
}

// Decoder streams frames from an ffmpeg child process. It must be closed.
type Decoder struct {
	info      Info
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	reader    *bufio.Reader
	stderr    *bytes.Buffer
	cancel    context.CancelFunc
	frameSize int
	frames    int

	waitOnce  sync.Once
	waitErr   error
	closeOnce sync.Once
}

// Open sniffs path, probes its first video stream and starts ffmpeg writing
// raw rgb24 frames to a pipe. Cancelling ctx or calling Close stops ffmpeg.
func Open(ctx context.Context, path string, opts Options) (*Decoder, error) {
	if err := sniff(path); err != nil {
		return nil, err
	}
	info, err := Probe(ctx, path, opts.FFprobe)
	if err != nil {
		return nil, err
	}

	ffmpeg := strings.TrimSpace(opts.FFmpeg)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, ffmpeg,
		"-v", "error", "-nostdin",
		"-i", path,
		"-map", "0:v:0", "-an", "-sn",
		"-f", "rawvideo", "-pix_fmt", "rgb24",
		"pipe:1",
	)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, services.Wrap(services.ErrExternalTool, "decode", "ffmpeg pipe", "", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, services.Wrap(services.ErrExternalTool, "decode", "start ffmpeg", ffmpeg, err)
	}

	return &Decoder{
		info:      info,
		cmd:       cmd,
		stdout:    stdout,
		reader:    bufio.NewReaderSize(stdout, 1<<20),
		stderr:    stderr,
		cancel:    cancel,
		frameSize: info.Width * info.Height * 3,
	}, nil
}

// Probe runs ffprobe and returns the first video stream's geometry and rate.
func Probe(ctx context.Context, path, binary string) (Info, error) {
	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "decode", "probe video", "", err)
	}
	stream, err := result.VideoStream()
	if err != nil {
		return Info{}, services.Wrap(services.ErrConfiguration, "decode", "probe video", path, err)
	}
	fps := stream.FrameRate()
	if fps <= 0 {
		return Info{}, services.Wrap(services.ErrConfiguration, "decode", "probe video", fmt.Sprintf("unknown frame rate %q", stream.RFrameRate), nil)
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) {
		duration = 0
	}
	return Info{
		Path:      path,
		Container: result.Format.FormatName,
		Codec:     stream.CodecName,
		Width:     stream.Width,
		Height:    stream.Height,
		FrameRate: fps,
		Duration:  duration,
	}, nil
}

// sniff rejects files whose header identifies them as something other than a
// video container. Unrecognised headers are left for ffprobe to judge.
func sniff(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "decode", "open video", "", err)
	}
	defer file.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return services.Wrap(services.ErrConfiguration, "decode", "read video header", "", err)
	}
	if n == 0 {
		return services.Wrap(services.ErrConfiguration, "decode", "open video", path+" is empty", nil)
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return nil
	}
	if kind.MIME.Type != "video" {
		return services.Wrap(services.ErrConfiguration, "decode", "open video", fmt.Sprintf("%s is %s, not a video", path, kind.MIME.Value), nil)
	}
	return nil
}

// Info returns the probed stream description.
func (d *Decoder) Info() Info { return d.info }

// FrameRate returns the stream frame rate in frames per second.
func (d *Decoder) FrameRate() float64 { return d.info.FrameRate }

// Frames returns the number of frames read so far.
func (d *Decoder) Frames() int { return d.frames }

// ReadFrame returns the next frame, or io.EOF after the last one.
func (d *Decoder) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, d.frameSize)
	if _, err := io.ReadFull(d.reader, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if werr := d.wait(); werr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, services.Wrap(services.ErrExternalTool, "decode", "ffmpeg", d.stderrTail(), werr)
			}
			return nil, io.EOF
		}
		return nil, services.Wrap(services.ErrExternalTool, "decode", "read frame", "", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, d.info.Width, d.info.Height))
	for src, dst := 0, 0; src < len(buf); src, dst = src+3, dst+4 {
		img.Pix[dst] = buf[src]
		img.Pix[dst+1] = buf[src+1]
		img.Pix[dst+2] = buf[src+2]
		img.Pix[dst+3] = 0xff
	}
	d.frames++
	return img, nil
}

// Close stops ffmpeg and releases the pipe. It is safe to call more than once.
func (d *Decoder) Close() error {
	d.closeOnce.Do(func() {
		d.cancel()
		_ = d.stdout.Close()
		_ = d.wait()
	})
	return nil
}

func (d *Decoder) wait() error {
	d.waitOnce.Do(func() {
		d.waitErr = d.cmd.Wait()
	})
	return d.waitErr
}

func (d *Decoder) stderrTail() string {
	msg := strings.TrimSpace(d.stderr.String())
	const limit = 400
	if len(msg) > limit {
		msg = "…" + msg[len(msg)-limit:]
	}
	return msg
}
