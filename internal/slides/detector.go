package slides

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"slidescribe/internal/services"
)

// Slide is an accepted frame marking the start of a new slide.
type Slide struct {
	Image            image.Image
	Timestamp        float64
	SourceFrameIndex int
}

// Outcome describes what the detector did with a sampled frame.
type Outcome string

const (
	// OutcomeAccepted means the frame started a new slide.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeSimilar means the region matched the last accepted slide.
	OutcomeSimilar Outcome = "similar"
	// OutcomeDebounced means the region changed but too soon after the last slide.
	OutcomeDebounced Outcome = "debounced"
)

// Decision is the result of one detector step.
type Decision struct {
	Outcome Outcome
	// Similarity against the last accepted region; 0 for the first frame.
	Similarity float64
}

// DetectorState is everything the detector carries between frames. The zero
// value is the initial state.
type DetectorState struct {
	LastRegion    image.Image
	LastTimestamp float64
	Accepted      int
}

// DetectorConfig tunes slide boundary detection.
type DetectorConfig struct {
	Threshold        float64
	MinSlideDuration float64
	Anchor           Anchor
}

// DefaultDetectorConfig returns the stock detection parameters.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{Threshold: 0.92, MinSlideDuration: 30, Anchor: AnchorBottomLeft}
}

// FrameSampler is the input consumed by Detector.Run.
type FrameSampler interface {
	Next(ctx context.Context) (SampledFrame, error)
}

// Observer receives every decision made during Run.
type Observer func(frame SampledFrame, decision Decision)

// Detector decides which sampled frames begin new slides.
type Detector struct {
	cfg      DetectorConfig
	observer Observer
}

// NewDetector validates cfg and returns a detector.
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if math.IsNaN(cfg.Threshold) || cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, services.Wrap(services.ErrConfiguration, "detect", "new detector", fmt.Sprintf("threshold %v outside [0,1]", cfg.Threshold), nil)
	}
	if math.IsNaN(cfg.MinSlideDuration) || cfg.MinSlideDuration < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "detect", "new detector", fmt.Sprintf("min slide duration %v is negative", cfg.MinSlideDuration), nil)
	}
	if _, ok := anchorNames[cfg.Anchor]; !ok {
		return nil, services.Wrap(services.ErrConfiguration, "detect", "new detector", "unknown anchor "+cfg.Anchor.String(), nil)
	}
	return &Detector{cfg: cfg}, nil
}

// WithObserver returns a copy of d that reports every decision to fn.
func (d *Detector) WithObserver(fn Observer) *Detector {
	clone := *d
	clone.observer = fn
	return &clone
}

// Config returns the detector parameters.
func (d *Detector) Config() DetectorConfig { return d.cfg }

// Step folds one sampled frame into state. It has no side effects: the
// returned state replaces the input, and a non-nil slide is returned only
// when the frame is accepted. The first frame is always accepted.
func (d *Detector) Step(state DetectorState, frame SampledFrame) (DetectorState, *Slide, Decision, error) {
	region, err := ExtractRegion(frame.Image, d.cfg.Anchor)
	if err != nil {
		return state, nil, Decision{}, err
	}

	if state.LastRegion == nil {
		return acceptFrame(state, region, frame), newSlide(frame), Decision{Outcome: OutcomeAccepted}, nil
	}

	similarity := Score(state.LastRegion, region)
	decision := Decision{Similarity: similarity}
	switch {
	case similarity >= d.cfg.Threshold:
		decision.Outcome = OutcomeSimilar
	case frame.Timestamp-state.LastTimestamp < d.cfg.MinSlideDuration:
		decision.Outcome = OutcomeDebounced
	default:
		decision.Outcome = OutcomeAccepted
		return acceptFrame(state, region, frame), newSlide(frame), decision, nil
	}
	return state, nil, decision, nil
}

func acceptFrame(state DetectorState, region image.Image, frame SampledFrame) DetectorState {
	return DetectorState{
		LastRegion:    region,
		LastTimestamp: frame.Timestamp,
		Accepted:      state.Accepted + 1,
	}
}

func newSlide(frame SampledFrame) *Slide {
	return &Slide{Image: frame.Image, Timestamp: frame.Timestamp, SourceFrameIndex: frame.Index}
}

// Run drives Step over every frame the sampler yields. An empty stream
// produces an empty result and no error.
func (d *Detector) Run(ctx context.Context, sampler FrameSampler) ([]Slide, error) {
	var (
		state  DetectorState
		result []Slide
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := sampler.Next(ctx)
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		next, slide, decision, err := d.Step(state, frame)
		if err != nil {
			return nil, err
		}
		state = next
		if slide != nil {
			result = append(result, *slide)
		}
		if d.observer != nil {
			d.observer(frame, decision)
		}
	}
}

// Timestamps returns the slide start times in order.
func Timestamps(slides []Slide) []float64 {
	out := make([]float64, len(slides))
	for i, s := range slides {
		out[i] = s.Timestamp
	}
	return out
}
