package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrParse         = errors.New("parse error")
	ErrNoSlides      = errors.New("no slides detected")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
)

// Kind is the coarse classification of a pipeline failure. It is what the CLI
// prints next to an error and what the history store records.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindParse         Kind = "parse"
	KindDegraded      Kind = "degraded"
	KindExternal      Kind = "external"
	KindFailure       Kind = "failure"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		return wrapUnmarked(detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func wrapUnmarked(detail string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", detail, err)
	}
	return errors.New(detail)
}

// Classify maps an error to its Kind. A nil error has no kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return KindConfiguration
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrNoSlides):
		return KindDegraded
	case errors.Is(err, ErrExternalTool):
		return KindExternal
	default:
		return KindFailure
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
