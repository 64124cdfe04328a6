package services

import (
	"errors"
	"fmt"
	"strings"
)

// Core failure markers. Every error produced by the compositor pipeline wraps
// exactly one of these so callers can branch with errors.Is.
var (
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrPhotoUnavailable    = errors.New("photo unavailable")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrRenderFailure       = errors.New("render failure")
)

// Shell markers for configuration, input and delivery problems outside the core.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrDelivery      = errors.New("delivery failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrRenderFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable snake_case classification for err, suitable for log
// fields and API error bodies.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, ErrPhotoUnavailable):
		return "photo_unavailable"
	case errors.Is(err, ErrLocationUnavailable):
		return "location_unavailable"
	case errors.Is(err, ErrRenderFailure):
		return "render_failure"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	default:
		return "internal"
	}
}

// Aborts reports whether err must stop artifact production. Location failures
// degrade to a null location and never abort.
func Aborts(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrLocationUnavailable)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
