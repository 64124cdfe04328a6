package services

import "context"

type contextKey string

const (
	generationKey contextKey = "generation"
	cargoIDKey    contextKey = "cargo_id"
	requestIDKey  contextKey = "request_id"
)

// WithGeneration annotates context with the pipeline generation number.
func WithGeneration(ctx context.Context, gen uint64) context.Context {
	return context.WithValue(ctx, generationKey, gen)
}

// GenerationFromContext extracts the pipeline generation if present.
func GenerationFromContext(ctx context.Context) (uint64, bool) {
	v := ctx.Value(generationKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case uint64:
		return val, true
	case int:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	default:
		return 0, false
	}
}

// WithCargoID annotates context with the cargo identifier being processed.
func WithCargoID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, cargoIDKey, id)
}

// CargoIDFromContext returns the cargo identifier if present.
func CargoIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(cargoIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
