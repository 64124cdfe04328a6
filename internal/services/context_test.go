package services_test

import (
	"context"
	"testing"

	"cargotag/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithGeneration(ctx, 42)
	ctx = services.WithCargoID(ctx, "X1")
	ctx = services.WithRequestID(ctx, "req-123")

	if gen, ok := services.GenerationFromContext(ctx); !ok || gen != 42 {
		t.Fatalf("unexpected generation: %v %v", gen, ok)
	}
	if id, ok := services.CargoIDFromContext(ctx); !ok || id != "X1" {
		t.Fatalf("unexpected cargo id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCargoID(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.CargoIDFromContext(ctx); ok {
		t.Fatal("expected no cargo id value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
	if _, ok := services.GenerationFromContext(ctx); ok {
		t.Fatal("expected no generation value")
	}
}
