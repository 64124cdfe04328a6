package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"cargotag/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRenderFailure, "coderender", "encode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRenderFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"coderender", "encode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrRenderFailure) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrPayloadTooLarge, "coderender", "encode", "", nil), "payload_too_large"},
		{services.Wrap(services.ErrPhotoUnavailable, "photo", "decode", "", nil), "photo_unavailable"},
		{services.Wrap(services.ErrLocationUnavailable, "location", "gpsd", "", nil), "location_unavailable"},
		{services.Wrap(services.ErrRenderFailure, "compositor", "", "", nil), "render_failure"},
		{services.Wrap(services.ErrConfiguration, "config", "", "", nil), "configuration"},
		{services.Wrap(services.ErrValidation, "cargo", "", "", nil), "validation"},
		{services.Wrap(services.ErrDelivery, "sink", "", "", nil), "delivery"},
		{fmt.Errorf("outer: %w", services.ErrPhotoUnavailable), "photo_unavailable"},
		{errors.New("plain"), "internal"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestAbortsIgnoresLocationFailures(t *testing.T) {
	if services.Aborts(nil) {
		t.Fatal("nil error must not abort")
	}
	if services.Aborts(services.Wrap(services.ErrLocationUnavailable, "location", "", "", nil)) {
		t.Fatal("location failure must not abort")
	}
	if !services.Aborts(services.Wrap(services.ErrPayloadTooLarge, "coderender", "", "", nil)) {
		t.Fatal("payload failure must abort")
	}
}
