package preflight_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"cargotag/internal/config"
	"cargotag/internal/preflight"
	"cargotag/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if r := preflight.CheckDirectoryAccess("test", dir); !r.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", r.Detail)
	}
	if r := preflight.CheckDirectoryAccess("test", filepath.Join(dir, "nope")); r.Passed || r.Detail == "" {
		t.Fatalf("expected failure with detail for missing dir, got %+v", r)
	}
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := preflight.CheckDirectoryAccess("test", file); r.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := preflight.CheckFreeSpace("space", dir, 1); !r.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got %s", r.Detail)
	}
	if r := preflight.CheckFreeSpace("space", dir, ^uint64(0)); r.Passed {
		t.Fatalf("expected failure with impossible minimum")
	}
	if r := preflight.CheckFreeSpace("space", filepath.Join(dir, "nope"), 1); r.Passed {
		t.Fatalf("expected failure for missing path")
	}
}

func TestCheckLocation(t *testing.T) {
	ctx := context.Background()
	if r := preflight.CheckLocation(ctx, config.Location{Source: config.LocationStatic}); !r.Passed {
		t.Fatalf("static source should pass: %s", r.Detail)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	if r := preflight.CheckLocation(ctx, config.Location{Source: config.LocationGPSD, GPSDAddress: addr}); !r.Passed {
		t.Fatalf("expected reachable gpsd, got %s", r.Detail)
	}
	ln.Close()
	if r := preflight.CheckLocation(ctx, config.Location{Source: config.LocationGPSD, GPSDAddress: addr}); r.Passed {
		t.Fatalf("expected closed gpsd port to fail")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStaticLocation(1, 2))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %+v", results)
	}
	if failed := preflight.Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithoutJournal())
	results = preflight.RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected journal and location checks skipped, got %+v", results)
	}
	if failed := preflight.Failed(results); len(failed) == 0 {
		t.Fatalf("missing directories should fail")
	}
}
