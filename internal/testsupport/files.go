package testsupport

import (
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cargotag/internal/cargo"
)

// SolidImage returns a w×h opaque image filled with c.
func SolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// WritePhoto encodes img to path, choosing PNG or JPEG from the extension.
func WritePhoto(t testing.TB, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteRecordFile writes rec to path in the format implied by its extension.
func WriteRecordFile(t testing.TB, path string, rec cargo.Record) {
	t.Helper()
	format, err := cargo.FormatFromPath(path)
	if err != nil {
		t.Fatalf("record format: %v", err)
	}
	data, err := cargo.Marshal(rec, format)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ScenarioRecord is the reference record used across package tests.
func ScenarioRecord() cargo.Record {
	rec := cargo.NewRecord()
	rec.ID = "X1"
	rec.Description = "Pallet"
	rec.Length, rec.Width, rec.Height = "10", "5", "4"
	rec.Weight = "20"
	return rec
}
