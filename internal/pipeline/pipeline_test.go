package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"cargotag/internal/cargo"
	"cargotag/internal/coderender"
	"cargotag/internal/logging"
	"cargotag/internal/payload"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
	"cargotag/internal/testsupport"
)

const scenarioPayload = `{"id":"X1","desc":"Pallet","dim":{"l":"10","w":"5","h":"4","unit":"cm"},"wt":{"val":"20","unit":"kg"},"notes":"","loc":null}`

func newPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(testsupport.NewConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	p.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return p
}

func grayPhoto(w, h int) *image.NRGBA {
	return testsupport.SolidImage(w, h, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
}

func TestProduceScenario(t *testing.T) {
	p := newPipeline(t)
	res, err := p.Produce(context.Background(), testsupport.ScenarioRecord(), grayPhoto(1000, 800))
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if string(res.Payload) != scenarioPayload {
		t.Fatalf("unexpected payload:\n%s", res.Payload)
	}
	if res.Layout.CodeSize != 200 || res.Layout.Code.Min != image.Pt(780, 580) {
		t.Fatalf("unexpected layout %+v", res.Layout)
	}
	if res.Artifact.Width != 1000 || res.Artifact.Height != 800 {
		t.Fatalf("unexpected artifact size %dx%d", res.Artifact.Width, res.Artifact.Height)
	}
	if res.FileName != "cargo_1700000000000.jpg" {
		t.Fatalf("unexpected file name %q", res.FileName)
	}
	if res.CargoID != "X1" {
		t.Fatalf("unexpected cargo id %q", res.CargoID)
	}
}

func TestProduceIsScannableAfterJPEG(t *testing.T) {
	p := newPipeline(t)
	rec := testsupport.ScenarioRecord().WithLocation(cargo.Fix{Latitude: 12.34, Longitude: 56.78, Timestamp: 1234567890})
	res, err := p.Produce(context.Background(), rec, grayPhoto(1000, 800))
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(res.Artifact.Data))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}

	scanned, err := coderender.ScanRegion(decoded, res.Layout.Backing)
	if err != nil {
		t.Fatalf("scan overlay: %v", err)
	}
	if scanned != string(res.Payload) {
		t.Fatalf("scanned %q, want %q", scanned, res.Payload)
	}
	back, err := payload.Parse(payload.Text(scanned))
	if err != nil {
		t.Fatalf("parse scanned payload: %v", err)
	}
	if !back.Equal(rec) {
		t.Fatalf("scanned record %+v, want %+v", back, rec)
	}
}

func TestProduceFailurePolicy(t *testing.T) {
	p := newPipeline(t)

	huge := testsupport.ScenarioRecord()
	huge.Notes = strings.Repeat("n", 4000)
	if _, err := p.Produce(context.Background(), huge, nil); !errors.Is(err, services.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge even without photo, got %v", err)
	}

	if _, err := p.Produce(context.Background(), testsupport.ScenarioRecord(), nil); !errors.Is(err, services.ErrPhotoUnavailable) {
		t.Fatalf("expected ErrPhotoUnavailable, got %v", err)
	}
	small, err := p.Produce(context.Background(), testsupport.ScenarioRecord(), grayPhoto(60, 60))
	if err != nil {
		t.Fatalf("small photo should still compose: %v", err)
	}
	if small.Artifact.Width != 60 || small.Artifact.Height != 60 || small.Layout.Scannable {
		t.Fatalf("unexpected small artifact %v scannable=%v", small, small.Layout.Scannable)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Produce(ctx, testsupport.ScenarioRecord(), grayPhoto(400, 400)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProduceIsDeterministic(t *testing.T) {
	p := newPipeline(t)
	photo := grayPhoto(640, 480)
	a, err := p.Produce(context.Background(), testsupport.ScenarioRecord(), photo)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	b, err := p.Produce(context.Background(), testsupport.ScenarioRecord(), photo)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if a.Artifact.Digest != b.Artifact.Digest {
		t.Fatal("identical inputs produced different artifacts")
	}
}
