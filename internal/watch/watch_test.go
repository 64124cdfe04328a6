package watch_test

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"cargotag/internal/cargo"
	"cargotag/internal/config"
	"cargotag/internal/logging"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
	"cargotag/internal/sink"
	"cargotag/internal/testsupport"
	"cargotag/internal/watch"
)

type delivery struct {
	name string
	meta sink.Metadata
}

type chanSink chan delivery

func (c chanSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	meta, _ := sink.MetadataFromContext(ctx)
	c <- delivery{name: name, meta: meta}
	return name, nil
}

func newWatcher(t *testing.T, dir string, out chanSink, locate func(context.Context) *cargo.Fix) *watch.Watcher {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	p, err := pipeline.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	session := pipeline.NewSession(context.Background(), p, config.Pipeline{Recompute: config.RecomputeOnChange, DebounceMS: 20}, logging.NewNop())
	w, err := watch.New(watch.Options{
		RecordPath: filepath.Join(dir, "record.json"),
		PhotoPath:  filepath.Join(dir, "photo.png"),
		OutputDir:  filepath.Join(dir, "out"),
		Session:    session,
		Sink:       out,
		Locate:     locate,
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("watch.New: %v", err)
	}
	return w
}

func waitFor(t *testing.T, out chanSink, cargoID string) delivery {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case d := <-out:
			if d.meta.CargoID == cargoID {
				return d
			}
		case <-deadline:
			t.Fatalf("no delivery for %q", cargoID)
		}
	}
}

func TestWatchRecomposesOnChange(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePhoto(t, filepath.Join(dir, "photo.png"), testsupport.SolidImage(400, 300, color.NRGBA{R: 90, G: 120, B: 60, A: 255}))
	testsupport.WriteRecordFile(t, filepath.Join(dir, "record.json"), testsupport.ScenarioRecord())

	out := make(chanSink, 16)
	w := newWatcher(t, dir, out, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := waitFor(t, out, "X1")
	if first.meta.Width != 400 || first.meta.Height != 300 {
		t.Fatalf("unexpected artifact dimensions %+v", first.meta)
	}

	rec := testsupport.ScenarioRecord()
	rec.ID = "X2"
	testsupport.WriteRecordFile(t, filepath.Join(dir, "record.json"), rec)
	second := waitFor(t, out, "X2")
	if second.meta.Payload == first.meta.Payload {
		t.Fatal("expected new payload after record change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchAttachesLocation(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePhoto(t, filepath.Join(dir, "photo.png"), testsupport.SolidImage(200, 200, color.White))
	testsupport.WriteRecordFile(t, filepath.Join(dir, "record.json"), testsupport.ScenarioRecord())

	out := make(chanSink, 16)
	locate := func(context.Context) *cargo.Fix {
		return &cargo.Fix{Latitude: 12.34, Longitude: 56.78, Timestamp: 1234567890}
	}
	w := newWatcher(t, dir, out, locate)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	got := waitFor(t, out, "X1")
	want := `"loc":{"lat":12.34,"lng":56.78,"ts":1234567890}}`
	if len(got.meta.Payload) < len(want) || got.meta.Payload[len(got.meta.Payload)-len(want):] != want {
		t.Fatalf("expected located payload, got %s", got.meta.Payload)
	}
}

func TestWatchSingleInstancePerOutputDir(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePhoto(t, filepath.Join(dir, "photo.png"), testsupport.SolidImage(200, 200, color.White))

	out := make(chanSink, 16)
	first := newWatcher(t, dir, out, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()
	// The photo alone still produces an artifact for the default record once the lock is held.
	waitFor(t, out, "")

	second := newWatcher(t, dir, out, nil)
	if err := second.Run(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected lock conflict, got %v", err)
	}
	cancel()
	<-done
}

func TestNewRejectsUnknownRecordFormat(t *testing.T) {
	_, err := watch.New(watch.Options{
		RecordPath: "record.txt",
		PhotoPath:  "photo.png",
		OutputDir:  t.TempDir(),
		Session:    &pipeline.Session{},
		Sink:       make(chanSink),
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
