// Package watch recomposes an artifact whenever its record file or photo
// changes on disk and delivers each published result.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"cargotag/internal/cargo"
	"cargotag/internal/logging"
	"cargotag/internal/photo"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
	"cargotag/internal/sink"
)

// LockFileName guards an output directory against a second watcher.
const LockFileName = ".cargotag-watch.lock"

// Options configures a Watcher.
type Options struct {
	RecordPath string
	PhotoPath  string
	OutputDir  string
	Session    *pipeline.Session
	Sink       sink.Sink
	// Locate, when set, supplies a fix for records loaded without one.
	Locate func(ctx context.Context) *cargo.Fix
	Logger *slog.Logger
}

// Watcher ties file events to a pipeline session.
type Watcher struct {
	opts      Options
	record    string
	photo     string
	logger    *slog.Logger
	delivered atomic.Int64
}

// New validates opts and resolves the watched paths.
func New(opts Options) (*Watcher, error) {
	if opts.Session == nil || opts.Sink == nil {
		return nil, errors.New("watch requires a session and a sink")
	}
	if opts.RecordPath == "" || opts.PhotoPath == "" || opts.OutputDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "watch", "init", "record, photo and output paths are required", nil)
	}
	record, err := filepath.Abs(opts.RecordPath)
	if err != nil {
		return nil, fmt.Errorf("resolve record path: %w", err)
	}
	photoPath, err := filepath.Abs(opts.PhotoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve photo path: %w", err)
	}
	if _, err := cargo.FormatFromPath(record); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "watch", "init", "record path", err)
	}
	return &Watcher{
		opts:   opts,
		record: record,
		photo:  photoPath,
		logger: logging.NewComponentLogger(opts.Logger, "watch"),
	}, nil
}

// Delivered is the number of artifacts delivered so far.
func (w *Watcher) Delivered() int64 {
	return w.delivered.Load()
}

// Run blocks until ctx is cancelled or the file watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.opts.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrDelivery, "watch", "init", w.opts.OutputDir, err)
	}
	lockPath := filepath.Join(w.opts.OutputDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "watch", "lock",
			fmt.Sprintf("another watcher is delivering into %s", w.opts.OutputDir), nil)
	}
	defer func() { _ = lock.Unlock() }()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	for _, dir := range uniqueDirs(w.record, w.photo) {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.opts.Session.OnResult(func(res *pipeline.Result) {
		if _, err := sink.Result(ctx, w.opts.Sink, res); err != nil {
			logging.ErrorWithContext(w.logger, "delivery failed", "delivery_failed", logging.Error(err))
			return
		}
		w.delivered.Add(1)
	})
	defer w.opts.Session.Close()

	w.logger.Info("watching inputs",
		logging.String("record", w.record),
		logging.String("photo", w.photo),
		logging.String("lock", lockPath),
	)
	w.loadRecord(ctx)
	w.loadPhoto()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", logging.Int64("delivered", w.Delivered()))
			return nil
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher: %w", err)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			switch filepath.Clean(event.Name) {
			case w.record:
				w.loadRecord(ctx)
			case w.photo:
				w.loadPhoto()
			}
		}
	}
}

func (w *Watcher) loadRecord(ctx context.Context) {
	rec, err := cargo.LoadFile(w.record)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("record file not present yet", logging.String("path", w.record))
			return
		}
		logging.WarnWithContext(w.logger, "record file rejected", "record_invalid",
			logging.String("path", w.record),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous record kept"),
		)
		return
	}
	if rec.Location == nil && w.opts.Locate != nil {
		if fix := w.opts.Locate(ctx); fix != nil {
			rec = rec.WithLocation(*fix)
		}
	}
	gen := w.opts.Session.UpdateRecord(rec)
	w.logger.Debug("record reloaded", logging.Uint64(logging.FieldGeneration, gen), logging.String(logging.FieldCargoID, rec.ID))
}

func (w *Watcher) loadPhoto() {
	img, err := photo.Open(w.photo)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		w.logger.Debug("photo not present yet", logging.String("path", w.photo))
		return
	}
	gen := w.opts.Session.UpdatePhoto(img, err)
	w.logger.Debug("photo reloaded", logging.Uint64(logging.FieldGeneration, gen))
}

func uniqueDirs(paths ...string) []string {
	seen := make(map[string]struct{}, len(paths))
	var dirs []string
	for _, p := range paths {
		dir := filepath.Dir(p)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}
