// Package sink delivers finished artifacts: into a directory, onto a stream,
// and optionally into the delivery journal.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"cargotag/internal/logging"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
	"cargotag/internal/textutil"
)

// LockFileName is created inside every delivery directory.
const LockFileName = ".cargotag.lock"

const lockRetryDelay = 25 * time.Millisecond

// Sink accepts an encoded artifact under a suggested name and reports where
// it ended up.
type Sink interface {
	Deliver(ctx context.Context, name string, data []byte) (string, error)
}

// Dir writes artifacts into a directory. Writes are atomic and serialized
// across processes with a lock file, and never overwrite an existing file.
type Dir struct {
	Path   string
	Logger *slog.Logger
}

// NewDir prepares path for delivery.
func NewDir(path string, logger *slog.Logger) (*Dir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sink", "init", "empty output directory", nil)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, services.Wrap(services.ErrDelivery, "sink", "init", path, err)
	}
	return &Dir{Path: path, Logger: logging.NewComponentLogger(logger, "sink")}, nil
}

func (d *Dir) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	clean := textutil.SanitizeFileName(filepath.Base(name))
	if clean == "" {
		return "", services.Wrap(services.ErrDelivery, "sink", "deliver", fmt.Sprintf("unusable file name %q", name), nil)
	}

	lock := flock.New(filepath.Join(d.Path, LockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return "", services.Wrap(services.ErrDelivery, "sink", "lock", d.Path, err)
	}
	defer func() { _ = lock.Unlock() }()

	target := d.available(clean)
	if err := writeAtomic(d.Path, target, data); err != nil {
		return "", services.Wrap(services.ErrDelivery, "sink", "write", target, err)
	}
	if d.Logger != nil {
		logging.WithContext(ctx, d.Logger).Info("artifact delivered",
			logging.String("path", target),
			logging.Int("size_bytes", len(data)),
		)
	}
	return target, nil
}

// available returns the first unused path for name, adding _2, _3, ... before
// the extension. Callers hold the directory lock.
func (d *Dir) available(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(d.Path, name)
	for i := 2; ; i++ {
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = filepath.Join(d.Path, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

func writeAtomic(dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".cargo-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Writer streams the artifact bytes to W, ignoring the name.
type Writer struct {
	W io.Writer
}

func (w Writer) Deliver(_ context.Context, name string, data []byte) (string, error) {
	if _, err := w.W.Write(data); err != nil {
		return "", services.Wrap(services.ErrDelivery, "sink", "write", name, err)
	}
	return "-", nil
}

// Result delivers a pipeline result, attaching its metadata for decorators
// such as Journaled.
func Result(ctx context.Context, s Sink, res *pipeline.Result) (string, error) {
	if res == nil {
		return "", services.Wrap(services.ErrDelivery, "sink", "deliver", "no result", nil)
	}
	ctx = WithMetadata(ctx, Metadata{
		CargoID: res.CargoID,
		Payload: string(res.Payload),
		Width:   res.Artifact.Width,
		Height:  res.Artifact.Height,
	})
	ctx = services.WithCargoID(ctx, res.CargoID)
	return s.Deliver(ctx, res.FileName, res.Artifact.Data)
}
