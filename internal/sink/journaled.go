package sink

import (
	"context"
	"log/slog"
	"path/filepath"

	"cargotag/internal/artifact"
	"cargotag/internal/journal"
	"cargotag/internal/logging"
)

// Metadata describes the artifact being delivered.
type Metadata struct {
	CargoID string
	Payload string
	Width   int
	Height  int
}

type metadataKey struct{}

// WithMetadata attaches delivery metadata to ctx.
func WithMetadata(ctx context.Context, m Metadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, m)
}

// MetadataFromContext returns the metadata attached by WithMetadata.
func MetadataFromContext(ctx context.Context) (Metadata, bool) {
	if ctx == nil {
		return Metadata{}, false
	}
	m, ok := ctx.Value(metadataKey{}).(Metadata)
	return m, ok
}

// Journaled records every successful delivery of Sink in Store. A journal
// failure is logged and does not undo or fail the delivery.
type Journaled struct {
	Sink   Sink
	Store  *journal.Store
	Logger *slog.Logger
}

func (j *Journaled) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	location, err := j.Sink.Deliver(ctx, name, data)
	if err != nil {
		return "", err
	}
	meta, _ := MetadataFromContext(ctx)
	entry := journal.Entry{
		CargoID:        meta.CargoID,
		FileName:       filepath.Base(location),
		Payload:        meta.Payload,
		PayloadDigest:  artifact.Digest([]byte(meta.Payload)),
		ArtifactDigest: artifact.Digest(data),
		SizeBytes:      int64(len(data)),
		Width:          meta.Width,
		Height:         meta.Height,
	}
	if location == "-" {
		entry.FileName = name
	}
	if _, err := j.Store.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logging.NewComponentLogger(j.Logger, "journal")),
			"delivery not journaled", "journal_write_failed",
			logging.String("location", location),
			logging.Error(err),
			logging.String(logging.FieldImpact, "artifact delivered but missing from history"),
		)
	}
	return location, nil
}
