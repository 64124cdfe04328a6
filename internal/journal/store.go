package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cargotag/internal/config"
)

// Store persists deliveries in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one delivered artifact.
type Entry struct {
	ID             int64     `json:"id"`
	CargoID        string    `json:"cargo_id"`
	FileName       string    `json:"file_name"`
	Payload        string    `json:"payload"`
	PayloadDigest  string    `json:"payload_digest"`
	ArtifactDigest string    `json:"artifact_digest"`
	SizeBytes      int64     `json:"size_bytes"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	DeliveredAt    time.Time `json:"delivered_at"`
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultListLimit        = 50
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

// Open connects to the journal in cfg's state directory, creating it if needed.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.JournalPath())
}

// OpenPath connects to the journal database at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path is the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts e and returns it with its assigned ID. A zero DeliveredAt
// is stamped with the current time.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.DeliveredAt.IsZero() {
		e.DeliveredAt = time.Now()
	}
	e.DeliveredAt = e.DeliveredAt.UTC()
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO deliveries (
                cargo_id, file_name, payload, payload_digest, artifact_digest,
                size_bytes, width, height, delivered_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.CargoID, e.FileName, e.Payload, e.PayloadDigest, e.ArtifactDigest,
			e.SizeBytes, e.Width, e.Height, e.DeliveredAt.Format(time.RFC3339Nano),
		)
		return execErr
	})
	if err != nil {
		return Entry{}, fmt.Errorf("insert delivery: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

// List returns up to limit deliveries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.query(ctx, `SELECT `+entryColumns+` FROM deliveries ORDER BY id DESC LIMIT ?`, limit)
}

// FindByCargoID returns every delivery of one cargo item, newest first.
func (s *Store) FindByCargoID(ctx context.Context, cargoID string) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM deliveries WHERE cargo_id = ? ORDER BY id DESC`, cargoID)
}

const entryColumns = `id, cargo_id, file_name, payload, payload_digest, artifact_digest,
    size_bytes, width, height, delivered_at`

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		entries = entries[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e         Entry
		delivered string
	)
	if err := rows.Scan(
		&e.ID, &e.CargoID, &e.FileName, &e.Payload, &e.PayloadDigest, &e.ArtifactDigest,
		&e.SizeBytes, &e.Width, &e.Height, &delivered,
	); err != nil {
		return Entry{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, delivered)
	if err != nil {
		return Entry{}, fmt.Errorf("parse delivered_at %q: %w", delivered, err)
	}
	e.DeliveredAt = ts
	return e, nil
}
