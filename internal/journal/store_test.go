package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"cargotag/internal/journal"
	"cargotag/internal/testsupport"
)

func entry(cargoID, name string, at time.Time) journal.Entry {
	return journal.Entry{
		CargoID:        cargoID,
		FileName:       name,
		Payload:        `{"id":"` + cargoID + `"}`,
		PayloadDigest:  "pd-" + cargoID,
		ArtifactDigest: "ad-" + name,
		SizeBytes:      1024,
		Width:          1000,
		Height:         800,
		DeliveredAt:    at,
	}
}

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	first, err := store.Record(ctx, entry("X1", "cargo_1.jpg", base))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if _, err := store.Record(ctx, entry("X2", "cargo_2.jpg", base.Add(time.Minute))); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Record(ctx, entry("X1", "cargo_3.jpg", base.Add(2*time.Minute))); err != nil {
		t.Fatalf("Record: %v", err)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].FileName != "cargo_3.jpg" || all[2].FileName != "cargo_1.jpg" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if !all[2].DeliveredAt.Equal(base) {
		t.Fatalf("delivered_at round trip lost precision: %v", all[2].DeliveredAt)
	}
	if got := all[2]; got.ID != first.ID || got.PayloadDigest != first.PayloadDigest || got.Width != 1000 || got.SizeBytes != 1024 {
		t.Fatalf("stored entry %+v differs from recorded %+v", got, first)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	x1, err := store.FindByCargoID(ctx, "X1")
	if err != nil {
		t.Fatalf("FindByCargoID: %v", err)
	}
	if len(x1) != 2 || x1[0].FileName != "cargo_3.jpg" {
		t.Fatalf("unexpected X1 deliveries %+v", x1)
	}
	none, err := store.FindByCargoID(ctx, "missing")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no deliveries, got %v %v", none, err)
	}
}

func TestRecordStampsTime(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	before := time.Now().Add(-time.Second)
	e, err := store.Record(context.Background(), entry("X1", "a.jpg", time.Time{}))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e.DeliveredAt.Before(before) {
		t.Fatalf("expected current timestamp, got %v", e.DeliveredAt)
	}
}

func TestReopenKeepsEntriesAndChecksVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), entry("X1", "a.jpg", time.Now())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenJournal(t, cfg)
	entries, err := reopened.List(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected persisted entry, got %v %v", entries, err)
	}
	reopened.Close()

	db, err := sql.Open("sqlite", cfg.JournalPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := journal.Open(cfg); !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
