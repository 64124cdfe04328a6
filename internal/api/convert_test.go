package api_test

import (
	"encoding/json"
	"errors"
	"image"
	"testing"
	"time"

	"cargotag/internal/api"
	"cargotag/internal/artifact"
	"cargotag/internal/compositor"
	"cargotag/internal/journal"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
)

func TestFromEntryFormatsTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 0, 250_000_000, time.FixedZone("X", 3600))
	dto := api.FromEntry(journal.Entry{ID: 7, CargoID: "X1", FileName: "cargo_1.jpg", DeliveredAt: at})
	if dto.DeliveredAt != "2026-03-01T11:30:00.250Z" {
		t.Fatalf("unexpected timestamp %q", dto.DeliveredAt)
	}
	if dto.ID != 7 || dto.CargoID != "X1" || dto.FileName != "cargo_1.jpg" {
		t.Fatalf("fields not copied: %+v", dto)
	}
}

func TestFromEntriesEncodesEmptyArray(t *testing.T) {
	data, err := json.Marshal(api.HistoryResponse{Deliveries: api.FromEntries(nil)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"deliveries":[]}` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestFromResult(t *testing.T) {
	res := &pipeline.Result{
		Generation: 3,
		CargoID:    "X1",
		Payload:    "{}",
		Layout: compositor.Layout{
			CodeSize:  50,
			Code:      image.Rect(140, 140, 190, 190),
			Backing:   image.Rect(135, 135, 195, 195),
			Scannable: true,
		},
		Artifact: artifact.Artifact{Data: []byte("abc"), MediaType: artifact.MediaType, Width: 200, Height: 200, Digest: "d"},
		FileName: "cargo_5.jpg",
	}
	dto := api.FromResult(res, "/out/cargo_5.jpg")
	if dto.SizeBytes != 3 || dto.Digest != "d" || dto.Location != "/out/cargo_5.jpg" {
		t.Fatalf("unexpected artifact dto %+v", dto)
	}
	if dto.Layout.Code != (api.Rect{X: 140, Y: 140, Width: 50, Height: 50}) {
		t.Fatalf("unexpected code rect %+v", dto.Layout.Code)
	}
	if dto.Layout.Backing.Width != 60 || !dto.Layout.Scannable {
		t.Fatalf("unexpected backing rect %+v", dto.Layout.Backing)
	}
	if dto.ProducedAt != "" {
		t.Fatalf("zero time should be omitted, got %q", dto.ProducedAt)
	}
	if got := api.FromResult(nil, ""); got.FileName != "" {
		t.Fatalf("nil result should convert to zero value")
	}
}

func TestFromError(t *testing.T) {
	err := services.Wrap(services.ErrPayloadTooLarge, "coderender", "render", "", errors.New("too long"))
	body := api.FromError(err)
	if body.Kind != "payload_too_large" || body.Error != err.Error() {
		t.Fatalf("unexpected body %+v", body)
	}
	if api.FromError(nil) != (api.Error{}) {
		t.Fatalf("nil error should convert to zero value")
	}
}
