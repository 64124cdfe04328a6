package api

import (
	"image"

	"cargotag/internal/compositor"
	"cargotag/internal/journal"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
)

// FromEntry converts a journal entry to its API representation.
func FromEntry(e journal.Entry) Delivery {
	dto := Delivery{
		ID:             e.ID,
		CargoID:        e.CargoID,
		FileName:       e.FileName,
		Payload:        e.Payload,
		PayloadDigest:  e.PayloadDigest,
		ArtifactDigest: e.ArtifactDigest,
		SizeBytes:      e.SizeBytes,
		Width:          e.Width,
		Height:         e.Height,
	}
	if !e.DeliveredAt.IsZero() {
		dto.DeliveredAt = e.DeliveredAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromEntries converts entries preserving order. The result is never nil so
// it encodes as an empty array.
func FromEntries(entries []journal.Entry) []Delivery {
	out := make([]Delivery, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromEntry(e))
	}
	return out
}

// FromLayout converts a computed layout.
func FromLayout(l compositor.Layout) Layout {
	return Layout{
		CodeSize:  l.CodeSize,
		Code:      fromRect(l.Code),
		Backing:   fromRect(l.Backing),
		Scannable: l.Scannable,
	}
}

func fromRect(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// FromResult converts a pipeline result. location is where it was delivered,
// or empty.
func FromResult(res *pipeline.Result, location string) Artifact {
	if res == nil {
		return Artifact{}
	}
	dto := Artifact{
		Generation: res.Generation,
		CargoID:    res.CargoID,
		Payload:    res.Payload.String(),
		FileName:   res.FileName,
		MediaType:  res.Artifact.MediaType,
		Width:      res.Artifact.Width,
		Height:     res.Artifact.Height,
		SizeBytes:  res.Artifact.Size(),
		Digest:     res.Artifact.Digest,
		Layout:     FromLayout(res.Layout),
		Location:   location,
	}
	if !res.ProducedAt.IsZero() {
		dto.ProducedAt = res.ProducedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromError builds an error body classified with services.Kind.
func FromError(err error) Error {
	if err == nil {
		return Error{}
	}
	return Error{Error: err.Error(), Kind: services.Kind(err)}
}
