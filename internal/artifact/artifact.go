// Package artifact encodes composited rasters into portable JPEG artifacts.
//
// The quality factor is fixed at DefaultQuality: high enough that the
// embedded code still scans after re-compression, low enough to keep phone
// uploads small. It is intentionally not exposed through configuration.
package artifact

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"math"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/zeebo/blake3"

	"cargotag/internal/services"
)

// DefaultQuality is the lossy quality factor, as a fraction of maximum.
const DefaultQuality = 0.9

// MediaType is the MIME type of every emitted artifact.
const MediaType = "image/jpeg"

// Artifact is a self-contained encoded image.
type Artifact struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
	Digest    string
}

// Size returns the encoded length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}

// Emit encodes img as JPEG at quality (0, 1].
func Emit(img image.Image, quality float64) (Artifact, error) {
	if img == nil {
		return Artifact{}, services.Wrap(services.ErrRenderFailure, "artifact", "emit", "no raster", nil)
	}
	q, err := jpegQuality(quality)
	if err != nil {
		return Artifact{}, err
	}
	bounds := img.Bounds()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return Artifact{}, services.Wrap(services.ErrRenderFailure, "artifact", "encode", "jpeg", err)
	}
	data := buf.Bytes()
	return Artifact{
		Data:      data,
		MediaType: MediaType,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Digest:    Digest(data),
	}, nil
}

func jpegQuality(quality float64) (int, error) {
	if math.IsNaN(quality) || quality <= 0 || quality > 1 {
		return 0, services.Wrap(services.ErrRenderFailure, "artifact", "emit",
			fmt.Sprintf("quality %v outside (0, 1]", quality), nil)
	}
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	return q, nil
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileName suggests a download name for an artifact produced at t.
func FileName(t time.Time) string {
	return "cargo_" + strconv.FormatInt(t.UnixMilli(), 10) + ".jpg"
}
