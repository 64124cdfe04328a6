package coderender

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"cargotag/internal/services"
)

// DefaultSize is the side length, in pixels, of a rendered code.
const DefaultSize = 200

// DefaultMargin is the quiet margin, in modules, baked into every code.
const DefaultMargin = 1

// Renderer converts payload text into a square raster of exactly size×size pixels.
type Renderer interface {
	Render(ctx context.Context, payload string, size int) (image.Image, error)
}

// Level is a QR error-correction level.
type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
	LevelHighest Level = "highest"
)

// ParseLevel maps a configuration value onto a Level.
func ParseLevel(value string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(value))) {
	case "", LevelMedium:
		return LevelMedium, nil
	case LevelLow:
		return LevelLow, nil
	case LevelHigh:
		return LevelHigh, nil
	case LevelHighest:
		return LevelHighest, nil
	default:
		return "", fmt.Errorf("unknown error correction level %q", value)
	}
}

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelLow:
		return qrcode.Low
	case LevelHigh:
		return qrcode.High
	case LevelHighest:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// QR renders QR codes as black modules on a white background.
type QR struct {
	Level  Level
	Margin int
}

// NewQR returns a QR renderer at the given level with the default margin.
func NewQR(level Level) *QR {
	return &QR{Level: level, Margin: DefaultMargin}
}

// Render encodes payload and scales the module grid to size×size pixels.
func (q *QR) Render(ctx context.Context, payload string, size int) (image.Image, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if size <= 0 {
		return nil, services.Wrap(services.ErrRenderFailure, "coderender", "render", fmt.Sprintf("invalid target size %d", size), nil)
	}

	code, err := qrcode.New(payload, q.Level.recovery())
	if err != nil {
		if strings.Contains(err.Error(), "too long") {
			return nil, services.Wrap(services.ErrPayloadTooLarge, "coderender", "encode",
				fmt.Sprintf("%d bytes exceed capacity at %s error correction", len(payload), q.Level), err)
		}
		return nil, services.Wrap(services.ErrRenderFailure, "coderender", "encode", "", err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	margin := q.Margin
	if margin < 0 {
		margin = 0
	}
	modules := len(bitmap) + 2*margin
	if size < modules {
		return nil, services.Wrap(services.ErrRenderFailure, "coderender", "render",
			fmt.Sprintf("target size %d is smaller than %d modules", size, modules), nil)
	}

	return rasterize(bitmap, margin, size), nil
}

// rasterize maps each output pixel back onto the module grid, so module edges
// land on integer pixel boundaries spread evenly across the raster.
func rasterize(bitmap [][]bool, margin, size int) *image.Gray {
	modules := len(bitmap) + 2*margin
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		my := y*modules/size - margin
		for x := 0; x < size; x++ {
			mx := x*modules/size - margin
			shade := color.Gray{Y: 0xff}
			if my >= 0 && my < len(bitmap) && mx >= 0 && mx < len(bitmap[my]) && bitmap[my][mx] {
				shade = color.Gray{Y: 0x00}
			}
			img.SetGray(x, y, shade)
		}
	}
	return img
}
