package compositor

import (
	"fmt"
	"image"
	"math"

	"cargotag/internal/services"
)

const (
	// Padding separates the code from the canvas edges.
	Padding = 20
	// BackingInset is how far the backing extends past the code on each side.
	BackingInset = 10
	// LabelGap is the distance from the label baseline to the code's top edge.
	LabelGap = 15
	// LabelMinSize is the smallest label font size in pixels.
	LabelMinSize = 16.0
	// LabelScale is the label font size as a fraction of canvas width.
	LabelScale = 0.03
	// MinCodeSize is the smallest overlay that still fits a version 1 QR symbol
	// at one pixel per module. Smaller overlays are drawn but will not scan.
	MinCodeSize = 21
)

// Layout is the resolved overlay geometry for one canvas size.
type Layout struct {
	Canvas        image.Rectangle
	CodeSize      int
	Code          image.Rectangle
	Backing       image.Rectangle
	LabelRight    int
	LabelBaseline int
	LabelSize     float64
	// Scannable is false when the overlay is below MinCodeSize.
	Scannable bool
}

// ComputeLayout places the overlay on a w×h canvas.
func ComputeLayout(w, h int) (Layout, error) {
	if w <= 0 || h <= 0 {
		return Layout{}, services.Wrap(services.ErrPhotoUnavailable, "compositor", "layout",
			fmt.Sprintf("photo has no area (%dx%d)", w, h), nil)
	}
	// Integer division is floor(min(0.25w, 0.25h)) for positive sizes, so the
	// overlay never exceeds a quarter of either axis.
	// Tiny photos still get an overlay; anything past the canvas edge is
	// clipped when drawn.
	codeSize := min(w, h) / 4

	x := w - codeSize - Padding
	y := h - codeSize - Padding
	code := image.Rect(x, y, x+codeSize, y+codeSize)
	return Layout{
		Canvas:        image.Rect(0, 0, w, h),
		CodeSize:      codeSize,
		Code:          code,
		Backing:       code.Inset(-BackingInset),
		LabelRight:    w - Padding,
		LabelBaseline: y - LabelGap,
		LabelSize:     math.Max(LabelMinSize, float64(w)*LabelScale),
		Scannable:     codeSize >= MinCodeSize,
	}, nil
}
