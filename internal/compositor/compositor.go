package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"cargotag/internal/services"
)

var (
	backingColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 204}
	labelColor   = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 204}
)

var (
	labelFontOnce sync.Once
	labelFont     *opentype.Font
	labelFontErr  error
)

func loadLabelFont() (*opentype.Font, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = opentype.Parse(gobold.TTF)
	})
	return labelFont, labelFontErr
}

// Label formats the identifier caption drawn above the code.
func Label(id string) string {
	return "ID: " + id
}

// Compose draws base, the backing panel, code, and label onto a new canvas the
// size of base. Callers gate on a decoded photo: a nil or empty base returns
// services.ErrPhotoUnavailable without drawing anything.
func Compose(base, code image.Image, label string) (*image.NRGBA, error) {
	if base == nil {
		return nil, services.Wrap(services.ErrPhotoUnavailable, "compositor", "compose", "no base photo", nil)
	}
	bounds := base.Bounds()
	layout, err := ComputeLayout(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, services.Wrap(services.ErrRenderFailure, "compositor", "compose", "no code raster", nil)
	}
	if cb := code.Bounds(); cb.Dx() != cb.Dy() || cb.Dx() == 0 {
		return nil, services.Wrap(services.ErrRenderFailure, "compositor", "compose",
			fmt.Sprintf("code raster must be square, got %dx%d", cb.Dx(), cb.Dy()), nil)
	}

	canvas := image.NewNRGBA(layout.Canvas)
	draw.Draw(canvas, canvas.Bounds(), base, bounds.Min, draw.Src)
	draw.Draw(canvas, layout.Backing, image.NewUniform(backingColor), image.Point{}, draw.Over)

	if layout.CodeSize > 0 {
		scaled := imaging.Resize(code, layout.CodeSize, layout.CodeSize, imaging.NearestNeighbor)
		draw.Draw(canvas, layout.Code, scaled, image.Point{}, draw.Over)
	}

	if err := drawLabel(canvas, layout, label); err != nil {
		return nil, err
	}
	return canvas, nil
}

func drawLabel(dst draw.Image, layout Layout, label string) error {
	if label == "" {
		return nil
	}
	f, err := loadLabelFont()
	if err != nil {
		return services.Wrap(services.ErrRenderFailure, "compositor", "label", "parse font", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    layout.LabelSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return services.Wrap(services.ErrRenderFailure, "compositor", "label", "create face", err)
	}
	defer face.Close()

	width := font.MeasureString(face, label)
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(layout.LabelRight) - width, Y: fixed.I(layout.LabelBaseline)},
	}
	drawer.DrawString(label)
	return nil
}
