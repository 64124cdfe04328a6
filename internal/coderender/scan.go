package coderender

import (
	"image"
	"image/draw"

	"github.com/makiuchi-d/gozxing"
	gozxingqr "github.com/makiuchi-d/gozxing/qrcode"

	"cargotag/internal/services"
)

// scanQuietZone is the white border placed around a region before scanning.
const scanQuietZone = 40

// Scan reads the QR symbol in img.
func Scan(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", services.Wrap(services.ErrValidation, "coderender", "scan", "empty image", nil)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "coderender", "scan", "binarize", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	result, err := gozxingqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "coderender", "scan", "no readable code", err)
	}
	return result.GetText(), nil
}

// ScanRegion copies area of img onto a white field and scans it. Overlays
// sitting on busy photos need the added quiet zone.
func ScanRegion(img image.Image, area image.Rectangle) (string, error) {
	area = area.Intersect(img.Bounds())
	if area.Empty() {
		return "", services.Wrap(services.ErrValidation, "coderender", "scan", "region outside image", nil)
	}
	field := image.NewGray(image.Rect(0, 0, area.Dx()+2*scanQuietZone, area.Dy()+2*scanQuietZone))
	draw.Draw(field, field.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(field, area.Sub(area.Min).Add(image.Pt(scanQuietZone, scanQuietZone)), img, area.Min, draw.Src)
	return Scan(field)
}
