// Package photo decodes base photos for composition.
package photo

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register decoder

	"cargotag/internal/services"
)

// Decode reads a single photo from r, applying EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	if r == nil {
		return nil, services.Wrap(services.ErrPhotoUnavailable, "photo", "decode", "no photo", nil)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrPhotoUnavailable, "photo", "decode", "unsupported or corrupt image", err)
	}
	if err := check(img); err != nil {
		return nil, err
	}
	return img, nil
}

// Open decodes the photo stored at path.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		msg := "open photo"
		if errors.Is(err, os.ErrNotExist) {
			msg = "photo not found"
		}
		return nil, services.Wrap(services.ErrPhotoUnavailable, "photo", "open", fmt.Sprintf("%s %q", msg, path), err)
	}
	defer f.Close()
	return Decode(f)
}

func check(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return services.Wrap(services.ErrPhotoUnavailable, "photo", "decode", "zero-area image", nil)
	}
	return nil
}
