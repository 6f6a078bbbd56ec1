package spatialetl

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
)

// loadImage reads and decodes the image at path and returns the results of
// image.Decode.
func loadImage(path string) (img image.Image, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer closeWithErrCheck(f, &err)

	return image.Decode(f)
}

// saveImage writes the image to path, encoding it as PNG, WebP or JPEG
// depending on the file extension of path.
func saveImage(path string, img image.Image, quality int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".webp":
		err = webp.Encode(f, img, &webp.Options{Quality: float32(quality)})
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	}
	return err
}
