// Package images - Image definition for processing utilities.
package images

import (
	"bytes"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"

	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
)

// Image is a decoded frame together with where it came from.
type Image struct {
	// The source path, empty for camera frames.
	Path string `json:"path" yaml:"path"`
	// The format of the encoded source.
	Format ImageFormat `json:"format" yaml:"format"`
	// The decoded pixels.
	Pixels image.Image `json:"-" yaml:"-"`
}

// Width returns the frame width in pixels.
func (i Image) Width() int {
	return i.Pixels.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (i Image) Height() int {
	return i.Pixels.Bounds().Dy()
}

// Decode decodes a JPEG or PNG buffer.
func Decode(data []byte) (Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, errors.Wrap(err, "decode image")
	}
	return Image{Format: ImageFormat(format), Pixels: img}, nil
}

// Load reads and decodes an image file.
func Load(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, errors.Wrapf(err, "read image %s", path)
	}
	img, err := Decode(data)
	if err != nil {
		return Image{}, errors.Wrap(err, path)
	}
	img.Path = path
	return img, nil
}
