package images

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Crop returns the part of img inside region, clipped to the image bounds.
//
// The region is relative to img.Bounds().Min. Images that support SubImage
// are cropped without copying.
func Crop(img image.Image, region Rect) image.Image {
	b := img.Bounds()
	r := region.Image().Add(b.Min).Intersect(b)

	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			dst.Set(x, y, img.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}

// GrayTensor crops region out of img, resizes it to size x size and writes the
// grayscale intensities (0-255, row-major) into dst.
//
// Arguments:
//   - img: The source frame.
//   - region: The face region in pixel coordinates.
//   - size: The square edge of the model input.
//   - dst: The destination buffer, at least size*size long.
//
// Returns:
//   - error: If dst is too small or the region is empty.
func GrayTensor(img image.Image, region Rect, size int, dst []float32) error {
	if len(dst) < size*size {
		return errors.Errorf("destination holds %d floats, needs %d", len(dst), size*size)
	}

	face := Crop(img, region)
	if face.Bounds().Empty() {
		return errors.Errorf("face region %+v is empty", region)
	}

	scaled := resize.Resize(uint(size), uint(size), face, resize.Bilinear)
	b := scaled.Bounds()

	i := 0
	for y := b.Min.Y; y < b.Min.Y+size; y++ {
		for x := b.Min.X; x < b.Min.X+size; x++ {
			g := color.GrayModel.Convert(scaled.At(x, y)).(color.Gray)
			dst[i] = float32(g.Y)
			i++
		}
	}
	return nil
}
