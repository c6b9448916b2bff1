package postprocess

import (
	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/images"
)

// ExpandAndClamp pads a detected face and normalizes it to the image.
//
// The padding is half the face width (integer division) on every side. The
// padded origin is clamped at 0 and the padded size at the image edge, so
// the result never leaves [0,imageWidth]x[0,imageHeight]. Zero-size faces are
// valid and stay zero-size.
//
// Arguments:
//   - face: The detection in pixel coordinates.
//   - imageWidth: The source image width in pixels. Must be positive.
//   - imageHeight: The source image height in pixels. Must be positive.
//
// Returns:
//   - images.Rect: The padded region in pixels, suitable for cropping.
//   - common.FaceBox: The same region normalized to [0,1].
//
// @example
// _, box := ExpandAndClamp(images.Rect{X1: 10, Y1: 10, X2: 30, Y2: 30}, 100, 100)
// fmt.Println(box) // Output: Face (0.000, 0.000), (0.400, 0.400)
func ExpandAndClamp(face images.Rect, imageWidth, imageHeight int) (images.Rect, common.FaceBox) {
	w := max(face.X2-face.X1, 0)
	h := max(face.Y2-face.Y1, 0)
	pad := w / 2

	x := clampInt(face.X1-pad, 0, imageWidth)
	y := clampInt(face.Y1-pad, 0, imageHeight)
	w = clampInt(w+2*pad, 0, imageWidth-x)
	h = clampInt(h+2*pad, 0, imageHeight-y)

	region := images.Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
	if imageWidth <= 0 || imageHeight <= 0 {
		return region, common.FaceBox{}
	}

	fw, fh := float32(imageWidth), float32(imageHeight)
	return region, common.FaceBox{
		Left:   float32(region.X1) / fw,
		Top:    float32(region.Y1) / fh,
		Right:  float32(region.X2) / fw,
		Bottom: float32(region.Y2) / fh,
	}
}

// EmptyResult returns the "no face" sentinel: one zero box and a zero score
// for every sentiment.
func EmptyResult() (common.FaceBox, []float32) {
	return common.FaceBox{}, make([]float32, SentimentCount)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}
