package common

import (
	"fmt"
)

// FaceBox is a face region in normalized [0,1] image coordinates.
//
// The zero value doubles as the "no face" sentinel emitted when detection
// finds nothing.
type FaceBox struct {
	Left   float32 `json:"left"   yaml:"left"`
	Top    float32 `json:"top"    yaml:"top"`
	Right  float32 `json:"right"  yaml:"right"`
	Bottom float32 `json:"bottom" yaml:"bottom"`
}

// Width returns the normalized width.
func (b FaceBox) Width() float32 {
	return b.Right - b.Left
}

// Height returns the normalized height.
func (b FaceBox) Height() float32 {
	return b.Bottom - b.Top
}

// IsZero reports whether every coordinate is exactly 0.
func (b FaceBox) IsZero() bool {
	return b == FaceBox{}
}

// Valid reports whether the box is ordered and inside [0,1].
func (b FaceBox) Valid() bool {
	return b.Left >= 0 && b.Top >= 0 &&
		b.Right <= 1 && b.Bottom <= 1 &&
		b.Left <= b.Right && b.Top <= b.Bottom
}

// Flatten appends the box as left, top, right, bottom.
//
// This is the flat float layout consumers of the face bounding boxes output
// expect (four floats per face).
func (b FaceBox) Flatten(dst []float32) []float32 {
	return append(dst, b.Left, b.Top, b.Right, b.Bottom)
}

// String formats the box for display.
//
// @example
// box := FaceBox{Left: 0, Top: 0, Right: 0.4, Bottom: 0.4}
// fmt.Println(box.String()) // Output: Face (0.000, 0.000), (0.400, 0.400)
func (b FaceBox) String() string {
	return fmt.Sprintf("Face (%.3f, %.3f), (%.3f, %.3f)", b.Left, b.Top, b.Right, b.Bottom)
}
