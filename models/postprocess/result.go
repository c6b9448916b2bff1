// Package postprocess - Score and face-region postprocessing for the sentiment skill.
package postprocess

import "github.com/nvr-ai/go-skills/images"

// Result represents a single face detection in pixel coordinates.
type Result struct {
	// The bounding box of the detection.
	Box images.Rect
	// The ranking score. Cascade hits carry their area.
	Score float32
	// The detector class index (always 0 for a single-class face detector).
	Class int
}
