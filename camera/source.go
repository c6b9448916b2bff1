// Package camera - Frame source and format selection for live capture.
package camera

import (
	"fmt"

	"github.com/nvr-ai/go-skills/common"
)

// SourceKind is the kind of frames a source produces.
type SourceKind int

const (
	SourceColor SourceKind = iota
	SourceInfrared
	SourceDepth
	SourceCustom
)

// StreamType is the pin a source is exposed on.
type StreamType int

const (
	StreamPreview StreamType = iota
	StreamRecord
	StreamPhoto
)

// String returns the stream type name.
func (s StreamType) String() string {
	switch s {
	case StreamPreview:
		return "VideoPreview"
	case StreamRecord:
		return "VideoRecord"
	case StreamPhoto:
		return "Photo"
	default:
		return fmt.Sprintf("StreamType(%d)", int(s))
	}
}

// FrameSourceInfo describes one frame source of a capture device.
type FrameSourceInfo struct {
	ID         string
	DeviceName string
	Kind       SourceKind
	Stream     StreamType
}

// EnumerateFrameSources orders the color sources a capture can read from.
//
// Color preview sources come first, then color record sources, each group
// in device order. Single-pin cameras often expose only a record source.
// Infrared, depth and photo sources are left out.
//
// Returns:
//   - []FrameSourceInfo: The usable sources, best first.
//   - error: NoSourceFound if none qualifies.
func EnumerateFrameSources(sources []FrameSourceInfo) ([]FrameSourceInfo, error) {
	out := make([]FrameSourceInfo, 0, len(sources))
	for _, want := range []StreamType{StreamPreview, StreamRecord} {
		for _, s := range sources {
			if s.Kind == SourceColor && s.Stream == want {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return nil, common.Errorf(common.KindNoSourceFound, "camera.EnumerateFrameSources",
			"no color preview or record source among %d sources", len(sources))
	}
	return out, nil
}
