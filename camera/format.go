package camera

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvr-ai/go-skills/common"
)

// Media subtypes understood by the format selection.
const (
	SubtypeBGRA8 = "BGRA8"
	SubtypeNV12  = "NV12"
	SubtypeYUY2  = "YUY2"
	SubtypeRGB32 = "RGB32"
)

// MinFrameRate is the lowest acceptable integer frame rate.
const MinFrameRate = 15

// fallbackSubtypes are accepted when no BGRA8 format qualifies.
var fallbackSubtypes = []string{SubtypeNV12, SubtypeYUY2, SubtypeRGB32}

// Format is one video format a frame source supports.
type Format struct {
	Subtype              string `json:"subtype"   yaml:"subtype"`
	Width                int    `json:"width"     yaml:"width"`
	Height               int    `json:"height"    yaml:"height"`
	FrameRateNumerator   uint32 `json:"fps_num"   yaml:"fps_num"`
	FrameRateDenominator uint32 `json:"fps_den"   yaml:"fps_den"`
}

// FPS returns the integer frame rate (numerator / denominator).
func (f Format) FPS() int {
	if f.FrameRateDenominator == 0 {
		return 0
	}
	return int(f.FrameRateNumerator / f.FrameRateDenominator)
}

// Pixels returns width * height.
func (f Format) Pixels() int {
	return f.Width * f.Height
}

// String formats the format the way capture logs print it.
func (f Format) String() string {
	return fmt.Sprintf("%s : %dx%d@%dfps", f.Subtype, f.Width, f.Height, f.FPS())
}

func (f Format) is(subtype string) bool {
	return strings.EqualFold(f.Subtype, subtype)
}

// SelectFormat picks the format to capture in.
//
// In shared mode the source cannot be reconfigured and the current format is
// returned unchanged. In exclusive mode the formats are ordered by
// descending resolution (ties keep their order) and the first BGRA8 format at
// MinFrameRate or more wins. Failing that, the first NV12, YUY2 or RGB32
// format at MinFrameRate or more is taken. Subtypes match case-insensitively.
//
// Arguments:
//   - formats: The formats supported by the source.
//   - exclusive: Whether the device was opened for exclusive control.
//   - current: The format the source is currently set to.
//
// Returns:
//   - Format: The chosen format.
//   - error: NoCompatibleFormat if no exclusive-mode tier matches.
func SelectFormat(formats []Format, exclusive bool, current Format) (Format, error) {
	if !exclusive {
		return current, nil
	}

	sorted := make([]Format, len(formats))
	copy(sorted, formats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pixels() > sorted[j].Pixels()
	})

	for _, f := range sorted {
		if f.FPS() >= MinFrameRate && f.is(SubtypeBGRA8) {
			return f, nil
		}
	}
	for _, f := range sorted {
		if f.FPS() < MinFrameRate {
			continue
		}
		for _, s := range fallbackSubtypes {
			if f.is(s) {
				return f, nil
			}
		}
	}

	return Format{}, common.Errorf(common.KindNoCompatibleFormat, "camera.SelectFormat",
		"none of %d formats is BGRA8, NV12, YUY2 or RGB32 at %d+ fps", len(formats), MinFrameRate)
}
