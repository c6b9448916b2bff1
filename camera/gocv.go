package camera

import (
	"context"
	"image"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-skills/common"
)

// VideoCaptureDevice is a Device backed by an OpenCV video capture.
//
// OpenCV exposes a webcam as one color preview source and cannot list the
// formats the driver supports, so the candidates come from configuration.
// OpenCV has no sharing modes: the mode only decides whether SetFormat is
// called.
type VideoCaptureDevice struct {
	// DeviceID is the OpenCV camera index.
	DeviceID int
	// Name is reported as the source device name.
	Name string
	// Formats lists the formats to choose from in exclusive mode.
	Formats []Format

	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// NewVideoCaptureDevice creates a device for the given camera index.
func NewVideoCaptureDevice(id int, formats []Format) *VideoCaptureDevice {
	return &VideoCaptureDevice{DeviceID: id, Name: "camera " + strconv.Itoa(id), Formats: formats}
}

// Initialize opens the capture.
func (d *VideoCaptureDevice) Initialize(_ context.Context, _ SharingMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return nil
	}
	vc, err := gocv.OpenVideoCapture(d.DeviceID)
	if err != nil {
		return common.E(common.KindIO, "camera.Initialize", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return common.Errorf(common.KindIO, "camera.Initialize", "camera %d did not open", d.DeviceID)
	}
	d.capture = vc
	return nil
}

// Sources returns the single color preview source.
func (d *VideoCaptureDevice) Sources() ([]FrameSourceInfo, error) {
	return []FrameSourceInfo{{
		ID:         strconv.Itoa(d.DeviceID),
		DeviceName: d.Name,
		Kind:       SourceColor,
		Stream:     StreamPreview,
	}}, nil
}

// SupportedFormats returns the configured candidates, or the current format.
func (d *VideoCaptureDevice) SupportedFormats(sourceID string) ([]Format, error) {
	if len(d.Formats) > 0 {
		return d.Formats, nil
	}
	current, err := d.CurrentFormat(sourceID)
	if err != nil {
		return nil, err
	}
	return []Format{current}, nil
}

// CurrentFormat reads the negotiated size, frame rate and FOURCC.
func (d *VideoCaptureDevice) CurrentFormat(string) (Format, error) {
	vc, err := d.opened()
	if err != nil {
		return Format{}, err
	}

	subtype := strings.TrimRight(vc.CodecString(), "\x00 ")
	if subtype == "" {
		subtype = SubtypeBGRA8
	}
	return Format{
		Subtype:              fourccSubtype(subtype),
		Width:                int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:               int(vc.Get(gocv.VideoCaptureFrameHeight)),
		FrameRateNumerator:   uint32(vc.Get(gocv.VideoCaptureFPS)),
		FrameRateDenominator: 1,
	}, nil
}

// SetFormat requests the size, frame rate and pixel format.
func (d *VideoCaptureDevice) SetFormat(_ string, f Format) error {
	vc, err := d.opened()
	if err != nil {
		return err
	}

	if fourcc := subtypeFourCC(f.Subtype); fourcc != "" {
		vc.Set(gocv.VideoCaptureFOURCC, vc.ToCodec(fourcc))
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(f.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(f.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(f.FPS()))
	return nil
}

// StartReader returns a reader over the capture.
func (d *VideoCaptureDevice) StartReader(context.Context, string) (FrameReader, error) {
	vc, err := d.opened()
	if err != nil {
		return nil, err
	}
	return &matReader{capture: vc, mat: gocv.NewMat()}, nil
}

// Close releases the capture.
func (d *VideoCaptureDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

func (d *VideoCaptureDevice) opened() (*gocv.VideoCapture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, common.Errorf(common.KindInvalidArgument, "camera.VideoCaptureDevice", "device %d is not initialized", d.DeviceID)
	}
	return d.capture, nil
}

type matReader struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

func (r *matReader) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := r.capture.Read(&r.mat); !ok {
		return nil, common.Errorf(common.KindIO, "camera.ReadFrame", "capture closed")
	}
	if r.mat.Empty() {
		return nil, nil
	}
	return r.mat.ToImage()
}

func (r *matReader) Close() error {
	return r.mat.Close()
}

// fourccSubtype maps an OpenCV FOURCC to a media subtype name.
func fourccSubtype(fourcc string) string {
	switch strings.ToUpper(fourcc) {
	case "NV12":
		return SubtypeNV12
	case "YUY2", "YUYV":
		return SubtypeYUY2
	case "BGR3", "BGRA", "RGB3":
		return SubtypeBGRA8
	default:
		return fourcc
	}
}

// subtypeFourCC maps a media subtype to the FOURCC OpenCV understands.
// OpenCV converts to BGR itself, so the RGB subtypes need no FOURCC.
func subtypeFourCC(subtype string) string {
	switch strings.ToUpper(subtype) {
	case SubtypeNV12:
		return "NV12"
	case SubtypeYUY2:
		return "YUYV"
	default:
		return ""
	}
}
