// Package sentiment - The face sentiment skill: face detection, emotion
// classification and score postprocessing bound into one Analyzer.
package sentiment

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/images"
	"github.com/nvr-ai/go-skills/models/postprocess"
)

// FaceDetector finds faces in a frame.
type FaceDetector interface {
	// Detect returns face regions in pixel coordinates relative to the
	// image origin, most prominent first.
	Detect(ctx context.Context, img image.Image) ([]images.Rect, error)
	Close() error
}

// CascadeConfig configures a CascadeDetector.
type CascadeConfig struct {
	// Haar cascade XML file.
	Path string `json:"path" yaml:"path"`
	// Image pyramid step. Must be greater than 1.
	ScaleFactor float64 `json:"scale_factor" yaml:"scale_factor"`
	// Neighbors a candidate needs to be kept.
	MinNeighbors int `json:"min_neighbors" yaml:"min_neighbors"`
	// Smallest face edge in pixels. Zero means no limit.
	MinFaceSize int `json:"min_face_size" yaml:"min_face_size"`
	// De-duplication of overlapping detections. Nil uses DefaultNMSConfig.
	NMS *postprocess.NMSConfig `json:"nms" yaml:"nms"`
}

// CascadeDetector detects faces with an OpenCV Haar cascade.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	cfg        CascadeConfig
}

// NewCascadeDetector loads the cascade at cfg.Path.
//
// Arguments:
//   - cfg: The cascade configuration.
//
// Returns:
//   - *CascadeDetector: The detector. Close releases it.
//   - error: IOError if the cascade cannot be read or loaded, InvalidArgument
//     for a bad scale factor.
func NewCascadeDetector(cfg CascadeConfig) (*CascadeDetector, error) {
	const op = "sentiment.NewCascadeDetector"

	if cfg.ScaleFactor <= 1 {
		return nil, common.Errorf(common.KindInvalidArgument, op, "scale factor must be greater than 1, got %v", cfg.ScaleFactor)
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, common.E(common.KindIO, op, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.Path) {
		classifier.Close()
		return nil, common.Errorf(common.KindIO, op, "failed to load face cascade classifier %s", cfg.Path)
	}

	return &CascadeDetector{classifier: classifier, cfg: cfg}, nil
}

// Detect runs the cascade on a grayscale copy of img.
func (d *CascadeDetector) Detect(ctx context.Context, img image.Image) ([]images.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(gray, &gray)

	minSize := image.Pt(d.cfg.MinFaceSize, d.cfg.MinFaceSize)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(gray, d.cfg.ScaleFactor, d.cfg.MinNeighbors, 0, minSize, image.Point{})
	d.mu.Unlock()

	return suppress(rects, d.cfg.NMS), nil
}

// Close releases the cascade.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

// suppress ranks cascade hits by area and drops overlapping duplicates.
// Cascades report no confidence, so the larger face wins.
func suppress(rects []image.Rectangle, nms *postprocess.NMSConfig) []images.Rect {
	detections := make([]postprocess.Result, 0, len(rects))
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		detections = append(detections, postprocess.Result{
			Box:   images.RectFromImage(r),
			Score: float32(r.Dx() * r.Dy()),
		})
	}

	postprocess.SortByScore(detections)
	kept := postprocess.ApplyGreedyNMS(detections, nms)
	out := make([]images.Rect, len(kept))
	for i, d := range kept {
		out[i] = d.Box
	}
	return out
}
