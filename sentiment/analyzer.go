package sentiment

import (
	"context"
	"image"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/inference/providers"
	"github.com/nvr-ai/go-skills/logging"
	"github.com/nvr-ai/go-skills/models/postprocess"
)

// Result is the outcome of one evaluation.
//
// Boxes holds one normalized face rectangle per face and Scores holds
// SentimentCount softmaxed scores per face, in the same order. When no face
// is found both hold the zero sentinel: one zero box and SentimentCount zeros.
type Result struct {
	Boxes  []common.FaceBox
	Scores []float32
}

// FaceFound reports whether the first face rectangle is not the zero sentinel.
func (r Result) FaceFound() bool {
	return len(r.Boxes) > 0 && !r.Boxes[0].IsZero()
}

// FaceRectangle returns the first face rectangle.
func (r Result) FaceRectangle() common.FaceBox {
	if len(r.Boxes) == 0 {
		return common.FaceBox{}
	}
	return r.Boxes[0]
}

// PredominantSentiment returns the highest scoring sentiment of the first face.
func (r Result) PredominantSentiment() postprocess.Sentiment {
	n := min(len(r.Scores), postprocess.SentimentCount)
	return postprocess.Sentiment(postprocess.PickPredominant(r.Scores[:n]))
}

// PredominantSentiments returns the predominant sentiment of every face.
func (r Result) PredominantSentiments() []postprocess.Sentiment {
	return postprocess.PredominantSentiments(r.Scores)
}

// Analyzer detects faces and classifies their sentiment.
type Analyzer struct {
	detector   FaceDetector
	classifier Classifier
	device     providers.ExecutionDevice
	maxFaces   int
	logger     *slog.Logger
}

// AnalyzerOptions configures NewAnalyzer.
type AnalyzerOptions struct {
	// The device the classifier runs on. Informational.
	Device providers.ExecutionDevice
	// Faces classified per frame, largest first. Zero classifies every face.
	MaxFaces int
	// Nil uses logging.L.
	Logger *slog.Logger
}

// NewAnalyzer binds a detector and a classifier.
//
// Returns:
//   - *Analyzer: The analyzer. Close releases both collaborators.
//   - error: InvalidArgument if either collaborator is nil.
func NewAnalyzer(detector FaceDetector, classifier Classifier, opts AnalyzerOptions) (*Analyzer, error) {
	if detector == nil {
		return nil, common.Errorf(common.KindInvalidArgument, "sentiment.NewAnalyzer", "face detector is required")
	}
	if classifier == nil {
		return nil, common.Errorf(common.KindInvalidArgument, "sentiment.NewAnalyzer", "classifier is required")
	}
	if opts.MaxFaces < 0 {
		return nil, common.Errorf(common.KindInvalidArgument, "sentiment.NewAnalyzer", "max faces must not be negative, got %d", opts.MaxFaces)
	}
	return &Analyzer{
		detector:   detector,
		classifier: classifier,
		device:     opts.Device,
		maxFaces:   opts.MaxFaces,
		logger:     logging.Or(opts.Logger),
	}, nil
}

// Device returns the execution device the analyzer was built for.
func (a *Analyzer) Device() providers.ExecutionDevice {
	return a.device
}

// Evaluate runs detection and classification on one frame.
//
// Each detected face is padded by half its width on every side and clamped
// to the frame, the padded region is classified and its raw scores are
// softmaxed.
//
// Arguments:
//   - ctx: Cancels the evaluation between faces.
//   - img: The frame.
//
// Returns:
//   - Result: Faces and scores, or the zero sentinel when no face is found.
//   - error: InvalidArgument for a nil or empty frame, otherwise the detector
//     or classifier error.
func (a *Analyzer) Evaluate(ctx context.Context, img image.Image) (Result, error) {
	const op = "sentiment.Evaluate"

	if img == nil {
		return Result{}, common.Errorf(common.KindInvalidArgument, op, "an invalid input frame has been bound")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return Result{}, common.Errorf(common.KindInvalidArgument, op, "frame is empty")
	}

	faces, err := a.detector.Detect(ctx, img)
	if err != nil {
		return Result{}, errors.Wrap(err, "detect faces")
	}
	if a.maxFaces > 0 && len(faces) > a.maxFaces {
		faces = faces[:a.maxFaces]
	}

	if len(faces) == 0 {
		box, scores := postprocess.EmptyResult()
		return Result{Boxes: []common.FaceBox{box}, Scores: scores}, nil
	}

	result := Result{
		Boxes:  make([]common.FaceBox, 0, len(faces)),
		Scores: make([]float32, 0, len(faces)*postprocess.SentimentCount),
	}
	for _, face := range faces {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		region, box := postprocess.ExpandAndClamp(face, bounds.Dx(), bounds.Dy())
		raw, err := a.classifier.Classify(ctx, img, region)
		if err != nil {
			return Result{}, errors.Wrapf(err, "classify %s", box)
		}
		if len(raw) != postprocess.SentimentCount {
			return Result{}, errors.Errorf("classifier returned %d scores, expected %d", len(raw), postprocess.SentimentCount)
		}

		result.Boxes = append(result.Boxes, box)
		result.Scores = postprocess.AppendSoftMaxed(result.Scores, raw)
	}

	a.logger.Debug("frame evaluated", "faces", len(result.Boxes), "sentiment", result.PredominantSentiment())
	return result, nil
}

// Close releases the detector and the classifier.
func (a *Analyzer) Close() error {
	detErr := a.detector.Close()
	clsErr := a.classifier.Close()
	if detErr != nil {
		return errors.Wrap(detErr, "close detector")
	}
	if clsErr != nil {
		return errors.Wrap(clsErr, "close classifier")
	}
	return nil
}
