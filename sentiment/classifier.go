package sentiment

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/images"
	"github.com/nvr-ai/go-skills/inference/providers"
	"github.com/nvr-ai/go-skills/models/postprocess"
)

// FER+ emotion model layout.
const (
	ModelInputName  = "Input3"
	ModelOutputName = "Plus692_Output_0"
	ModelInputSize  = 64
)

// Classifier scores one face region.
type Classifier interface {
	// Classify returns one raw score per sentiment for region of img.
	Classify(ctx context.Context, img image.Image, region images.Rect) ([]float32, error)
	Close() error
}

// tensorSession is the part of providers.Session the classifier drives.
type tensorSession interface {
	Input() []float32
	Run() ([]float32, error)
	Close() error
}

// ONNXClassifier runs the FER+ model through onnxruntime.
//
// The session reuses one input and one output tensor, so calls are serialized.
type ONNXClassifier struct {
	mu      sync.Mutex
	session tensorSession
}

// NewONNXClassifier creates a session for the decrypted FER+ model.
//
// Arguments:
//   - provider: The execution provider. Nil uses the CPU.
//   - model: The plain ONNX model bytes.
//   - opt: Session tuning. Nil uses providers.DefaultOptimizationConfig.
//
// Returns:
//   - *ONNXClassifier: The classifier. Close releases the session.
//   - error: InvalidArgument for an empty model, otherwise the onnxruntime error.
func NewONNXClassifier(provider providers.ExecutionProvider, model []byte, opt *providers.OptimizationConfig) (*ONNXClassifier, error) {
	session, err := providers.NewSession(provider, providers.NewSessionArgs{
		ModelData:    model,
		Input:        providers.TensorSpec{Name: ModelInputName, Shape: []int64{1, 1, ModelInputSize, ModelInputSize}},
		Output:       providers.TensorSpec{Name: ModelOutputName, Shape: []int64{1, postprocess.SentimentCount}},
		Optimization: opt,
	})
	if err != nil {
		return nil, err
	}
	return &ONNXClassifier{session: session}, nil
}

// Classify fills the model input with the grayscale face crop and runs it.
func (c *ONNXClassifier) Classify(ctx context.Context, img image.Image, region images.Rect) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, common.Errorf(common.KindInvalidArgument, "sentiment.Classify", "classifier is closed")
	}
	if err := images.GrayTensor(img, region, ModelInputSize, c.session.Input()); err != nil {
		return nil, errors.Wrap(err, "prepare model input")
	}

	out, err := c.session.Run()
	if err != nil {
		return nil, err
	}
	if len(out) != postprocess.SentimentCount {
		return nil, errors.Errorf("model returned %d scores, expected %d", len(out), postprocess.SentimentCount)
	}

	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

// Close releases the session.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}
