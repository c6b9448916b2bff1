package sentiment

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/images"
	"github.com/nvr-ai/go-skills/inference/providers"
	"github.com/nvr-ai/go-skills/logging"
	"github.com/nvr-ai/go-skills/models/postprocess"
	"github.com/nvr-ai/go-skills/obfuscation"
)

type fakeDetector struct {
	faces  []images.Rect
	err    error
	closed bool
}

func (d *fakeDetector) Detect(context.Context, image.Image) ([]images.Rect, error) {
	return d.faces, d.err
}

func (d *fakeDetector) Close() error {
	d.closed = true
	return nil
}

type fakeClassifier struct {
	scores  []float32
	err     error
	regions []images.Rect
	closed  bool
}

func (c *fakeClassifier) Classify(_ context.Context, _ image.Image, region images.Rect) ([]float32, error) {
	c.regions = append(c.regions, region)
	return c.scores, c.err
}

func (c *fakeClassifier) Close() error {
	c.closed = true
	return nil
}

type fakeSession struct {
	input  []float32
	output []float32
	err    error
	closed bool
}

func (s *fakeSession) Input() []float32        { return s.input }
func (s *fakeSession) Run() ([]float32, error) { return s.output, s.err }
func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func frame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

// happyLogits softmaxes to a distribution dominated by happiness.
var happyLogits = []float32{0, 4, 0, 0, 0, 0, 0, 0}

func newTestAnalyzer(t *testing.T, det FaceDetector, cls Classifier, maxFaces int) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(det, cls, AnalyzerOptions{MaxFaces: maxFaces, Logger: logging.Discard()})
	require.NoError(t, err)
	return a
}

func TestEvaluateNoFaceReturnsSentinel(t *testing.T) {
	cls := &fakeClassifier{scores: happyLogits}
	a := newTestAnalyzer(t, &fakeDetector{}, cls, 0)

	result, err := a.Evaluate(context.Background(), frame(100, 100))
	require.NoError(t, err)

	assert.False(t, result.FaceFound())
	assert.Equal(t, []common.FaceBox{{}}, result.Boxes)
	assert.Equal(t, make([]float32, postprocess.SentimentCount), result.Scores)
	assert.Equal(t, postprocess.Neutral, result.PredominantSentiment())
	assert.Empty(t, cls.regions)
}

func TestEvaluateExpandsAndSoftmaxes(t *testing.T) {
	cls := &fakeClassifier{scores: happyLogits}
	det := &fakeDetector{faces: []images.Rect{{X1: 10, Y1: 10, X2: 30, Y2: 30}}}
	a := newTestAnalyzer(t, det, cls, 0)

	result, err := a.Evaluate(context.Background(), frame(100, 100))
	require.NoError(t, err)

	require.True(t, result.FaceFound())
	assert.Equal(t, []images.Rect{{X1: 0, Y1: 0, X2: 40, Y2: 40}}, cls.regions)
	box := result.FaceRectangle()
	assert.InDelta(t, 0, box.Left, 1e-6)
	assert.InDelta(t, 0, box.Top, 1e-6)
	assert.InDelta(t, 0.4, box.Right, 1e-6)
	assert.InDelta(t, 0.4, box.Bottom, 1e-6)

	require.Len(t, result.Scores, postprocess.SentimentCount)
	var sum float32
	for _, s := range result.Scores {
		sum += s
	}
	assert.InDelta(t, 1, sum, 1e-5)
	assert.Equal(t, postprocess.Happiness, result.PredominantSentiment())
}

func TestEvaluateMultipleFaces(t *testing.T) {
	cls := &fakeClassifier{scores: happyLogits}
	det := &fakeDetector{faces: []images.Rect{
		{X1: 10, Y1: 10, X2: 30, Y2: 30},
		{X1: 60, Y1: 60, X2: 80, Y2: 80},
		{X1: 40, Y1: 0, X2: 50, Y2: 10},
	}}

	a := newTestAnalyzer(t, det, cls, 2)
	result, err := a.Evaluate(context.Background(), frame(100, 100))
	require.NoError(t, err)
	assert.Len(t, result.Boxes, 2)
	assert.Len(t, result.Scores, 2*postprocess.SentimentCount)
	assert.Equal(t, []postprocess.Sentiment{postprocess.Happiness, postprocess.Happiness}, result.PredominantSentiments())

	a = newTestAnalyzer(t, det, &fakeClassifier{scores: happyLogits}, 0)
	result, err = a.Evaluate(context.Background(), frame(100, 100))
	require.NoError(t, err)
	assert.Len(t, result.Boxes, 3)
}

func TestEvaluateErrors(t *testing.T) {
	ctx := context.Background()
	face := []images.Rect{{X1: 10, Y1: 10, X2: 30, Y2: 30}}

	a := newTestAnalyzer(t, &fakeDetector{}, &fakeClassifier{}, 0)
	_, err := a.Evaluate(ctx, nil)
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))
	_, err = a.Evaluate(ctx, image.NewRGBA(image.Rectangle{}))
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))

	boom := errors.New("boom")
	a = newTestAnalyzer(t, &fakeDetector{err: boom}, &fakeClassifier{}, 0)
	_, err = a.Evaluate(ctx, frame(10, 10))
	assert.True(t, errors.Is(err, boom))

	a = newTestAnalyzer(t, &fakeDetector{faces: face}, &fakeClassifier{err: boom}, 0)
	_, err = a.Evaluate(ctx, frame(100, 100))
	assert.True(t, errors.Is(err, boom))

	a = newTestAnalyzer(t, &fakeDetector{faces: face}, &fakeClassifier{scores: []float32{1, 2}}, 0)
	_, err = a.Evaluate(ctx, frame(100, 100))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	a = newTestAnalyzer(t, &fakeDetector{faces: face}, &fakeClassifier{scores: happyLogits}, 0)
	_, err = a.Evaluate(cancelled, frame(100, 100))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAnalyzerValidates(t *testing.T) {
	_, err := NewAnalyzer(nil, &fakeClassifier{}, AnalyzerOptions{})
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))
	_, err = NewAnalyzer(&fakeDetector{}, nil, AnalyzerOptions{})
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))
	_, err = NewAnalyzer(&fakeDetector{}, &fakeClassifier{}, AnalyzerOptions{MaxFaces: -1})
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))
}

func TestAnalyzerClose(t *testing.T) {
	det, cls := &fakeDetector{}, &fakeClassifier{}
	a := newTestAnalyzer(t, det, cls, 0)
	require.NoError(t, a.Close())
	assert.True(t, det.closed)
	assert.True(t, cls.closed)
}

func TestONNXClassifierFillsInput(t *testing.T) {
	session := &fakeSession{
		input:  make([]float32, ModelInputSize*ModelInputSize),
		output: []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
	}
	c := &ONNXClassifier{session: session}

	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = 200
	}

	scores, err := c.Classify(context.Background(), img, images.Rect{X1: 0, Y1: 0, X2: 20, Y2: 20})
	require.NoError(t, err)
	assert.Equal(t, session.output, scores)
	assert.InDelta(t, 200, session.input[0], 1)
	assert.InDelta(t, 200, session.input[len(session.input)-1], 1)

	scores[0] = 42
	assert.InDelta(t, 0.1, session.output[0], 1e-6)

	require.NoError(t, c.Close())
	assert.True(t, session.closed)
	_, err = c.Classify(context.Background(), img, images.Rect{X2: 20, Y2: 20})
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))
}

func TestONNXClassifierRejectsBadOutput(t *testing.T) {
	c := &ONNXClassifier{session: &fakeSession{
		input:  make([]float32, ModelInputSize*ModelInputSize),
		output: []float32{1},
	}}
	_, err := c.Classify(context.Background(), frame(10, 10), images.Rect{X2: 10, Y2: 10})
	assert.Error(t, err)

	c = &ONNXClassifier{session: &fakeSession{input: make([]float32, 4)}}
	_, err = c.Classify(context.Background(), frame(10, 10), images.Rect{X2: 10, Y2: 10})
	assert.Error(t, err)
}

func TestSuppressRanksByAreaAndDropsOverlaps(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(10, 10, 30, 30),
		image.Rect(8, 8, 32, 32),
		image.Rect(60, 60, 70, 70),
		image.Rect(5, 5, 5, 5),
	}

	got := suppress(rects, nil)
	assert.Equal(t, []images.Rect{
		{X1: 8, Y1: 8, X2: 32, Y2: 32},
		{X1: 60, Y1: 60, X2: 70, Y2: 70},
	}, got)

	assert.Empty(t, suppress(nil, nil))
}

func TestNewCascadeDetectorErrors(t *testing.T) {
	_, err := NewCascadeDetector(CascadeConfig{Path: "cascade.xml", ScaleFactor: 1})
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))

	_, err = NewCascadeDetector(CascadeConfig{Path: filepath.Join(t.TempDir(), "missing.xml"), ScaleFactor: 1.1})
	assert.Equal(t, common.KindIO, common.KindOf(err))
}

func TestBuilderWithFakes(t *testing.T) {
	det, cls := &fakeDetector{}, &fakeClassifier{scores: happyLogits}
	gpuIndex := 0
	gpu := providers.ExecutionDevice{
		Kind:                providers.DeviceGPU,
		Name:                "Integrated",
		HasPerformanceIndex: true,
		PerformanceIndex:    gpuIndex,
		Adapter:             &providers.Adapter{Index: 1, PerformanceIndex: &gpuIndex},
	}

	a, err := NewBuilder().
		WithLogger(logging.Discard()).
		WithDevice(gpu).
		WithDetector(det).
		WithClassifier(cls).
		WithMaxFaces(1).
		Build()
	require.NoError(t, err)
	assert.Equal(t, gpu, a.Device())

	result, err := a.Evaluate(context.Background(), frame(50, 50))
	require.NoError(t, err)
	assert.False(t, result.FaceFound())
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() *Builder
		kind    common.Kind
	}{
		{
			name:    "no detector",
			builder: func() *Builder { return NewBuilder().WithClassifier(&fakeClassifier{}) },
			kind:    common.KindInvalidArgument,
		},
		{
			name:    "no model",
			builder: func() *Builder { return NewBuilder().WithDetector(&fakeDetector{}) },
			kind:    common.KindInvalidArgument,
		},
		{
			name:    "empty model",
			builder: func() *Builder { return NewBuilder().WithModel(nil).WithDetector(&fakeDetector{}) },
			kind:    common.KindInvalidArgument,
		},
		{
			name: "unsupported device kind",
			builder: func() *Builder {
				return NewBuilder().WithDevice(providers.ExecutionDevice{Kind: providers.DeviceKind(9)})
			},
			kind: common.KindInvalidArgument,
		},
		{
			name: "unknown backend",
			builder: func() *Builder {
				return NewBuilder().WithDeviceBackend(providers.CPUDevice(), "tpu")
			},
			kind: common.KindInvalidArgument,
		},
		{
			name:    "negative max faces",
			builder: func() *Builder { return NewBuilder().WithMaxFaces(-1) },
			kind:    common.KindInvalidArgument,
		},
		{
			name:    "nil detector",
			builder: func() *Builder { return NewBuilder().WithDetector(nil) },
			kind:    common.KindInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.builder()
			_, err := b.Build()
			require.Error(t, err)
			assert.Equal(t, tt.kind, common.KindOf(err))
			assert.Panics(t, func() { b.MustBuild() })
		})
	}
}

func TestBuilderObfuscatedModel(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "model.onnx")
	obfuscated := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(plain, []byte("onnx bytes"), 0o644))

	key, err := obfuscation.ParseKey("3F2504E0-4F89-11D3-9A0C-0305E82C3301")
	require.NoError(t, err)
	require.NoError(t, obfuscation.ObfuscateFile(plain, obfuscated, key))

	b := NewBuilder().WithObfuscatedModel(obfuscated, key)
	require.False(t, b.HasError())
	assert.Equal(t, []byte("onnx bytes"), b.model)

	truncated := filepath.Join(dir, "truncated.bin")
	require.NoError(t, os.WriteFile(truncated, make([]byte, 17), 0o644))
	det := &fakeDetector{}
	_, err = NewBuilder().
		WithDetector(det).
		WithObfuscatedModel(truncated, key).
		Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrCrypto))
	assert.True(t, det.closed)

	_, err = NewBuilder().WithObfuscatedModel(filepath.Join(dir, "missing.bin"), key).Build()
	assert.Equal(t, common.KindIO, common.KindOf(err))
}
