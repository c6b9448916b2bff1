package sentiment

import (
	"log/slog"
	"runtime"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/inference/providers"
	"github.com/nvr-ai/go-skills/logging"
	"github.com/nvr-ai/go-skills/obfuscation"
)

// Builder assembles an Analyzer with a fluent API.
//
// The first failing step is remembered and every later step is skipped, so
// errors surface once from Build.
type Builder struct {
	logger       *slog.Logger
	goos         string
	libraryPath  string
	device       providers.ExecutionDevice
	provider     providers.ExecutionProvider
	optimization *providers.OptimizationConfig
	model        []byte
	detector     FaceDetector
	classifier   Classifier
	maxFaces     int
	err          error
}

// NewBuilder creates a builder targeting the CPU.
//
// Returns:
//   - *Builder: The builder.
func NewBuilder() *Builder {
	return &Builder{
		goos:   runtime.GOOS,
		device: providers.CPUDevice(),
	}
}

// WithLogger sets the logger handed to the analyzer.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRuntime sets the onnxruntime shared library path. Empty uses the
// environment or platform default.
func (b *Builder) WithRuntime(libraryPath string) *Builder {
	b.libraryPath = libraryPath
	return b
}

// WithDevice selects the execution device and the provider that drives it.
//
// Arguments:
//   - dev: A device returned by providers.EnumerateComputeDevices.
//
// Returns:
//   - *Builder: The builder.
func (b *Builder) WithDevice(dev providers.ExecutionDevice) *Builder {
	return b.WithDeviceBackend(dev, "")
}

// WithDeviceBackend is WithDevice with an explicit provider backend, as named
// in configuration. An empty backend picks the provider for the device.
func (b *Builder) WithDeviceBackend(dev providers.ExecutionDevice, backend providers.ProviderBackend) *Builder {
	if b.HasError() {
		return b
	}

	provider, err := providers.NewProviderForBackend(backend, dev, b.goos)
	if err != nil {
		b.err = err
		return b
	}
	b.device = dev
	b.provider = provider
	return b
}

// WithOptimization sets the session tuning.
func (b *Builder) WithOptimization(opt *providers.OptimizationConfig) *Builder {
	b.optimization = opt
	return b
}

// WithModel sets the plain ONNX model bytes.
func (b *Builder) WithModel(model []byte) *Builder {
	if b.HasError() {
		return b
	}
	if len(model) == 0 {
		b.err = common.Errorf(common.KindInvalidArgument, "sentiment.WithModel", "model is empty")
		return b
	}
	b.model = model
	return b
}

// WithObfuscatedModel decrypts the model at path with key.
//
// Arguments:
//   - path: The obfuscated model file.
//   - key: The combined key the file was obfuscated with.
//
// Returns:
//   - *Builder: The builder.
func (b *Builder) WithObfuscatedModel(path string, key obfuscation.Key) *Builder {
	if b.HasError() {
		return b
	}

	model, err := obfuscation.DeobfuscateFile(path, key)
	if err != nil {
		b.err = errors.Wrapf(err, "load model %s", path)
		return b
	}
	return b.WithModel(model)
}

// WithDetector sets the face detector.
func (b *Builder) WithDetector(detector FaceDetector) *Builder {
	if b.HasError() {
		return b
	}
	if detector == nil {
		b.err = common.Errorf(common.KindInvalidArgument, "sentiment.WithDetector", "face detector is nil")
		return b
	}
	b.detector = detector
	return b
}

// WithCascade loads a Haar cascade face detector.
func (b *Builder) WithCascade(cfg CascadeConfig) *Builder {
	if b.HasError() {
		return b
	}

	detector, err := NewCascadeDetector(cfg)
	if err != nil {
		b.err = err
		return b
	}
	b.detector = detector
	return b
}

// WithClassifier sets the classifier, replacing the ONNX one built from the model.
func (b *Builder) WithClassifier(classifier Classifier) *Builder {
	if b.HasError() {
		return b
	}
	if classifier == nil {
		b.err = common.Errorf(common.KindInvalidArgument, "sentiment.WithClassifier", "classifier is nil")
		return b
	}
	b.classifier = classifier
	return b
}

// WithMaxFaces limits the faces classified per frame. Zero means all.
func (b *Builder) WithMaxFaces(n int) *Builder {
	if b.HasError() {
		return b
	}
	if n < 0 {
		b.err = common.Errorf(common.KindInvalidArgument, "sentiment.WithMaxFaces", "max faces must not be negative, got %d", n)
		return b
	}
	b.maxFaces = n
	return b
}

// HasError checks if the builder has errors.
//
// Returns:
//   - bool: True if a step failed.
func (b *Builder) HasError() bool {
	return b.err != nil
}

// MustBuild builds the analyzer and panics if there is an error.
func (b *Builder) MustBuild() *Analyzer {
	a, err := b.Build()
	if err != nil {
		panic(err)
	}
	return a
}

// Build builds the analyzer.
//
// Without an explicit classifier the onnxruntime environment is initialized
// and a session is created from the model on the selected provider.
//
// Returns:
//   - *Analyzer: The analyzer.
//   - error: The first step error, or InvalidArgument for a missing part.
func (b *Builder) Build() (*Analyzer, error) {
	const op = "sentiment.Build"

	if b.HasError() {
		b.release()
		return nil, b.err
	}
	if b.detector == nil {
		b.release()
		return nil, common.Errorf(common.KindInvalidArgument, op, "face detector not configured")
	}

	classifier := b.classifier
	if classifier == nil {
		if b.model == nil {
			b.release()
			return nil, common.Errorf(common.KindInvalidArgument, op, "model not configured")
		}
		if err := providers.InitializeEnvironment(b.libraryPath); err != nil {
			b.release()
			return nil, err
		}
		onnx, err := NewONNXClassifier(b.provider, b.model, b.optimization)
		if err != nil {
			b.release()
			return nil, errors.Wrapf(err, "create session on %s", b.device)
		}
		classifier = onnx
	}

	logger := logging.Or(b.logger)
	analyzer, err := NewAnalyzer(b.detector, classifier, AnalyzerOptions{
		Device:   b.device,
		MaxFaces: b.maxFaces,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("face sentiment analyzer ready", "device", b.device.String(), "provider", backendName(b.provider))
	return analyzer, nil
}

// release closes a detector the builder owns when Build fails.
func (b *Builder) release() {
	if b.detector != nil {
		_ = b.detector.Close()
		b.detector = nil
	}
}

func backendName(p providers.ExecutionProvider) providers.ProviderBackend {
	if p == nil {
		return providers.CPUProviderBackend
	}
	return p.Backend()
}
