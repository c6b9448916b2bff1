// Package providers - Inference sessions.
package providers

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-skills/common"
)

var (
	envOnce sync.Once
	envErr  error
)

// InitializeEnvironment loads the onnxruntime shared library once per process.
//
// Arguments:
//   - libPath: The shared library path. Empty uses GetSharedLibPath.
//
// Returns:
//   - error: IOError if the library is missing, or the onnxruntime error.
func InitializeEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath == "" {
			libPath, envErr = GetSharedLibPath()
			if envErr != nil {
				return
			}
		}
		if _, err := os.Stat(libPath); err != nil {
			envErr = common.E(common.KindIO, "providers.InitializeEnvironment",
				errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath))
			return
		}

		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = errors.Wrap(err, "error initializing ORT environment")
		}
	})
	return envErr
}

// TensorSpec names one model input or output and its shape.
type TensorSpec struct {
	Name  string
	Shape []int64
}

// NewSessionArgs represents the arguments for creating a new session.
type NewSessionArgs struct {
	// The decrypted ONNX model bytes.
	ModelData []byte
	// The single float input of the model.
	Input TensorSpec
	// The single float output of the model.
	Output TensorSpec
	// Graph optimization and threading. Nil uses DefaultOptimizationConfig.
	Optimization *OptimizationConfig
}

// OptimizationConfig contains the onnxruntime session tuning knobs.
type OptimizationConfig struct {
	// GraphOptimizationLevel controls the level of graph optimization
	GraphOptimizationLevel ort.GraphOptimizationLevel `json:"graph_optimization_level" yaml:"graph_optimization_level"`
	// IntraOpNumThreads sets threads for parallelizing ops. Zero lets onnxruntime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads" yaml:"intra_op_num_threads"`
	// InterOpNumThreads sets threads for parallelizing independent ops. Zero lets onnxruntime decide.
	InterOpNumThreads int `json:"inter_op_num_threads" yaml:"inter_op_num_threads"`
}

// DefaultOptimizationConfig returns extended graph optimization with default threading.
func DefaultOptimizationConfig() *OptimizationConfig {
	return &OptimizationConfig{GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended}
}

// Session represents a model session from the onnxruntime with bound tensors.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewSession creates an onnxruntime session from in-memory model bytes.
//
// The environment must already be initialized with InitializeEnvironment.
// Input and output tensors are allocated once and reused by every Run.
//
// Arguments:
//   - provider: The execution provider appended to the session.
//   - args: The model and its tensor layout.
//
// Returns:
//   - *Session: The session. Close releases it.
//   - error: InvalidArgument for a missing model, otherwise the onnxruntime error.
func NewSession(provider ExecutionProvider, args NewSessionArgs) (*Session, error) {
	if len(args.ModelData) == 0 {
		return nil, common.Errorf(common.KindInvalidArgument, "providers.NewSession", "model data is empty")
	}
	if provider == nil {
		provider = NewCPUProvider(CPUOptions{})
	}
	opt := args.Optimization
	if opt == nil {
		opt = DefaultOptimizationConfig()
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.Input.Shape...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.Output.Shape...))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	if err := configure(options, opt, provider); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}

	session, err := ort.NewAdvancedSessionWithONNXData(
		args.ModelData,
		[]string{args.Input.Name},
		[]string{args.Output.Name},
		[]ort.Value{input},
		[]ort.Value{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	return &Session{session: session, input: input, output: output}, nil
}

func configure(options *ort.SessionOptions, opt *OptimizationConfig, provider ExecutionProvider) error {
	if err := options.SetGraphOptimizationLevel(opt.GraphOptimizationLevel); err != nil {
		return errors.Wrap(err, "error setting graph optimization level")
	}
	if err := options.SetIntraOpNumThreads(opt.IntraOpNumThreads); err != nil {
		return errors.Wrap(err, "error setting intra-op threads")
	}
	if err := options.SetInterOpNumThreads(opt.InterOpNumThreads); err != nil {
		return errors.Wrap(err, "error setting inter-op threads")
	}
	return provider.Apply(options)
}

// Input returns the input buffer. Write into it before Run.
func (s *Session) Input() []float32 {
	return s.input.GetData()
}

// Run executes the model and returns the output buffer. The buffer is reused
// by the next Run.
func (s *Session) Run() ([]float32, error) {
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "error running ORT session")
	}
	return s.output.GetData(), nil
}

// Close releases the session and its tensors.
func (s *Session) Close() error {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}
	return nil
}
