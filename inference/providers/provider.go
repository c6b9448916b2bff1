// Package providers - Provider interface for execution providers.
package providers

import (
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-skills/common"
)

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ProviderBackend represents different ONNX Runtime execution providers
type ProviderBackend string

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	// Backend names the onnxruntime execution provider.
	Backend() ProviderBackend
	// Options returns the provider-specific options.
	Options() ProviderOptions
	// Apply appends the provider to the session options.
	Apply(options *ort.SessionOptions) error
}

// NewProvider creates a new provider based on the options type.
//
// Arguments:
//   - options: The options for the provider.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: InvalidArgument for an unknown options type.
func NewProvider(options ProviderOptions) (ExecutionProvider, error) {
	switch opts := options.(type) {
	case CPUOptions:
		return NewCPUProvider(opts), nil
	case CoreMLOptions:
		return NewCoreMLProvider(opts), nil
	case OpenVINOOptions:
		return NewOpenVINOProvider(opts), nil
	case CUDAOptions:
		return NewCUDAProvider(opts), nil
	case DirectMLOptions:
		return NewDirectMLProvider(opts), nil
	default:
		return nil, common.Errorf(common.KindInvalidArgument, "providers.NewProvider",
			"unsupported provider options type: %T", opts)
	}
}

// NewProviderForDevice maps an execution device to the execution provider that
// drives it on the given operating system.
//
// CPU devices use the default CPU provider. GPUs use DirectML on windows and
// CUDA elsewhere. VPUs use OpenVINO's NPU device.
//
// Arguments:
//   - dev: The selected device.
//   - goos: The target operating system, normally runtime.GOOS.
//
// Returns:
//   - ExecutionProvider: The provider.
//   - error: InvalidArgument for an unknown device kind.
func NewProviderForDevice(dev ExecutionDevice, goos string) (ExecutionProvider, error) {
	ordinal := 0
	if dev.Adapter != nil {
		ordinal = dev.Adapter.Index
	}

	switch dev.Kind {
	case DeviceCPU:
		return NewCPUProvider(CPUOptions{}), nil
	case DeviceGPU:
		if goos == "windows" {
			return NewDirectMLProvider(DirectMLOptions{DeviceID: ordinal}), nil
		}
		return NewCUDAProvider(CUDAOptions{DeviceID: ordinal, DoCopyInDefaultStream: true}), nil
	case DeviceVPU:
		return NewOpenVINOProvider(OpenVINOOptions{DeviceType: "NPU", Precision: "FP16"}), nil
	default:
		return nil, common.Errorf(common.KindInvalidArgument, "providers.NewProviderForDevice",
			"unsupported device kind %s", dev.Kind)
	}
}

// NewProviderForBackend builds a provider by backend name, as written in
// configuration. An empty backend defers to NewProviderForDevice.
func NewProviderForBackend(backend ProviderBackend, dev ExecutionDevice, goos string) (ExecutionProvider, error) {
	switch backend {
	case "":
		return NewProviderForDevice(dev, goos)
	case CPUProviderBackend:
		return NewCPUProvider(CPUOptions{}), nil
	case CoreMLProviderBackend:
		return NewCoreMLProvider(CoreMLOptions{}), nil
	case CUDAProviderBackend:
		return NewCUDAProvider(CUDAOptions{DoCopyInDefaultStream: true}), nil
	case DirectMLProviderBackend:
		return NewDirectMLProvider(DirectMLOptions{}), nil
	case OpenVINOProviderBackend:
		return NewOpenVINOProvider(OpenVINOOptions{DeviceType: "CPU"}), nil
	default:
		return nil, common.Errorf(common.KindInvalidArgument, "providers.NewProviderForBackend",
			"unknown execution provider %q", backend)
	}
}
