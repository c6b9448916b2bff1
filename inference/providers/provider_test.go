package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-skills/common"
)

// TestNewProviderForDevice verifies the device kind to execution provider mapping.
func TestNewProviderForDevice(t *testing.T) {
	gpu := ExecutionDevice{Kind: DeviceGPU, Adapter: &Adapter{Index: 2}}
	vpu := ExecutionDevice{Kind: DeviceVPU, Adapter: &Adapter{Index: 5}}

	tests := []struct {
		name    string
		dev     ExecutionDevice
		goos    string
		backend ProviderBackend
		options ProviderOptions
	}{
		{name: "cpu", dev: CPUDevice(), goos: "linux", backend: CPUProviderBackend, options: CPUOptions{}},
		{name: "gpu windows", dev: gpu, goos: "windows", backend: DirectMLProviderBackend, options: DirectMLOptions{DeviceID: 2}},
		{name: "gpu linux", dev: gpu, goos: "linux", backend: CUDAProviderBackend, options: CUDAOptions{DeviceID: 2, DoCopyInDefaultStream: true}},
		{name: "vpu", dev: vpu, goos: "linux", backend: OpenVINOProviderBackend, options: OpenVINOOptions{DeviceType: "NPU", Precision: "FP16"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProviderForDevice(tt.dev, tt.goos)
			require.NoError(t, err)
			assert.Equal(t, tt.backend, p.Backend())
			assert.Equal(t, tt.options, p.Options())
		})
	}

	_, err := NewProviderForDevice(ExecutionDevice{Kind: DeviceKind(9)}, "linux")
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))
}

func TestNewProviderForBackend(t *testing.T) {
	p, err := NewProviderForBackend(CoreMLProviderBackend, CPUDevice(), "darwin")
	require.NoError(t, err)
	assert.Equal(t, CoreMLProviderBackend, p.Backend())

	p, err = NewProviderForBackend("", CPUDevice(), "darwin")
	require.NoError(t, err)
	assert.Equal(t, CPUProviderBackend, p.Backend())

	_, err = NewProviderForBackend("tensorrt", CPUDevice(), "linux")
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(OpenVINOOptions{DeviceType: "GPU"})
	require.NoError(t, err)
	assert.Equal(t, OpenVINOProviderBackend, p.Backend())

	_, err = NewProvider(nil)
	assert.Error(t, err)

	// The CPU provider needs nothing from the session options.
	cpu, err := NewProvider(CPUOptions{})
	require.NoError(t, err)
	assert.NoError(t, cpu.Apply(nil))
}

func TestProviderOptionMaps(t *testing.T) {
	assert.Equal(t, map[string]string{
		"device_id":                 "1",
		"do_copy_in_default_stream": "1",
		"gpu_mem_limit":             "2147483648",
	}, CUDAOptions{DeviceID: 1, DoCopyInDefaultStream: true, GPUMemLimit: 2147483648}.ProviderOptionsMap())

	assert.Equal(t, map[string]string{
		"device_type":            "NPU",
		"precision":              "FP16",
		"disable_dynamic_shapes": "false",
	}, OpenVINOOptions{DeviceType: "NPU", Precision: "FP16"}.ProviderOptionsMap())

	assert.Equal(t, uint32(0x011), CoreMLOptions{CPUOnly: true, MLProgram: true}.Flags())
}

func TestSharedLibPath(t *testing.T) {
	p, err := sharedLibPath("linux", "arm64")
	require.NoError(t, err)
	assert.Contains(t, p, "onnxruntime_arm64.so")

	_, err = sharedLibPath("plan9", "386")
	assert.Error(t, err)

	t.Setenv(LibraryPathEnv, "/opt/ort/libonnxruntime.so")
	p, err = GetSharedLibPath()
	require.NoError(t, err)
	assert.Equal(t, "/opt/ort/libonnxruntime.so", p)
}

func TestNewSessionRejectsEmptyModel(t *testing.T) {
	_, err := NewSession(nil, NewSessionArgs{})
	assert.Equal(t, common.KindInvalidArgument, common.KindOf(err))
}
