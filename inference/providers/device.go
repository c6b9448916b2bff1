// Package providers - Execution devices and the onnxruntime execution providers that drive them.
package providers

import (
	"fmt"
	"strings"
)

// DeviceKind is the class of compute device a model can run on.
type DeviceKind int

const (
	// DeviceCPU is the host processor.
	DeviceCPU DeviceKind = iota
	// DeviceGPU is a graphics-capable hardware adapter.
	DeviceGPU
	// DeviceVPU is a compute-only hardware adapter (NPU, VPU).
	DeviceVPU
)

var deviceKindNames = map[DeviceKind]string{
	DeviceCPU: "cpu",
	DeviceGPU: "gpu",
	DeviceVPU: "vpu",
}

// String returns the lower-case kind name.
func (k DeviceKind) String() string {
	if name, ok := deviceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DeviceKind(%d)", int(k))
}

// ParseDeviceKind parses "cpu", "gpu" or "vpu", ignoring case.
func ParseDeviceKind(s string) (DeviceKind, bool) {
	for k, name := range deviceKindNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return k, true
		}
	}
	return DeviceCPU, false
}

// FeatureLevel is a Direct3D feature level, encoded the way D3D_FEATURE_LEVEL is.
type FeatureLevel uint32

const (
	// FeatureLevel1_0Core is the compute-only core level.
	FeatureLevel1_0Core FeatureLevel = 0x1000
	// FeatureLevel11_0 is the minimum graphics level for GPU inference.
	FeatureLevel11_0 FeatureLevel = 0xb000
	// FeatureLevel12_0 is the first D3D12 graphics level.
	FeatureLevel12_0 FeatureLevel = 0xc000
)

// String formats the level as major_minor.
func (f FeatureLevel) String() string {
	if f == FeatureLevel1_0Core {
		return "1_0_CORE"
	}
	return fmt.Sprintf("%d_%d", f>>12, (f>>8)&0xf)
}

// Adapter is the raw record of one display or compute adapter.
//
// Adapters that report a performance index come from a DXGI-style
// enumeration; the rest come from a DXCore-style enumeration.
type Adapter struct {
	// Position in the platform enumeration.
	Index int `json:"index" yaml:"index"`
	// Driver description.
	Name string `json:"name" yaml:"name"`
	// PCI vendor ID.
	VendorID uint32 `json:"vendor_id" yaml:"vendor_id"`
	// PCI device ID.
	DeviceID uint32 `json:"device_id" yaml:"device_id"`
	// False for software rasterizers.
	Hardware bool `json:"hardware" yaml:"hardware"`
	// True when the adapter supports graphics, not only compute.
	Graphics bool `json:"graphics" yaml:"graphics"`
	// Highest supported feature level.
	FeatureLevel FeatureLevel `json:"feature_level" yaml:"feature_level"`
	// D3D12 device creation succeeds on this adapter.
	D3D12 bool `json:"d3d12" yaml:"d3d12"`
	// Locally unique identifier.
	LUID uint64 `json:"luid" yaml:"luid"`
	// Dedicated video memory in bytes.
	DedicatedMemory uint64 `json:"dedicated_memory" yaml:"dedicated_memory"`
	// Rank in high-performance order, lower is faster. Nil when unknown.
	PerformanceIndex *int `json:"performance_index,omitempty" yaml:"performance_index,omitempty"`
}

// ExecutionDevice is one candidate returned by EnumerateComputeDevices.
type ExecutionDevice struct {
	Kind                DeviceKind
	Name                string
	PerformanceIndex    int
	HasPerformanceIndex bool
	// The adapter behind a GPU or VPU device. Nil for the CPU.
	Adapter *Adapter
}

// CPUDevice returns the host processor device.
func CPUDevice() ExecutionDevice {
	return ExecutionDevice{Kind: DeviceCPU, Name: "CPU"}
}

// String formats the device for display.
func (d ExecutionDevice) String() string {
	if d.HasPerformanceIndex {
		return fmt.Sprintf("%s %q (performance index %d)", d.Kind, d.Name, d.PerformanceIndex)
	}
	return fmt.Sprintf("%s %q", d.Kind, d.Name)
}
