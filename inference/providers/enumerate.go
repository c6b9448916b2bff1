package providers

import (
	"context"
	"log/slog"

	"github.com/nvr-ai/go-skills/common"
)

const (
	basicRenderVendorID uint32 = 0x1414
	basicRenderDeviceID uint32 = 0x8c
)

// AdapterEnumerator lists the adapters present on the host.
type AdapterEnumerator interface {
	Adapters(ctx context.Context) ([]Adapter, error)
}

// StaticAdapters is an AdapterEnumerator over a fixed list, typically the
// adapters declared in configuration.
type StaticAdapters []Adapter

// Adapters returns a copy of the list.
func (s StaticAdapters) Adapters(ctx context.Context) ([]Adapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Adapter, len(s))
	copy(out, s)
	return out, nil
}

// EnumerateComputeDevices lists the devices a model can be bound to.
//
// The CPU always comes first. Every hardware adapter follows in enumeration
// order, except the Microsoft Basic Render Driver. Adapters with a
// performance index must reach feature level 11_0 and support D3D12; others
// must reach 1_0_CORE. Graphics-capable adapters become GPU devices and
// compute-only ones VPU devices.
//
// Arguments:
//   - ctx: Cancels the enumeration.
//   - enum: The adapter source. Nil lists the CPU only.
//
// Returns:
//   - []ExecutionDevice: The candidates, CPU first.
//   - error: If the enumerator fails.
func EnumerateComputeDevices(ctx context.Context, enum AdapterEnumerator) ([]ExecutionDevice, error) {
	devices := []ExecutionDevice{CPUDevice()}
	if enum == nil {
		return devices, nil
	}

	adapters, err := enum.Adapters(ctx)
	if err != nil {
		return nil, common.E(common.KindIO, "providers.EnumerateComputeDevices", err)
	}

	for i := range adapters {
		a := adapters[i]
		if !a.Hardware || (a.VendorID == basicRenderVendorID && a.DeviceID == basicRenderDeviceID) {
			slog.Debug("skipping adapter", "index", a.Index, "name", a.Name, "hardware", a.Hardware)
			continue
		}

		minLevel := FeatureLevel1_0Core
		if a.PerformanceIndex != nil {
			minLevel = FeatureLevel11_0
			if !a.D3D12 {
				continue
			}
		}
		if a.FeatureLevel < minLevel {
			slog.Debug("adapter below feature level", "name", a.Name, "level", a.FeatureLevel, "required", minLevel)
			continue
		}

		dev := ExecutionDevice{Kind: DeviceVPU, Name: a.Name, Adapter: &a}
		if a.Graphics {
			dev.Kind = DeviceGPU
		}
		if a.PerformanceIndex != nil {
			dev.PerformanceIndex = *a.PerformanceIndex
			dev.HasPerformanceIndex = true
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// SelectBestDevice picks the device to run on.
//
// The first device (the CPU) is the default. A GPU or VPU with a
// performance index replaces the pick when its index is lower than every
// index seen so far. The first GPU or VPU without an index is taken as-is
// and ends the scan.
//
// Returns:
//   - ExecutionDevice: The selected device.
//   - error: InvalidArgument if devices is empty.
func SelectBestDevice(devices []ExecutionDevice) (ExecutionDevice, error) {
	if len(devices) == 0 {
		return ExecutionDevice{}, common.Errorf(common.KindInvalidArgument, "providers.SelectBestDevice", "no execution devices")
	}

	best := devices[0]
	bestIndex := int(^uint(0) >> 1)
	for _, d := range devices {
		if d.Kind == DeviceCPU {
			continue
		}
		if !d.HasPerformanceIndex {
			return d, nil
		}
		if d.PerformanceIndex < bestIndex {
			best = d
			bestIndex = d.PerformanceIndex
		}
	}
	return best, nil
}

// FindDevice returns the first device of the given kind.
func FindDevice(devices []ExecutionDevice, kind DeviceKind) (ExecutionDevice, error) {
	for _, d := range devices {
		if d.Kind == kind {
			return d, nil
		}
	}
	return ExecutionDevice{}, common.Errorf(common.KindInvalidArgument, "providers.FindDevice", "no %s device available", kind)
}
