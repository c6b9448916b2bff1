package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// DirectMLProviderBackend uses DirectML on Direct3D 12 adapters.
	DirectMLProviderBackend ProviderBackend = "directml"
)

// DirectMLOptions contains arguments for the DirectML provider.
// See: https://onnxruntime.ai/docs/execution-providers/DirectML-ExecutionProvider.html
type DirectMLOptions struct {
	// The adapter index in DXGI enumeration order.
	DeviceID int `json:"deviceID" yaml:"deviceID"`
}

func (DirectMLOptions) isProviderOptions() {}

// DirectMLProvider implements the ExecutionProvider interface.
type DirectMLProvider struct {
	options DirectMLOptions
}

// NewDirectMLProvider creates a new DirectML provider.
func NewDirectMLProvider(options DirectMLOptions) *DirectMLProvider {
	return &DirectMLProvider{options: options}
}

// Backend returns the backend of the DirectML provider.
func (p *DirectMLProvider) Backend() ProviderBackend {
	return DirectMLProviderBackend
}

// Options returns the options of the DirectML provider.
func (p *DirectMLProvider) Options() ProviderOptions {
	return p.options
}

// Apply appends DirectML to the session options.
func (p *DirectMLProvider) Apply(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderDirectML(p.options.DeviceID); err != nil {
		return errors.Wrap(err, "error enabling DirectML")
	}
	return nil
}
