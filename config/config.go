// Package config loads the face sentiment skill configuration from YAML.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-skills/camera"
	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/inference/providers"
	"github.com/nvr-ai/go-skills/models/postprocess"
	"github.com/nvr-ai/go-skills/obfuscation"
)

// Config is the top-level skill configuration.
type Config struct {
	Skill    SkillConfig         `json:"skill"    yaml:"skill"`
	Runtime  RuntimeConfig       `json:"runtime"  yaml:"runtime"`
	Adapters []providers.Adapter `json:"adapters" yaml:"adapters"`
	Camera   CameraConfig        `json:"camera"   yaml:"camera"`
	Detector DetectorConfig      `json:"detector" yaml:"detector"`
	Log      LogConfig           `json:"log"      yaml:"log"`
}

// SkillConfig identifies the skill and its model files.
type SkillConfig struct {
	// GUID the model was obfuscated with, without braces.
	ID string `json:"id" yaml:"id"`
	// Obfuscated FER+ model.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// Haar cascade XML used for face detection.
	CascadePath string `json:"cascade_path" yaml:"cascade_path"`
}

// RuntimeConfig selects the onnxruntime library and the execution device.
type RuntimeConfig struct {
	// Shared library path. Empty means ONNXRUNTIME_SHARED_LIBRARY_PATH or the platform default.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// "cpu", "gpu", "vpu" or empty for the best available device.
	Device string `json:"device" yaml:"device"`
	// Overrides the provider picked for the device, e.g. "coreml". Optional.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Intra-op threads. Zero leaves the runtime default.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
}

// CameraConfig configures live capture.
type CameraConfig struct {
	DeviceID  int  `json:"device_id" yaml:"device_id"`
	Exclusive bool `json:"exclusive" yaml:"exclusive"`
	// Formats advertised by the device. Empty probes the current format only.
	Formats []camera.Format `json:"formats,omitempty" yaml:"formats,omitempty"`
}

// DetectorConfig tunes the cascade face detector.
type DetectorConfig struct {
	ScaleFactor  float64               `json:"scale_factor"  yaml:"scale_factor"`
	MinNeighbors int                   `json:"min_neighbors" yaml:"min_neighbors"`
	MinFaceSize  int                   `json:"min_face_size" yaml:"min_face_size"`
	MaxFaces     int                   `json:"max_faces"     yaml:"max_faces"`
	NMS          postprocess.NMSConfig `json:"nms"           yaml:"nms"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `json:"level"  yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a Config with the values the skill ships with.
func DefaultConfig() Config {
	return Config{
		Skill: SkillConfig{
			ModelPath:   "models/emotion-ferplus.bin",
			CascadePath: "models/haarcascade_frontalface_default.xml",
		},
		Camera: CameraConfig{Exclusive: true},
		Detector: DetectorConfig{
			ScaleFactor:  1.1,
			MinNeighbors: 5,
			MinFaceSize:  32,
			MaxFaces:     1,
			NMS:          *postprocess.DefaultNMSConfig(),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path and overlays it on DefaultConfig.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The validated configuration.
//   - error: An IOError if the file cannot be read, an InvalidArgument error
//     if it does not parse or validate.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, common.E(common.KindIO, "config.Load", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over DefaultConfig and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, common.E(common.KindInvalidArgument, "config.Parse", errors.Wrap(err, "decode yaml"))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	const op = "config.Validate"

	if c.Skill.ID != "" {
		if _, err := obfuscation.ParseKey(c.Skill.ID); err != nil {
			return common.E(common.KindInvalidArgument, op, errors.Wrap(err, "skill.id"))
		}
	}
	if c.Runtime.Device != "" {
		if _, ok := providers.ParseDeviceKind(c.Runtime.Device); !ok {
			return common.Errorf(common.KindInvalidArgument, op, "runtime.device %q must be cpu, gpu or vpu", c.Runtime.Device)
		}
	}
	if c.Runtime.IntraOpThreads < 0 {
		return common.Errorf(common.KindInvalidArgument, op, "runtime.intra_op_threads must not be negative, got %d", c.Runtime.IntraOpThreads)
	}
	if c.Camera.DeviceID < 0 {
		return common.Errorf(common.KindInvalidArgument, op, "camera.device_id must not be negative, got %d", c.Camera.DeviceID)
	}
	if c.Detector.ScaleFactor <= 1 {
		return common.Errorf(common.KindInvalidArgument, op, "detector.scale_factor must be greater than 1, got %v", c.Detector.ScaleFactor)
	}
	if c.Detector.MinNeighbors < 0 {
		return common.Errorf(common.KindInvalidArgument, op, "detector.min_neighbors must not be negative, got %d", c.Detector.MinNeighbors)
	}
	if c.Detector.MaxFaces < 0 {
		return common.Errorf(common.KindInvalidArgument, op, "detector.max_faces must not be negative, got %d", c.Detector.MaxFaces)
	}
	if iou := c.Detector.NMS.IoUThreshold; iou <= 0 || iou > 1 {
		return common.Errorf(common.KindInvalidArgument, op, "detector.nms.iou_threshold must be in (0, 1], got %v", iou)
	}
	return nil
}

// Key derives the obfuscation key from Skill.ID.
func (c *Config) Key() (obfuscation.Key, error) {
	return obfuscation.ParseKey(c.Skill.ID)
}
