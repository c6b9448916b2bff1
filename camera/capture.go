package camera

import (
	"context"
	"image"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/logging"
)

// CodeHardwareStartStreamingFailed is MF_E_HW_MFT_FAILED_START_STREAMING,
// reported when another process already holds the camera.
const CodeHardwareStartStreamingFailed uint32 = 0xC00D3704

// SharingMode is how a capture device is opened.
type SharingMode int

const (
	// Exclusive allows reconfiguring the source format.
	Exclusive SharingMode = iota
	// Shared reads frames in whatever format the owner set.
	Shared
)

// String returns the mode name.
func (m SharingMode) String() string {
	if m == Shared {
		return "SharedReadOnly"
	}
	return "ExclusiveControl"
}

// Device is a capture device backend.
//
// Initialize may be called again after Close. Errors that carry a platform
// status code should be built with common.WithCode.
type Device interface {
	Initialize(ctx context.Context, mode SharingMode) error
	Sources() ([]FrameSourceInfo, error)
	SupportedFormats(sourceID string) ([]Format, error)
	CurrentFormat(sourceID string) (Format, error)
	SetFormat(sourceID string, format Format) error
	StartReader(ctx context.Context, sourceID string) (FrameReader, error)
	Close() error
}

// FrameReader yields frames from a started source.
type FrameReader interface {
	ReadFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// OpenOptions configures Open.
type OpenOptions struct {
	// Mode is the first sharing mode tried. The zero value is Exclusive.
	Mode SharingMode
	// Logger receives progress messages. Nil uses logging.L.
	Logger *slog.Logger
}

// Camera is an opened and started capture device.
type Camera struct {
	Source FrameSourceInfo
	Format Format
	Mode   SharingMode

	dev    Device
	reader FrameReader
}

// ReadFrame returns the next frame.
func (c *Camera) ReadFrame(ctx context.Context) (image.Image, error) {
	return c.reader.ReadFrame(ctx)
}

// Close stops the reader and releases the device.
func (c *Camera) Close() error {
	rerr := c.reader.Close()
	derr := c.dev.Close()
	if rerr != nil {
		return rerr
	}
	return derr
}

// Open initializes dev, picks a source and a format, and starts reading.
//
// When an exclusive open fails with CodeHardwareStartStreamingFailed the
// camera is in use elsewhere: the device is closed and opened once more in
// shared mode. Every other failure is returned as-is.
//
// Arguments:
//   - ctx: Cancels initialization.
//   - dev: The capture backend.
//   - opts: Open options.
//
// Returns:
//   - *Camera: The started camera.
//   - error: NoSourceFound, NoCompatibleFormat or the backend error.
func Open(ctx context.Context, dev Device, opts OpenOptions) (*Camera, error) {
	logger := logging.Or(opts.Logger)

	mode := opts.Mode
	var cam *Camera
	op := func() error {
		c, err := open(ctx, dev, mode, logger)
		if err == nil {
			cam = c
			return nil
		}
		if mode == Exclusive && common.CodeOf(err) == CodeHardwareStartStreamingFailed {
			logger.Warn("camera busy, retrying in shared mode", "error", err)
			mode = Shared
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return cam, nil
}

func open(ctx context.Context, dev Device, mode SharingMode, logger *slog.Logger) (_ *Camera, err error) {
	if err := dev.Initialize(ctx, mode); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			dev.Close()
		}
	}()

	all, err := dev.Sources()
	if err != nil {
		return nil, errors.Wrap(err, "list frame sources")
	}
	sources, err := EnumerateFrameSources(all)
	if err != nil {
		return nil, err
	}
	source := sources[0]
	logger.Info("frame source selected", "device", source.DeviceName, "stream", source.Stream.String(), "mode", mode.String())

	current, err := dev.CurrentFormat(source.ID)
	if err != nil {
		return nil, errors.Wrap(err, "read current format")
	}

	format := current
	if mode == Exclusive {
		supported, err := dev.SupportedFormats(source.ID)
		if err != nil {
			return nil, errors.Wrap(err, "list supported formats")
		}
		chosen, err := SelectFormat(supported, true, current)
		if err != nil {
			return nil, err
		}
		logger.Info("setting camera format", "format", chosen.String())
		if err := dev.SetFormat(source.ID, chosen); err != nil {
			return nil, errors.Wrap(err, "set format")
		}
		if format, err = dev.CurrentFormat(source.ID); err != nil {
			return nil, errors.Wrap(err, "read current format")
		}
	}
	logger.Info("frame source format", "format", format.String())

	reader, err := dev.StartReader(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	return &Camera{Source: source, Format: format, Mode: mode, dev: dev, reader: reader}, nil
}
