package camera

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-skills/logging"
)

// Run reads frames until ctx is done or the reader fails, handing each frame
// to evaluate through the gate. Frames that arrive while an evaluation is
// running are dropped.
//
// Arguments:
//   - ctx: Stops the loop.
//   - cam: The started camera.
//   - gate: The evaluation gate.
//   - evaluate: Called with each admitted frame on its own goroutine.
//
// Returns:
//   - error: nil when ctx ends the loop, otherwise the read error.
func Run(ctx context.Context, cam *Camera, gate *Gate, evaluate func(context.Context, image.Image)) error {
	defer gate.Wait()

	for {
		frame, err := cam.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read frame")
		}
		if frame == nil {
			continue
		}

		if !gate.Submit(func() { evaluate(ctx, frame) }) {
			logging.L().Debug("frame dropped, evaluation in progress")
		}
	}
}
