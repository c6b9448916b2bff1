package main

import (
	"context"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-skills/sentiment"
)

type shownFrame struct {
	img    image.Image
	result sentiment.Result
}

// viewer displays evaluated frames in an OpenCV window. The window must be
// driven from one locked OS thread, so frames are handed over through a
// one-slot channel and older frames are dropped.
type viewer struct {
	frames chan shownFrame
}

func newViewer() *viewer {
	return &viewer{frames: make(chan shownFrame, 1)}
}

// offer hands a frame to the window without blocking. Safe on a nil viewer.
func (v *viewer) offer(img image.Image, result sentiment.Result) {
	if v == nil {
		return
	}
	select {
	case v.frames <- shownFrame{img: img, result: result}:
	default:
	}
}

// loop shows frames until ctx is done. Esc in the window calls cancel.
func (v *viewer) loop(ctx context.Context, cancel context.CancelFunc) {
	window := gocv.NewWindow("Face Sentiment")
	defer window.Close()

	// color for the rect when faces detected
	blue := color.RGBA{0, 0, 255, 0}

	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-v.frames:
			mat, err := gocv.ImageToMatRGB(f.img)
			if err != nil {
				continue
			}
			size := mat.Size()
			w, h := float32(size[1]), float32(size[0])
			for i, box := range f.result.Boxes {
				if box.IsZero() {
					continue
				}
				r := image.Rect(int(box.Left*w), int(box.Top*h), int(box.Right*w), int(box.Bottom*h))
				gocv.Rectangle(&mat, r, blue, 3)
				if sentiments := f.result.PredominantSentiments(); i < len(sentiments) {
					gocv.PutText(&mat, sentiments[i].String(), image.Pt(r.Min.X, max(r.Min.Y-8, 12)), gocv.FontHersheyPlain, 1.2, blue, 2)
				}
			}
			window.IMShow(mat)
			mat.Close()
		case <-ticker.C:
		}

		if window.WaitKey(1) == 27 {
			cancel()
			return
		}
	}
}
