package postprocess

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/images"
)

// TestExpandAndClamp covers padding, edge clamping and zero-size faces.
func TestExpandAndClamp(t *testing.T) {
	tests := []struct {
		name       string
		face       images.Rect
		w, h       int
		wantRegion images.Rect
		wantBox    common.FaceBox
	}{
		{
			name:       "clamped at top left",
			face:       images.Rect{X1: 10, Y1: 10, X2: 30, Y2: 30},
			w:          100,
			h:          100,
			wantRegion: images.Rect{X1: 0, Y1: 0, X2: 40, Y2: 40},
			wantBox:    common.FaceBox{Left: 0, Top: 0, Right: 0.4, Bottom: 0.4},
		},
		{
			name:       "interior",
			face:       images.Rect{X1: 40, Y1: 40, X2: 60, Y2: 60},
			w:          200,
			h:          100,
			wantRegion: images.Rect{X1: 30, Y1: 30, X2: 70, Y2: 70},
			wantBox:    common.FaceBox{Left: 0.15, Top: 0.3, Right: 0.35, Bottom: 0.7},
		},
		{
			name:       "clamped at bottom right",
			face:       images.Rect{X1: 80, Y1: 80, X2: 100, Y2: 100},
			w:          100,
			h:          100,
			wantRegion: images.Rect{X1: 70, Y1: 70, X2: 100, Y2: 100},
			wantBox:    common.FaceBox{Left: 0.7, Top: 0.7, Right: 1, Bottom: 1},
		},
		{
			name:       "zero size",
			face:       images.Rect{X1: 50, Y1: 25, X2: 50, Y2: 25},
			w:          100,
			h:          100,
			wantRegion: images.Rect{X1: 50, Y1: 25, X2: 50, Y2: 25},
			wantBox:    common.FaceBox{Left: 0.5, Top: 0.25, Right: 0.5, Bottom: 0.25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, box := ExpandAndClamp(tt.face, tt.w, tt.h)
			assert.Equal(t, tt.wantRegion, region)
			assert.InDelta(t, tt.wantBox.Left, box.Left, 1e-6)
			assert.InDelta(t, tt.wantBox.Top, box.Top, 1e-6)
			assert.InDelta(t, tt.wantBox.Right, box.Right, 1e-6)
			assert.InDelta(t, tt.wantBox.Bottom, box.Bottom, 1e-6)
		})
	}
}

// TestExpandAndClampStaysInBounds checks random faces, including ones already
// outside the image.
func TestExpandAndClampStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		w, h := 1+rng.Intn(640), 1+rng.Intn(480)
		x1, y1 := rng.Intn(w+100)-50, rng.Intn(h+100)-50
		face := images.Rect{X1: x1, Y1: y1, X2: x1 + rng.Intn(w), Y2: y1 + rng.Intn(h)}

		region, box := ExpandAndClamp(face, w, h)

		require.GreaterOrEqual(t, region.X1, 0)
		require.GreaterOrEqual(t, region.Y1, 0)
		require.LessOrEqual(t, region.X2, w)
		require.LessOrEqual(t, region.Y2, h)
		require.LessOrEqual(t, region.X1, region.X2)
		require.LessOrEqual(t, region.Y1, region.Y2)
		require.True(t, box.Valid(), "face %+v in %dx%d gave %s", face, w, h, box)
	}
}

func TestEmptyResult(t *testing.T) {
	box, scores := EmptyResult()
	assert.True(t, box.IsZero())
	assert.Equal(t, make([]float32, SentimentCount), scores)
}
