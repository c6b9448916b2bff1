package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/go-skills/images"
)

func TestApplyGreedyNMS(t *testing.T) {
	detections := []Result{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, Score: 3},
		{Box: images.Rect{X1: 100, Y1: 100, X2: 110, Y2: 110}, Score: 5},
		{Box: images.Rect{X1: 1, Y1: 1, X2: 11, Y2: 11}, Score: 9},
	}
	SortByScore(detections)

	got := ApplyGreedyNMS(detections, &NMSConfig{IoUThreshold: 0.3})
	assert.Equal(t, []Result{
		{Box: images.Rect{X1: 1, Y1: 1, X2: 11, Y2: 11}, Score: 9},
		{Box: images.Rect{X1: 100, Y1: 100, X2: 110, Y2: 110}, Score: 5},
	}, got)
}

func TestApplyGreedyNMSClassAware(t *testing.T) {
	detections := []Result{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, Score: 2, Class: 0},
		{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, Score: 1, Class: 1},
	}

	assert.Len(t, ApplyGreedyNMS(detections, &NMSConfig{IoUThreshold: 0.5, ClassAware: true}), 2)
	assert.Len(t, ApplyGreedyNMS(detections, nil), 1)
	assert.Nil(t, ApplyGreedyNMS(nil, nil))
}
