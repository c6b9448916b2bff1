package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickPredominant(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   int
	}{
		{name: "empty", scores: nil, want: 0},
		{name: "single", scores: []float32{0.3}, want: 0},
		{name: "max in middle", scores: []float32{0.1, 0.7, 0.2}, want: 1},
		{name: "ties keep first", scores: []float32{0.2, 0.4, 0.4}, want: 1},
		{name: "all equal", scores: []float32{1, 1, 1}, want: 0},
		{name: "negative logits", scores: []float32{-3, -1, -2}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickPredominant(tt.scores))
		})
	}
}

// TestPickPredominantSoftMaxed verifies the early exit agrees with the full scan.
func TestPickPredominantSoftMaxed(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   int
	}{
		{name: "empty", scores: nil, want: 0},
		{name: "early exit", scores: []float32{0.1, 0.6, 0.3}, want: 1},
		{name: "exact half ties keep first", scores: []float32{0, 0.5, 0.5}, want: 1},
		{name: "no score over half", scores: []float32{0.3, 0.25, 0.45}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickPredominantSoftMaxed(tt.scores))
			assert.Equal(t, PickPredominant(tt.scores), PickPredominantSoftMaxed(tt.scores))
		})
	}
}

func TestPredominantSentiments(t *testing.T) {
	scores := make([]float32, 2*SentimentCount+3)
	scores[int(Happiness)] = 0.9
	scores[SentimentCount+int(Contempt)] = 0.8

	got := PredominantSentiments(scores)
	assert.Equal(t, []Sentiment{Happiness, Contempt}, got)

	assert.Empty(t, PredominantSentiments(nil))
}

func TestSentimentNames(t *testing.T) {
	assert.Len(t, Sentiments(), SentimentCount)
	assert.Equal(t, "neutral", Neutral.String())
	assert.Equal(t, "contempt", Contempt.String())
	assert.Equal(t, "Sentiment(8)", Sentiment(8).String())

	s, ok := ParseSentiment("Surprise")
	assert.True(t, ok)
	assert.Equal(t, Surprise, s)

	_, ok = ParseSentiment("boredom")
	assert.False(t, ok)
}
