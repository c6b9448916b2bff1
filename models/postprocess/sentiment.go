package postprocess

import (
	"fmt"
	"strings"
)

// Sentiment is one of the FER+ emotion classes, in model output order.
type Sentiment int

const (
	Neutral Sentiment = iota
	Happiness
	Surprise
	Sadness
	Anger
	Disgust
	Fear
	Contempt
)

// SentimentCount is the number of scores emitted per face.
const SentimentCount = 8

// predominantThreshold is the score at which the scan stops early. Only
// meaningful on softmaxed scores.
const predominantThreshold float32 = 0.5

var sentimentNames = [SentimentCount]string{
	"neutral",
	"happiness",
	"surprise",
	"sadness",
	"anger",
	"disgust",
	"fear",
	"contempt",
}

// Sentiments returns every sentiment in model output order.
func Sentiments() []Sentiment {
	out := make([]Sentiment, SentimentCount)
	for i := range out {
		out[i] = Sentiment(i)
	}
	return out
}

// String returns the lower-case sentiment name.
func (s Sentiment) String() string {
	if s < 0 || int(s) >= SentimentCount {
		return fmt.Sprintf("Sentiment(%d)", int(s))
	}
	return sentimentNames[s]
}

// ParseSentiment looks up a sentiment by name, ignoring case.
func ParseSentiment(name string) (Sentiment, bool) {
	for i, n := range sentimentNames {
		if strings.EqualFold(n, name) {
			return Sentiment(i), true
		}
	}
	return Neutral, false
}

// PickPredominant returns the index of the highest score.
//
// The scan starts from index 0 and only moves on a strictly greater score, so
// ties keep the earliest maximum. An empty input yields 0.
func PickPredominant(scores []float32) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// PickPredominantSoftMaxed is PickPredominant for softmaxed scores.
//
// It stops at the first score >= 0.5. For three or more classes two scores
// can both sit at exactly 0.5, in which case the first one is returned, which
// is also what the full scan returns.
func PickPredominantSoftMaxed(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s >= predominantThreshold {
			return i
		}
		if s > scores[best] {
			best = i
		}
	}
	return best
}

// PredominantSentiments returns one sentiment per block of SentimentCount
// softmaxed scores. A trailing partial block is ignored.
func PredominantSentiments(scores []float32) []Sentiment {
	out := make([]Sentiment, 0, len(scores)/SentimentCount)
	for i := 0; i+SentimentCount <= len(scores); i += SentimentCount {
		out = append(out, Sentiment(PickPredominantSoftMaxed(scores[i:i+SentimentCount])))
	}
	return out
}
