package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/sentiment"
)

// describe renders a result as one console line.
func describe(result sentiment.Result) string {
	if !result.FaceFound() {
		return "No face found"
	}

	predominant := result.PredominantSentiments()
	if len(predominant) == 1 {
		return "Your sentiment looks like: " + predominant[0].String()
	}
	names := make([]string, len(predominant))
	for i, s := range predominant {
		names[i] = fmt.Sprintf("#%d %s", i+1, s)
	}
	return fmt.Sprintf("%d faces: %s", len(predominant), strings.Join(names, ", "))
}

// snapshotName is the file a frame is saved under for its first face.
func snapshotName(result sentiment.Result) string {
	return result.PredominantSentiment().String() + "Face.jpg"
}

// saveSnapshot writes img as a JPEG named after the first face's sentiment,
// replacing the previous snapshot for that sentiment. Nothing is written
// when dir is empty or no face was found.
func saveSnapshot(dir string, img image.Image, result sentiment.Result) error {
	if dir == "" || !result.FaceFound() {
		return nil
	}
	const op = "sentiment.saveSnapshot"

	f, err := os.Create(filepath.Join(dir, snapshotName(result)))
	if err != nil {
		return common.E(common.KindIO, op, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		f.Close()
		return common.E(common.KindIO, op, err)
	}
	if err := f.Close(); err != nil {
		return common.E(common.KindIO, op, err)
	}
	return nil
}
