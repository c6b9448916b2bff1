package postprocess

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-skills/common"
)

// SoftMax normalizes raw scores into a probability distribution.
//
// output[i] = exp(s[i]) / sum_j exp(s[j]). The maximum is subtracted before
// exponentiation so large logits do not overflow. When every input is -Inf
// (or the input is empty) the sum of exponentials is 0: the divisor is then
// taken as 1 and the outputs are the raw exponentials, i.e. all zeros.
//
// Arguments:
//   - scores: The raw model scores.
//
// Returns:
//   - []float32: A new slice of the same length.
func SoftMax(scores []float32) []float32 {
	return AppendSoftMaxed(make([]float32, 0, len(scores)), scores)
}

// AppendSoftMaxed appends SoftMax(scores) to dst.
//
// Use it once per face so every block of scores is normalized on its own.
func AppendSoftMaxed(dst, scores []float32) []float32 {
	if len(scores) == 0 {
		return dst
	}

	maxScore := math32.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	// All -Inf: exp(-Inf) is 0 everywhere and the divisor falls back to 1.
	shift := maxScore
	if math32.IsInf(maxScore, -1) {
		shift = 0
	}

	start := len(dst)
	var sum float32
	for _, s := range scores {
		e := math32.Exp(s - shift)
		sum += e
		dst = append(dst, e)
	}
	if sum == 0 {
		sum = 1
	}
	for i := start; i < len(dst); i++ {
		dst[i] /= sum
	}
	return dst
}

// SoftMaxBlocks applies SoftMax independently to each consecutive block.
//
// Arguments:
//   - scores: Concatenated per-face scores.
//   - blockSize: The number of scores per face.
//
// Returns:
//   - []float32: The normalized scores.
//   - error: InvalidArgument if blockSize is not positive or does not divide len(scores).
func SoftMaxBlocks(scores []float32, blockSize int) ([]float32, error) {
	if blockSize <= 0 || len(scores)%blockSize != 0 {
		return nil, common.Errorf(common.KindInvalidArgument, "postprocess.SoftMaxBlocks",
			"%d scores cannot be split into blocks of %d", len(scores), blockSize)
	}

	out := make([]float32, 0, len(scores))
	for i := 0; i < len(scores); i += blockSize {
		out = AppendSoftMaxed(out, scores[i:i+blockSize])
	}
	return out, nil
}
