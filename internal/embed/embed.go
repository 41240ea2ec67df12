package embed

import (
	"context"
	"errors"
	"math"

	"github.com/salescribe/callscribe/internal/audio"
)

// ErrZeroNorm is returned by Cosine when either vector has zero magnitude.
// Callers treat it as "no match" rather than a failure: a silent segment can
// legitimately produce a degenerate embedding.
var ErrZeroNorm = errors.New("zero-norm embedding")

// Vector is a fixed-length voice embedding.
type Vector []float64

// Embedder computes a voice embedding for an audio clip.
type Embedder interface {
	Embed(ctx context.Context, clip *audio.Clip) (Vector, error)
}

// Cosine returns the cosine similarity of a and b, in [-1, 1].
func Cosine(a, b Vector) (float64, error) {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroNorm
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// MeanPool reduces per-frame embeddings to a single vector by averaging
// each dimension across frames.
func MeanPool(frames [][]float64) Vector {
	if len(frames) == 0 {
		return nil
	}
	out := make(Vector, len(frames[0]))
	for _, f := range frames {
		for i := range out {
			if i < len(f) {
				out[i] += f[i]
			}
		}
	}
	for i := range out {
		out[i] /= float64(len(frames))
	}
	return out
}

// LoadReference loads the target speaker's sample file and computes its
// embedding. The result is reused across every turn of a run.
func LoadReference(ctx context.Context, e Embedder, samplePath string) (Vector, error) {
	track, err := audio.Load(samplePath)
	if err != nil {
		return nil, err
	}
	clip, err := track.Slice(0, track.Duration())
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, clip)
}
