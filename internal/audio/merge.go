package audio

import (
	"fmt"
)

// Merge stitches partial recording chunks into a single wav file at outPath.
// Chunks are concatenated in the given order; chunks recorded at a different
// sample rate are resampled to match the first one.
func Merge(paths []string, outPath string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no audio chunks to merge")
	}

	var combined Clip
	for _, p := range paths {
		track, err := Load(p)
		if err != nil {
			return fmt.Errorf("failed to load chunk %s: %w", p, err)
		}
		chunk := &Clip{Samples: track.samples, Rate: track.rate}
		if combined.Rate == 0 {
			combined.Rate = chunk.Rate
		}
		chunk = chunk.Resample(combined.Rate)
		combined.Samples = append(combined.Samples, chunk.Samples...)
	}

	if err := combined.ExportWAV(outPath); err != nil {
		return fmt.Errorf("failed to write merged audio: %w", err)
	}
	return nil
}
