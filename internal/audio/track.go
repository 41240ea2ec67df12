package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// ErrInvalidRange is returned by Slice for ranges that do not describe a
// usable span of the loaded track.
var ErrInvalidRange = errors.New("invalid segment range")

// Track holds one fully decoded recording as mono samples at its native
// sample rate. A track is read-only after Load and safe to slice from
// multiple goroutines.
type Track struct {
	samples []float64
	rate    int
}

// Load decodes an audio file (wav, mp3 or flac, by extension) into memory,
// downmixing to mono.
func Load(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	streamer, format, err := decode(f, path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	samples, err := drainMono(streamer)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	return &Track{samples: samples, rate: int(format.SampleRate)}, nil
}

func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
}

// drainMono pulls every frame out of a streamer, averaging channels.
func drainMono(s beep.Streamer) ([]float64, error) {
	var out []float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	return out, s.Err()
}

// SampleRate returns the track's native sample rate in Hz.
func (t *Track) SampleRate() int { return t.rate }

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	return float64(len(t.samples)) / float64(t.rate)
}

// Slice returns the samples covering [startSec, endSec) as a Clip. The range
// must be non-empty, non-negative and fall inside the track.
func (t *Track) Slice(startSec, endSec float64) (*Clip, error) {
	if startSec < 0 || startSec >= endSec {
		return nil, fmt.Errorf("%w: start=%.3f end=%.3f", ErrInvalidRange, startSec, endSec)
	}
	from := int(math.Round(startSec * float64(t.rate)))
	to := int(math.Round(endSec * float64(t.rate)))
	if to > len(t.samples) {
		return nil, fmt.Errorf("%w: end=%.3f exceeds track duration %.3f", ErrInvalidRange, endSec, t.Duration())
	}

	samples := make([]float64, to-from)
	copy(samples, t.samples[from:to])
	return &Clip{Samples: samples, Rate: t.rate}, nil
}
