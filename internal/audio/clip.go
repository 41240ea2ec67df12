package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Clip is a mono audio segment cut out of a track or decoded from a sample
// file. Clips are value carriers between the slicer and the inference
// clients; they are never mutated after creation.
type Clip struct {
	Samples []float64
	Rate    int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	return float64(len(c.Samples)) / float64(c.Rate)
}

// Resample returns the clip converted to the given sample rate. The clip
// itself is returned when it already matches.
func (c *Clip) Resample(rate int) *Clip {
	if c.Rate == rate {
		return c
	}
	r := beep.Resample(4, beep.SampleRate(c.Rate), beep.SampleRate(rate), c.streamer())
	out := make([]float64, 0, len(c.Samples)*rate/c.Rate+1)
	buf := make([][2]float64, 512)
	for {
		n, ok := r.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, buf[i][0])
		}
		if !ok {
			break
		}
	}
	return &Clip{Samples: out, Rate: rate}
}

// Float32LE encodes the samples as little-endian float32, the wire format
// expected by the speaker-encoder service.
func (c *Clip) Float32LE() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(c.Samples) * 4)
	for _, s := range c.Samples {
		binary.Write(buf, binary.LittleEndian, float32(s))
	}
	return buf.Bytes()
}

// PCM16 encodes the samples as little-endian signed 16-bit PCM.
func (c *Clip) PCM16() []byte {
	out := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		v := int16(math.Max(-1, math.Min(1, s)) * math.MaxInt16)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// ExportWAV writes the clip to path as a 16-bit wav file.
func (c *Clip) ExportWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	format := beep.Format{SampleRate: beep.SampleRate(c.Rate), NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, c.streamer(), format); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return f.Close()
}

func (c *Clip) streamer() beep.Streamer {
	return &clipStreamer{clip: c}
}

type clipStreamer struct {
	clip *Clip
	pos  int
}

func (s *clipStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.clip.Samples) {
		return 0, false
	}
	n := 0
	for i := range samples {
		if s.pos >= len(s.clip.Samples) {
			break
		}
		v := s.clip.Samples[s.pos]
		samples[i][0], samples[i][1] = v, v
		s.pos++
		n++
	}
	return n, true
}

func (s *clipStreamer) Err() error { return nil }
