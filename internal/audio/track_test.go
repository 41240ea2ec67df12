package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// rampStreamer generates a linear amplitude ramp, so slices can be checked
// for sample-accurate positioning.
type rampStreamer struct {
	pos, total int
}

func (s *rampStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.total {
		return 0, false
	}
	n := 0
	for i := range samples {
		if s.pos >= s.total {
			break
		}
		v := 0.5 * float64(s.pos) / float64(s.total)
		samples[i][0], samples[i][1] = v, v
		s.pos++
		n++
	}
	return n, true
}

func (s *rampStreamer) Err() error { return nil }

func writeTestWAV(t *testing.T, path string, seconds float64, rate int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test wav: %v", err)
	}
	defer f.Close()

	total := int(seconds * float64(rate))
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, &rampStreamer{total: total}, format); err != nil {
		t.Fatalf("Failed to encode test wav: %v", err)
	}
}

func TestLoadTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	writeTestWAV(t, path, 1.0, 8000)

	track, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if track.SampleRate() != 8000 {
		t.Errorf("Expected sample rate 8000, got %d", track.SampleRate())
	}
	if math.Abs(track.Duration()-1.0) > 0.01 {
		t.Errorf("Expected ~1.0s duration, got %v", track.Duration())
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestSlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	writeTestWAV(t, path, 1.0, 8000)

	track, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	clip, err := track.Slice(0.25, 0.5)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	if len(clip.Samples) != 2000 {
		t.Errorf("Expected 2000 samples, got %d", len(clip.Samples))
	}
	if clip.Rate != 8000 {
		t.Errorf("Expected clip rate 8000, got %d", clip.Rate)
	}
	// Ramp value at 0.25s into a 1s track.
	if math.Abs(clip.Samples[0]-0.125) > 1e-3 {
		t.Errorf("Slice misaligned: first sample %v, want ~0.125", clip.Samples[0])
	}
}

func TestSliceRangeValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	writeTestWAV(t, path, 1.0, 8000)

	track, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cases := []struct {
		name       string
		start, end float64
	}{
		{"start equals end", 0.5, 0.5},
		{"start after end", 0.6, 0.5},
		{"negative start", -0.1, 0.5},
		{"end beyond track", 0.5, 2.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := track.Slice(tc.start, tc.end)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Slice(%v, %v): expected ErrInvalidRange, got %v", tc.start, tc.end, err)
			}
		})
	}
}

func TestClipResample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	writeTestWAV(t, path, 1.0, 8000)

	track, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	clip, err := track.Slice(0, 1.0)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	up := clip.Resample(16000)
	if up.Rate != 16000 {
		t.Errorf("Expected rate 16000, got %d", up.Rate)
	}
	if math.Abs(up.Duration()-clip.Duration()) > 0.01 {
		t.Errorf("Resample changed duration: %v -> %v", clip.Duration(), up.Duration())
	}

	// Already at target rate: same clip comes back.
	if same := clip.Resample(8000); same != clip {
		t.Error("Expected identical clip when rate matches")
	}
}

func TestClipEncodings(t *testing.T) {
	clip := &Clip{Samples: []float64{0, 0.5, -0.5, 1.0}, Rate: 16000}

	if got := clip.PCM16(); len(got) != 8 {
		t.Errorf("PCM16: expected 8 bytes, got %d", len(got))
	}
	if got := clip.Float32LE(); len(got) != 16 {
		t.Errorf("Float32LE: expected 16 bytes, got %d", len(got))
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	out := filepath.Join(dir, "merged.wav")
	writeTestWAV(t, a, 1.0, 8000)
	writeTestWAV(t, b, 0.5, 8000)

	if err := Merge([]string{a, b}, out); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	merged, err := Load(out)
	if err != nil {
		t.Fatalf("Failed to load merged file: %v", err)
	}
	if math.Abs(merged.Duration()-1.5) > 0.01 {
		t.Errorf("Expected ~1.5s merged duration, got %v", merged.Duration())
	}
}

func TestMergeNoInputs(t *testing.T) {
	if err := Merge(nil, filepath.Join(t.TempDir(), "out.wav")); err == nil {
		t.Error("Expected error for empty chunk list")
	}
}
