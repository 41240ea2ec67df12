package diarize

import "context"

// Turn is one diarized span of the recording. Speaker is the opaque tag the
// diarization model assigned (e.g. "SPEAKER_00"); tags are only meaningful
// within a single recording.
type Turn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Duration returns the turn length in seconds.
func (t Turn) Duration() float64 { return t.End - t.Start }

// Diarizer segments a recording into speaker turns, chronologically ordered.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]Turn, error)
}
