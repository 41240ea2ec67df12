package transcriber

import (
	"context"

	"github.com/salescribe/callscribe/internal/audio"
)

// Supported provider names, selected by configuration.
const (
	ProviderWhisperWS   = "whisper-ws"
	ProviderWhisperHTTP = "whisper-http"
)

// Transcriber converts one audio clip to text. An unintelligible or silent
// clip yields an empty string, not an error. Implementations trim
// surrounding whitespace.
type Transcriber interface {
	Transcribe(ctx context.Context, clip *audio.Clip) (string, error)
}
