package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/salescribe/callscribe/internal/audio"
)

// Samples per websocket frame (~0.5s at 16 kHz).
const wsChunkSamples = 8000

// WhisperWS transcribes clips against a vosk-protocol websocket server: raw
// PCM frames in, JSON results out, `{"eof": 1}` to flush. A fresh connection
// is dialed per clip so the server never mixes segments, which also makes a
// shared WhisperWS safe for concurrent runs.
type WhisperWS struct {
	serverURL  string
	sampleRate int
}

type wsResult struct {
	Text   string `json:"text"`
	Result []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Conf  float64 `json:"conf"`
	} `json:"result"`
	Partial string `json:"partial"`
}

func NewWhisperWS(serverURL string, sampleRate int) *WhisperWS {
	return &WhisperWS{serverURL: serverURL, sampleRate: sampleRate}
}

func (t *WhisperWS) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	url := fmt.Sprintf("%s/ws?sample_rate=%d", t.serverURL, t.sampleRate)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect to transcription server: %w", err)
	}
	defer conn.Close()

	pcm := clip.Resample(t.sampleRate).PCM16()
	const chunkBytes = wsChunkSamples * 2
	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return "", fmt.Errorf("failed to send audio: %w", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof": 1}`)); err != nil {
		return "", fmt.Errorf("failed to send EOF: %w", err)
	}

	// The server flushes remaining final results after EOF and closes the
	// connection; collect finals until then. Partials are ignored.
	var full strings.Builder
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				return "", fmt.Errorf("transcription server error: %w", err)
			}
			break
		}
		var result wsResult
		if err := json.Unmarshal(message, &result); err != nil {
			log.Printf("Failed to parse transcription result: %v", err)
			continue
		}
		if result.Text != "" {
			if full.Len() > 0 {
				full.WriteString(" ")
			}
			full.WriteString(result.Text)
		}
	}

	return strings.TrimSpace(full.String()), nil
}
