package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"github.com/salescribe/callscribe/internal/audio"
)

const (
	// The speaker-encoder model is trained on 16 kHz input; everything sent
	// to it is resampled first.
	encoderSampleRate = 16000

	// Samples per websocket frame (~1 second at 16 kHz).
	chunkSamples = 16000
)

// Client talks to a speaker-encoder service over WebSocket: it streams the
// clip as little-endian float32 PCM, signals end of audio, and receives the
// per-frame embeddings as JSON. One connection is dialed per Embed call, so
// a shared Client is safe for concurrent runs.
type Client struct {
	serverURL string
}

type encoderResult struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error"`
}

func NewClient(serverURL string) *Client {
	return &Client{serverURL: serverURL}
}

func (c *Client) Embed(ctx context.Context, clip *audio.Clip) (Vector, error) {
	url := fmt.Sprintf("%s/encode?sample_rate=%d", c.serverURL, encoderSampleRate)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to encoder server: %w", err)
	}
	defer conn.Close()

	pcm := clip.Resample(encoderSampleRate).Float32LE()
	const chunkBytes = chunkSamples * 4
	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return nil, fmt.Errorf("failed to send audio to encoder: %w", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof": 1}`)); err != nil {
		return nil, fmt.Errorf("failed to finalize encoder stream: %w", err)
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read encoder result: %w", err)
	}
	var result encoderResult
	if err := json.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("failed to parse encoder result: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("encoder server: %s", result.Error)
	}
	if len(result.Embeddings) == 0 {
		log.Printf("Encoder returned no frames for %.2fs clip", clip.Duration())
		return nil, ErrZeroNorm
	}

	return MeanPool(result.Embeddings), nil
}
