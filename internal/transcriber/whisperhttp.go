package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/salescribe/callscribe/internal/audio"
)

// WhisperHTTP transcribes clips against a faster-whisper style HTTP server.
// Each clip is written to a temporary wav file (removed before returning)
// and uploaded as multipart form data.
type WhisperHTTP struct {
	baseURL string
	http    *http.Client
}

type httpResult struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func NewWhisperHTTP(baseURL string) *WhisperHTTP {
	return &WhisperHTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

func (t *WhisperHTTP) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	tmp, err := os.CreateTemp("", "callscribe-seg-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp segment: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := clip.ExportWAV(tmpPath); err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filepath.Base(tmpPath))
	if err != nil {
		return "", err
	}
	f, err := os.Open(tmpPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		f.Close()
		return "", err
	}
	f.Close()
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription server %s: %s", resp.Status, string(msg))
	}

	var result httpResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	if result.Text != "" {
		return strings.TrimSpace(result.Text), nil
	}
	var full strings.Builder
	for _, seg := range result.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			if full.Len() > 0 {
				full.WriteString(" ")
			}
			full.WriteString(text)
		}
	}
	return full.String(), nil
}
