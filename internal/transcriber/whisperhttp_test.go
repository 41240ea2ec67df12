package transcriber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/salescribe/callscribe/internal/audio"
)

func testClip() *audio.Clip {
	return &audio.Clip{Samples: make([]float64, 16000), Rate: 16000}
}

func TestWhisperHTTPTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("Expected multipart wav upload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  hello from whisper  "}`))
	}))
	defer srv.Close()

	text, err := NewWhisperHTTP(srv.URL).Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello from whisper" {
		t.Errorf("Expected trimmed text, got %q", text)
	}
}

func TestWhisperHTTPSegmentResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"segments":[{"start":0,"end":1,"text":" first"},{"start":1,"end":2,"text":"second "}]}`))
	}))
	defer srv.Close()

	text, err := NewWhisperHTTP(srv.URL).Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "first second" {
		t.Errorf("Expected joined segments, got %q", text)
	}
}

func TestWhisperHTTPSilence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	text, err := NewWhisperHTTP(srv.URL).Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Expected empty text without error, got: %v", err)
	}
	if text != "" {
		t.Errorf("Expected empty text for silence, got %q", text)
	}
}

func TestWhisperHTTPServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewWhisperHTTP(srv.URL).Transcribe(context.Background(), testClip()); err == nil {
		t.Error("Expected error for server failure")
	}
}
