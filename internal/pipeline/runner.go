package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/salescribe/callscribe/internal/audio"
	"github.com/salescribe/callscribe/internal/diarize"
	"github.com/salescribe/callscribe/internal/embed"
	"github.com/salescribe/callscribe/internal/metrics"
	"github.com/salescribe/callscribe/internal/refcache"
	"github.com/salescribe/callscribe/internal/transcriber"
)

// Runner drives complete runs against shared inference clients. The clients
// are stateless between calls, so one Runner serves concurrent runs; all
// run-scoped state (track, resolver, metrics) lives inside Run.
type Runner struct {
	Diarizer    diarize.Diarizer
	Embedder    embed.Embedder
	Transcriber transcriber.Transcriber
	RefCache    *refcache.Cache
	Provider    string
	Config      Config
}

// Result is one completed run: the ordered transcript and its metrics.
type Result struct {
	RunID   string
	Records []Record
	Metrics *metrics.RunMetrics
}

// Run processes one recording against one reference sample. userID keys the
// reference-embedding cache and may be empty. Failures loading the audio,
// embedding the reference or diarizing are fatal; per-segment problems are
// absorbed as degraded records.
func (r *Runner) Run(ctx context.Context, recordingPath, samplePath, userID string) (*Result, error) {
	runID := uuid.New().String()
	m := metrics.NewRunMetrics(runID, r.Provider)

	ref, err := r.referenceEmbedding(ctx, samplePath, userID)
	if err != nil {
		return nil, fmt.Errorf("run %s: reference sample: %w", runID, err)
	}

	turns, err := r.Diarizer.Diarize(ctx, recordingPath)
	if err != nil {
		return nil, fmt.Errorf("run %s: diarization: %w", runID, err)
	}
	log.Printf("Run %s: diarization produced %d turns", runID, len(turns))

	track, err := audio.Load(recordingPath)
	if err != nil {
		return nil, fmt.Errorf("run %s: recording: %w", runID, err)
	}

	processor := NewProcessor(track, r.Embedder, r.Transcriber, r.Config, m, runID)
	records, err := processor.ProcessTurns(ctx, turns, ref)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	m.Finalize()
	return &Result{RunID: runID, Records: records, Metrics: m}, nil
}

// referenceEmbedding resolves the target speaker's embedding, preferring the
// per-user cache. Cache trouble is logged and ignored; the sample file is
// the source of truth.
func (r *Runner) referenceEmbedding(ctx context.Context, samplePath, userID string) (embed.Vector, error) {
	if vec, ok, err := r.RefCache.Get(ctx, userID); err != nil {
		log.Printf("Reference cache lookup failed for %s: %v", userID, err)
	} else if ok {
		log.Printf("Using cached reference embedding for %s", userID)
		return vec, nil
	}

	vec, err := embed.LoadReference(ctx, r.Embedder, samplePath)
	if err != nil {
		return nil, err
	}
	if err := r.RefCache.Put(ctx, userID, vec); err != nil {
		log.Printf("Reference cache store failed for %s: %v", userID, err)
	}
	return vec, nil
}
