package pipeline

import (
	"context"
	"log"
	"math"

	"github.com/salescribe/callscribe/internal/audio"
	"github.com/salescribe/callscribe/internal/diarize"
	"github.com/salescribe/callscribe/internal/embed"
	"github.com/salescribe/callscribe/internal/metrics"
	"github.com/salescribe/callscribe/internal/speaker"
	"github.com/salescribe/callscribe/internal/transcriber"
)

// Config holds the pipeline's decision constants. The similarity threshold
// is the single most important tunable in the system; both it and the
// minimum turn duration come from configuration, never from code.
type Config struct {
	SimilarityThreshold float64
	MinTurnDuration     float64 // seconds
	TargetLabel         string
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.6,
		MinTurnDuration:     0.5,
		TargetLabel:         speaker.DefaultTargetLabel,
	}
}

// Record is one speaker-attributed transcript entry. Start and End carry the
// turn's timestamps rounded to two decimals.
type Record struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// AudioSource yields clips for time ranges of the loaded recording.
// *audio.Track satisfies it.
type AudioSource interface {
	Slice(startSec, endSec float64) (*audio.Clip, error)
}

// Processor turns one recording's diarized turns into transcript records.
// It owns the run-scoped speaker resolver, so a Processor handles exactly
// one recording and is not safe for concurrent use; concurrent runs each
// build their own.
type Processor struct {
	source      AudioSource
	embedder    embed.Embedder
	transcriber transcriber.Transcriber
	cfg         Config
	metrics     *metrics.RunMetrics
	runID       string
}

func NewProcessor(source AudioSource, e embed.Embedder, t transcriber.Transcriber, cfg Config, m *metrics.RunMetrics, runID string) *Processor {
	if cfg.TargetLabel == "" {
		cfg.TargetLabel = speaker.DefaultTargetLabel
	}
	return &Processor{
		source:      source,
		embedder:    e,
		transcriber: t,
		cfg:         cfg,
		metrics:     m,
		runID:       runID,
	}
}

// ProcessTurns walks the turns in order and produces one record per turn
// that survives the duration filter. Per-turn inference problems degrade the
// output instead of aborting: an unembeddable segment counts as not matching
// the reference, and a failed transcription yields an empty text. Records
// keep the turns' chronological order.
func (p *Processor) ProcessTurns(ctx context.Context, turns []diarize.Turn, ref embed.Vector) ([]Record, error) {
	resolver := speaker.NewResolver(p.cfg.TargetLabel)
	records := make([]Record, 0, len(turns))

	for _, turn := range turns {
		p.metrics.AddTurn()

		// The filter compares unrounded values; rounding is presentation
		// only and happens at record assembly.
		if turn.Duration() < p.cfg.MinTurnDuration {
			log.Printf("Run %s: skipping short segment (%.2fs)", p.runID, turn.Duration())
			p.metrics.SkipShort()
			continue
		}

		clip, err := p.source.Slice(turn.Start, turn.End)
		if err != nil {
			// A turn with a bad range should never come out of a healthy
			// diarization model. Skip it rather than losing the whole run.
			log.Printf("Run %s: skipping segment %.2f-%.2f: %v", p.runID, turn.Start, turn.End, err)
			p.metrics.SkipInvalid()
			continue
		}

		matches := p.matchesReference(ctx, clip, ref)
		label := resolver.Resolve(turn.Speaker, matches)

		text, err := p.transcriber.Transcribe(ctx, clip)
		if err != nil {
			log.Printf("Run %s: transcription failed for %.2f-%.2f: %v", p.runID, turn.Start, turn.End, err)
			p.metrics.TranscribeFailed()
			text = ""
		}

		records = append(records, Record{
			Speaker: label,
			Start:   round2(turn.Start),
			End:     round2(turn.End),
			Text:    text,
		})
		p.metrics.AddRecord(label, p.cfg.TargetLabel, text)
	}

	p.metrics.SetUnknownSpeakers(resolver.Unknown())
	return records, nil
}

// matchesReference decides whether a clip is the target speaker. Embedding
// failures and degenerate zero-norm embeddings count as "no match": silence
// or noise mid-call must not abort a long recording.
func (p *Processor) matchesReference(ctx context.Context, clip *audio.Clip, ref embed.Vector) bool {
	vec, err := p.embedder.Embed(ctx, clip)
	if err != nil {
		log.Printf("Run %s: embedding failed (%.2fs clip): %v", p.runID, clip.Duration(), err)
		p.metrics.EmbedFailed()
		return false
	}
	sim, err := embed.Cosine(ref, vec)
	if err != nil {
		log.Printf("Run %s: similarity unavailable: %v", p.runID, err)
		return false
	}
	return sim > p.cfg.SimilarityThreshold
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
