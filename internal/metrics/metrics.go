package metrics

import (
	"fmt"
	"sync"
	"time"
)

type RunMetrics struct {
	RunID               string
	Provider            string
	StartTime           time.Time
	EndTime             time.Time
	TurnsSeen           int
	TurnsSkippedShort   int
	TurnsSkippedInvalid int
	TargetSegments      int
	UnknownSpeakers     int
	EmbedFailures       int
	TranscribeFailures  int
	TranscriptLength    int
	FirstRecordTime     *time.Time
	mu                  sync.Mutex
}

func NewRunMetrics(runID, provider string) *RunMetrics {
	return &RunMetrics{
		RunID:     runID,
		Provider:  provider,
		StartTime: time.Now(),
	}
}

func (m *RunMetrics) AddTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnsSeen++
}

func (m *RunMetrics) SkipShort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnsSkippedShort++
}

func (m *RunMetrics) SkipInvalid() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnsSkippedInvalid++
}

func (m *RunMetrics) EmbedFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbedFailures++
}

func (m *RunMetrics) TranscribeFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TranscribeFailures++
}

func (m *RunMetrics) AddRecord(label, targetLabel, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FirstRecordTime == nil {
		now := time.Now()
		m.FirstRecordTime = &now
	}

	m.TranscriptLength += len(text)
	if label == targetLabel {
		m.TargetSegments++
	}
}

func (m *RunMetrics) SetUnknownSpeakers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnknownSpeakers = n
}

func (m *RunMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

func (m *RunMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.EndTime.Sub(m.StartTime)
	var latency time.Duration
	if m.FirstRecordTime != nil {
		latency = m.FirstRecordTime.Sub(m.StartTime)
	}

	return fmt.Sprintf(
		"Run: %s\n"+
			"Provider: %s\n"+
			"Duration: %v\n"+
			"Turns: %d\n"+
			"Skipped (short): %d\n"+
			"Skipped (invalid): %d\n"+
			"Target Segments: %d\n"+
			"Unknown Speakers: %d\n"+
			"Embed Failures: %d\n"+
			"Transcribe Failures: %d\n"+
			"Transcript Length: %d chars\n"+
			"First Record Latency: %v\n",
		m.RunID,
		m.Provider,
		duration,
		m.TurnsSeen,
		m.TurnsSkippedShort,
		m.TurnsSkippedInvalid,
		m.TargetSegments,
		m.UnknownSpeakers,
		m.EmbedFailures,
		m.TranscribeFailures,
		m.TranscriptLength,
		latency,
	)
}
