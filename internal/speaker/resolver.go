package speaker

import "fmt"

// DefaultTargetLabel is the label given to segments matching the reference
// voice sample.
const DefaultTargetLabel = "Salesperson"

// Resolver maps the diarization model's anonymous speaker tags to stable
// output labels for the duration of one run. Tags are not stable across
// recordings, so a resolver must never be reused.
type Resolver struct {
	targetLabel string
	known       map[string]string
	nextIndex   int
}

// NewResolver returns a resolver that labels reference-matching segments
// with targetLabel (DefaultTargetLabel when empty).
func NewResolver(targetLabel string) *Resolver {
	if targetLabel == "" {
		targetLabel = DefaultTargetLabel
	}
	return &Resolver{
		targetLabel: targetLabel,
		known:       make(map[string]string),
		nextIndex:   1,
	}
}

// Resolve returns the output label for a tag. A segment matching the
// reference is always the target speaker, whatever its tag: diarization may
// split one voice across several tags and those are collapsed here. Matching
// segments leave the map and counter untouched. Non-matching tags keep the
// label assigned on their first appearance.
func (r *Resolver) Resolve(tag string, matchesReference bool) string {
	if matchesReference {
		return r.targetLabel
	}
	if label, ok := r.known[tag]; ok {
		return label
	}
	label := fmt.Sprintf("Speaker %d", r.nextIndex)
	r.known[tag] = label
	r.nextIndex++
	return label
}

// Unknown returns how many distinct non-matching speakers were seen.
func (r *Resolver) Unknown() int { return len(r.known) }
