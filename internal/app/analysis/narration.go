package analysis

import (
	"context"
	"time"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

// narrationSteps are the labels shown while a prediction is in flight. The
// ticker is a perceived-latency affordance: it advances on wall-clock
// cadence with no coupling to the real request, and it holds at the final
// label rather than claiming completion.
var narrationSteps = []string{
	"Uploading ultrasound image...",
	"Preprocessing scan...",
	"Running model inference...",
	"Analyzing tissue patterns...",
	"Scoring class probabilities...",
	"Preparing results...",
}

// NarrationLabel maps a step index to its label, clamping out-of-range
// steps.
func NarrationLabel(step int) string {
	if step < 0 {
		step = 0
	}
	if step >= len(narrationSteps) {
		step = len(narrationSteps) - 1
	}
	return narrationSteps[step]
}

// Narrator drives the narration step of a session while a prediction is
// outstanding.
type Narrator struct {
	interval time.Duration
}

func NewNarrator(interval time.Duration) *Narrator {
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	return &Narrator{interval: interval}
}

// Run ticks until ctx is cancelled or the session stops accepting advances
// for this generation (request settled, generation superseded, or final
// label reached). A tick that fires after the owning request settles is
// rejected by the generation check and never mutates newer state.
func (n *Narrator) Run(ctx context.Context, sess *domain.Session, gen uint64) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sess.AdvanceNarration(gen, len(narrationSteps)-1) {
				return
			}
		}
	}
}
