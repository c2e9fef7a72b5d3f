package analysis

import (
	"context"
	"time"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
	"github.com/kbaah7/ultrascan-agent/internal/observability"
)

// Poller drives one heatmap poll lifecycle to a terminal state. Polling is
// bounded on both attempts and wall-clock time, and every transition is
// generation-checked against the session, so a superseded poll's late
// answers are discarded instead of applied to a newer result.
type Poller struct {
	artifacts   domain.ArtifactClient
	interval    time.Duration
	maxAttempts int
	maxElapsed  time.Duration
	now         func() time.Time
}

func NewPoller(artifacts domain.ArtifactClient, interval time.Duration, maxAttempts int, maxElapsed time.Duration) *Poller {
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	if maxElapsed <= 0 {
		maxElapsed = 45 * time.Second
	}
	return &Poller{
		artifacts:   artifacts,
		interval:    interval,
		maxAttempts: maxAttempts,
		maxElapsed:  maxElapsed,
		now:         time.Now,
	}
}

// Run polls the artifact endpoint for jobID until it reports ready, fails,
// or the attempt/time budget runs out.
func (p *Poller) Run(ctx context.Context, sess *domain.Session, gen uint64, jobID string) {
	log := observability.Logger().With("session_id", sess.ID, "job_id", jobID)

	if !sess.StartArtifactPoll(gen, jobID, p.now()) {
		return
	}
	log.Info("artifact poll started")

	started := p.now()
	attempt := 1
	for {
		check, err := p.artifacts.CheckArtifact(ctx, jobID)
		if err != nil {
			log.Error("artifact poll failed", "attempt", attempt, "error", err)
			sess.FailArtifact(gen, err.Error())
			return
		}
		if check.Ready {
			log.Info("artifact ready", "attempt", attempt)
			sess.CompleteArtifact(gen, check.URL)
			return
		}

		if attempt >= p.maxAttempts || p.now().Sub(started)+p.interval > p.maxElapsed {
			log.Info("artifact poll budget exhausted", "attempt", attempt)
			sess.TimeoutArtifact(gen)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}

		if !sess.RecordArtifactAttempt(gen) {
			// superseded by a newer prediction
			return
		}
		attempt++
	}
}
