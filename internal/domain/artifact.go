package domain

// ArtifactPhase names a state of the heatmap poll lifecycle.
type ArtifactPhase string

const (
	ArtifactIdle     ArtifactPhase = "idle"
	ArtifactPolling  ArtifactPhase = "polling"
	ArtifactReady    ArtifactPhase = "ready"
	ArtifactFailed   ArtifactPhase = "failed"
	ArtifactTimedOut ArtifactPhase = "timed_out"
)

// ArtifactPollState tracks polling for the derived heatmap of a prediction.
// It begins when a qualifying diagnosis carries a job id and ends in Ready,
// Failed or TimedOut; a new prediction resets it to Idle.
type ArtifactPollState struct {
	Phase       ArtifactPhase
	JobID       string
	Attempt     int
	StartedAt   Timestamp
	ArtifactURL string
	Reason      string
}

// Terminal reports whether the lifecycle has ended.
func (s ArtifactPollState) Terminal() bool {
	switch s.Phase {
	case ArtifactReady, ArtifactFailed, ArtifactTimedOut:
		return true
	}
	return false
}
