package domain

import (
	"sync"
	"time"
)

// Session owns all mutable state of one diagnosis-and-chat workflow: the
// conversation timeline, the current prediction result, the artifact poll
// state and the narration step.
//
// Every mutation goes through a method below. BeginPrediction hands out a
// generation token; methods that can be reached by timers or goroutines of a
// superseded prediction take that token and drop stale writes, so a late
// poll answer or tick can never touch the state of a newer prediction.
type Session struct {
	ID        SessionID
	CreatedAt Timestamp

	mu sync.Mutex

	messages  []*Message
	result    *PredictionResult
	artifact  ArtifactPollState
	narration int

	generation      uint64
	predictInFlight bool
	turnInFlight    bool
}

func NewSession(id SessionID, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		artifact:  ArtifactPollState{Phase: ArtifactIdle},
	}
}

// BeginPrediction starts a new prediction attempt: it bumps the generation,
// resets the artifact poll state to Idle and the narration to step zero.
// At most one prediction may be in flight per session.
func (s *Session) BeginPrediction() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.predictInFlight {
		return 0, ErrPredictionInFlight
	}

	s.generation++
	s.predictInFlight = true
	s.artifact = ArtifactPollState{Phase: ArtifactIdle}
	s.narration = 0
	return s.generation, nil
}

// FailPrediction settles a failed prediction. Existing state is untouched:
// the previous result, if any, stays current.
func (s *Session) FailPrediction(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.generation {
		s.predictInFlight = false
	}
}

// CompletePrediction installs the new result and reseeds the conversation
// with the advisory greeting in one step, so no partially-updated state is
// ever observable.
func (s *Session) CompletePrediction(gen uint64, result *PredictionResult, greeting *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.predictInFlight = false
	s.result = result
	s.messages = nil
	if greeting != nil {
		s.messages = []*Message{greeting}
	}
}

func (s *Session) PredictionInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predictInFlight
}

// AdvanceNarration moves the narration one step forward. It reports false
// when ticking should stop: the generation is stale, the request settled,
// or the final label was reached.
func (s *Session) AdvanceNarration(gen uint64, maxStep int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.predictInFlight || s.narration >= maxStep {
		return false
	}
	s.narration++
	return true
}

func (s *Session) NarrationStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.narration
}

// StartArtifactPoll transitions Idle -> Polling for the given job.
func (s *Session) StartArtifactPoll(gen uint64, jobID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.artifact.Phase != ArtifactIdle {
		return false
	}
	s.artifact = ArtifactPollState{
		Phase:     ArtifactPolling,
		JobID:     jobID,
		Attempt:   1,
		StartedAt: now,
	}
	return true
}

// RecordArtifactAttempt counts the next poll attempt. False means the poll
// was superseded or already settled and the caller must stop.
func (s *Session) RecordArtifactAttempt(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.artifact.Phase != ArtifactPolling {
		return false
	}
	s.artifact.Attempt++
	return true
}

// CompleteArtifact transitions Polling -> Ready.
func (s *Session) CompleteArtifact(gen uint64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.artifact.Phase != ArtifactPolling {
		return
	}
	s.artifact.Phase = ArtifactReady
	s.artifact.ArtifactURL = url
}

// FailArtifact transitions Polling -> Failed.
func (s *Session) FailArtifact(gen uint64, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.artifact.Phase != ArtifactPolling {
		return
	}
	s.artifact.Phase = ArtifactFailed
	s.artifact.Reason = reason
}

// TimeoutArtifact transitions Polling -> TimedOut.
func (s *Session) TimeoutArtifact(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.artifact.Phase != ArtifactPolling {
		return
	}
	s.artifact.Phase = ArtifactTimedOut
}

func (s *Session) ArtifactState() ArtifactPollState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// BeginTurn claims the single chat-turn slot of the session.
func (s *Session) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.turnInFlight {
		return ErrTurnInFlight
	}
	s.turnInFlight = true
	return nil
}

func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnInFlight = false
}

func (s *Session) AppendMessage(msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the conversation in chronological order.
func (s *Session) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Result() *PredictionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
