package domain

import "context"

// ChatClient is the chat-completion collaborator. It is stateless: the full
// outbound context must be sent on every call.
type ChatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// InferencePrediction is the parsed response of the inference service.
type InferencePrediction struct {
	Diagnosis     DiagnosisLabel
	BenignProb    float64
	MalignantProb float64
	Confidence    float64
	ArtifactJobID string
}

// InferenceClient drives the image -> diagnosis round trip.
type InferenceClient interface {
	Predict(ctx context.Context, img UploadedImage) (*InferencePrediction, error)
}

// ArtifactCheck is one answer from the artifact endpoint.
type ArtifactCheck struct {
	Ready bool
	URL   string
}

// ArtifactClient queries the heatmap job of a prediction.
type ArtifactClient interface {
	CheckArtifact(ctx context.Context, jobID string) (ArtifactCheck, error)
}

// SessionStore holds live sessions.
type SessionStore interface {
	CreateSession(sess *Session) error
	GetSession(id SessionID) (*Session, error)
	DeleteSession(id SessionID) error
}

// RecordStore holds per-session analysis history.
type RecordStore interface {
	AppendRecord(rec *AnalysisRecord) error
	ListRecordsBySession(sessionID SessionID, limit int) ([]*AnalysisRecord, error)
}
