package domain

// AnalysisRecord is the immutable history entry appended after each
// completed prediction. Records live in memory for the life of the process.
type AnalysisRecord struct {
	ID            RecordID
	SessionID     SessionID
	Diagnosis     DiagnosisLabel
	BenignProb    float64
	MalignantProb float64
	Confidence    float64
	ArtifactJobID string
	CreatedAt     Timestamp
}
