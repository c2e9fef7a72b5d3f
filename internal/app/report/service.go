package report

import (
	"context"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

// Service reads back the analysis history of a session.
type Service struct {
	store domain.RecordStore
}

func NewService(store domain.RecordStore) *Service {
	return &Service{store: store}
}

// ListAnalyses returns the last `limit` analysis records for a session.
// If limit <= 0, a reasonable default value is used.
func (s *Service) ListAnalyses(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) ([]*domain.AnalysisRecord, error) {

	if s.store == nil {
		return []*domain.AnalysisRecord{}, nil
	}

	if limit <= 0 {
		limit = 20
	}

	// ctx is unused for the in-memory store but kept on the signature so a
	// remote store can honor cancellation.
	_ = ctx
	return s.store.ListRecordsBySession(sessionID, limit)
}
