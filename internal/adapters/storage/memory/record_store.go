package memory

import (
	"sync"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

type RecordStore struct {
	mu      sync.RWMutex
	records map[domain.SessionID][]*domain.AnalysisRecord
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[domain.SessionID][]*domain.AnalysisRecord),
	}
}

func (s *RecordStore) AppendRecord(rec *domain.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.SessionID] = append(s.records[rec.SessionID], rec)
	return nil
}

func (s *RecordStore) ListRecordsBySession(sessionID domain.SessionID, limit int) ([]*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records[sessionID]
	if limit > 0 && len(recs) > limit {
		return recs[len(recs)-limit:], nil
	}
	return recs, nil
}
