package progress

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Recorder used in tests and single-process
// development setups.
type MemoryStore struct {
	mu   sync.RWMutex
	best map[string]BestScore
}

// NewMemoryStore creates an empty in-memory recorder.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{best: make(map[string]BestScore)}
}

func memKey(learnerID, contentID string) string {
	return learnerID + "/" + contentID
}

// Record folds the report into the retained best score.
func (s *MemoryStore) Record(_ context.Context, report Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(report.LearnerID, report.ContentID)
	var current *BestScore
	if existing, ok := s.best[key]; ok {
		current = &existing
	}
	s.best[key] = Merge(current, report)
	return nil
}

// Best returns the retained best score for the pair.
func (s *MemoryStore) Best(_ context.Context, learnerID, contentID string) (*BestScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, ok := s.best[memKey(learnerID, contentID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &best, nil
}

var _ Recorder = (*MemoryStore)(nil)
