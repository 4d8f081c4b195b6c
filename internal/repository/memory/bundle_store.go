package memory

import (
	"context"
	"fmt"
	"sync"

	"spendsense/internal/domain"
	"spendsense/internal/repository"
)

type BundleStore struct {
	mu     sync.RWMutex
	byUser map[string]*domain.InsightBundle
	traces map[string]*domain.DecisionTrace
}

func NewBundleStore() *BundleStore {
	return &BundleStore{
		byUser: make(map[string]*domain.InsightBundle),
		traces: make(map[string]*domain.DecisionTrace),
	}
}

// Save replaces the user's current bundle. Traces are write-once: a
// trace for an already-recorded recommendation ID is rejected rather
// than overwritten.
func (s *BundleStore) Save(ctx context.Context, bundle *domain.InsightBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range bundle.Traces {
		trace := &bundle.Traces[i]
		if existing, exists := s.traces[trace.RecommendationID]; exists {
			if existing.Signature != trace.Signature {
				return fmt.Errorf("%w: trace for recommendation %s", repository.ErrDuplicate, trace.RecommendationID)
			}
			continue
		}
		s.traces[trace.RecommendationID] = trace
	}

	s.byUser[bundle.UserID] = bundle
	return nil
}

func (s *BundleStore) GetByUserID(ctx context.Context, userID string) (*domain.InsightBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundle, exists := s.byUser[userID]
	if !exists {
		return nil, fmt.Errorf("%w: bundle for user %s", repository.ErrNotFound, userID)
	}
	return bundle, nil
}

func (s *BundleStore) GetTrace(ctx context.Context, recommendationID string) (*domain.DecisionTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace, exists := s.traces[recommendationID]
	if !exists {
		return nil, fmt.Errorf("%w: trace for recommendation %s", repository.ErrNotFound, recommendationID)
	}
	return trace, nil
}
