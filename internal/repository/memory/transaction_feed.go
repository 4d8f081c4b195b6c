package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"spendsense/internal/domain"
)

type TransactionFeed struct {
	mu     sync.RWMutex
	byUser map[string][]*domain.Transaction
}

func NewTransactionFeed() *TransactionFeed {
	return &TransactionFeed{
		byUser: make(map[string][]*domain.Transaction),
	}
}

// Load seeds the feed with a user's history. Intended for startup and
// tests; the pipeline itself never writes here.
func (f *TransactionFeed) Load(userID string, txs []*domain.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[userID] = append(f.byUser[userID], txs...)
}

func (f *TransactionFeed) GetByUserID(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	txs := f.byUser[userID]
	result := make([]*domain.Transaction, len(txs))
	copy(result, txs)

	sort.Slice(result, func(i, j int) bool {
		if !result[i].PostedDate.Equal(result[j].PostedDate) {
			return result[i].PostedDate.Before(result[j].PostedDate)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (f *TransactionFeed) GetByPeriod(ctx context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error) {
	all, err := f.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var result []*domain.Transaction
	for _, tx := range all {
		if !tx.PostedDate.Before(from) && !tx.PostedDate.After(to) {
			result = append(result, tx)
		}
	}
	return result, nil
}
