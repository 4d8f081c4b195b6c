package memory

import (
	"context"
	"sort"
	"sync"

	"spendsense/internal/domain"
)

type AccountFeed struct {
	mu     sync.RWMutex
	byUser map[string][]*domain.Account
}

func NewAccountFeed() *AccountFeed {
	return &AccountFeed{
		byUser: make(map[string][]*domain.Account),
	}
}

func (f *AccountFeed) Load(userID string, accounts []*domain.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[userID] = append(f.byUser[userID], accounts...)
}

func (f *AccountFeed) GetByUserID(ctx context.Context, userID string) ([]*domain.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	accounts := f.byUser[userID]
	result := make([]*domain.Account, len(accounts))
	copy(result, accounts)

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// ProfileFeed holds the held-products and employer facts for each user.
type ProfileFeed struct {
	mu        sync.RWMutex
	held      map[string][]string
	employers map[string]string
}

func NewProfileFeed() *ProfileFeed {
	return &ProfileFeed{
		held:      make(map[string][]string),
		employers: make(map[string]string),
	}
}

func (f *ProfileFeed) LoadProfile(userID string, heldProducts []string, employerName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[userID] = heldProducts
	f.employers[userID] = employerName
}

func (f *ProfileFeed) HeldProducts(ctx context.Context, userID string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	held := f.held[userID]
	result := make([]string, len(held))
	copy(result, held)
	sort.Strings(result)
	return result, nil
}

func (f *ProfileFeed) EmployerName(ctx context.Context, userID string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.employers[userID], nil
}
