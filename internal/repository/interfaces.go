package repository

import (
	"context"
	"errors"
	"time"

	"spendsense/internal/domain"
)

// The pipeline consumes transactions and accounts read-only; writes
// belong to the external store this package stands in for.
type TransactionFeed interface {
	GetByUserID(ctx context.Context, userID string) ([]*domain.Transaction, error)
	GetByPeriod(ctx context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error)
}

type AccountFeed interface {
	GetByUserID(ctx context.Context, userID string) ([]*domain.Account, error)
}

// ProfileFeed supplies the external facts a run needs beyond the ledger:
// products the user already holds and an optional employer name for
// payroll matching.
type ProfileFeed interface {
	HeldProducts(ctx context.Context, userID string) ([]string, error)
	EmployerName(ctx context.Context, userID string) (string, error)
}

// BundleStore persists completed insight bundles. Traces inside a stored
// bundle are write-once; the store exposes no update path for them.
type BundleStore interface {
	Save(ctx context.Context, bundle *domain.InsightBundle) error
	GetByUserID(ctx context.Context, userID string) (*domain.InsightBundle, error)
	GetTrace(ctx context.Context, recommendationID string) (*domain.DecisionTrace, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)
