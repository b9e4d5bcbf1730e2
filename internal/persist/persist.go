package persist

import (
	"context"
	"errors"

	"savn/backend/internal/domain"
)

// ErrNotFound signals that no ledger state has been persisted yet; callers
// fall back to seeded state.
var ErrNotFound = errors.New("no persisted ledger state")

// Store durably saves and restores the two collections. The shape is two
// independently keyed serialized collections; the representation behind the
// keys is the adapter's business.
type Store interface {
	Load(ctx context.Context) (products []domain.Product, transactions []domain.Transaction, err error)
	Save(ctx context.Context, products []domain.Product, transactions []domain.Transaction) error
}

// Noop keeps nothing. Used when no durable backend is configured.
type Noop struct{}

func (Noop) Load(_ context.Context) ([]domain.Product, []domain.Transaction, error) {
	return nil, nil, ErrNotFound
}

func (Noop) Save(_ context.Context, _ []domain.Product, _ []domain.Transaction) error {
	return nil
}
