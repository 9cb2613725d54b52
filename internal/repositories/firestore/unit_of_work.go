package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/stockroom/api/internal/platform/firestore"
)

// UnitOfWork runs repository operations inside a single Firestore transaction.
// The transaction is stashed on the context handed to fn, so any repository
// built on the shared base routes its reads and writes through it.
type UnitOfWork struct {
	provider *pfirestore.Provider
}

// NewUnitOfWork constructs a transactional boundary backed by the provider.
func NewUnitOfWork(provider *pfirestore.Provider) (*UnitOfWork, error) {
	if provider == nil {
		return nil, errors.New("unit of work requires firestore provider")
	}
	return &UnitOfWork{provider: provider}, nil
}

// RunInTx executes fn within a Firestore transaction. Firestore requires all
// reads to happen before the first write, so fn must order its repository
// calls accordingly.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u == nil || u.provider == nil {
		return errors.New("unit of work not initialised")
	}
	if fn == nil {
		return errors.New("unit of work: fn is required")
	}
	return u.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(pfirestore.WithTransaction(ctx, tx))
	})
}
