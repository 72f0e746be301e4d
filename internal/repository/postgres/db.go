package postgres

import (
	"context"
	"database/sql"

	"carpool/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// TxManager implements repository.TxManager on top of database/sql.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx opens a transaction, hands transaction-scoped stores to fn, and
// commits when fn returns nil. Any error rolls the whole unit back.
func (m *TxManager) RunInTx(ctx context.Context, fn func(s repository.Stores) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&txStores{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// txStores lazily builds transaction-scoped repositories.
type txStores struct {
	tx *sql.Tx
}

func (s *txStores) Trips() repository.TripRepository {
	return NewTripRepositoryWithTx(s.tx)
}

func (s *txStores) Reservations() repository.ReservationRepository {
	return NewReservationRepositoryWithTx(s.tx)
}

func (s *txStores) Users() repository.UserRepository {
	return NewUserRepositoryWithTx(s.tx)
}

var _ repository.TxManager = (*TxManager)(nil)
