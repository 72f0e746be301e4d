package repository

import "context"

// Stores bundles the transaction-scoped repositories visible inside a
// single atomic unit of work.
type Stores interface {
	Trips() TripRepository
	Reservations() ReservationRepository
	Users() UserRepository
}

// TxManager runs a function against transaction-scoped stores. The
// transaction commits when fn returns nil and rolls back otherwise, so a
// failed guard never leaves partial mutations behind.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(s Stores) error) error
}
