package ledger

import "context"

// Snapshot is the persistence exchange format for the whole ledger.
// Slices are ordered by creation order; adapters must preserve that
// order, the line-item order within each invoice, and the exact decimal
// value of every amount across a save/load round trip.
type Snapshot struct {
	Invoices []Invoice `json:"invoices"`
	Expenses []Expense `json:"expenses"`
}

// Loader loads a previously saved snapshot. A missing backing store is
// not an error; implementations return an empty snapshot in that case.
type Loader interface {
	Load(ctx context.Context) (Snapshot, error)
}

// Saver persists a snapshot, replacing whatever was saved before
type Saver interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Storage combines both sides of the persistence contract
type Storage interface {
	Loader
	Saver
}
