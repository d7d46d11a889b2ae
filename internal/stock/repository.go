package stock

import (
	"context"
	"time"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListLots(ctx context.Context, productID int64) ([]Lot, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error)
	GetEntry(ctx context.Context, id int64) (LedgerEntry, error)
}

// TxRepository exposes the per-transaction operations the allocation and
// reversal engines drive. Every method participates in the enclosing
// transaction; SerializeProduct must be called before touching a product's
// lots so concurrent allocations for the same product cannot interleave.
type TxRepository interface {
	SerializeProduct(ctx context.Context, productID int64) error

	FindProductByName(ctx context.Context, name string) (ProductRef, error)
	CreateProduct(ctx context.Context, name string) (ProductRef, error)
	GetProduct(ctx context.Context, id int64) (ProductRef, error)
	AdjustProductStock(ctx context.Context, productID, delta int64) error

	FindLotForUpdate(ctx context.Context, productID int64, expiry *time.Time) (Lot, error)
	GetLotForUpdate(ctx context.Context, lotID int64) (Lot, error)
	EligibleLotsForUpdate(ctx context.Context, productID int64, asOf time.Time) ([]Lot, error)
	CreateLot(ctx context.Context, lot Lot) (int64, error)
	AdjustLot(ctx context.Context, lotID, delta int64) error

	FirstInboundDate(ctx context.Context, productID int64) (*time.Time, error)

	UpsertActivity(ctx context.Context, name, pic string) (int64, error)
	GetActivity(ctx context.Context, activityID int64) (name, pic string, err error)
	RemoveActivityIfOrphan(ctx context.Context, activityID int64) error

	InsertEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	GetEntryForUpdate(ctx context.Context, id int64) (LedgerEntry, error)
	UpdateEntry(ctx context.Context, entry LedgerEntry) error
	DeleteEntry(ctx context.Context, id int64) error
}

// EntryFilter narrows ledger listings.
type EntryFilter struct {
	ProductID *int64
	Direction *Direction
	Limit     int
}
