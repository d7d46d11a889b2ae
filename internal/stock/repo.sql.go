package stock

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekahanny/souvenir-tracking-be/internal/platform/db"
)

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) ListLots(ctx context.Context, productID int64) ([]Lot, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, remaining, expiry, created_at
FROM lots WHERE product_id=$1 ORDER BY expiry ASC NULLS LAST, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

func (r *Repository) ListEntries(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error) {
	query := `SELECT id, code, product_id, direction, qty, occurred_at, expiry, activity_id, consumption, created_at, updated_at
FROM ledger_entries WHERE ($1::bigint IS NULL OR product_id=$1) AND ($2::text IS NULL OR direction=$2)
ORDER BY occurred_at DESC, created_at DESC LIMIT $3`
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	var direction *string
	if filter.Direction != nil {
		d := string(*filter.Direction)
		direction = &d
	}
	rows, err := r.pool.Query(ctx, query, filter.ProductID, direction, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *Repository) GetEntry(ctx context.Context, id int64) (LedgerEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, code, product_id, direction, qty, occurred_at, expiry, activity_id, consumption, created_at, updated_at
FROM ledger_entries WHERE id=$1`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, ErrNotFound
	}
	return entry, err
}

// SerializeProduct takes a transaction-scoped advisory lock on the product.
// A transaction that waits here holds a snapshot from before the lock
// winner committed; its writes then fail with a serialization error and
// db.WithTx replays the whole callback on a fresh snapshot.
func (r *txRepository) SerializeProduct(ctx context.Context, productID int64) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, productID)
	return err
}

func (r *txRepository) FindProductByName(ctx context.Context, name string) (ProductRef, error) {
	var p ProductRef
	err := r.tx.QueryRow(ctx, `SELECT id, name, stock FROM products WHERE name=$1`, name).
		Scan(&p.ID, &p.Name, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductRef{}, ErrNotFound
	}
	return p, err
}

func (r *txRepository) CreateProduct(ctx context.Context, name string) (ProductRef, error) {
	p := ProductRef{Name: name}
	err := r.tx.QueryRow(ctx, `INSERT INTO products (name, stock, created_at, updated_at)
VALUES ($1, 0, NOW(), NOW()) RETURNING id`, name).Scan(&p.ID)
	return p, err
}

func (r *txRepository) GetProduct(ctx context.Context, id int64) (ProductRef, error) {
	var p ProductRef
	err := r.tx.QueryRow(ctx, `SELECT id, name, stock FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductRef{}, ErrNotFound
	}
	return p, err
}

func (r *txRepository) AdjustProductStock(ctx context.Context, productID, delta int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id=$1`, productID, delta)
	return err
}

func (r *txRepository) FindLotForUpdate(ctx context.Context, productID int64, expiry *time.Time) (Lot, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, product_id, remaining, expiry, created_at
FROM lots WHERE product_id=$1 AND expiry IS NOT DISTINCT FROM $2 FOR UPDATE`, productID, expiry)
	lot, err := scanLot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lot{}, ErrNotFound
	}
	return lot, err
}

func (r *txRepository) GetLotForUpdate(ctx context.Context, lotID int64) (Lot, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, product_id, remaining, expiry, created_at
FROM lots WHERE id=$1 FOR UPDATE`, lotID)
	lot, err := scanLot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lot{}, ErrNotFound
	}
	return lot, err
}

func (r *txRepository) EligibleLotsForUpdate(ctx context.Context, productID int64, asOf time.Time) ([]Lot, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, product_id, remaining, expiry, created_at
FROM lots WHERE product_id=$1 AND remaining > 0 AND (expiry IS NULL OR expiry >= $2)
ORDER BY expiry ASC NULLS LAST, id ASC FOR UPDATE`, productID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

func (r *txRepository) CreateLot(ctx context.Context, lot Lot) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO lots (product_id, remaining, expiry, created_at)
VALUES ($1,$2,$3,NOW()) RETURNING id`, lot.ProductID, lot.Remaining, lot.Expiry).Scan(&id)
	return id, err
}

func (r *txRepository) AdjustLot(ctx context.Context, lotID, delta int64) error {
	var remaining int64
	err := r.tx.QueryRow(ctx, `UPDATE lots SET remaining = remaining + $2 WHERE id=$1 RETURNING remaining`, lotID, delta).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	// The engine pre-validates every debit; a negative remainder here means
	// the plan and the store disagree.
	if remaining < 0 {
		return ErrInconsistentLedger
	}
	return nil
}

func (r *txRepository) FirstInboundDate(ctx context.Context, productID int64) (*time.Time, error) {
	var first *time.Time
	err := r.tx.QueryRow(ctx, `SELECT MIN(occurred_at) FROM ledger_entries WHERE product_id=$1 AND direction='IN'`, productID).Scan(&first)
	if err != nil {
		return nil, err
	}
	return first, nil
}

func (r *txRepository) UpsertActivity(ctx context.Context, name, pic string) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO activities (name, pic, created_at)
VALUES ($1,$2,NOW())
ON CONFLICT (name, pic) DO UPDATE SET name=EXCLUDED.name RETURNING id`, name, pic).Scan(&id)
	return id, err
}

func (r *txRepository) GetActivity(ctx context.Context, activityID int64) (string, string, error) {
	var name, pic string
	err := r.tx.QueryRow(ctx, `SELECT name, pic FROM activities WHERE id=$1`, activityID).Scan(&name, &pic)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return name, pic, err
}

func (r *txRepository) RemoveActivityIfOrphan(ctx context.Context, activityID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM activities WHERE id=$1
AND NOT EXISTS (SELECT 1 FROM ledger_entries WHERE activity_id=$1)`, activityID)
	return err
}

func (r *txRepository) InsertEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	consumption, err := json.Marshal(entry.Consumption)
	if err != nil {
		return LedgerEntry{}, err
	}
	err = r.tx.QueryRow(ctx, `INSERT INTO ledger_entries (code, product_id, direction, qty, occurred_at, expiry, activity_id, consumption, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		entry.Code, entry.ProductID, string(entry.Direction), entry.Qty, entry.OccurredAt, entry.Expiry, entry.ActivityID, consumption).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	return entry, err
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (LedgerEntry, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, code, product_id, direction, qty, occurred_at, expiry, activity_id, consumption, created_at, updated_at
FROM ledger_entries WHERE id=$1 FOR UPDATE`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, ErrNotFound
	}
	return entry, err
}

func (r *txRepository) UpdateEntry(ctx context.Context, entry LedgerEntry) error {
	consumption, err := json.Marshal(entry.Consumption)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, `UPDATE ledger_entries
SET qty=$2, occurred_at=$3, activity_id=$4, consumption=$5, updated_at=NOW() WHERE id=$1`,
		entry.ID, entry.Qty, entry.OccurredAt, entry.ActivityID, consumption)
	return err
}

func (r *txRepository) DeleteEntry(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM ledger_entries WHERE id=$1`, id)
	return err
}

func scanLot(row pgx.Row) (Lot, error) {
	var lot Lot
	err := row.Scan(&lot.ID, &lot.ProductID, &lot.Remaining, &lot.Expiry, &lot.CreatedAt)
	return lot, err
}

func scanLots(rows pgx.Rows) ([]Lot, error) {
	lots := []Lot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func scanEntry(row pgx.Row) (LedgerEntry, error) {
	var entry LedgerEntry
	var direction string
	var consumption []byte
	err := row.Scan(&entry.ID, &entry.Code, &entry.ProductID, &direction, &entry.Qty,
		&entry.OccurredAt, &entry.Expiry, &entry.ActivityID, &consumption, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return LedgerEntry{}, err
	}
	entry.Direction = Direction(direction)
	if err := json.Unmarshal(consumption, &entry.Consumption); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}
