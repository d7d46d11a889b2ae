package activities

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// List returns all activities, newest first.
func (r *PGRepository) List(ctx context.Context) ([]Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, pic, created_at FROM activities ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []Activity{}
	for rows.Next() {
		var activity Activity
		if err := rows.Scan(&activity.ID, &activity.Name, &activity.PIC, &activity.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

// GetDetail returns one activity joined with its outbound entries.
func (r *PGRepository) GetDetail(ctx context.Context, id int64) (Detail, error) {
	var detail Detail
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, pic, created_at FROM activities WHERE id = $1`, id).
		Scan(&detail.ID, &detail.Name, &detail.PIC, &detail.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.product_id, p.name, e.qty, e.occurred_at
		FROM ledger_entries e
		JOIN products p ON p.id = e.product_id
		WHERE e.activity_id = $1
		ORDER BY e.occurred_at DESC, e.id DESC`, id)
	if err != nil {
		return Detail{}, err
	}
	defer rows.Close()

	detail.Usages = []Usage{}
	for rows.Next() {
		var usage Usage
		if err := rows.Scan(&usage.EntryID, &usage.ProductID, &usage.ProductName, &usage.Qty, &usage.OccurredAt); err != nil {
			return Detail{}, err
		}
		detail.Usages = append(detail.Usages, usage)
	}
	return detail, rows.Err()
}
