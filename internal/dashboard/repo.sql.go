package dashboard

import (
	"context"

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

// BuildSummary computes totals and the most recent movements.
func (r *PGRepository) BuildSummary(ctx context.Context, recentLimit int) (Summary, error) {
	var summary Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM products),
			(SELECT coalesce(sum(stock), 0) FROM products),
			(SELECT count(*) FROM activities)`).
		Scan(&summary.TotalProducts, &summary.TotalStock, &summary.TotalActivities)
	if err != nil {
		return Summary{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.product_id, p.name, e.direction, e.qty, e.occurred_at, a.name
		FROM ledger_entries e
		JOIN products p ON p.id = e.product_id
		LEFT JOIN activities a ON a.id = e.activity_id
		ORDER BY e.occurred_at DESC, e.created_at DESC
		LIMIT $1`, recentLimit)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	summary.RecentMovements = []Movement{}
	for rows.Next() {
		var movement Movement
		if err := rows.Scan(&movement.EntryID, &movement.ProductID, &movement.ProductName,
			&movement.Direction, &movement.Qty, &movement.OccurredAt, &movement.ActivityName); err != nil {
			return Summary{}, err
		}
		summary.RecentMovements = append(summary.RecentMovements, movement)
	}
	return summary, rows.Err()
}
