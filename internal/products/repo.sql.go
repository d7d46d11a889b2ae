package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const productColumns = `id, name, category_id, unit, stock, created_at, updated_at`

// List returns products matching the filter, ordered by name.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	search := "%" + filter.Search + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR name ILIKE $2)
		  AND ($3::bigint IS NULL OR category_id = $3)
		ORDER BY name ASC`,
		filter.Search, search, filter.CategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// GetByID fetches one product.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// Create inserts a product with zero stock.
func (r *PGRepository) Create(ctx context.Context, product Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, category_id, unit)
		VALUES ($1, $2, $3)
		RETURNING `+productColumns,
		product.Name, product.CategoryID, product.Unit)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, mapConstraint(err)
	}
	return created, nil
}

// Update rewrites product master data, never the stock aggregate.
func (r *PGRepository) Update(ctx context.Context, product Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, category_id = $3, unit = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		product.ID, product.Name, product.CategoryID, product.Unit)
	updated, err := scanProduct(row)
	if err != nil {
		return Product{}, mapConstraint(err)
	}
	return updated, nil
}

// Delete removes a product unless ledger entries reference it.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM products
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM ledger_entries WHERE product_id = $1)`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return ErrHasMovements
		}
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	err := row.Scan(&product.ID, &product.Name, &product.CategoryID, &product.Unit,
		&product.Stock, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return product, nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateName
	}
	return err
}
