package categories

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

// List returns all categories ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// GetByID fetches one category.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Category, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

// Create inserts a category.
func (r *PGRepository) Create(ctx context.Context, name string) (Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (name) VALUES ($1)
		RETURNING id, name, created_at, updated_at`, name)
	category, err := scanCategory(row)
	if err != nil {
		return Category{}, mapConstraint(err)
	}
	return category, nil
}

// Rename updates a category's name.
func (r *PGRepository) Rename(ctx context.Context, id int64, name string) (Category, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, created_at, updated_at`, id, name)
	category, err := scanCategory(row)
	if err != nil {
		return Category{}, mapConstraint(err)
	}
	return category, nil
}

// Delete removes a category unless a product still references it.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var category Category
	err := row.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}
	return category, nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateName
	}
	return err
}
