package categories

import (
	"errors"
	"time"
)

// Category groups products under a shared label.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrNotFound      = errors.New("categories: category not found")
	ErrDuplicateName = errors.New("categories: name already exists")
	ErrInUse         = errors.New("categories: category still referenced by products")
)
