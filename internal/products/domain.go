package products

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnitKind is the measurement unit a product is counted in.
type UnitKind string

const (
	UnitPcs   UnitKind = "pcs"
	UnitKg    UnitKind = "kg"
	UnitGram  UnitKind = "gr"
	UnitMl    UnitKind = "ml"
	UnitLiter UnitKind = "lt"
)

var unitTitle = cases.Title(language.Indonesian)

// ParseUnit normalizes free-form unit input ("PCS", " Kg ") to a known kind.
func ParseUnit(raw string) (UnitKind, error) {
	unit := UnitKind(strings.ToLower(strings.TrimSpace(raw)))
	switch unit {
	case UnitPcs, UnitKg, UnitGram, UnitMl, UnitLiter:
		return unit, nil
	case "":
		return UnitPcs, nil
	default:
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidUnit, raw)
	}
}

// Label renders the unit for display.
func (u UnitKind) Label() string {
	return unitTitle.String(string(u))
}

// Product is the master data record. Stock is a cached aggregate kept in
// step with lot mutations by the stock module; it is read-only here.
type Product struct {
	ID         int64
	Name       string
	CategoryID *int64
	Unit       UnitKind
	Stock      int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var (
	ErrNotFound      = errors.New("products: product not found")
	ErrDuplicateName = errors.New("products: name already exists")
	ErrInvalidUnit   = errors.New("products: invalid unit")
	ErrHasMovements  = errors.New("products: product has ledger entries")
)
