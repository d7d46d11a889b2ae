package stock

import (
	"errors"
	"fmt"
	"time"
)

// Direction enumerates ledger entry movements.
type Direction string

const (
	// DirectionIn represents stock arriving in a dated lot.
	DirectionIn Direction = "IN"
	// DirectionOut represents stock consumed by an activity.
	DirectionOut Direction = "OUT"
)

// Lot is a batch of product stock sharing one expiry date. A nil Expiry
// marks a lot that never expires. Remaining never goes below zero.
type Lot struct {
	ID        int64
	ProductID int64
	Remaining int64
	Expiry    *time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the lot is past its expiry as of the given date.
func (l Lot) ExpiredAt(asOf time.Time) bool {
	if l.Expiry == nil {
		return false
	}
	return l.Expiry.Before(asOf)
}

// ConsumptionLine records how much of an entry's quantity was sourced from
// (or credited onto) a single lot.
type ConsumptionLine struct {
	LotID int64 `json:"lot_id"`
	Qty   int64 `json:"qty"`
}

// ConsumptionMap is an ordered association list of lot debits. Order follows
// allocation chronology; reversal replays it back to front.
type ConsumptionMap []ConsumptionLine

// Total sums the quantities recorded in the map.
func (m ConsumptionMap) Total() int64 {
	var total int64
	for _, line := range m {
		total += line.Qty
	}
	return total
}

func (m ConsumptionMap) clone() ConsumptionMap {
	out := make(ConsumptionMap, len(m))
	copy(out, m)
	return out
}

// merge folds additional lines into the map, adding onto an existing line
// when the same lot appears again and appending otherwise.
func (m ConsumptionMap) merge(lines ConsumptionMap) ConsumptionMap {
	out := m.clone()
outer:
	for _, line := range lines {
		for i := range out {
			if out[i].LotID == line.LotID {
				out[i].Qty += line.Qty
				continue outer
			}
		}
		out = append(out, line)
	}
	return out
}

// LedgerEntry is a recorded inbound or outbound stock movement. For outbound
// entries the consumption map sums to Qty; inbound entries carry exactly one
// line naming the lot that absorbed the quantity.
type LedgerEntry struct {
	ID          int64
	Code        string
	ProductID   int64
	Direction   Direction
	Qty         int64
	OccurredAt  time.Time
	Expiry      *time.Time
	ActivityID  *int64
	Consumption ConsumptionMap
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductRef is the slice of product state the engine needs:
// identity plus the cached stock aggregate it keeps consistent.
type ProductRef struct {
	ID    int64
	Name  string
	Stock int64
}

var (
	// ErrInsufficientStock rejects an outbound allocation larger than the
	// eligible quantity. Expected business outcome, not a bug.
	ErrInsufficientStock = errors.New("stock: insufficient quantity available")

	// ErrNoEligibleStock refines ErrInsufficientStock: nominal quantity
	// exists but every lot is expired as of the requested date.
	ErrNoEligibleStock = fmt.Errorf("stock: all lots expired: %w", ErrInsufficientStock)

	// ErrInconsistentLedger signals that a recorded consumption map can no
	// longer be honored by current lot state. Fatal to the operation and a
	// sign of prior data corruption; never retried or swallowed.
	ErrInconsistentLedger = errors.New("stock: ledger consumption does not match lot state")

	// ErrNotFound indicates a missing ledger entry or product.
	ErrNotFound = errors.New("stock: not found")

	// ErrInvalidQuantity rejects non-positive quantities.
	ErrInvalidQuantity = errors.New("stock: quantity must be positive")

	// ErrProductRequired rejects entries without a product name.
	ErrProductRequired = errors.New("stock: product name required")

	// ErrActivityRequired rejects outbound entries without activity and PIC.
	ErrActivityRequired = errors.New("stock: activity name and pic required for outbound")

	// ErrDateBeforeFirstInbound rejects an outbound entry dated earlier than
	// the product's first recorded inbound. Enforced at creation only.
	ErrDateBeforeFirstInbound = errors.New("stock: outbound date precedes first inbound")
)
