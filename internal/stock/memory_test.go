package stock

import (
	"context"
	"sort"
	"time"
)

// memoryRepo is an in-memory RepositoryPort used by the service tests.
// WithTx snapshots all state up front and restores it when the callback
// fails, mirroring the rollback the SQL repository gets for free.
type memoryRepo struct {
	products      map[int64]*ProductRef
	productByName map[string]int64
	lots          map[int64]*Lot
	entries       map[int64]*LedgerEntry
	activities    map[int64]*memoryActivity
	nextID        int64
}

type memoryActivity struct {
	ID   int64
	Name string
	PIC  string
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:      make(map[int64]*ProductRef),
		productByName: make(map[string]int64),
		lots:          make(map[int64]*Lot),
		entries:       make(map[int64]*LedgerEntry),
		activities:    make(map[int64]*memoryActivity),
	}
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) snapshot() *memoryRepo {
	clone := newMemoryRepo()
	clone.nextID = r.nextID
	for id, p := range r.products {
		cp := *p
		clone.products[id] = &cp
	}
	for name, id := range r.productByName {
		clone.productByName[name] = id
	}
	for id, l := range r.lots {
		cl := *l
		clone.lots[id] = &cl
	}
	for id, e := range r.entries {
		ce := *e
		ce.Consumption = e.Consumption.clone()
		clone.entries[id] = &ce
	}
	for id, a := range r.activities {
		ca := *a
		clone.activities[id] = &ca
	}
	return clone
}

func (r *memoryRepo) restore(snap *memoryRepo) {
	r.products = snap.products
	r.productByName = snap.productByName
	r.lots = snap.lots
	r.entries = snap.entries
	r.activities = snap.activities
	r.nextID = snap.nextID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *memoryRepo) ListLots(ctx context.Context, productID int64) ([]Lot, error) {
	lots := []Lot{}
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			lots = append(lots, *lot)
		}
	}
	sortLots(lots)
	return lots, nil
}

func (r *memoryRepo) ListEntries(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error) {
	entries := []LedgerEntry{}
	for _, entry := range r.entries {
		if filter.ProductID != nil && entry.ProductID != *filter.ProductID {
			continue
		}
		if filter.Direction != nil && entry.Direction != *filter.Direction {
			continue
		}
		copied := *entry
		copied.Consumption = entry.Consumption.clone()
		entries = append(entries, copied)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func (r *memoryRepo) GetEntry(ctx context.Context, id int64) (LedgerEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return LedgerEntry{}, ErrNotFound
	}
	copied := *entry
	copied.Consumption = entry.Consumption.clone()
	return copied, nil
}

func (tx *memoryTx) SerializeProduct(ctx context.Context, productID int64) error {
	return nil
}

func (tx *memoryTx) FindProductByName(ctx context.Context, name string) (ProductRef, error) {
	id, ok := tx.repo.productByName[name]
	if !ok {
		return ProductRef{}, ErrNotFound
	}
	return *tx.repo.products[id], nil
}

func (tx *memoryTx) CreateProduct(ctx context.Context, name string) (ProductRef, error) {
	product := &ProductRef{ID: tx.repo.id(), Name: name}
	tx.repo.products[product.ID] = product
	tx.repo.productByName[name] = product.ID
	return *product, nil
}

func (tx *memoryTx) GetProduct(ctx context.Context, id int64) (ProductRef, error) {
	product, ok := tx.repo.products[id]
	if !ok {
		return ProductRef{}, ErrNotFound
	}
	return *product, nil
}

func (tx *memoryTx) AdjustProductStock(ctx context.Context, productID, delta int64) error {
	product, ok := tx.repo.products[productID]
	if !ok {
		return ErrNotFound
	}
	product.Stock += delta
	return nil
}

func (tx *memoryTx) FindLotForUpdate(ctx context.Context, productID int64, expiry *time.Time) (Lot, error) {
	for _, lot := range tx.repo.lots {
		if lot.ProductID != productID {
			continue
		}
		if sameExpiry(lot.Expiry, expiry) {
			return *lot, nil
		}
	}
	return Lot{}, ErrNotFound
}

func (tx *memoryTx) GetLotForUpdate(ctx context.Context, lotID int64) (Lot, error) {
	lot, ok := tx.repo.lots[lotID]
	if !ok {
		return Lot{}, ErrNotFound
	}
	return *lot, nil
}

func (tx *memoryTx) EligibleLotsForUpdate(ctx context.Context, productID int64, asOf time.Time) ([]Lot, error) {
	lots := []Lot{}
	for _, lot := range tx.repo.lots {
		if lot.ProductID != productID || lot.Remaining == 0 || lot.ExpiredAt(asOf) {
			continue
		}
		lots = append(lots, *lot)
	}
	sortLots(lots)
	return lots, nil
}

func (tx *memoryTx) CreateLot(ctx context.Context, lot Lot) (int64, error) {
	lot.ID = tx.repo.id()
	lot.CreatedAt = time.Now().UTC()
	tx.repo.lots[lot.ID] = &lot
	return lot.ID, nil
}

func (tx *memoryTx) AdjustLot(ctx context.Context, lotID, delta int64) error {
	lot, ok := tx.repo.lots[lotID]
	if !ok {
		return ErrNotFound
	}
	if lot.Remaining+delta < 0 {
		return ErrInconsistentLedger
	}
	lot.Remaining += delta
	return nil
}

func (tx *memoryTx) FirstInboundDate(ctx context.Context, productID int64) (*time.Time, error) {
	var first *time.Time
	for _, entry := range tx.repo.entries {
		if entry.ProductID != productID || entry.Direction != DirectionIn {
			continue
		}
		if first == nil || entry.OccurredAt.Before(*first) {
			occurred := entry.OccurredAt
			first = &occurred
		}
	}
	return first, nil
}

func (tx *memoryTx) UpsertActivity(ctx context.Context, name, pic string) (int64, error) {
	for _, activity := range tx.repo.activities {
		if activity.Name == name && activity.PIC == pic {
			return activity.ID, nil
		}
	}
	activity := &memoryActivity{ID: tx.repo.id(), Name: name, PIC: pic}
	tx.repo.activities[activity.ID] = activity
	return activity.ID, nil
}

func (tx *memoryTx) GetActivity(ctx context.Context, activityID int64) (string, string, error) {
	activity, ok := tx.repo.activities[activityID]
	if !ok {
		return "", "", ErrNotFound
	}
	return activity.Name, activity.PIC, nil
}

func (tx *memoryTx) RemoveActivityIfOrphan(ctx context.Context, activityID int64) error {
	for _, entry := range tx.repo.entries {
		if entry.ActivityID != nil && *entry.ActivityID == activityID {
			return nil
		}
	}
	delete(tx.repo.activities, activityID)
	return nil
}

func (tx *memoryTx) InsertEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	entry.ID = tx.repo.id()
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	stored := entry
	stored.Consumption = entry.Consumption.clone()
	tx.repo.entries[entry.ID] = &stored
	return entry, nil
}

func (tx *memoryTx) GetEntryForUpdate(ctx context.Context, id int64) (LedgerEntry, error) {
	return tx.repo.GetEntry(ctx, id)
}

func (tx *memoryTx) UpdateEntry(ctx context.Context, entry LedgerEntry) error {
	stored, ok := tx.repo.entries[entry.ID]
	if !ok {
		return ErrNotFound
	}
	entry.CreatedAt = stored.CreatedAt
	entry.UpdatedAt = time.Now().UTC()
	updated := entry
	updated.Consumption = entry.Consumption.clone()
	tx.repo.entries[entry.ID] = &updated
	return nil
}

func (tx *memoryTx) DeleteEntry(ctx context.Context, id int64) error {
	delete(tx.repo.entries, id)
	return nil
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sortLots(lots []Lot) {
	sort.Slice(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.Expiry == nil && b.Expiry == nil:
			return a.ID < b.ID
		case a.Expiry == nil:
			return false
		case b.Expiry == nil:
			return true
		case a.Expiry.Equal(*b.Expiry):
			return a.ID < b.ID
		default:
			return a.Expiry.Before(*b.Expiry)
		}
	})
}
