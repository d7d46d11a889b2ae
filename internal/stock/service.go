package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notifier is told after a stock movement commits so dependent read
// models can refresh.
type Notifier interface {
	StockChanged(ctx context.Context)
}

// Service coordinates lot allocation, ledger writes, and reversal. Every
// public operation runs as one transaction: all lot mutations plus the
// ledger write commit together or not at all.
type Service struct {
	repo     RepositoryPort
	logger   *slog.Logger
	notifier Notifier
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// UseNotifier registers the target informed after each committed mutation.
func (s *Service) UseNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) notifyChanged(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.StockChanged(ctx)
	}
}

// InboundInput describes a stock arrival. An unknown product name creates
// the product on the fly.
type InboundInput struct {
	ProductName string
	Qty         int64
	Expiry      *time.Time
	OccurredAt  time.Time
}

// OutboundInput describes stock leaving for an activity.
type OutboundInput struct {
	ProductName  string
	Qty          int64
	OccurredAt   time.Time
	ActivityName string
	PIC          string
}

// ReviseInput carries the fields an existing entry may change. Nil fields
// are left untouched.
type ReviseInput struct {
	Qty          *int64
	OccurredAt   *time.Time
	ActivityName *string
	PIC          *string
}

// RecordInbound merges the quantity into the product's lot for the given
// expiry bucket, creating the lot (and product) when absent.
func (s *Service) RecordInbound(ctx context.Context, in InboundInput) (LedgerEntry, error) {
	if strings.TrimSpace(in.ProductName) == "" {
		return LedgerEntry{}, ErrProductRequired
	}
	if in.Qty <= 0 {
		return LedgerEntry{}, ErrInvalidQuantity
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now().UTC()
	}

	var entry LedgerEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := s.findOrCreateProduct(ctx, tx, in.ProductName)
		if err != nil {
			return err
		}
		if err := tx.SerializeProduct(ctx, product.ID); err != nil {
			return err
		}

		lotID, err := s.absorbInbound(ctx, tx, product.ID, in.Qty, in.Expiry)
		if err != nil {
			return err
		}
		if err := tx.AdjustProductStock(ctx, product.ID, in.Qty); err != nil {
			return err
		}

		entry, err = tx.InsertEntry(ctx, LedgerEntry{
			Code:        uuid.NewString(),
			ProductID:   product.ID,
			Direction:   DirectionIn,
			Qty:         in.Qty,
			OccurredAt:  in.OccurredAt,
			Expiry:      in.Expiry,
			Consumption: ConsumptionMap{{LotID: lotID, Qty: in.Qty}},
		})
		return err
	})
	if err != nil {
		return LedgerEntry{}, err
	}
	s.notifyChanged(ctx)
	return entry, nil
}

// RecordOutbound allocates the quantity from the soonest-expiring eligible
// lots and records the per-lot debits on the entry.
func (s *Service) RecordOutbound(ctx context.Context, in OutboundInput) (LedgerEntry, error) {
	if strings.TrimSpace(in.ProductName) == "" {
		return LedgerEntry{}, ErrProductRequired
	}
	if in.Qty <= 0 {
		return LedgerEntry{}, ErrInvalidQuantity
	}
	if strings.TrimSpace(in.ActivityName) == "" || strings.TrimSpace(in.PIC) == "" {
		return LedgerEntry{}, ErrActivityRequired
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now().UTC()
	}

	var entry LedgerEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := s.findOrCreateProduct(ctx, tx, in.ProductName)
		if err != nil {
			return err
		}
		if err := tx.SerializeProduct(ctx, product.ID); err != nil {
			return err
		}

		first, err := tx.FirstInboundDate(ctx, product.ID)
		if err != nil {
			return err
		}
		if first != nil && in.OccurredAt.Before(*first) {
			return ErrDateBeforeFirstInbound
		}

		plan, err := s.allocate(ctx, tx, product, in.Qty, in.OccurredAt)
		if err != nil {
			return err
		}
		if err := tx.AdjustProductStock(ctx, product.ID, -in.Qty); err != nil {
			return err
		}

		activityID, err := tx.UpsertActivity(ctx, in.ActivityName, in.PIC)
		if err != nil {
			return err
		}

		entry, err = tx.InsertEntry(ctx, LedgerEntry{
			Code:        uuid.NewString(),
			ProductID:   product.ID,
			Direction:   DirectionOut,
			Qty:         in.Qty,
			OccurredAt:  in.OccurredAt,
			ActivityID:  &activityID,
			Consumption: plan,
		})
		return err
	})
	if err != nil {
		return LedgerEntry{}, err
	}
	s.notifyChanged(ctx)
	return entry, nil
}

// ReviseEntry adjusts an entry's quantity, date, or (for outbound) activity.
// Quantity changes replay the inverse of the recorded consumption map; date
// changes update the value only and are not re-validated against lot
// chronology, matching the creation-time-only rule.
func (s *Service) ReviseEntry(ctx context.Context, id int64, in ReviseInput) (LedgerEntry, error) {
	if in.Qty != nil && *in.Qty <= 0 {
		return LedgerEntry{}, ErrInvalidQuantity
	}

	var entry LedgerEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.SerializeProduct(ctx, entry.ProductID); err != nil {
			return err
		}

		if in.Qty != nil && *in.Qty != entry.Qty {
			if err := s.resize(ctx, tx, &entry, *in.Qty); err != nil {
				return err
			}
		}
		if in.OccurredAt != nil {
			entry.OccurredAt = *in.OccurredAt
		}
		var orphaned *int64
		if entry.Direction == DirectionOut && (in.ActivityName != nil || in.PIC != nil) {
			orphaned, err = s.rewireActivity(ctx, tx, &entry, in.ActivityName, in.PIC)
			if err != nil {
				return err
			}
		}
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		// the old activity can only be judged orphaned once the entry row
		// points at its replacement
		if orphaned != nil {
			return tx.RemoveActivityIfOrphan(ctx, *orphaned)
		}
		return nil
	})
	if err != nil {
		return LedgerEntry{}, err
	}
	s.notifyChanged(ctx)
	return entry, nil
}

// DeleteEntry fully reverses the entry's effect on lots and the product
// aggregate, then removes the record.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.SerializeProduct(ctx, entry.ProductID); err != nil {
			return err
		}

		switch entry.Direction {
		case DirectionIn:
			if err := s.clawBackInbound(ctx, tx, entry, entry.Qty); err != nil {
				return err
			}
		case DirectionOut:
			credits, _, err := planRelease(entry.Consumption, entry.Qty)
			if err != nil {
				return err
			}
			for _, credit := range credits {
				if err := tx.AdjustLot(ctx, credit.LotID, credit.Qty); err != nil {
					return err
				}
			}
			if err := tx.AdjustProductStock(ctx, entry.ProductID, entry.Qty); err != nil {
				return err
			}
		}

		if err := tx.DeleteEntry(ctx, entry.ID); err != nil {
			return err
		}
		if entry.ActivityID != nil {
			return tx.RemoveActivityIfOrphan(ctx, *entry.ActivityID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyChanged(ctx)
	return nil
}

// ListLots returns the product's lots sorted by expiry ascending.
func (s *Service) ListLots(ctx context.Context, productID int64) ([]Lot, error) {
	return s.repo.ListLots(ctx, productID)
}

// ListEntries returns ledger entries, most recent occurrence first.
func (s *Service) ListEntries(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// GetEntry fetches one ledger entry.
func (s *Service) GetEntry(ctx context.Context, id int64) (LedgerEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) findOrCreateProduct(ctx context.Context, tx TxRepository, name string) (ProductRef, error) {
	name = strings.TrimSpace(name)
	product, err := tx.FindProductByName(ctx, name)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ProductRef{}, err
	}
	return tx.CreateProduct(ctx, name)
}

// absorbInbound merges qty into the lot for (product, expiry) or creates it.
func (s *Service) absorbInbound(ctx context.Context, tx TxRepository, productID, qty int64, expiry *time.Time) (int64, error) {
	lot, err := tx.FindLotForUpdate(ctx, productID, expiry)
	if err == nil {
		if err := tx.AdjustLot(ctx, lot.ID, qty); err != nil {
			return 0, err
		}
		return lot.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	return tx.CreateLot(ctx, Lot{ProductID: productID, Remaining: qty, Expiry: expiry})
}

// allocate plans an outbound debit set and applies it. The plan is computed
// in full before the first lot mutation so failures leave no side effects.
func (s *Service) allocate(ctx context.Context, tx TxRepository, product ProductRef, qty int64, asOf time.Time) (ConsumptionMap, error) {
	lots, err := tx.EligibleLotsForUpdate(ctx, product.ID, asOf)
	if err != nil {
		return nil, err
	}
	plan, err := planOutbound(lots, qty, product.Stock)
	if err != nil {
		return nil, err
	}
	for _, debit := range plan {
		if err := tx.AdjustLot(ctx, debit.LotID, -debit.Qty); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// resize applies a quantity change to an existing entry via the reversal
// engine and keeps the product aggregate in step.
func (s *Service) resize(ctx context.Context, tx TxRepository, entry *LedgerEntry, newQty int64) error {
	delta := newQty - entry.Qty

	switch entry.Direction {
	case DirectionIn:
		if delta > 0 {
			line := entry.Consumption[0]
			if err := tx.AdjustLot(ctx, line.LotID, delta); err != nil {
				return err
			}
			entry.Consumption[0].Qty += delta
			if err := tx.AdjustProductStock(ctx, entry.ProductID, delta); err != nil {
				return err
			}
		} else {
			if err := s.clawBackInbound(ctx, tx, *entry, -delta); err != nil {
				return err
			}
			entry.Consumption[0].Qty += delta
		}
	case DirectionOut:
		if delta > 0 {
			product, err := tx.GetProduct(ctx, entry.ProductID)
			if err != nil {
				return err
			}
			plan, err := s.allocate(ctx, tx, product, delta, entry.OccurredAt)
			if err != nil {
				return err
			}
			entry.Consumption = entry.Consumption.merge(plan)
			if err := tx.AdjustProductStock(ctx, entry.ProductID, -delta); err != nil {
				return err
			}
		} else {
			credits, remaining, err := planRelease(entry.Consumption, -delta)
			if err != nil {
				return err
			}
			for _, credit := range credits {
				if err := tx.AdjustLot(ctx, credit.LotID, credit.Qty); err != nil {
					return err
				}
			}
			entry.Consumption = remaining
			if err := tx.AdjustProductStock(ctx, entry.ProductID, -delta); err != nil {
				return err
			}
		}
	}

	entry.Qty = newQty
	return nil
}

// clawBackInbound debits qty from the single lot an inbound entry credited.
// Insufficient remaining quantity means downstream allocations already
// consumed the stock this reversal needs: a fatal ledger inconsistency.
func (s *Service) clawBackInbound(ctx context.Context, tx TxRepository, entry LedgerEntry, qty int64) error {
	if len(entry.Consumption) != 1 {
		return fmt.Errorf("%w: inbound entry %d has %d consumption lines", ErrInconsistentLedger, entry.ID, len(entry.Consumption))
	}
	line := entry.Consumption[0]
	lot, err := tx.GetLotForUpdate(ctx, line.LotID)
	if err != nil {
		return err
	}
	if lot.Remaining < qty {
		if s.logger != nil {
			s.logger.Error("inbound reversal exceeds lot remainder",
				slog.Int64("entry_id", entry.ID),
				slog.Int64("lot_id", lot.ID),
				slog.Int64("remaining", lot.Remaining),
				slog.Int64("needed", qty))
		}
		return fmt.Errorf("%w: lot %d holds %d, reversal needs %d", ErrInconsistentLedger, lot.ID, lot.Remaining, qty)
	}
	if err := tx.AdjustLot(ctx, lot.ID, -qty); err != nil {
		return err
	}
	return tx.AdjustProductStock(ctx, entry.ProductID, -qty)
}

// rewireActivity points the entry at the activity named by the given fields,
// filling missing fields from the current activity. It returns the previous
// activity ID when it may have been orphaned by the switch.
func (s *Service) rewireActivity(ctx context.Context, tx TxRepository, entry *LedgerEntry, name, pic *string) (*int64, error) {
	newName := ""
	newPIC := ""
	if name != nil {
		newName = strings.TrimSpace(*name)
	}
	if pic != nil {
		newPIC = strings.TrimSpace(*pic)
	}
	if (newName == "" || newPIC == "") && entry.ActivityID != nil {
		oldName, oldPIC, err := tx.GetActivity(ctx, *entry.ActivityID)
		if err != nil {
			return nil, err
		}
		if newName == "" {
			newName = oldName
		}
		if newPIC == "" {
			newPIC = oldPIC
		}
	}
	if newName == "" || newPIC == "" {
		return nil, ErrActivityRequired
	}

	old := entry.ActivityID
	activityID, err := tx.UpsertActivity(ctx, newName, newPIC)
	if err != nil {
		return nil, err
	}
	entry.ActivityID = &activityID
	if old != nil && *old != activityID {
		return old, nil
	}
	return nil, nil
}
