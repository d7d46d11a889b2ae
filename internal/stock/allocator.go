package stock

// planOutbound selects lot debits satisfying qty from eligible lots.
//
// Lots must already be filtered to eligible ones (remaining > 0, not expired
// as of the entry date) and sorted expiry ascending with no-expiry lots last,
// ties broken by creation order. The plan is computed before any mutation so
// a shortfall leaves the store untouched. nominal is the product's aggregate
// stock including expired lots; it distinguishes "nothing usable" from
// "nothing at all".
func planOutbound(lots []Lot, qty int64, nominal int64) (ConsumptionMap, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var available int64
	for _, lot := range lots {
		available += lot.Remaining
	}
	if available < qty {
		if available == 0 && nominal > 0 {
			return nil, ErrNoEligibleStock
		}
		return nil, ErrInsufficientStock
	}

	outstanding := qty
	plan := make(ConsumptionMap, 0, len(lots))
	for _, lot := range lots {
		if outstanding == 0 {
			break
		}
		take := lot.Remaining
		if take > outstanding {
			take = outstanding
		}
		if take == 0 {
			continue
		}
		plan = append(plan, ConsumptionLine{LotID: lot.ID, Qty: take})
		outstanding -= take
	}
	return plan, nil
}
