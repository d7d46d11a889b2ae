package stock

// planRelease undoes the tail of an outbound consumption map.
//
// Credits are taken from the last line backward so the most recently
// allocated units return first, keeping the surviving map aligned with
// allocation chronology for any further partial reversal. Returns the lot
// credits in release order and the shrunken map. A delta exceeding the
// recorded total means the ledger no longer describes reality.
func planRelease(m ConsumptionMap, delta int64) (credits ConsumptionMap, remaining ConsumptionMap, err error) {
	if delta <= 0 {
		return nil, nil, ErrInvalidQuantity
	}
	if delta > m.Total() {
		return nil, nil, ErrInconsistentLedger
	}

	remaining = m.clone()
	credits = make(ConsumptionMap, 0, len(m))
	for i := len(remaining) - 1; i >= 0 && delta > 0; i-- {
		take := remaining[i].Qty
		if take > delta {
			take = delta
		}
		credits = append(credits, ConsumptionLine{LotID: remaining[i].LotID, Qty: take})
		remaining[i].Qty -= take
		delta -= take
		if remaining[i].Qty == 0 {
			remaining = remaining[:i]
		}
	}
	return credits, remaining, nil
}
