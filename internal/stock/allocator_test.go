package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func datePtr(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(dateLayout, value)
	require.NoError(t, err)
	return &parsed
}

func TestPlanOutboundConsumesSoonestExpiryFirst(t *testing.T) {
	lots := []Lot{
		{ID: 1, Remaining: 10, Expiry: datePtr(t, "2026-01-01")},
		{ID: 2, Remaining: 10, Expiry: datePtr(t, "2026-02-01")},
		{ID: 3, Remaining: 10, Expiry: datePtr(t, "2026-03-01")},
	}

	plan, err := planOutbound(lots, 15, 30)
	require.NoError(t, err)
	require.Equal(t, ConsumptionMap{{LotID: 1, Qty: 10}, {LotID: 2, Qty: 5}}, plan)
}

func TestPlanOutboundNoExpiryLotsLast(t *testing.T) {
	lots := []Lot{
		{ID: 7, Remaining: 4, Expiry: datePtr(t, "2026-01-01")},
		{ID: 9, Remaining: 20, Expiry: nil},
	}

	plan, err := planOutbound(lots, 6, 24)
	require.NoError(t, err)
	require.Equal(t, ConsumptionMap{{LotID: 7, Qty: 4}, {LotID: 9, Qty: 2}}, plan)
}

func TestPlanOutboundInsufficient(t *testing.T) {
	lots := []Lot{{ID: 1, Remaining: 10}}

	_, err := planOutbound(lots, 15, 10)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.NotErrorIs(t, err, ErrNoEligibleStock)
}

func TestPlanOutboundNoEligibleStock(t *testing.T) {
	_, err := planOutbound(nil, 5, 10)
	require.ErrorIs(t, err, ErrNoEligibleStock)
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestPlanOutboundEmptyStore(t *testing.T) {
	_, err := planOutbound(nil, 5, 0)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.NotErrorIs(t, err, ErrNoEligibleStock)
}

func TestPlanOutboundRejectsNonPositive(t *testing.T) {
	_, err := planOutbound(nil, 0, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlanReleasePartialCreditsLastLotFirst(t *testing.T) {
	m := ConsumptionMap{{LotID: 1, Qty: 10}, {LotID: 2, Qty: 5}}

	credits, remaining, err := planRelease(m, 10)
	require.NoError(t, err)
	require.Equal(t, ConsumptionMap{{LotID: 2, Qty: 5}, {LotID: 1, Qty: 5}}, credits)
	require.Equal(t, ConsumptionMap{{LotID: 1, Qty: 5}}, remaining)
	// the original is untouched
	require.Equal(t, int64(10), m[0].Qty)
}

func TestPlanReleaseFull(t *testing.T) {
	m := ConsumptionMap{{LotID: 1, Qty: 10}, {LotID: 2, Qty: 5}}

	credits, remaining, err := planRelease(m, 15)
	require.NoError(t, err)
	require.Equal(t, ConsumptionMap{{LotID: 2, Qty: 5}, {LotID: 1, Qty: 10}}, credits)
	require.Empty(t, remaining)
}

func TestPlanReleaseBeyondRecordedTotal(t *testing.T) {
	m := ConsumptionMap{{LotID: 1, Qty: 10}}

	_, _, err := planRelease(m, 11)
	require.ErrorIs(t, err, ErrInconsistentLedger)
}

func TestConsumptionMapMerge(t *testing.T) {
	m := ConsumptionMap{{LotID: 1, Qty: 10}, {LotID: 2, Qty: 5}}

	merged := m.merge(ConsumptionMap{{LotID: 2, Qty: 3}, {LotID: 4, Qty: 7}})
	require.Equal(t, ConsumptionMap{{LotID: 1, Qty: 10}, {LotID: 2, Qty: 8}, {LotID: 4, Qty: 7}}, merged)
	require.Equal(t, int64(25), merged.Total())
}
