package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(dateLayout, value)
	require.NoError(t, err)
	return parsed
}

func seedThreeLots(t *testing.T, svc *Service) (productID int64, lots []Lot) {
	t.Helper()
	ctx := context.Background()
	for _, expiry := range []string{"2026-03-01", "2026-04-01", "2026-05-01"} {
		_, err := svc.RecordInbound(ctx, InboundInput{
			ProductName: "mug",
			Qty:         10,
			Expiry:      datePtr(t, expiry),
			OccurredAt:  date(t, "2026-01-10"),
		})
		require.NoError(t, err)
	}
	all, err := svc.ListEntries(ctx, EntryFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, all)
	productID = all[0].ProductID
	lots, err = svc.ListLots(ctx, productID)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	return productID, lots
}

func assertConservation(t *testing.T, repo *memoryRepo, productID int64) {
	t.Helper()
	var sum int64
	for _, lot := range repo.lots {
		if lot.ProductID == productID {
			sum += lot.Remaining
		}
	}
	require.Equal(t, repo.products[productID].Stock, sum, "lot total must match product aggregate")
}

func TestRecordInboundMergesSameExpiry(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.RecordInbound(ctx, InboundInput{ProductName: "keychain", Qty: 10, Expiry: datePtr(t, "2026-06-01"), OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)
	require.Len(t, first.Consumption, 1)

	second, err := svc.RecordInbound(ctx, InboundInput{ProductName: "keychain", Qty: 7, Expiry: datePtr(t, "2026-06-01"), OccurredAt: date(t, "2026-01-02")})
	require.NoError(t, err)
	require.Equal(t, first.Consumption[0].LotID, second.Consumption[0].LotID)

	lots, err := svc.ListLots(ctx, first.ProductID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.Equal(t, int64(17), lots[0].Remaining)
	assertConservation(t, repo, first.ProductID)
}

func TestRecordInboundNoExpiryIsOwnBucket(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	dated, err := svc.RecordInbound(ctx, InboundInput{ProductName: "sticker", Qty: 5, Expiry: datePtr(t, "2026-06-01"), OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)
	_, err = svc.RecordInbound(ctx, InboundInput{ProductName: "sticker", Qty: 5, OccurredAt: date(t, "2026-01-02")})
	require.NoError(t, err)

	lots, err := svc.ListLots(ctx, dated.ProductID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	// dated lot sorts first, the never-expiring bucket last
	require.NotNil(t, lots[0].Expiry)
	require.Nil(t, lots[1].Expiry)
}

func TestRecordOutboundFIFOByExpiry(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	productID, lots := seedThreeLots(t, svc)

	entry, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          15,
		OccurredAt:   date(t, "2026-01-20"),
		ActivityName: "open house",
		PIC:          "sari",
	})
	require.NoError(t, err)
	require.Equal(t, ConsumptionMap{{LotID: lots[0].ID, Qty: 10}, {LotID: lots[1].ID, Qty: 5}}, entry.Consumption)

	after, err := svc.ListLots(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, int64(0), after[0].Remaining)
	require.Equal(t, int64(5), after[1].Remaining)
	require.Equal(t, int64(10), after[2].Remaining, "third lot must stay untouched")
	assertConservation(t, repo, productID)
}

func TestRecordOutboundExpiredLotsExcluded(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	entry, err := svc.RecordInbound(ctx, InboundInput{ProductName: "pin", Qty: 10, Expiry: datePtr(t, "2026-01-15"), OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)

	_, err = svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "pin",
		Qty:          5,
		OccurredAt:   date(t, "2026-02-01"),
		ActivityName: "bazaar",
		PIC:          "dewi",
	})
	require.ErrorIs(t, err, ErrNoEligibleStock)

	lots, listErr := svc.ListLots(ctx, entry.ProductID)
	require.NoError(t, listErr)
	require.Equal(t, int64(10), lots[0].Remaining, "expired lot must not be debited")
	assertConservation(t, repo, entry.ProductID)
}

func TestRecordOutboundInsufficientLeavesNoSideEffects(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	entry, err := svc.RecordInbound(ctx, InboundInput{ProductName: "tumbler", Qty: 10, Expiry: datePtr(t, "2026-06-01"), OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)

	_, err = svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "tumbler",
		Qty:          15,
		OccurredAt:   date(t, "2026-01-10"),
		ActivityName: "expo",
		PIC:          "budi",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	lots, listErr := svc.ListLots(ctx, entry.ProductID)
	require.NoError(t, listErr)
	require.Equal(t, int64(10), lots[0].Remaining)
	require.Equal(t, int64(10), repo.products[entry.ProductID].Stock)

	entries, listErr := svc.ListEntries(ctx, EntryFilter{ProductID: &entry.ProductID})
	require.NoError(t, listErr)
	require.Len(t, entries, 1, "failed allocation must not persist an entry")
}

func TestRecordOutboundRequiresActivity(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.RecordOutbound(context.Background(), OutboundInput{ProductName: "mug", Qty: 1, OccurredAt: date(t, "2026-01-10")})
	require.ErrorIs(t, err, ErrActivityRequired)
}

func TestRecordOutboundBeforeFirstInboundRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductName: "mug", Qty: 10, OccurredAt: date(t, "2026-01-10")})
	require.NoError(t, err)

	_, err = svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          1,
		OccurredAt:   date(t, "2026-01-05"),
		ActivityName: "expo",
		PIC:          "budi",
	})
	require.ErrorIs(t, err, ErrDateBeforeFirstInbound)
}

func TestDeleteOutboundRestoresLotsExactly(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	productID, _ := seedThreeLots(t, svc)

	before, err := svc.ListLots(ctx, productID)
	require.NoError(t, err)

	entry, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          15,
		OccurredAt:   date(t, "2026-01-20"),
		ActivityName: "open house",
		PIC:          "sari",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))

	after, err := svc.ListLots(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, before, after, "full reversal must restore prior lot state")
	assertConservation(t, repo, productID)

	_, err = svc.GetEntry(ctx, entry.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.activities, "orphaned activity must be cleaned up")
}

func TestReviseOutboundDecreaseCreditsLastLotsFirst(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	productID, lots := seedThreeLots(t, svc)

	entry, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          15,
		OccurredAt:   date(t, "2026-01-20"),
		ActivityName: "open house",
		PIC:          "sari",
	})
	require.NoError(t, err)

	newQty := int64(5)
	revised, err := svc.ReviseEntry(ctx, entry.ID, ReviseInput{Qty: &newQty})
	require.NoError(t, err)
	require.Equal(t, int64(5), revised.Qty)
	require.Equal(t, ConsumptionMap{{LotID: lots[0].ID, Qty: 5}}, revised.Consumption)

	after, err := svc.ListLots(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, int64(5), after[0].Remaining, "first lot keeps 5 consumed")
	require.Equal(t, int64(10), after[1].Remaining, "second lot fully restored")
	assertConservation(t, repo, productID)
}

func TestReviseOutboundIncreaseAllocatesFresh(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	productID, lots := seedThreeLots(t, svc)

	entry, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          5,
		OccurredAt:   date(t, "2026-01-20"),
		ActivityName: "open house",
		PIC:          "sari",
	})
	require.NoError(t, err)

	newQty := int64(18)
	revised, err := svc.ReviseEntry(ctx, entry.ID, ReviseInput{Qty: &newQty})
	require.NoError(t, err)
	// 5 already taken from the first lot; the extra 13 drains it and spills over
	require.Equal(t, ConsumptionMap{{LotID: lots[0].ID, Qty: 10}, {LotID: lots[1].ID, Qty: 8}}, revised.Consumption)
	require.Equal(t, int64(18), revised.Consumption.Total())
	assertConservation(t, repo, productID)
}

func TestReviseOutboundIncreaseBeyondStockFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	productID, _ := seedThreeLots(t, svc)

	entry, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          5,
		OccurredAt:   date(t, "2026-01-20"),
		ActivityName: "open house",
		PIC:          "sari",
	})
	require.NoError(t, err)

	newQty := int64(100)
	_, err = svc.ReviseEntry(ctx, entry.ID, ReviseInput{Qty: &newQty})
	require.ErrorIs(t, err, ErrInsufficientStock)

	unchanged, err := svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), unchanged.Qty)
	assertConservation(t, repo, productID)
}

func TestReviseInboundIncrease(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	entry, err := svc.RecordInbound(ctx, InboundInput{ProductName: "mug", Qty: 10, Expiry: datePtr(t, "2026-06-01"), OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)

	newQty := int64(14)
	revised, err := svc.ReviseEntry(ctx, entry.ID, ReviseInput{Qty: &newQty})
	require.NoError(t, err)
	require.Equal(t, ConsumptionMap{{LotID: entry.Consumption[0].LotID, Qty: 14}}, revised.Consumption)

	lots, err := svc.ListLots(ctx, entry.ProductID)
	require.NoError(t, err)
	require.Equal(t, int64(14), lots[0].Remaining)
	assertConservation(t, repo, entry.ProductID)
}

func TestReviseInboundDecreaseAfterConsumptionIsInconsistent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	inbound, err := svc.RecordInbound(ctx, InboundInput{ProductName: "mug", Qty: 10, Expiry: datePtr(t, "2026-06-01"), OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)

	_, err = svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          8,
		OccurredAt:   date(t, "2026-01-10"),
		ActivityName: "expo",
		PIC:          "budi",
	})
	require.NoError(t, err)

	// only 2 remain in the lot; shrinking the inbound to 5 would claw back 5
	newQty := int64(5)
	_, err = svc.ReviseEntry(ctx, inbound.ID, ReviseInput{Qty: &newQty})
	require.ErrorIs(t, err, ErrInconsistentLedger)

	lots, listErr := svc.ListLots(ctx, inbound.ProductID)
	require.NoError(t, listErr)
	require.Equal(t, int64(2), lots[0].Remaining, "failed reversal must not mutate lots")
	assertConservation(t, repo, inbound.ProductID)
}

func TestDeleteInboundClawsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	entry, err := svc.RecordInbound(ctx, InboundInput{ProductName: "mug", Qty: 10, Expiry: datePtr(t, "2026-06-01"), OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))

	lots, err := svc.ListLots(ctx, entry.ProductID)
	require.NoError(t, err)
	require.Equal(t, int64(0), lots[0].Remaining)
	require.Equal(t, int64(0), repo.products[entry.ProductID].Stock)
}

func TestReviseDateOnlyKeepsConsumption(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	seedThreeLots(t, svc)

	entry, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          15,
		OccurredAt:   date(t, "2026-01-20"),
		ActivityName: "open house",
		PIC:          "sari",
	})
	require.NoError(t, err)

	newDate := date(t, "2026-02-15")
	revised, err := svc.ReviseEntry(ctx, entry.ID, ReviseInput{OccurredAt: &newDate})
	require.NoError(t, err)
	require.Equal(t, newDate, revised.OccurredAt)
	require.Equal(t, entry.Consumption, revised.Consumption, "date edits never reshuffle the map")
}

func TestReviseOutboundRewiresActivity(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	seedThreeLots(t, svc)

	entry, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "mug",
		Qty:          5,
		OccurredAt:   date(t, "2026-01-20"),
		ActivityName: "open house",
		PIC:          "sari",
	})
	require.NoError(t, err)

	pic := "dewi"
	revised, err := svc.ReviseEntry(ctx, entry.ID, ReviseInput{PIC: &pic})
	require.NoError(t, err)
	require.NotNil(t, revised.ActivityID)
	require.NotEqual(t, *entry.ActivityID, *revised.ActivityID)

	name, gotPIC, err := (&memoryTx{repo: repo}).GetActivity(ctx, *revised.ActivityID)
	require.NoError(t, err)
	require.Equal(t, "open house", name, "name carries over when only the PIC changes")
	require.Equal(t, "dewi", gotPIC)

	_, _, err = (&memoryTx{repo: repo}).GetActivity(ctx, *entry.ActivityID)
	require.ErrorIs(t, err, ErrNotFound, "orphaned activity is removed")
}

func TestRecordRequiresProductName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductName: "  ", Qty: 5, OccurredAt: date(t, "2026-01-01")})
	require.ErrorIs(t, err, ErrProductRequired)

	_, err = svc.RecordOutbound(ctx, OutboundInput{Qty: 5, OccurredAt: date(t, "2026-01-01"), ActivityName: "bazaar", PIC: "sari"})
	require.ErrorIs(t, err, ErrProductRequired)
}

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) StockChanged(context.Context) {
	n.calls++
}

func TestMutationsNotifyOnlyAfterCommit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	notifier := &countingNotifier{}
	svc.UseNotifier(notifier)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductName: "tote", Qty: 10, OccurredAt: date(t, "2026-01-01")})
	require.NoError(t, err)
	require.Equal(t, 1, notifier.calls)

	_, err = svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "tote",
		Qty:          99,
		OccurredAt:   date(t, "2026-01-05"),
		ActivityName: "bazaar",
		PIC:          "sari",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 1, notifier.calls, "failed mutations must not notify")

	outbound, err := svc.RecordOutbound(ctx, OutboundInput{
		ProductName:  "tote",
		Qty:          4,
		OccurredAt:   date(t, "2026-01-05"),
		ActivityName: "bazaar",
		PIC:          "sari",
	})
	require.NoError(t, err)
	require.Equal(t, 2, notifier.calls)

	require.NoError(t, svc.DeleteEntry(ctx, outbound.ID))
	require.Equal(t, 3, notifier.calls)
}
