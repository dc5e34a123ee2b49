package pos_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/pos/store"
)

// =============================================================================
// SIGN INVARIANT
// =============================================================================

func TestCashLedger_Record_SignDerivedFromKind(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: An entrance of 100.00 and an exit of 30.00 are recorded
	// THEN: Stored magnitudes are positive; signs come from the kind alone

	ledger := pos.NewCashLedger(store.NewMemory(), nil)
	ctx := context.Background()

	in, err := ledger.Record(ctx, 10000, "troco inicial", pos.KindEntrance)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), in.AmountCents)
	assert.Equal(t, int64(10000), in.SignedCents())
	assert.Equal(t, "100.00", in.SignedAmount().StringFixed(2))

	out, err := ledger.Record(ctx, 3000, "sacolas e etiquetas", pos.KindExit)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), out.AmountCents, "magnitude stays positive even for exits")
	assert.Equal(t, int64(-3000), out.SignedCents())
	assert.Equal(t, "-30.00", out.SignedAmount().StringFixed(2))
}

func TestCashLedger_Record_Validation(t *testing.T) {
	ledger := pos.NewCashLedger(store.NewMemory(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		amount int64
		reason string
		kind   pos.AdjustmentKind
	}{
		{"zero amount", 0, "reason", pos.KindEntrance},
		{"negative amount", -500, "reason", pos.KindExit},
		{"empty reason", 1000, "", pos.KindEntrance},
		{"blank reason", 1000, "   ", pos.KindEntrance},
		{"unknown kind", 1000, "reason", pos.AdjustmentKind("transfer")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.Record(ctx, tc.amount, tc.reason, tc.kind)
			assert.ErrorIs(t, err, pos.ErrInvalidRequest)
		})
	}

	// Nothing may have been appended.
	entries, err := ledger.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCashLedger_Record_TrimsReason(t *testing.T) {
	ledger := pos.NewCashLedger(store.NewMemory(), nil)

	adj, err := ledger.Record(context.Background(), 500, "  aluguel da banca  ", pos.KindExit)
	require.NoError(t, err)
	assert.Equal(t, "aluguel da banca", adj.Reason)
}

// =============================================================================
// LISTING
// =============================================================================

func TestCashLedger_List_NewestFirstAndCapped(t *testing.T) {
	// GIVEN: More entries than the listing cap
	// WHEN: Listing with various limits
	// THEN: Defaults apply, the cap holds, newest entries come first

	mem := store.NewMemory()
	ledger := pos.NewCashLedger(mem, nil)
	ctx := context.Background()

	for i := 0; i < pos.MaxLedgerEntries+10; i++ {
		_, err := ledger.Record(ctx, int64(i+1), "entry "+strconv.Itoa(i), pos.KindEntrance)
		require.NoError(t, err)
	}

	byDefault, err := ledger.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, byDefault, pos.DefaultLedgerEntries)

	capped, err := ledger.List(ctx, pos.MaxLedgerEntries*2)
	require.NoError(t, err)
	assert.Len(t, capped, pos.MaxLedgerEntries, "requested limit above the cap is clamped")

	three, err := ledger.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, three, 3)
	// Newest first: the last recorded amounts come back first.
	assert.Equal(t, int64(pos.MaxLedgerEntries+10), three[0].AmountCents)
	assert.Equal(t, int64(pos.MaxLedgerEntries+9), three[1].AmountCents)
}

func TestCashLedger_List_ReflectsLaterEntries(t *testing.T) {
	ledger := pos.NewCashLedger(store.NewMemory(), nil)
	ctx := context.Background()

	_, err := ledger.Record(ctx, 1000, "first", pos.KindEntrance)
	require.NoError(t, err)

	before, err := ledger.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, before, 1)

	_, err = ledger.Record(ctx, 2000, "second", pos.KindExit)
	require.NoError(t, err)

	after, err := ledger.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}
