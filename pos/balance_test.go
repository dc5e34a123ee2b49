package pos_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/pos/store"
)

func TestBalance_EmptyState_IsZero(t *testing.T) {
	mem := store.NewMemory()
	calc := pos.NewBalanceCalculator(mem, mem)

	balance, err := calc.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.00", balance.StringFixed(2))
}

func TestBalance_RevenuePlusSignedAdjustments(t *testing.T) {
	// GIVEN: Sales totaling 500.00, an entrance of 100.00, an exit of 30.00
	// WHEN: The balance is computed
	// THEN: It equals 570.00

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ledger := pos.NewCashLedger(mem, nil)
	calc := pos.NewBalanceCalculator(mem, mem)
	ctx := context.Background()

	id := seedVariant(t, mem, "100.00", 10)
	_, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 5}))
	require.NoError(t, err)

	_, err = ledger.Record(ctx, 10000, "troco inicial", pos.KindEntrance)
	require.NoError(t, err)
	_, err = ledger.Record(ctx, 3000, "sacolas", pos.KindExit)
	require.NoError(t, err)

	balance, err := calc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "570.00", balance.StringFixed(2))
}

func TestBalance_Reproducible(t *testing.T) {
	// Two computations with no intervening writes must agree exactly.

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	calc := pos.NewBalanceCalculator(mem, mem)
	ctx := context.Background()

	id := seedVariant(t, mem, "79.90", 4)
	_, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 3}))
	require.NoError(t, err)

	first, err := calc.Balance(ctx)
	require.NoError(t, err)
	second, err := calc.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.Equal(t, "239.70", first.StringFixed(2))
}

func TestBalance_UsesSnapshotPrices(t *testing.T) {
	// GIVEN: A sale at 80.00, then a price change to 200.00
	// WHEN: The balance is recomputed
	// THEN: It still reflects the 80.00 snapshot

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	calc := pos.NewBalanceCalculator(mem, mem)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 5)
	_, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 1}))
	require.NoError(t, err)

	newPrice := pos.MustParseDecimal("200.00")
	_, err = mem.UpdateVariant(ctx, id, &newPrice, nil)
	require.NoError(t, err)

	balance, err := calc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "80.00", balance.StringFixed(2))
}

func TestBalance_FollowsNewLedgerEntries(t *testing.T) {
	mem := store.NewMemory()
	ledger := pos.NewCashLedger(mem, nil)
	calc := pos.NewBalanceCalculator(mem, mem)
	ctx := context.Background()

	_, err := ledger.Record(ctx, 5000, "troco", pos.KindEntrance)
	require.NoError(t, err)

	balance, err := calc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "50.00", balance.StringFixed(2))

	_, err = ledger.Record(ctx, 2000, "lanche", pos.KindExit)
	require.NoError(t, err)

	balance, err = calc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "30.00", balance.StringFixed(2))
}
