package pos_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/pos/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func seedVariant(t *testing.T, s pos.Store, price string, quantity int) pos.VariantID {
	t.Helper()

	product := &pos.Product{ID: pos.ProductID("prod-" + price), Name: "Vestido Midi", Category: "vestidos", Active: true}
	require.NoError(t, s.SaveProduct(context.Background(), product))

	v, err := s.UpsertVariant(context.Background(), product.ID, "M", pos.MustParseDecimal(price), quantity)
	require.NoError(t, err)
	return v.ID
}

func cart(seller string, lines ...pos.SaleLine) pos.SaleRequest {
	return pos.SaleRequest{Seller: seller, Lines: lines}
}

// =============================================================================
// PRICING AND STOCK DEBIT
// =============================================================================

func TestEngine_CreateSale_DebitsStockAndTotals(t *testing.T) {
	// GIVEN: A variant with quantity 3 at price 80.00
	// WHEN: A sale of quantity 2 is recorded
	// THEN: Total is 160.00 and remaining stock is 1

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 3)

	sale, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, "160.00", sale.Total.StringFixed(2))
	assert.Len(t, sale.Items, 1)
	assert.Equal(t, "80.00", sale.Items[0].UnitPrice.StringFixed(2))

	v, err := mem.GetVariant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Quantity)
}

func TestEngine_CreateSale_InsufficientStock_Rejected(t *testing.T) {
	// GIVEN: A variant down to 1 unit after a first sale
	// WHEN: A second sale requests 2 units
	// THEN: The sale is rejected naming the variant, and stock stays at 1

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 3)

	_, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 2}))
	require.NoError(t, err)

	_, err = engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 2}))
	require.Error(t, err)

	var stockErr *pos.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, id, stockErr.VariantID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	v, err := mem.GetVariant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Quantity)

	sales, err := mem.ListSales(ctx, pos.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, sales, 1, "the failed sale must not be recorded")
}

func TestEngine_CreateSale_DuplicateCartLines_ProcessedAsSubmitted(t *testing.T) {
	// GIVEN: Stock of 3 and a cart with two lines for the same variant (1 + 2)
	// WHEN: The sale is recorded
	// THEN: Both lines debit, stock reaches 0, total covers all 3 units

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "45.00", 3)

	sale, err := engine.CreateSale(ctx, cart("deh",
		pos.SaleLine{VariantID: id, Quantity: 1},
		pos.SaleLine{VariantID: id, Quantity: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, "135.00", sale.Total.StringFixed(2))
	assert.Len(t, sale.Items, 2)

	v, err := mem.GetVariant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Quantity)
}

// =============================================================================
// VALIDATION (fail-fast, zero side effects)
// =============================================================================

func TestEngine_CreateSale_Validation(t *testing.T) {
	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 3)

	tests := []struct {
		name string
		req  pos.SaleRequest
	}{
		{"missing seller", cart("", pos.SaleLine{VariantID: id, Quantity: 1})},
		{"blank seller", cart("   ", pos.SaleLine{VariantID: id, Quantity: 1})},
		{"empty cart", cart("deh")},
		{"zero quantity", cart("deh", pos.SaleLine{VariantID: id, Quantity: 0})},
		{"negative quantity", cart("deh", pos.SaleLine{VariantID: id, Quantity: -1})},
		{"missing variant id", cart("deh", pos.SaleLine{VariantID: "", Quantity: 1})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateSale(ctx, tc.req)
			assert.ErrorIs(t, err, pos.ErrInvalidRequest)
		})
	}

	// No validation failure may touch stock.
	v, err := mem.GetVariant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Quantity)
}

func TestEngine_CreateSale_UnknownVariant_NoMutation(t *testing.T) {
	// GIVEN: A cart mixing a known and an unknown variant
	// WHEN: The sale is submitted
	// THEN: It fails naming the unknown ID and no stock moves

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 3)

	_, err := engine.CreateSale(ctx, cart("deh",
		pos.SaleLine{VariantID: id, Quantity: 1},
		pos.SaleLine{VariantID: "ghost", Quantity: 1},
	))
	require.Error(t, err)

	var unknownErr *pos.UnknownVariantError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, []pos.VariantID{"ghost"}, unknownErr.Missing)

	v, err := mem.GetVariant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Quantity, "pricing failures must not touch stock")
}

func TestEngine_SellerRoster(t *testing.T) {
	// GIVEN: A roster restricted to "deh" and "carol"
	// WHEN: An off-roster seller submits a sale
	// THEN: The sale is rejected before any stock mutation

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	engine.RestrictSellers("deh", "carol")
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 3)

	_, err := engine.CreateSale(ctx, cart("mallory", pos.SaleLine{VariantID: id, Quantity: 1}))
	assert.ErrorIs(t, err, pos.ErrInvalidRequest)

	_, err = engine.CreateSale(ctx, cart("carol", pos.SaleLine{VariantID: id, Quantity: 1}))
	assert.NoError(t, err)
}

// =============================================================================
// SNAPSHOT PRICING
// =============================================================================

func TestEngine_SnapshotPricing_SurvivesPriceChange(t *testing.T) {
	// GIVEN: A sale recorded at price 80.00
	// WHEN: The variant price later changes to 99.90
	// THEN: The recorded sale keeps its snapshot; a new sale uses the new price

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 5)

	first, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 1}))
	require.NoError(t, err)

	newPrice := pos.MustParseDecimal("99.90")
	_, err = mem.UpdateVariant(ctx, id, &newPrice, nil)
	require.NoError(t, err)

	sales, err := mem.ListSales(ctx, pos.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "80.00", sales[0].Total.StringFixed(2), "historical total must not follow price changes")
	assert.Equal(t, "80.00", first.Items[0].UnitPrice.StringFixed(2))

	second, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "99.90", second.Total.StringFixed(2))
}

// =============================================================================
// OPERATING MODES
// =============================================================================

func TestEngine_Transactional_AllOrNothing(t *testing.T) {
	// GIVEN: A transactional store, two cart lines, second line short on stock
	// WHEN: The sale fails on the second line
	// THEN: The first line's debit is rolled back too

	mem := store.NewTxMemory()
	engine := pos.NewEngine(mem, nil)
	require.True(t, engine.Transactional())
	ctx := context.Background()

	okID := seedVariant(t, mem, "80.00", 5)

	product := &pos.Product{ID: "prod-short", Name: "Bolsa Tote", Category: "acessorios", Active: true}
	require.NoError(t, mem.SaveProduct(ctx, product))
	short, err := mem.UpsertVariant(ctx, product.ID, "U", pos.MustParseDecimal("120.00"), 1)
	require.NoError(t, err)

	_, err = engine.CreateSale(ctx, cart("deh",
		pos.SaleLine{VariantID: okID, Quantity: 2},
		pos.SaleLine{VariantID: short.ID, Quantity: 2},
	))
	require.ErrorIs(t, err, pos.ErrInsufficientStock)

	v, err := mem.GetVariant(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Quantity, "first line's debit must roll back")

	sales, err := mem.ListSales(ctx, pos.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestEngine_Degraded_PartialDebitSurfaced(t *testing.T) {
	// GIVEN: A non-transactional store, two cart lines, second line short
	// WHEN: The sale fails after the first line already debited
	// THEN: PartialDebitError reports the applied debits; stock stays debited

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	require.False(t, engine.Transactional())
	ctx := context.Background()

	okID := seedVariant(t, mem, "80.00", 5)

	product := &pos.Product{ID: "prod-short", Name: "Bolsa Tote", Category: "acessorios", Active: true}
	require.NoError(t, mem.SaveProduct(ctx, product))
	short, err := mem.UpsertVariant(ctx, product.ID, "U", pos.MustParseDecimal("120.00"), 1)
	require.NoError(t, err)

	_, err = engine.CreateSale(ctx, cart("deh",
		pos.SaleLine{VariantID: okID, Quantity: 2},
		pos.SaleLine{VariantID: short.ID, Quantity: 2},
	))
	require.Error(t, err)

	var partial *pos.PartialDebitError
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Applied, 1)
	assert.Equal(t, okID, partial.Applied[0].VariantID)
	assert.Equal(t, 2, partial.Applied[0].Quantity)
	assert.Equal(t, short.ID, partial.Failed)
	assert.ErrorIs(t, partial.Cause, pos.ErrInsufficientStock)

	v, err := mem.GetVariant(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Quantity, "degraded mode cannot roll the first debit back")

	sales, err := mem.ListSales(ctx, pos.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestEngine_Degraded_FirstLineFailure_IsClean(t *testing.T) {
	// A first-line stock failure leaves nothing applied, so it surfaces as
	// a plain InsufficientStock rejection, not a partial debit.

	mem := store.NewMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 1)

	_, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 2}))
	require.ErrorIs(t, err, pos.ErrInsufficientStock)
	assert.NotErrorIs(t, err, pos.ErrPartialStockDebit)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestEngine_ConcurrentSales_NeverOversell(t *testing.T) {
	// GIVEN: 5 units of stock and 10 concurrent single-unit checkouts
	// WHEN: All checkouts race
	// THEN: Exactly 5 succeed and stock ends at 0

	mem := store.NewTxMemory()
	engine := pos.NewEngine(mem, nil)
	ctx := context.Background()

	id := seedVariant(t, mem, "80.00", 5)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CreateSale(ctx, cart("deh", pos.SaleLine{VariantID: id, Quantity: 1}))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, pos.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 5, succeeded)

	v, err := mem.GetVariant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Quantity)

	sales, err := mem.ListSales(ctx, pos.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, sales, 5)
}
