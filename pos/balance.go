/*
balance.go - Cash-on-hand calculator

PURPOSE:
  Derives the running cash balance from persisted state:

    balance = sum(saleItem.quantity x snapshot unit price)
            + sum(signed cash adjustments)

  Pure read-side aggregation with no stored state of its own. The figure
  is recomputed from the underlying tables on every call - it is a view,
  never a cache, so it cannot be stale by construction.

SEE ALSO:
  - ledger.go: The adjustment half of the balance
  - store.go: SalesRevenue and SignedAdjustmentTotal contracts
*/
package pos

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceCalculator aggregates sales revenue and ledger adjustments.
type BalanceCalculator struct {
	sales SaleStore
	cash  CashStore
}

// NewBalanceCalculator creates a calculator over the two read sources.
func NewBalanceCalculator(sales SaleStore, cash CashStore) *BalanceCalculator {
	return &BalanceCalculator{sales: sales, cash: cash}
}

// Balance computes cash-on-hand from current persisted state.
// Calling twice with no intervening writes returns identical results.
func (b *BalanceCalculator) Balance(ctx context.Context) (decimal.Decimal, error) {
	revenue, err := b.sales.SalesRevenue(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	signedCents, err := b.cash.SignedAdjustmentTotal(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return revenue.Add(CentsToDecimal(signedCents)), nil
}
