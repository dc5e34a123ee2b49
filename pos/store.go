/*
store.go - Persistence interfaces for the POS engine

PURPOSE:
  Defines the storage contracts the domain engine depends on. Implementations
  live elsewhere (store/sqlite for production, pos/store for in-memory).

THE CRITICAL CONTRACT:
  VariantStore.DebitStock is a conditional decrement: it succeeds only if
  current quantity >= requested quantity, and the check-and-decrement is
  indivisible with respect to concurrent debits on the same variant. This
  must hold across process instances, so it is enforced by the storage
  layer's atomic conditional update, never by in-process locking in the
  engine. It is the sole mechanism preventing overselling.

TRANSACTIONAL VS DEGRADED:
  A store that also implements TxStore offers multi-statement atomicity.
  The checkout engine runs debits + sale insert inside WithTx when
  available (all-or-nothing), and falls back to sequential debits with a
  documented consistency gap when not. See checkout.go.

SEE ALSO:
  - store/sqlite/sqlite.go: Production implementation
  - pos/store/memory.go: In-memory implementation
  - checkout.go: Mode selection
*/
package pos

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VARIANT STORE - Price and stock, source of truth
// =============================================================================

// VariantStore is the single source of truth for variant price and stock.
type VariantStore interface {
	// GetPrices resolves every requested ID to its current price, or fails
	// with UnknownVariantError if any ID is missing. Partial results are
	// never returned: the caller needs a complete map to price a sale.
	GetPrices(ctx context.Context, ids []VariantID) (map[VariantID]decimal.Decimal, error)

	// DebitStock conditionally decrements stock and returns the new
	// quantity. Fails with InsufficientStockError when current quantity is
	// below the request. Check-and-decrement is atomic per variant.
	DebitStock(ctx context.Context, id VariantID, quantity int) (int, error)

	// UpsertVariant creates or replaces the variant for (product, size),
	// setting price and absolute stock quantity.
	UpsertVariant(ctx context.Context, productID ProductID, size string, price decimal.Decimal, quantity int) (*Variant, error)

	// GetVariant returns a variant by ID, or ErrVariantNotFound.
	GetVariant(ctx context.Context, id VariantID) (*Variant, error)

	// VariantsByProduct lists a product's variants ordered by size label.
	VariantsByProduct(ctx context.Context, productID ProductID) ([]Variant, error)

	// UpdateVariant patches price and/or quantity. Nil means keep current.
	UpdateVariant(ctx context.Context, id VariantID, price *decimal.Decimal, quantity *int) (*Variant, error)

	// DeleteVariant removes a variant and its stock.
	DeleteVariant(ctx context.Context, id VariantID) error
}

// =============================================================================
// SALE STORE - Immutable sale records
// =============================================================================

// SaleStore persists sales. No update or delete: sales are immutable.
type SaleStore interface {
	// CreateSale persists a sale and all its items. The sale must not be
	// observable to readers until every item is written.
	CreateSale(ctx context.Context, sale *Sale) error

	// ListSales returns sales newest first, narrowed by the filter.
	// The result is capped regardless of the requested limit.
	ListSales(ctx context.Context, f SaleFilter) ([]Sale, error)

	// SalesRevenue returns the sum over all sale items of
	// quantity x snapshot unit price.
	SalesRevenue(ctx context.Context) (decimal.Decimal, error)
}

// =============================================================================
// CASH STORE - Append-only adjustment ledger
// =============================================================================

// CashStore persists cash adjustments. Append-only: no update, no delete.
type CashStore interface {
	// AppendAdjustment adds one ledger entry.
	AppendAdjustment(ctx context.Context, adj Adjustment) error

	// ListAdjustments returns entries newest first, up to limit.
	ListAdjustments(ctx context.Context, limit int) ([]Adjustment, error)

	// SignedAdjustmentTotal returns the signed sum of all entries in
	// minor units (entrances positive, exits negative).
	SignedAdjustmentTotal(ctx context.Context) (int64, error)
}

// =============================================================================
// PRODUCT STORE - Catalog entries
// =============================================================================

// ProductStore persists catalog products.
type ProductStore interface {
	SaveProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id ProductID) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)

	// DeleteProduct removes a product together with its variants and stock.
	DeleteProduct(ctx context.Context, id ProductID) error
}

// =============================================================================
// COMPOSED INTERFACES
// =============================================================================

// Store is the full persistence surface the engine and API depend on.
type Store interface {
	ProductStore
	VariantStore
	SaleStore
	CashStore
}

// TxStore extends Store with multi-statement atomicity. Stores implementing
// it enable the checkout engine's transactional mode.
type TxStore interface {
	Store

	// WithTx runs fn against a transactional view of the store. If fn
	// returns an error, every write made through the view is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
