/*
Package pos provides the core point-of-sale domain engine.

PURPOSE:
  This package contains the domain types and algorithms for a small
  merchandise operation: sized product variants with per-variant stock,
  a checkout engine that prices and debits stock atomically, and a cash
  ledger of manual adjustments reconciled against sales revenue.

KEY CONCEPTS IN THIS FILE (types.go):
  - Variant: a sized version of a product, the unit of pricing and stock
  - Sale/SaleItem: immutable records of a checkout, with snapshot prices
  - Adjustment: a signed manual cash movement (entrance or exit)
  - SaleRequest: the cart submitted to the checkout engine

DESIGN PRINCIPLES:
  1. Immutability: sales and ledger entries are never updated or deleted
  2. Precision: decimal.Decimal for prices, integer cents for the ledger
  3. Snapshot pricing: a SaleItem keeps the unit price captured at sale
     time, so later price changes never alter historical sales
  4. Type safety: distinct ID types prevent mixing product/variant IDs

USAGE:
  engine := pos.NewEngine(store, logger)
  sale, err := engine.CreateSale(ctx, pos.SaleRequest{
      Seller: "deh",
      Lines:  []pos.SaleLine{{VariantID: id, Quantity: 2}},
  })

SEE ALSO:
  - checkout.go: Sale transaction engine
  - ledger.go: Cash ledger
  - balance.go: Balance calculator
  - store.go: Persistence interfaces
*/
package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type VariantID string
type SaleID string
type AdjustmentID string

// =============================================================================
// CATALOG - Products and sized variants
// =============================================================================

// Sizes is the advisory closed set of size labels. The catalog does not
// hard-reject other labels; the UI offers only these.
var Sizes = []string{"PP", "P", "M", "G", "GG", "EG", "U"}

// KnownSize reports whether the label is in the advisory size set.
func KnownSize(label string) bool {
	for _, s := range Sizes {
		if s == label {
			return true
		}
	}
	return false
}

// Product is a catalog entry. Stock and price live on its variants.
type Product struct {
	ID        ProductID
	Name      string
	Category  string
	Active    bool
	ImageURL  string
	ImageAlt  string
	CreatedAt time.Time
}

// Variant is a sized version of a product. At most one variant exists per
// (product, size) pair. Price and quantity are independently mutable;
// quantity never goes negative.
type Variant struct {
	ID        VariantID
	ProductID ProductID
	Size      string
	Price     decimal.Decimal // current unit price, 2-digit cent precision
	Quantity  int             // current stock, >= 0
	CreatedAt time.Time
}

// =============================================================================
// SALES - Immutable checkout records
// =============================================================================

// Sale is an immutable record of one successful checkout.
// Never updated or deleted once created.
type Sale struct {
	ID        SaleID
	Seller    string
	Buyer     string // optional free-text label
	Total     decimal.Decimal
	Items     []SaleItem
	CreatedAt time.Time
}

// SaleItem is one line of a sale. UnitPrice is the price captured at sale
// time - a snapshot, decoupled from the variant's current price.
type SaleItem struct {
	ID        string
	SaleID    SaleID
	VariantID VariantID
	Quantity  int // >= 1
	UnitPrice decimal.Decimal
}

// Extension returns quantity x snapshot unit price for this line.
func (i SaleItem) Extension() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SaleLine is one cart entry in a sale request.
type SaleLine struct {
	VariantID VariantID
	Quantity  int
}

// SaleRequest is the input to the checkout engine.
type SaleRequest struct {
	Seller string
	Buyer  string
	Lines  []SaleLine
}

// SaleFilter narrows a sales history query. Zero values mean "no filter".
type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Seller string
	Limit  int
}

// =============================================================================
// CASH LEDGER - Signed manual adjustments
// =============================================================================

// AdjustmentKind tags a ledger entry as money in or money out.
// The sign of an adjustment is derived from its kind, never stored raw.
type AdjustmentKind string

const (
	KindEntrance AdjustmentKind = "entrance"
	KindExit     AdjustmentKind = "exit"
)

// Valid reports whether the kind is one of the two known tags.
func (k AdjustmentKind) Valid() bool {
	return k == KindEntrance || k == KindExit
}

// Sign returns +1 for entrances and -1 for exits.
func (k AdjustmentKind) Sign() int64 {
	if k == KindExit {
		return -1
	}
	return 1
}

// Adjustment is an immutable cash ledger entry. AmountCents is always the
// positive magnitude in minor units; the sign lives in Kind alone.
type Adjustment struct {
	ID          AdjustmentID
	AmountCents int64 // > 0, minor units
	Kind        AdjustmentKind
	Reason      string
	CreatedAt   time.Time
}

// SignedCents returns the amount with the kind's sign applied.
func (a Adjustment) SignedCents() int64 {
	return a.Kind.Sign() * a.AmountCents
}

// SignedAmount returns the signed amount in currency units.
func (a Adjustment) SignedAmount() decimal.Decimal {
	return CentsToDecimal(a.SignedCents())
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// CentsToDecimal converts integer minor units to a 2-decimal amount.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// MustParseDecimal parses a stored decimal string, returning zero on error.
// Storage writes are always produced by decimal.String(), so a parse
// failure indicates corruption rather than user input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
