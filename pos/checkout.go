/*
checkout.go - Sale transaction engine

PURPOSE:
  Turns a cart (seller, optional buyer, list of {variant, quantity}) into a
  priced, stock-consistent, immutable Sale.

ALGORITHM:
  1. Validate input. Any violation fails with InvalidRequest before any
     stock mutation (fail-fast, zero side effects).
  2. Resolve all distinct variant IDs to current prices in one batch read.
     A missing ID fails the whole sale with UnknownVariant.
  3. Debit stock per line, in submitted order. The first line short on
     stock aborts the sale and names the offending variant.
  4. Total = sum of quantity x price-from-step-2 (snapshot, not a re-read).
  5. Persist one Sale plus one SaleItem per line, each item storing the
     snapshot price. Readers never observe a sale with a subset of items.

OPERATING MODES:
  Transactional (store implements TxStore): steps 3-5 run inside WithTx.
  Any failure rolls back all debits and the sale insert together. This is
  the only mode that truly satisfies the all-or-nothing contract.

  Degraded (plain Store): debits apply one at a time with no rollback. If
  a later line fails after earlier lines already decremented stock, those
  decrements stay in place and the failure surfaces as PartialDebitError,
  logged distinctly - it marks a real inconsistency needing manual
  reconciliation. Degraded mode is a compatibility fallback, not a goal.

CONCURRENCY:
  Two sales debiting the same variant concurrently never both take the
  same unit of stock: the store's conditional debit is the sole
  enforcement point (see store.go). The engine holds no locks.

RETRIES:
  Resubmitting an identical cart is NOT deduplicated; a retried network
  call can duplicate a sale. Callers needing idempotent retries must
  guard on their side.

SEE ALSO:
  - store.go: DebitStock contract, TxStore
  - errors.go: InsufficientStockError, PartialDebitError
*/
package pos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine is the sale transaction engine.
type Engine struct {
	store   Store
	logger  *zap.Logger
	sellers map[string]bool // empty = any non-empty seller accepted
}

// NewEngine creates a checkout engine over the given store.
// A nil logger is replaced with a no-op logger.
func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:   store,
		logger:  logger,
		sellers: make(map[string]bool),
	}
}

// RestrictSellers limits accepted seller identifiers to the given roster.
// With an empty roster any non-empty seller is accepted.
func (e *Engine) RestrictSellers(names ...string) {
	for _, n := range names {
		e.sellers[n] = true
	}
}

// Transactional reports whether the engine's store supports multi-statement
// atomicity, i.e. whether sales run in transactional mode.
func (e *Engine) Transactional() bool {
	_, ok := e.store.(TxStore)
	return ok
}

// =============================================================================
// SALE CREATION
// =============================================================================

// CreateSale validates, prices, debits stock, and persists one sale.
func (e *Engine) CreateSale(ctx context.Context, req SaleRequest) (*Sale, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	// Snapshot prices before touching stock. All-or-nothing read: a single
	// missing variant fails the sale with no mutation.
	prices, err := e.store.GetPrices(ctx, distinctVariantIDs(req.Lines))
	if err != nil {
		return nil, err
	}

	sale := buildSale(req, prices)

	if txStore, ok := e.store.(TxStore); ok {
		if err := e.createSaleTx(ctx, txStore, sale); err != nil {
			return nil, err
		}
	} else {
		if err := e.createSaleDegraded(ctx, sale); err != nil {
			return nil, err
		}
	}

	e.logger.Info("sale created",
		zap.String("sale_id", string(sale.ID)),
		zap.String("seller", sale.Seller),
		zap.Int("lines", len(sale.Items)),
		zap.String("total", sale.Total.StringFixed(2)),
	)
	return sale, nil
}

// createSaleTx runs debits and the sale insert in one atomic unit.
// Any failure rolls back everything.
func (e *Engine) createSaleTx(ctx context.Context, store TxStore, sale *Sale) error {
	return store.WithTx(ctx, func(s Store) error {
		for _, item := range sale.Items {
			if _, err := s.DebitStock(ctx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		return s.CreateSale(ctx, sale)
	})
}

// createSaleDegraded applies debits one at a time without rollback
// capability. Earlier decrements survive a later failure; that gap is
// surfaced as PartialDebitError, never silently folded into a clean
// InsufficientStock failure.
func (e *Engine) createSaleDegraded(ctx context.Context, sale *Sale) error {
	var applied []AppliedDebit
	for _, item := range sale.Items {
		if _, err := e.store.DebitStock(ctx, item.VariantID, item.Quantity); err != nil {
			if len(applied) == 0 {
				return err
			}
			partial := &PartialDebitError{
				Applied: applied,
				Failed:  item.VariantID,
				Cause:   err,
			}
			e.logger.Error("degraded-mode sale left partial stock debits; manual reconciliation required",
				zap.String("seller", sale.Seller),
				zap.String("failed_variant", string(item.VariantID)),
				zap.Int("applied_lines", len(applied)),
				zap.Error(err),
			)
			return partial
		}
		applied = append(applied, AppliedDebit{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	if err := e.store.CreateSale(ctx, sale); err != nil {
		// Stock is already gone; same consistency gap as a failed line.
		partial := &PartialDebitError{Applied: applied, Cause: err}
		e.logger.Error("degraded-mode sale debited stock but failed to persist sale record",
			zap.String("seller", sale.Seller),
			zap.Int("applied_lines", len(applied)),
			zap.Error(err),
		)
		return partial
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

func (e *Engine) validate(req SaleRequest) error {
	seller := strings.TrimSpace(req.Seller)
	if seller == "" {
		return &ValidationError{Field: "seller", Message: "required"}
	}
	if len(e.sellers) > 0 && !e.sellers[seller] {
		return &ValidationError{Field: "seller", Message: "not in seller roster"}
	}
	if len(req.Lines) == 0 {
		return &ValidationError{Field: "items", Message: "at least one item required"}
	}
	for i, line := range req.Lines {
		if line.VariantID == "" {
			return &ValidationError{Field: "items", Message: "missing variant id at line " + strconv.Itoa(i)}
		}
		if line.Quantity < 1 {
			return &ValidationError{Field: "items", Message: "quantity must be >= 1 at line " + strconv.Itoa(i)}
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func buildSale(req SaleRequest, prices map[VariantID]decimal.Decimal) *Sale {
	sale := &Sale{
		ID:        SaleID(uuid.NewString()),
		Seller:    strings.TrimSpace(req.Seller),
		Buyer:     strings.TrimSpace(req.Buyer),
		CreatedAt: time.Now().UTC(),
	}

	total := decimal.Zero
	for _, line := range req.Lines {
		item := SaleItem{
			ID:        uuid.NewString(),
			SaleID:    sale.ID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: prices[line.VariantID],
		}
		total = total.Add(item.Extension())
		sale.Items = append(sale.Items, item)
	}
	sale.Total = total
	return sale
}

func distinctVariantIDs(lines []SaleLine) []VariantID {
	seen := make(map[VariantID]bool, len(lines))
	var ids []VariantID
	for _, line := range lines {
		if !seen[line.VariantID] {
			seen[line.VariantID] = true
			ids = append(ids, line.VariantID)
		}
	}
	return ids
}
