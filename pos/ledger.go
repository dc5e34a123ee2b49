/*
ledger.go - Append-only cash adjustment ledger

PURPOSE:
  Records manual cash movements (entrances and exits) independent of
  sales. The ledger is the immutable half of the cash-on-hand figure;
  the other half is aggregated sales revenue (see balance.go).

CRITICAL INVARIANTS:
  1. APPEND-ONLY: no update, no delete. Ever.
  2. SIGN VIA KIND: the stored amount is always the positive magnitude in
     minor units. The sign is derived from the kind tag alone, so a caller
     can never record a negative "entrance".
  3. AMOUNTS IN CENTS: integer minor units, no floating-point drift.

WHY APPEND-ONLY?
  - The balance is recomputed from the ledger on every query; if entries
    could mutate, the balance could silently drift from its history.
  - Corrections are made by recording a compensating entry of the
    opposite kind, keeping the full history visible.

SEE ALSO:
  - balance.go: Combines the ledger with sales revenue
  - store.go: CashStore persistence contract
*/
package pos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLedgerEntries caps any ledger listing regardless of the requested
// limit, bounding response size.
const MaxLedgerEntries = 200

// DefaultLedgerEntries is used when the caller does not request a limit.
const DefaultLedgerEntries = 50

// CashLedger appends and lists signed cash adjustments.
type CashLedger struct {
	store  CashStore
	logger *zap.Logger
}

// NewCashLedger creates a ledger over the given store.
// A nil logger is replaced with a no-op logger.
func NewCashLedger(store CashStore, logger *zap.Logger) *CashLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashLedger{store: store, logger: logger}
}

// Record appends one adjustment. The amount is the positive magnitude in
// minor units; the sign comes from kind and is never supplied directly.
func (l *CashLedger) Record(ctx context.Context, amountCents int64, reason string, kind AdjustmentKind) (*Adjustment, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be > 0"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "required"}
	}
	if !kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: "must be entrance or exit"}
	}

	adj := Adjustment{
		ID:          AdjustmentID(uuid.NewString()),
		AmountCents: amountCents,
		Kind:        kind,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}

	if err := l.store.AppendAdjustment(ctx, adj); err != nil {
		return nil, err
	}

	l.logger.Info("cash adjustment recorded",
		zap.String("adjustment_id", string(adj.ID)),
		zap.String("kind", string(adj.Kind)),
		zap.Int64("amount_cents", adj.AmountCents),
	)
	return &adj, nil
}

// List returns entries newest first. A non-positive limit falls back to
// DefaultLedgerEntries; any limit is capped at MaxLedgerEntries.
// Re-querying reflects entries recorded in between.
func (l *CashLedger) List(ctx context.Context, limit int) ([]Adjustment, error) {
	if limit <= 0 {
		limit = DefaultLedgerEntries
	}
	if limit > MaxLedgerEntries {
		limit = MaxLedgerEntries
	}
	return l.store.ListAdjustments(ctx, limit)
}
