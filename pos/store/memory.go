// Package store provides in-memory Store implementations (testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/pos-engine/pos"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements pos.Store without multi-statement atomicity, so an
// engine running on it operates in degraded mode. Wrap with TxMemory for
// transactional mode.
type Memory struct {
	mu          sync.RWMutex
	products    map[pos.ProductID]pos.Product
	variants    map[pos.VariantID]pos.Variant
	sales       []pos.Sale
	adjustments []pos.Adjustment
}

var (
	_ pos.Store   = (*Memory)(nil)
	_ pos.TxStore = (*TxMemory)(nil)
	_ pos.Store   = (*txMemoryView)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		products: make(map[pos.ProductID]pos.Product),
		variants: make(map[pos.VariantID]pos.Variant),
	}
}

// =============================================================================
// VARIANT STORE
// =============================================================================

func (m *Memory) GetPrices(_ context.Context, ids []pos.VariantID) (map[pos.VariantID]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPricesLocked(ids)
}

func (m *Memory) getPricesLocked(ids []pos.VariantID) (map[pos.VariantID]decimal.Decimal, error) {
	prices := make(map[pos.VariantID]decimal.Decimal, len(ids))
	var missing []pos.VariantID
	for _, id := range ids {
		v, ok := m.variants[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		prices[id] = v.Price
	}
	if len(missing) > 0 {
		return nil, &pos.UnknownVariantError{Missing: missing}
	}
	return prices, nil
}

// DebitStock is the conditional decrement. The check and the write happen
// under one lock, so concurrent debits on the same variant serialize.
func (m *Memory) DebitStock(_ context.Context, id pos.VariantID, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(id, quantity)
}

func (m *Memory) debitLocked(id pos.VariantID, quantity int) (int, error) {
	v, ok := m.variants[id]
	if !ok {
		return 0, &pos.UnknownVariantError{Missing: []pos.VariantID{id}}
	}
	if v.Quantity < quantity {
		return 0, &pos.InsufficientStockError{
			VariantID: id,
			Requested: quantity,
			Available: v.Quantity,
		}
	}
	v.Quantity -= quantity
	m.variants[id] = v
	return v.Quantity, nil
}

func (m *Memory) UpsertVariant(_ context.Context, productID pos.ProductID, size string, price decimal.Decimal, quantity int) (*pos.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertVariantLocked(productID, size, price, quantity)
}

func (m *Memory) upsertVariantLocked(productID pos.ProductID, size string, price decimal.Decimal, quantity int) (*pos.Variant, error) {
	for id, v := range m.variants {
		if v.ProductID == productID && v.Size == size {
			v.Price = price
			v.Quantity = quantity
			m.variants[id] = v
			return &v, nil
		}
	}
	v := pos.Variant{
		ID:        pos.VariantID(uuid.NewString()),
		ProductID: productID,
		Size:      size,
		Price:     price,
		Quantity:  quantity,
	}
	m.variants[v.ID] = v
	return &v, nil
}

func (m *Memory) GetVariant(_ context.Context, id pos.VariantID) (*pos.Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.variants[id]
	if !ok {
		return nil, pos.ErrVariantNotFound
	}
	return &v, nil
}

func (m *Memory) VariantsByProduct(_ context.Context, productID pos.ProductID) ([]pos.Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []pos.Variant
	for _, v := range m.variants {
		if v.ProductID == productID {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Size < result[j].Size })
	return result, nil
}

func (m *Memory) UpdateVariant(_ context.Context, id pos.VariantID, price *decimal.Decimal, quantity *int) (*pos.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.variants[id]
	if !ok {
		return nil, pos.ErrVariantNotFound
	}
	if price != nil {
		v.Price = *price
	}
	if quantity != nil {
		v.Quantity = *quantity
	}
	m.variants[id] = v
	return &v, nil
}

func (m *Memory) DeleteVariant(_ context.Context, id pos.VariantID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.variants, id)
	return nil
}

// =============================================================================
// SALE STORE
// =============================================================================

// CreateSale appends the sale and all items under one lock, so readers
// never observe a sale with a subset of its items.
func (m *Memory) CreateSale(_ context.Context, sale *pos.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSaleLocked(sale)
}

func (m *Memory) createSaleLocked(sale *pos.Sale) error {
	stored := *sale
	stored.Items = append([]pos.SaleItem{}, sale.Items...)
	m.sales = append(m.sales, stored)
	return nil
}

func (m *Memory) ListSales(_ context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 || limit > pos.MaxLedgerEntries {
		limit = pos.MaxLedgerEntries
	}

	var result []pos.Sale
	for _, s := range m.sales {
		if f.Seller != "" && s.Seller != f.Seller {
			continue
		}
		if f.From != nil && s.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && s.CreatedAt.After(*f.To) {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) SalesRevenue(_ context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.salesRevenueLocked(), nil
}

func (m *Memory) salesRevenueLocked() decimal.Decimal {
	total := decimal.Zero
	for _, s := range m.sales {
		for _, item := range s.Items {
			total = total.Add(item.Extension())
		}
	}
	return total
}

// =============================================================================
// CASH STORE
// =============================================================================

func (m *Memory) AppendAdjustment(_ context.Context, adj pos.Adjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments = append(m.adjustments, adj)
	return nil
}

func (m *Memory) ListAdjustments(_ context.Context, limit int) ([]pos.Adjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Append order is chronological; walk backwards for newest-first.
	var result []pos.Adjustment
	for i := len(m.adjustments) - 1; i >= 0; i-- {
		result = append(result, m.adjustments[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *Memory) SignedAdjustmentTotal(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, adj := range m.adjustments {
		total += adj.SignedCents()
	}
	return total, nil
}

// =============================================================================
// PRODUCT STORE
// =============================================================================

func (m *Memory) SaveProduct(_ context.Context, p *pos.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id pos.ProductID) (*pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, pos.ErrProductNotFound
	}
	return &p, nil
}

func (m *Memory) ListProducts(_ context.Context) ([]pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []pos.Product
	for _, p := range m.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id pos.ProductID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.products, id)
	for vid, v := range m.variants {
		if v.ProductID == id {
			delete(m.variants, vid)
		}
	}
	return nil
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products = make(map[pos.ProductID]pos.Product)
	m.variants = make(map[pos.VariantID]pos.Variant)
	m.sales = nil
	m.adjustments = nil
	return nil
}

// SaleItems returns the items of one sale, in insertion order.
func (m *Memory) SaleItems(_ context.Context, saleID pos.SaleID) ([]pos.SaleItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sale := range m.sales {
		if sale.ID == saleID {
			items := make([]pos.SaleItem, len(sale.Items))
			copy(items, sale.Items)
			return items, nil
		}
	}
	return nil, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(pos.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snap := tm.snapshot()
	view := &txMemoryView{parent: tm.Memory}

	if err := fn(view); err != nil {
		tm.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	products    map[pos.ProductID]pos.Product
	variants    map[pos.VariantID]pos.Variant
	sales       []pos.Sale
	adjustments []pos.Adjustment
}

func (tm *TxMemory) snapshot() memorySnapshot {
	productsCopy := make(map[pos.ProductID]pos.Product, len(tm.products))
	for k, v := range tm.products {
		productsCopy[k] = v
	}
	variantsCopy := make(map[pos.VariantID]pos.Variant, len(tm.variants))
	for k, v := range tm.variants {
		variantsCopy[k] = v
	}
	return memorySnapshot{
		products:    productsCopy,
		variants:    variantsCopy,
		sales:       append([]pos.Sale{}, tm.sales...),
		adjustments: append([]pos.Adjustment{}, tm.adjustments...),
	}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.products = s.products
	tm.variants = s.variants
	tm.sales = s.sales
	tm.adjustments = s.adjustments
}

// txMemoryView accesses parent state directly; the outer WithTx holds the
// lock for the whole transaction.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) GetPrices(_ context.Context, ids []pos.VariantID) (map[pos.VariantID]decimal.Decimal, error) {
	return tv.parent.getPricesLocked(ids)
}

func (tv *txMemoryView) DebitStock(_ context.Context, id pos.VariantID, quantity int) (int, error) {
	return tv.parent.debitLocked(id, quantity)
}

func (tv *txMemoryView) UpsertVariant(_ context.Context, productID pos.ProductID, size string, price decimal.Decimal, quantity int) (*pos.Variant, error) {
	return tv.parent.upsertVariantLocked(productID, size, price, quantity)
}

func (tv *txMemoryView) GetVariant(_ context.Context, id pos.VariantID) (*pos.Variant, error) {
	v, ok := tv.parent.variants[id]
	if !ok {
		return nil, pos.ErrVariantNotFound
	}
	return &v, nil
}

func (tv *txMemoryView) VariantsByProduct(ctx context.Context, productID pos.ProductID) ([]pos.Variant, error) {
	var result []pos.Variant
	for _, v := range tv.parent.variants {
		if v.ProductID == productID {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Size < result[j].Size })
	return result, nil
}

func (tv *txMemoryView) UpdateVariant(_ context.Context, id pos.VariantID, price *decimal.Decimal, quantity *int) (*pos.Variant, error) {
	v, ok := tv.parent.variants[id]
	if !ok {
		return nil, pos.ErrVariantNotFound
	}
	if price != nil {
		v.Price = *price
	}
	if quantity != nil {
		v.Quantity = *quantity
	}
	tv.parent.variants[id] = v
	return &v, nil
}

func (tv *txMemoryView) DeleteVariant(_ context.Context, id pos.VariantID) error {
	delete(tv.parent.variants, id)
	return nil
}

func (tv *txMemoryView) CreateSale(_ context.Context, sale *pos.Sale) error {
	return tv.parent.createSaleLocked(sale)
}

func (tv *txMemoryView) ListSales(ctx context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	var result []pos.Sale
	for _, s := range tv.parent.sales {
		if f.Seller != "" && s.Seller != f.Seller {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (tv *txMemoryView) SalesRevenue(_ context.Context) (decimal.Decimal, error) {
	return tv.parent.salesRevenueLocked(), nil
}

func (tv *txMemoryView) AppendAdjustment(_ context.Context, adj pos.Adjustment) error {
	tv.parent.adjustments = append(tv.parent.adjustments, adj)
	return nil
}

func (tv *txMemoryView) ListAdjustments(_ context.Context, limit int) ([]pos.Adjustment, error) {
	result := append([]pos.Adjustment{}, tv.parent.adjustments...)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (tv *txMemoryView) SignedAdjustmentTotal(_ context.Context) (int64, error) {
	var total int64
	for _, adj := range tv.parent.adjustments {
		total += adj.SignedCents()
	}
	return total, nil
}

func (tv *txMemoryView) SaveProduct(_ context.Context, p *pos.Product) error {
	tv.parent.products[p.ID] = *p
	return nil
}

func (tv *txMemoryView) GetProduct(_ context.Context, id pos.ProductID) (*pos.Product, error) {
	p, ok := tv.parent.products[id]
	if !ok {
		return nil, pos.ErrProductNotFound
	}
	return &p, nil
}

func (tv *txMemoryView) ListProducts(_ context.Context) ([]pos.Product, error) {
	var result []pos.Product
	for _, p := range tv.parent.products {
		result = append(result, p)
	}
	return result, nil
}

func (tv *txMemoryView) DeleteProduct(_ context.Context, id pos.ProductID) error {
	delete(tv.parent.products, id)
	for vid, v := range tv.parent.variants {
		if v.ProductID == id {
			delete(tv.parent.variants, vid)
		}
	}
	return nil
}
