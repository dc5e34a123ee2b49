/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements pos.Store and pos.TxStore using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

THE CONDITIONAL DEBIT:
  Overselling is prevented by a single conditional update:

    UPDATE variants SET quantity = quantity - ?
    WHERE id = ? AND quantity >= ?

  The check and decrement are one statement, so concurrent debits on the
  same variant can never both take the same unit of stock, even across
  process instances sharing the database.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements touch sales, sale_items, or
    cash_adjustments (outside the dev-only Reset)
  - The quantity >= 0 CHECK backstops the conditional debit

KEY TABLES:
  products:         Catalog entries
  variants:         Price and stock per (product, size), UNIQUE pair
  sales:            Immutable sale headers
  sale_items:       Sale lines with the snapshot unit price
  cash_adjustments: Append-only signed cash ledger

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within one process. Across
  processes, the conditional debit and SQLite's single-writer model
  provide the guarantees.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/pos.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := pos.NewEngine(store, logger) // transactional mode

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - pos/store.go: Interface definitions
  - pos/checkout.go: Engine consuming WithTx
  - pos/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/pos-engine/pos"
)

// Store implements pos.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ pos.TxStore = (*Store)(nil)
	_ pos.Store   = (*txStore)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Catalog
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		image_url TEXT,
		image_alt TEXT,
		created_at TEXT NOT NULL
	);

	-- Variants: at most one per (product, size); quantity never negative
	CREATE TABLE IF NOT EXISTS variants (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		size TEXT NOT NULL,
		price TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		created_at TEXT NOT NULL,
		UNIQUE(product_id, size)
	);

	CREATE INDEX IF NOT EXISTS idx_variants_product
		ON variants(product_id);

	-- Sales (immutable headers)
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		seller TEXT NOT NULL,
		buyer TEXT,
		total TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_created_at
		ON sales(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sales_seller
		ON sales(seller);

	-- Sale lines with the snapshot unit price (hot path for balance)
	CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id),
		variant_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sale_items_sale
		ON sale_items(sale_id);

	-- Cash ledger (append-only, positive magnitude, sign via kind)
	CREATE TABLE IF NOT EXISTS cash_adjustments (
		id TEXT PRIMARY KEY,
		amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
		kind TEXT NOT NULL CHECK (kind IN ('entrance', 'exit')),
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cash_adjustments_created_at
		ON cash_adjustments(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the same helpers serve
// direct calls and transactional views.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", pos.ErrStorageUnavailable, op, err)
}

// =============================================================================
// VARIANT STORE (pos.VariantStore interface)
// =============================================================================

// GetPrices resolves every ID to its current price or fails the whole call.
func (s *Store) GetPrices(ctx context.Context, ids []pos.VariantID) (map[pos.VariantID]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPrices(ctx, s.db, ids)
}

func (s *Store) getPrices(ctx context.Context, q dbtx, ids []pos.VariantID) (map[pos.VariantID]decimal.Decimal, error) {
	if len(ids) == 0 {
		return map[pos.VariantID]decimal.Decimal{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT id, price FROM variants WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, storageErr("query prices", err)
	}
	defer rows.Close()

	prices := make(map[pos.VariantID]decimal.Decimal, len(ids))
	for rows.Next() {
		var id, price string
		if err := rows.Scan(&id, &price); err != nil {
			return nil, storageErr("scan price", err)
		}
		prices[pos.VariantID(id)] = pos.MustParseDecimal(price)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate prices", err)
	}

	// All-or-nothing contract: any missing ID fails the whole call.
	if len(prices) != len(ids) {
		var missing []pos.VariantID
		for _, id := range ids {
			if _, ok := prices[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &pos.UnknownVariantError{Missing: missing}
	}
	return prices, nil
}

// DebitStock performs the atomic conditional decrement.
func (s *Store) DebitStock(ctx context.Context, id pos.VariantID, quantity int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.debitStock(ctx, s.db, id, quantity)
}

func (s *Store) debitStock(ctx context.Context, q dbtx, id pos.VariantID, quantity int) (int, error) {
	res, err := q.ExecContext(ctx,
		"UPDATE variants SET quantity = quantity - ? WHERE id = ? AND quantity >= ?",
		quantity, string(id), quantity)
	if err != nil {
		return 0, storageErr("debit stock", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("debit stock", err)
	}
	if affected == 0 {
		// Either the variant is unknown or stock was short. Read current
		// quantity to report which.
		var available int
		err := q.QueryRowContext(ctx,
			"SELECT quantity FROM variants WHERE id = ?", string(id)).Scan(&available)
		if err == sql.ErrNoRows {
			return 0, &pos.UnknownVariantError{Missing: []pos.VariantID{id}}
		}
		if err != nil {
			return 0, storageErr("read stock", err)
		}
		return 0, &pos.InsufficientStockError{
			VariantID: id,
			Requested: quantity,
			Available: available,
		}
	}

	var remaining int
	if err := q.QueryRowContext(ctx,
		"SELECT quantity FROM variants WHERE id = ?", string(id)).Scan(&remaining); err != nil {
		return 0, storageErr("read stock", err)
	}
	return remaining, nil
}

// UpsertVariant creates or replaces the variant for (product, size).
func (s *Store) UpsertVariant(ctx context.Context, productID pos.ProductID, size string, price decimal.Decimal, quantity int) (*pos.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsertVariant(ctx, s.db, productID, size, price, quantity)
}

func (s *Store) upsertVariant(ctx context.Context, q dbtx, productID pos.ProductID, size string, price decimal.Decimal, quantity int) (*pos.Variant, error) {
	query := `
		INSERT INTO variants (id, product_id, size, price, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, size) DO UPDATE SET
			price = excluded.price,
			quantity = excluded.quantity
	`

	_, err := q.ExecContext(ctx, query,
		uuid.NewString(),
		string(productID),
		size,
		price.StringFixed(2),
		quantity,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, storageErr("upsert variant", err)
	}

	row := q.QueryRowContext(ctx,
		"SELECT id, product_id, size, price, quantity, created_at FROM variants WHERE product_id = ? AND size = ?",
		string(productID), size)
	return scanVariantRow(row)
}

// GetVariant returns a variant by ID.
func (s *Store) GetVariant(ctx context.Context, id pos.VariantID) (*pos.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getVariant(ctx, s.db, id)
}

func (s *Store) getVariant(ctx context.Context, q dbtx, id pos.VariantID) (*pos.Variant, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, product_id, size, price, quantity, created_at FROM variants WHERE id = ?",
		string(id))
	return scanVariantRow(row)
}

func scanVariantRow(row *sql.Row) (*pos.Variant, error) {
	var v pos.Variant
	var price, createdAt string

	err := row.Scan(&v.ID, &v.ProductID, &v.Size, &price, &v.Quantity, &createdAt)
	if err == sql.ErrNoRows {
		return nil, pos.ErrVariantNotFound
	}
	if err != nil {
		return nil, storageErr("scan variant", err)
	}

	v.Price = pos.MustParseDecimal(price)
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &v, nil
}

// VariantsByProduct lists a product's variants ordered by size label.
func (s *Store) VariantsByProduct(ctx context.Context, productID pos.ProductID) ([]pos.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.variantsByProduct(ctx, s.db, productID)
}

func (s *Store) variantsByProduct(ctx context.Context, q dbtx, productID pos.ProductID) ([]pos.Variant, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, product_id, size, price, quantity, created_at FROM variants WHERE product_id = ? ORDER BY size",
		string(productID))
	if err != nil {
		return nil, storageErr("query variants", err)
	}
	defer rows.Close()

	var variants []pos.Variant
	for rows.Next() {
		var v pos.Variant
		var price, createdAt string
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &price, &v.Quantity, &createdAt); err != nil {
			return nil, storageErr("scan variant", err)
		}
		v.Price = pos.MustParseDecimal(price)
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// UpdateVariant patches price and/or quantity. Nil means keep current.
func (s *Store) UpdateVariant(ctx context.Context, id pos.VariantID, price *decimal.Decimal, quantity *int) (*pos.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateVariant(ctx, s.db, id, price, quantity)
}

func (s *Store) updateVariant(ctx context.Context, q dbtx, id pos.VariantID, price *decimal.Decimal, quantity *int) (*pos.Variant, error) {
	var priceStr *string
	if price != nil {
		p := price.StringFixed(2)
		priceStr = &p
	}

	res, err := q.ExecContext(ctx,
		`UPDATE variants SET
			price = COALESCE(?, price),
			quantity = COALESCE(?, quantity)
		 WHERE id = ?`,
		priceStr, quantity, string(id))
	if err != nil {
		return nil, storageErr("update variant", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr("update variant", err)
	}
	if affected == 0 {
		return nil, pos.ErrVariantNotFound
	}

	return s.getVariant(ctx, q, id)
}

// DeleteVariant removes a variant and its stock.
func (s *Store) DeleteVariant(ctx context.Context, id pos.VariantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteVariant(ctx, s.db, id)
}

func (s *Store) deleteVariant(ctx context.Context, q dbtx, id pos.VariantID) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM variants WHERE id = ?", string(id)); err != nil {
		return storageErr("delete variant", err)
	}
	return nil
}

// =============================================================================
// SALE STORE (pos.SaleStore interface)
// =============================================================================

// CreateSale persists the sale header and all items in one database
// transaction, so a reader never sees a sale with a subset of its items.
func (s *Store) CreateSale(ctx context.Context, sale *pos.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer sqlTx.Rollback()

	if err := s.insertSale(ctx, sqlTx, sale); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) insertSale(ctx context.Context, q dbtx, sale *pos.Sale) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO sales (id, seller, buyer, total, created_at) VALUES (?, ?, ?, ?, ?)",
		string(sale.ID),
		sale.Seller,
		nullString(sale.Buyer),
		sale.Total.StringFixed(2),
		sale.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storageErr("insert sale", err)
	}

	for _, item := range sale.Items {
		_, err := q.ExecContext(ctx,
			"INSERT INTO sale_items (id, sale_id, variant_id, quantity, unit_price) VALUES (?, ?, ?, ?, ?)",
			item.ID,
			string(sale.ID),
			string(item.VariantID),
			item.Quantity,
			item.UnitPrice.StringFixed(2),
		)
		if err != nil {
			return storageErr("insert sale item", err)
		}
	}
	return nil
}

// ListSales returns sale headers newest first, narrowed by the filter.
func (s *Store) ListSales(ctx context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listSales(ctx, s.db, f)
}

func (s *Store) listSales(ctx context.Context, q dbtx, f pos.SaleFilter) ([]pos.Sale, error) {
	query := "SELECT id, seller, buyer, total, created_at FROM sales"
	var conds []string
	var args []any

	if f.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if f.Seller != "" {
		conds = append(conds, "seller = ?")
		args = append(args, f.Seller)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := f.Limit
	if limit <= 0 || limit > pos.MaxLedgerEntries {
		limit = pos.MaxLedgerEntries
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query sales", err)
	}
	defer rows.Close()

	var sales []pos.Sale
	for rows.Next() {
		var sale pos.Sale
		var buyer sql.NullString
		var total, createdAt string
		if err := rows.Scan(&sale.ID, &sale.Seller, &buyer, &total, &createdAt); err != nil {
			return nil, storageErr("scan sale", err)
		}
		sale.Buyer = buyer.String
		sale.Total = pos.MustParseDecimal(total)
		sale.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// SalesRevenue sums quantity x snapshot unit price over all sale items.
// The summation happens in decimal, not SQL, to keep cent precision.
func (s *Store) SalesRevenue(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.salesRevenue(ctx, s.db)
}

func (s *Store) salesRevenue(ctx context.Context, q dbtx) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, "SELECT quantity, unit_price FROM sale_items")
	if err != nil {
		return decimal.Zero, storageErr("query sale items", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var quantity int
		var unitPrice string
		if err := rows.Scan(&quantity, &unitPrice); err != nil {
			return decimal.Zero, storageErr("scan sale item", err)
		}
		total = total.Add(pos.MustParseDecimal(unitPrice).Mul(decimal.NewFromInt(int64(quantity))))
	}
	return total, rows.Err()
}

// =============================================================================
// CASH STORE (pos.CashStore interface)
// =============================================================================

// AppendAdjustment adds one ledger entry. Append-only.
func (s *Store) AppendAdjustment(ctx context.Context, adj pos.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendAdjustment(ctx, s.db, adj)
}

func (s *Store) appendAdjustment(ctx context.Context, q dbtx, adj pos.Adjustment) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO cash_adjustments (id, amount_cents, kind, reason, created_at) VALUES (?, ?, ?, ?, ?)",
		string(adj.ID),
		adj.AmountCents,
		string(adj.Kind),
		adj.Reason,
		adj.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storageErr("append adjustment", err)
	}
	return nil
}

// ListAdjustments returns entries newest first, up to limit.
func (s *Store) ListAdjustments(ctx context.Context, limit int) ([]pos.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listAdjustments(ctx, s.db, limit)
}

func (s *Store) listAdjustments(ctx context.Context, q dbtx, limit int) ([]pos.Adjustment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, amount_cents, kind, reason, created_at FROM cash_adjustments ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, storageErr("query adjustments", err)
	}
	defer rows.Close()

	var adjustments []pos.Adjustment
	for rows.Next() {
		var adj pos.Adjustment
		var createdAt string
		if err := rows.Scan(&adj.ID, &adj.AmountCents, &adj.Kind, &adj.Reason, &createdAt); err != nil {
			return nil, storageErr("scan adjustment", err)
		}
		adj.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

// SignedAdjustmentTotal aggregates the signed sum in minor units.
func (s *Store) SignedAdjustmentTotal(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.signedAdjustmentTotal(ctx, s.db)
}

func (s *Store) signedAdjustmentTotal(ctx context.Context, q dbtx) (int64, error) {
	var total int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE kind WHEN 'exit' THEN -amount_cents ELSE amount_cents END), 0)
		FROM cash_adjustments
	`).Scan(&total)
	if err != nil {
		return 0, storageErr("sum adjustments", err)
	}
	return total, nil
}

// =============================================================================
// PRODUCT STORE (pos.ProductStore interface)
// =============================================================================

// SaveProduct inserts or updates a catalog product.
func (s *Store) SaveProduct(ctx context.Context, p *pos.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveProduct(ctx, s.db, p)
}

func (s *Store) saveProduct(ctx context.Context, q dbtx, p *pos.Product) error {
	query := `
		INSERT INTO products (id, name, category, is_active, image_url, image_alt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			is_active = excluded.is_active,
			image_url = excluded.image_url,
			image_alt = excluded.image_alt
	`

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx, query,
		string(p.ID), p.Name, p.Category, p.Active,
		nullString(p.ImageURL), nullString(p.ImageAlt),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return storageErr("save product", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (s *Store) GetProduct(ctx context.Context, id pos.ProductID) (*pos.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getProduct(ctx, s.db, id)
}

func (s *Store) getProduct(ctx context.Context, q dbtx, id pos.ProductID) (*pos.Product, error) {
	var p pos.Product
	var imageURL, imageAlt sql.NullString
	var createdAt string

	err := q.QueryRowContext(ctx,
		"SELECT id, name, category, is_active, image_url, image_alt, created_at FROM products WHERE id = ?",
		string(id),
	).Scan(&p.ID, &p.Name, &p.Category, &p.Active, &imageURL, &imageAlt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, pos.ErrProductNotFound
	}
	if err != nil {
		return nil, storageErr("get product", err)
	}

	p.ImageURL = imageURL.String
	p.ImageAlt = imageAlt.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// ListProducts returns all products, newest first.
func (s *Store) ListProducts(ctx context.Context) ([]pos.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listProducts(ctx, s.db)
}

func (s *Store) listProducts(ctx context.Context, q dbtx) ([]pos.Product, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, category, is_active, image_url, image_alt, created_at FROM products ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, storageErr("query products", err)
	}
	defer rows.Close()

	var products []pos.Product
	for rows.Next() {
		var p pos.Product
		var imageURL, imageAlt sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Active, &imageURL, &imageAlt, &createdAt); err != nil {
			return nil, storageErr("scan product", err)
		}
		p.ImageURL = imageURL.String
		p.ImageAlt = imageAlt.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		products = append(products, p)
	}
	return products, rows.Err()
}

// DeleteProduct removes a product together with its variants and stock.
func (s *Store) DeleteProduct(ctx context.Context, id pos.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer sqlTx.Rollback()

	if err := s.deleteProduct(ctx, sqlTx, id); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) deleteProduct(ctx context.Context, q dbtx, id pos.ProductID) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM variants WHERE product_id = ?", string(id)); err != nil {
		return storageErr("delete variants", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM products WHERE id = ?", string(id)); err != nil {
		return storageErr("delete product", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (pos.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. If fn returns
// an error, every write made through the view rolls back, stock debits
// included - this is what gives the checkout engine its all-or-nothing
// guarantee.
func (s *Store) WithTx(ctx context.Context, fn func(store pos.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer sqlTx.Rollback()

	view := &txStore{tx: sqlTx, parent: s}
	if err := fn(view); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) GetPrices(ctx context.Context, ids []pos.VariantID) (map[pos.VariantID]decimal.Decimal, error) {
	return ts.parent.getPrices(ctx, ts.tx, ids)
}

func (ts *txStore) DebitStock(ctx context.Context, id pos.VariantID, quantity int) (int, error) {
	return ts.parent.debitStock(ctx, ts.tx, id, quantity)
}

func (ts *txStore) UpsertVariant(ctx context.Context, productID pos.ProductID, size string, price decimal.Decimal, quantity int) (*pos.Variant, error) {
	return ts.parent.upsertVariant(ctx, ts.tx, productID, size, price, quantity)
}

func (ts *txStore) GetVariant(ctx context.Context, id pos.VariantID) (*pos.Variant, error) {
	return ts.parent.getVariant(ctx, ts.tx, id)
}

func (ts *txStore) VariantsByProduct(ctx context.Context, productID pos.ProductID) ([]pos.Variant, error) {
	return ts.parent.variantsByProduct(ctx, ts.tx, productID)
}

func (ts *txStore) UpdateVariant(ctx context.Context, id pos.VariantID, price *decimal.Decimal, quantity *int) (*pos.Variant, error) {
	return ts.parent.updateVariant(ctx, ts.tx, id, price, quantity)
}

func (ts *txStore) DeleteVariant(ctx context.Context, id pos.VariantID) error {
	return ts.parent.deleteVariant(ctx, ts.tx, id)
}

func (ts *txStore) CreateSale(ctx context.Context, sale *pos.Sale) error {
	return ts.parent.insertSale(ctx, ts.tx, sale)
}

func (ts *txStore) ListSales(ctx context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	return ts.parent.listSales(ctx, ts.tx, f)
}

func (ts *txStore) SalesRevenue(ctx context.Context) (decimal.Decimal, error) {
	return ts.parent.salesRevenue(ctx, ts.tx)
}

func (ts *txStore) AppendAdjustment(ctx context.Context, adj pos.Adjustment) error {
	return ts.parent.appendAdjustment(ctx, ts.tx, adj)
}

func (ts *txStore) ListAdjustments(ctx context.Context, limit int) ([]pos.Adjustment, error) {
	return ts.parent.listAdjustments(ctx, ts.tx, limit)
}

func (ts *txStore) SignedAdjustmentTotal(ctx context.Context) (int64, error) {
	return ts.parent.signedAdjustmentTotal(ctx, ts.tx)
}

func (ts *txStore) SaveProduct(ctx context.Context, p *pos.Product) error {
	return ts.parent.saveProduct(ctx, ts.tx, p)
}

func (ts *txStore) GetProduct(ctx context.Context, id pos.ProductID) (*pos.Product, error) {
	return ts.parent.getProduct(ctx, ts.tx, id)
}

func (ts *txStore) ListProducts(ctx context.Context) ([]pos.Product, error) {
	return ts.parent.listProducts(ctx, ts.tx)
}

func (ts *txStore) DeleteProduct(ctx context.Context, id pos.ProductID) error {
	return ts.parent.deleteProduct(ctx, ts.tx, id)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"sale_items", "sales", "cash_adjustments", "variants", "products"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storageErr("reset "+table, err)
		}
	}
	return nil
}

// SaleItems returns the items of one sale, in insertion order.
func (s *Store) SaleItems(ctx context.Context, saleID pos.SaleID) ([]pos.SaleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, sale_id, variant_id, quantity, unit_price FROM sale_items WHERE sale_id = ? ORDER BY rowid",
		string(saleID))
	if err != nil {
		return nil, storageErr("query sale items", err)
	}
	defer rows.Close()

	var items []pos.SaleItem
	for rows.Next() {
		var item pos.SaleItem
		var unitPrice string
		if err := rows.Scan(&item.ID, &item.SaleID, &item.VariantID, &item.Quantity, &unitPrice); err != nil {
			return nil, storageErr("scan sale item", err)
		}
		item.UnitPrice = pos.MustParseDecimal(unitPrice)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
