/*
handlers.go - HTTP API handlers for the point-of-sale engine

PURPOSE:
  Exposes the checkout engine, catalog, and cash ledger via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Sales:
    POST   /api/sales                  Record a sale (debits stock)
    GET    /api/sales                  Sales history (from/to/seller filters)

  Cash:
    GET    /api/cash/balance           Cash-on-hand figure
    POST   /api/cash/entries           Append a ledger adjustment
    GET    /api/cash/entries           List ledger adjustments

  Catalog:
    GET    /api/products               List products with variants
    POST   /api/products               Create product (+ variants)
    GET    /api/products/{id}          Get one product
    PUT    /api/products/{id}          Update product
    DELETE /api/products/{id}          Delete product and its variants
    POST   /api/products/{id}/variants Upsert a variant
    PUT    /api/variants/{id}          Patch price/quantity (PATCH also accepted)
    DELETE /api/variants/{id}          Delete a variant

  Ops:
    GET    /api/ping                   Liveness check
    GET    /api/sizes                  Advisory size labels for the UI
    POST   /api/admin/reset            Clear all data (dev only)
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ERROR HANDLING:
  Domain errors map to HTTP status:
  - 400: Validation errors, unknown variants
  - 404: Product/variant not found
  - 409: Insufficient stock (the oversell rejection)
  - 500: Partial stock debit, storage failures

SECURITY NOTE:
  No authentication middleware. All endpoints are public; this service is
  meant to sit behind a trusted frontend.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/pos-engine/pos"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the HTTP layer needs from persistence: the full domain
// store plus the dev/demo utilities.
type Store interface {
	pos.Store
	Reset(ctx context.Context) error
	SaleItems(ctx context.Context, saleID pos.SaleID) ([]pos.SaleItem, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Engine  *pos.Engine
	Ledger  *pos.CashLedger
	Balance *pos.BalanceCalculator

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler over the given store and engine.
func NewHandler(store Store, engine *pos.Engine, ledger *pos.CashLedger, balance *pos.BalanceCalculator) *Handler {
	return &Handler{
		Store:    store,
		Engine:   engine,
		Ledger:   ledger,
		Balance:  balance,
		validate: validator.New(),
	}
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// CreateSale records a sale: prices the cart, debits stock, persists.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale request", err)
		return
	}

	saleReq := pos.SaleRequest{Seller: req.Seller, Buyer: req.Buyer}
	for _, line := range req.Items {
		saleReq.Lines = append(saleReq.Lines, pos.SaleLine{
			VariantID: pos.VariantID(line.VariantID),
			Quantity:  line.Quantity,
		})
	}

	sale, err := h.Engine.CreateSale(r.Context(), saleReq)
	if err != nil {
		writeDomainError(w, "Failed to create sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSaleDTO(*sale))
}

// ListSales returns sale history, newest first.
// GET /api/sales?from=&to=&seller=&limit=
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	var filter pos.SaleFilter

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := parseTimeParam(s, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'from' timestamp", err)
			return
		}
		filter.From = &t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := parseTimeParam(s, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'to' timestamp", err)
			return
		}
		filter.To = &t
	}
	filter.Seller = r.URL.Query().Get("seller")
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'limit'", err)
			return
		}
		filter.Limit = n
	}

	sales, err := h.Store.ListSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	// Headers come back without items; attach them per sale.
	for i := range sales {
		items, err := h.Store.SaleItems(r.Context(), sales[i].ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load sale items", err)
			return
		}
		sales[i].Items = items
	}

	writeJSON(w, http.StatusOK, toSaleDTOs(sales))
}

// parseTimeParam accepts RFC3339 or a bare date. A bare "to" date extends
// to the end of that day so the range is inclusive.
func parseTimeParam(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// =============================================================================
// CASH HANDLERS
// =============================================================================

// GetBalance returns the current cash-on-hand figure.
// GET /api/cash/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Balance.Balance(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		Balance: balance.StringFixed(2),
		AsOf:    time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateCashEntry appends one ledger adjustment.
// POST /api/cash/entries
func (h *Handler) CreateCashEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateCashEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cash entry", err)
		return
	}

	adj, err := h.Ledger.Record(r.Context(), req.AmountCents, req.Reason, pos.AdjustmentKind(req.Kind))
	if err != nil {
		writeDomainError(w, "Failed to record cash entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCashEntryDTO(*adj))
}

// ListCashEntries returns ledger adjustments, newest first.
// GET /api/cash/entries?limit=
func (h *Handler) ListCashEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'limit'", err)
			return
		}
		limit = n
	}

	entries, err := h.Ledger.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cash entries", err)
		return
	}

	writeJSON(w, http.StatusOK, toCashEntryDTOs(entries))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProducts returns all products with their variants.
// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		variants, err := h.Store.VariantsByProduct(r.Context(), p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load variants", err)
			return
		}
		dtos = append(dtos, toProductDTO(p, variants))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct creates a product, optionally with initial variants.
// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	product := &pos.Product{
		ID:        pos.ProductID(uuid.NewString()),
		Name:      req.Name,
		Category:  req.Category,
		Active:    req.Active == nil || *req.Active,
		ImageURL:  req.ImageURL,
		ImageAlt:  req.ImageAlt,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveProduct(r.Context(), product); err != nil {
		writeDomainError(w, "Failed to save product", err)
		return
	}

	var variants []pos.Variant
	for _, vr := range req.Variants {
		price, err := decimal.NewFromString(vr.Price)
		if err != nil || price.IsNegative() {
			writeError(w, http.StatusBadRequest, "Invalid price for size "+vr.Size, err)
			return
		}
		v, err := h.Store.UpsertVariant(r.Context(), product.ID, vr.Size, price, vr.Quantity)
		if err != nil {
			writeDomainError(w, "Failed to save variant", err)
			return
		}
		variants = append(variants, *v)
	}

	writeJSON(w, http.StatusCreated, toProductDTO(*product, variants))
}

// GetProduct returns one product with its variants.
// GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := pos.ProductID(chi.URLParam(r, "id"))

	product, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get product", err)
		return
	}
	variants, err := h.Store.VariantsByProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load variants", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductDTO(*product, variants))
}

// UpdateProduct replaces a product's mutable fields.
// PUT /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := pos.ProductID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get product", err)
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	existing.Name = req.Name
	existing.Category = req.Category
	if req.Active != nil {
		existing.Active = *req.Active
	}
	existing.ImageURL = req.ImageURL
	existing.ImageAlt = req.ImageAlt

	if err := h.Store.SaveProduct(r.Context(), existing); err != nil {
		writeDomainError(w, "Failed to save product", err)
		return
	}

	variants, err := h.Store.VariantsByProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load variants", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*existing, variants))
}

// DeleteProduct removes a product and its variants.
// DELETE /api/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := pos.ProductID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteProduct(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpsertVariant creates or replaces the variant for (product, size).
// POST /api/products/{id}/variants
func (h *Handler) UpsertVariant(w http.ResponseWriter, r *http.Request) {
	productID := pos.ProductID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetProduct(r.Context(), productID); err != nil {
		writeDomainError(w, "Failed to get product", err)
		return
	}

	var req UpsertVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid variant", err)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid price", err)
		return
	}

	variant, err := h.Store.UpsertVariant(r.Context(), productID, req.Size, price, req.Quantity)
	if err != nil {
		writeDomainError(w, "Failed to save variant", err)
		return
	}

	writeJSON(w, http.StatusCreated, toVariantDTO(*variant))
}

// UpdateVariant patches a variant's price and/or quantity.
// PUT|PATCH /api/variants/{id}
func (h *Handler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	id := pos.VariantID(chi.URLParam(r, "id"))

	var req UpdateVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid variant patch", err)
		return
	}

	var price *decimal.Decimal
	if req.Price != nil {
		p, err := decimal.NewFromString(*req.Price)
		if err != nil || p.IsNegative() {
			writeError(w, http.StatusBadRequest, "Invalid price", err)
			return
		}
		price = &p
	}

	variant, err := h.Store.UpdateVariant(r.Context(), id, price, req.Quantity)
	if err != nil {
		writeDomainError(w, "Failed to update variant", err)
		return
	}

	writeJSON(w, http.StatusOK, toVariantDTO(*variant))
}

// DeleteVariant removes a variant and its stock.
// DELETE /api/variants/{id}
func (h *Handler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id := pos.VariantID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteVariant(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete variant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OPS HANDLERS
// =============================================================================

// Ping is the liveness check.
// GET /api/ping
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSizes returns the advisory size set the UI should offer. The catalog
// accepts other labels; clients are expected to stick to these.
// GET /api/sizes
func (h *Handler) ListSizes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pos.Sizes)
}

// ResetDatabase clears all data. Development/demo only.
// POST /api/admin/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case pos.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case pos.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case pos.IsConflict(err):
		resp := ErrorResponse{Error: message, Code: "insufficient_stock", Details: err.Error()}
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, pos.ErrPartialStockDebit):
		resp := ErrorResponse{Error: message, Code: "partial_stock_debit", Details: err.Error()}
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
