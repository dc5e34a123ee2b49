/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates products, variants,
	and optionally sales and cash entries that demonstrate specific
	features.

AVAILABLE SCENARIOS:

	bazaar-opening:  Fresh catalog, full stock, empty ledger
	busy-saturday:   Catalog plus recorded sales and cash movements
	last-units:      Variants down to their final units (oversell demo)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create products and sized variants
 3. Optionally record sales through the real checkout engine
 4. Optionally append cash adjustments

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-saturday"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared response helpers
  - pos/checkout.go: The engine scenarios record sales through
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/warp/pos-engine/pos"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "bazaar-opening",
		Name:        "Bazaar Opening",
		Description: "Fresh catalog with full stock, no sales, empty ledger",
	},
	{
		ID:          "busy-saturday",
		Name:        "Busy Saturday",
		Description: "Catalog with recorded sales, a cash float, and an expense",
	},
	{
		ID:          "last-units",
		Name:        "Last Units",
		Description: "Variants down to their final units for oversell demos",
	},
}

// ListScenarios returns all available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario resets the database and loads the requested scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing scenario_id", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "bazaar-opening":
		err = h.loadBazaarOpening(ctx)
	case "busy-saturday":
		err = h.loadBusySaturday(ctx)
	case "last-units":
		err = h.loadLastUnits(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedProduct creates one product with variants at the given price and stock.
func (h *Handler) seedProduct(ctx context.Context, name, category, price string, stock int, sizes ...string) ([]pos.Variant, error) {
	product := &pos.Product{
		ID:        pos.ProductID(uuid.NewString()),
		Name:      name,
		Category:  category,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	var variants []pos.Variant
	for _, size := range sizes {
		v, err := h.Store.UpsertVariant(ctx, product.ID, size, pos.MustParseDecimal(price), stock)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}
	return variants, nil
}

// loadBazaarOpening seeds a fresh catalog with full stock.
func (h *Handler) loadBazaarOpening(ctx context.Context) error {
	if _, err := h.seedProduct(ctx, "Vestido Midi", "vestidos", "80.00", 5, "P", "M", "G"); err != nil {
		return err
	}
	if _, err := h.seedProduct(ctx, "Blusa Cropped", "blusas", "45.00", 8, "PP", "P", "M"); err != nil {
		return err
	}
	if _, err := h.seedProduct(ctx, "Bolsa Tote", "acessorios", "120.00", 3, "U"); err != nil {
		return err
	}
	return nil
}

// loadBusySaturday seeds the catalog plus sales and cash movements, all
// through the real engine and ledger so the balance adds up.
func (h *Handler) loadBusySaturday(ctx context.Context) error {
	dresses, err := h.seedProduct(ctx, "Vestido Midi", "vestidos", "80.00", 5, "P", "M", "G")
	if err != nil {
		return err
	}
	tops, err := h.seedProduct(ctx, "Blusa Cropped", "blusas", "45.00", 8, "PP", "P", "M")
	if err != nil {
		return err
	}

	// Opening float, then sales, then a supply run.
	if _, err := h.Ledger.Record(ctx, 10000, "troco inicial", pos.KindEntrance); err != nil {
		return err
	}

	sales := []pos.SaleRequest{
		{Seller: "deh", Lines: []pos.SaleLine{{VariantID: dresses[1].ID, Quantity: 2}}},
		{Seller: "carol", Buyer: "cliente da feira", Lines: []pos.SaleLine{
			{VariantID: tops[0].ID, Quantity: 1},
			{VariantID: tops[2].ID, Quantity: 1},
		}},
	}
	for _, req := range sales {
		if _, err := h.Engine.CreateSale(ctx, req); err != nil {
			return err
		}
	}

	if _, err := h.Ledger.Record(ctx, 3000, "sacolas e etiquetas", pos.KindExit); err != nil {
		return err
	}
	return nil
}

// loadLastUnits seeds variants with a single unit each so the next
// concurrent checkout demonstrates the oversell rejection.
func (h *Handler) loadLastUnits(ctx context.Context) error {
	if _, err := h.seedProduct(ctx, "Vestido Midi", "vestidos", "80.00", 1, "M"); err != nil {
		return err
	}
	if _, err := h.seedProduct(ctx, "Bolsa Tote", "acessorios", "120.00", 1, "U"); err != nil {
		return err
	}
	return nil
}
