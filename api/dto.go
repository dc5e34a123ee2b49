/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Catalog:
    ProductDTO, VariantDTO, CreateProductRequest, UpsertVariantRequest,
    UpdateVariantRequest

  Sales:
    CreateSaleRequest, SaleLineRequest, SaleDTO, SaleItemDTO

  Cash:
    BalanceDTO, CashEntryDTO, CreateCashEntryRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

MONEY ON THE WIRE:
  Prices and totals travel as fixed 2-decimal strings ("80.00"), never
  floats. Ledger amounts travel as integer cents.

VALIDATION:
  Request structs carry validate tags consumed by go-playground/validator
  in the handlers. Response DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - pos/types.go: The domain types these map to
*/
package api

import (
	"time"

	"github.com/warp/pos-engine/pos"
)

// =============================================================================
// CATALOG TYPES
// =============================================================================

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	Active    bool         `json:"active"`
	ImageURL  string       `json:"image_url,omitempty"`
	ImageAlt  string       `json:"image_alt,omitempty"`
	Variants  []VariantDTO `json:"variants,omitempty"`
	CreatedAt string       `json:"created_at,omitempty"`
}

// VariantDTO represents a sized variant in API responses.
type VariantDTO struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CreateProductRequest is the request to create or update a product.
type CreateProductRequest struct {
	Name     string                 `json:"name" validate:"required"`
	Category string                 `json:"category" validate:"required"`
	Active   *bool                  `json:"active,omitempty"`
	ImageURL string                 `json:"image_url,omitempty" validate:"omitempty,url"`
	ImageAlt string                 `json:"image_alt,omitempty"`
	Variants []UpsertVariantRequest `json:"variants,omitempty" validate:"dive"`
}

// UpsertVariantRequest creates or replaces the variant for (product, size).
type UpsertVariantRequest struct {
	Size     string `json:"size" validate:"required"`
	Price    string `json:"price" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// UpdateVariantRequest patches a variant. Omitted fields keep their value.
type UpdateVariantRequest struct {
	Price    *string `json:"price,omitempty"`
	Quantity *int    `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}

// =============================================================================
// SALE TYPES
// =============================================================================

// SaleLineRequest is one cart entry in a sale request.
type SaleLineRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CreateSaleRequest is the request to record a sale.
type CreateSaleRequest struct {
	Seller string            `json:"seller" validate:"required"`
	Buyer  string            `json:"buyer,omitempty"`
	Items  []SaleLineRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleItemDTO is one line of a recorded sale, with its snapshot price.
type SaleItemDTO struct {
	ID        string `json:"id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// SaleDTO represents a recorded sale in API responses.
type SaleDTO struct {
	ID        string        `json:"id"`
	Seller    string        `json:"seller"`
	Buyer     string        `json:"buyer,omitempty"`
	Total     string        `json:"total"`
	Items     []SaleItemDTO `json:"items,omitempty"`
	CreatedAt string        `json:"created_at"`
}

// =============================================================================
// CASH TYPES
// =============================================================================

// BalanceDTO is the cash-on-hand figure.
type BalanceDTO struct {
	Balance string `json:"balance"`
	AsOf    string `json:"as_of"`
}

// CashEntryDTO represents one ledger adjustment in API responses.
// Amount carries the signed value in currency units; AmountCents the
// positive magnitude in minor units.
type CashEntryDTO struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Reason      string `json:"reason"`
	CreatedAt   string `json:"created_at"`
}

// CreateCashEntryRequest is the request to append a ledger adjustment.
type CreateCashEntryRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Kind        string `json:"kind" validate:"required,oneof=entrance exit"`
	Reason      string `json:"reason" validate:"required"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProductDTO(p pos.Product, variants []pos.Variant) ProductDTO {
	dto := ProductDTO{
		ID:        string(p.ID),
		Name:      p.Name,
		Category:  p.Category,
		Active:    p.Active,
		ImageURL:  p.ImageURL,
		ImageAlt:  p.ImageAlt,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	for _, v := range variants {
		dto.Variants = append(dto.Variants, toVariantDTO(v))
	}
	return dto
}

func toVariantDTO(v pos.Variant) VariantDTO {
	return VariantDTO{
		ID:        string(v.ID),
		ProductID: string(v.ProductID),
		Size:      v.Size,
		Price:     v.Price.StringFixed(2),
		Quantity:  v.Quantity,
	}
}

func toSaleDTO(s pos.Sale) SaleDTO {
	dto := SaleDTO{
		ID:        string(s.ID),
		Seller:    s.Seller,
		Buyer:     s.Buyer,
		Total:     s.Total.StringFixed(2),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range s.Items {
		dto.Items = append(dto.Items, SaleItemDTO{
			ID:        item.ID,
			VariantID: string(item.VariantID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return dto
}

func toSaleDTOs(sales []pos.Sale) []SaleDTO {
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	return dtos
}

func toCashEntryDTO(adj pos.Adjustment) CashEntryDTO {
	return CashEntryDTO{
		ID:          string(adj.ID),
		AmountCents: adj.AmountCents,
		Kind:        string(adj.Kind),
		Amount:      adj.SignedAmount().StringFixed(2),
		Reason:      adj.Reason,
		CreatedAt:   adj.CreatedAt.Format(time.RFC3339),
	}
}

func toCashEntryDTOs(adjs []pos.Adjustment) []CashEntryDTO {
	dtos := make([]CashEntryDTO, len(adjs))
	for i, adj := range adjs {
		dtos[i] = toCashEntryDTO(adj)
	}
	return dtos
}
