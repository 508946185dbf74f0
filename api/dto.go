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
  - *Response: Complex response wrappers

MONEY FIELDS:
  Decimal amounts are serialized as JSON strings ("112.5", not 112.5) so
  clients never receive values that went through binary floating point.

TYPES:
  Catalog:
    ResourceDTO, SaveResourceRequest

  Templates:
    TemplateDTO, CreateTemplateRequest, MaterializeRequest

  Line items:
    LineItemDTO, BOMRowDTO, FundRowDTO, RecalculateRequest,
    RecalculateResponse

  Funds:
    FundDTO, CategoryDTO, ItemDTO, CreateFundRequest, CategoryRequest,
    UpdateCategoryRequest, ItemRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/template.go: Template config schema
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/funds"
)

// =============================================================================
// CATALOG TYPES
// =============================================================================

// ResourceDTO represents a catalog entry in API responses.
type ResourceDTO struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	UnitPrice string `json:"unit_price"`
}

// SaveResourceRequest is the request to create or update a catalog entry.
type SaveResourceRequest struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	UnitPrice string `json:"unit_price"`
}

// =============================================================================
// TEMPLATE TYPES
// =============================================================================

// TemplateDTO represents a stored template in API responses.
type TemplateDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Config string `json:"config"`
}

// CreateTemplateRequest carries a template definition in the factory
// JSON schema. The config is parsed before it is stored, so invalid
// templates are rejected at creation time.
type CreateTemplateRequest struct {
	Config string `json:"config"`
}

// MaterializeRequest creates a line item from a stored template.
type MaterializeRequest struct {
	LineItemID string         `json:"line_item_id"`
	Name       string         `json:"name"`
	Quantity   string         `json:"quantity"`
	Parameters map[string]any `json:"parameters"`
}

// =============================================================================
// LINE ITEM TYPES
// =============================================================================

// BOMRowDTO represents a material or work row.
type BOMRowDTO struct {
	ResourceKind    string `json:"resource_kind"`
	ResourceID      string `json:"resource_id"`
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	Cost            string `json:"cost"`
	BaseQuantity    string `json:"base_quantity"`
	QuantityFormula string `json:"quantity_formula,omitempty"`
	WastePercent    string `json:"waste_percent"`
}

// FundRowDTO represents an overhead row attached to a line item.
type FundRowDTO struct {
	Name      string `json:"name"`
	FundType  string `json:"fund_type"`
	FundValue string `json:"fund_value"`
	Cost      string `json:"cost"`
}

// LineItemDTO represents the full line item graph.
type LineItemDTO struct {
	ID                string       `json:"id"`
	DefinitionID      string       `json:"definition_id"`
	Name              string       `json:"name"`
	Quantity          string       `json:"quantity"`
	EffectiveQuantity string       `json:"effective_quantity"`
	QuantityFormula   string       `json:"quantity_formula,omitempty"`
	Materials         []BOMRowDTO  `json:"materials"`
	WorkTypes         []BOMRowDTO  `json:"work_types"`
	Funds             []FundRowDTO `json:"funds"`
	BaseCost          string       `json:"base_cost"`
	TotalCost         string       `json:"total_cost"`
}

// RecalculateRequest carries new inputs for a line item.
type RecalculateRequest struct {
	Quantity   string         `json:"quantity"`
	Parameters map[string]any `json:"parameters"`
}

// RecalculateResponse reports the recalculation outcome.
type RecalculateResponse struct {
	Success           bool        `json:"success"`
	EffectiveQuantity string      `json:"effective_quantity"`
	LineItem          LineItemDTO `json:"line_item"`
}

// =============================================================================
// FUND TYPES
// =============================================================================

// ItemDTO represents a fund category item.
type ItemDTO struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
	Currency   string `json:"currency,omitempty"`
}

// CategoryDTO represents a fund category with derived amounts.
type CategoryDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Priority      int       `json:"priority"`
	PlannedAmount string    `json:"planned_amount"`
	ActualAmount  string    `json:"actual_amount"`
	Percentage    string    `json:"percentage"`
	Items         []ItemDTO `json:"items"`
}

// FundDTO represents the full fund graph after allocation.
type FundDTO struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	TotalAmount     string        `json:"total_amount"`
	AllocatedAmount string        `json:"allocated_amount"`
	RemainingAmount string        `json:"remaining_amount"`
	Categories      []CategoryDTO `json:"categories"`
}

// CreateFundRequest creates a fund with an optional initial category set.
type CreateFundRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	TotalAmount string            `json:"total_amount"`
	Categories  []CategoryRequest `json:"categories"`
}

// CategoryRequest carries category fields for create and add operations.
type CategoryRequest struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	Priority      int           `json:"priority"`
	PlannedAmount string        `json:"planned_amount"`
	Items         []ItemRequest `json:"items"`
}

// UpdateCategoryRequest patches a category. Nil fields are left unchanged.
type UpdateCategoryRequest struct {
	Name          *string `json:"name"`
	Type          *string `json:"type"`
	Priority      *int    `json:"priority"`
	PlannedAmount *string `json:"planned_amount"`
}

// ItemRequest carries item fields for create and add operations.
type ItemRequest struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
	Currency   string `json:"currency"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toBOMRowDTOs(rows []costing.BOMRow) []BOMRowDTO {
	out := make([]BOMRowDTO, len(rows))
	for i, r := range rows {
		out[i] = BOMRowDTO{
			ResourceKind:    string(r.ResourceKind),
			ResourceID:      string(r.ResourceID),
			Quantity:        r.Quantity.String(),
			UnitPrice:       r.UnitPriceSnapshot.String(),
			Cost:            r.Cost.String(),
			BaseQuantity:    r.BaseQuantity.String(),
			QuantityFormula: r.QuantityFormula,
			WastePercent:    r.WastePercent.String(),
		}
	}
	return out
}

func toFundRowDTOs(rows []costing.FundRow) []FundRowDTO {
	out := make([]FundRowDTO, len(rows))
	for i, f := range rows {
		out[i] = FundRowDTO{
			Name:      f.Name,
			FundType:  string(f.FundType),
			FundValue: f.FundValue.String(),
			Cost:      f.Cost.String(),
		}
	}
	return out
}

func toLineItemDTO(li *costing.LineItem) LineItemDTO {
	return LineItemDTO{
		ID:                li.ID,
		DefinitionID:      li.DefinitionID,
		Name:              li.Name,
		Quantity:          li.Quantity.String(),
		EffectiveQuantity: li.EffectiveQuantity.String(),
		QuantityFormula:   li.QuantityFormula,
		Materials:         toBOMRowDTOs(li.Materials),
		WorkTypes:         toBOMRowDTOs(li.WorkTypes),
		Funds:             toFundRowDTOs(li.Funds),
		BaseCost:          li.BaseCost().String(),
		TotalCost:         li.TotalCost().String(),
	}
}

func toFundDTO(f *funds.Fund) FundDTO {
	cats := make([]CategoryDTO, len(f.Categories))
	for i, c := range f.Categories {
		items := make([]ItemDTO, len(c.Items))
		for j, item := range c.Items {
			items[j] = ItemDTO{
				ID:         item.ID,
				Type:       item.Type,
				Amount:     item.Amount.String(),
				Percentage: item.Percentage.String(),
				Currency:   item.Currency,
			}
		}
		cats[i] = CategoryDTO{
			ID:            c.ID,
			Name:          c.Name,
			Type:          string(c.Type),
			Priority:      c.Priority,
			PlannedAmount: c.PlannedAmount.String(),
			ActualAmount:  c.ActualAmount.String(),
			Percentage:    c.Percentage.String(),
			Items:         items,
		}
	}
	return FundDTO{
		ID:              f.ID,
		Name:            f.Name,
		TotalAmount:     f.TotalAmount.String(),
		AllocatedAmount: f.AllocatedAmount.String(),
		RemainingAmount: f.RemainingAmount.String(),
		Categories:      cats,
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func toCategory(req CategoryRequest) (funds.Category, error) {
	planned, err := parseAmount(req.PlannedAmount)
	if err != nil {
		return funds.Category{}, err
	}
	c := funds.Category{
		ID:            req.ID,
		Name:          req.Name,
		Type:          funds.CategoryType(req.Type),
		Priority:      req.Priority,
		PlannedAmount: planned,
	}
	for _, ir := range req.Items {
		item, err := toItem(ir)
		if err != nil {
			return funds.Category{}, err
		}
		c.Items = append(c.Items, item)
	}
	return c, nil
}

func toItem(req ItemRequest) (funds.Item, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return funds.Item{}, err
	}
	pct, err := parseAmount(req.Percentage)
	if err != nil {
		return funds.Item{}, err
	}
	return funds.Item{
		ID:         req.ID,
		Type:       req.Type,
		Amount:     amount,
		Percentage: pct,
		Currency:   req.Currency,
	}, nil
}
