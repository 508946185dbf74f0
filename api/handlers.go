/*
handlers.go - HTTP API handlers for the costing engine

PURPOSE:
  Exposes the costing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET    /api/resources              List priced resources
    POST   /api/resources              Create or update a resource

  Templates:
    GET    /api/templates              List stored templates
    POST   /api/templates              Create template from JSON config
    GET    /api/templates/{id}         Get template
    POST   /api/templates/{id}/materialize  Create a line item

  Line items:
    GET    /api/line-items             List line item headers
    GET    /api/line-items/{id}        Get full line item
    POST   /api/line-items/{id}/recalculate  Recalculate with new inputs
    DELETE /api/line-items/{id}        Delete line item

  Funds:
    GET    /api/funds                  List fund headers
    POST   /api/funds                  Create fund
    GET    /api/funds/{id}             Get full fund
    DELETE /api/funds/{id}             Delete fund
    POST   /api/funds/{id}/categories  Add category
    PUT    /api/funds/{id}/categories/{categoryID}        Update category
    DELETE /api/funds/{id}/categories/{categoryID}        Delete category
    POST   /api/funds/{id}/categories/{categoryID}/items  Add item
    DELETE /api/funds/{id}/categories/{categoryID}/items/{itemID}  Delete item

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (also the price catalog)
  - TemplateFactory: JSON to Definition conversion

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (materializer, recalculation, allocation)
  4. Persist the full result in one transaction
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, formula errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

  Domain errors carry their own classification; writeDomainError maps
  costing.IsNotFound to 404 and costing.IsClientError to 400.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/eval"
	"github.com/warp/costing-engine/factory"
	"github.com/warp/costing-engine/funds"
	"github.com/warp/costing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           *sqlite.Store
	TemplateFactory *factory.TemplateFactory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:           store,
		TemplateFactory: factory.NewTemplateFactory(),
	}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListResources returns all catalog entries.
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.Store.ListResources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list resources", err)
		return
	}

	dtos := make([]ResourceDTO, len(resources))
	for i, res := range resources {
		dtos[i] = ResourceDTO{
			ID:        string(res.ID),
			Kind:      string(res.Kind),
			Name:      res.Name,
			Unit:      res.Unit,
			UnitPrice: res.UnitPrice.String(),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// SaveResource creates or updates a catalog entry.
func (h *Handler) SaveResource(w http.ResponseWriter, r *http.Request) {
	var req SaveResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Resource id is required", nil)
		return
	}
	kind := costing.ResourceKind(req.Kind)
	if kind != costing.ResourceMaterial && kind != costing.ResourceLabor {
		writeError(w, http.StatusBadRequest, "Kind must be material or labor", nil)
		return
	}
	price, err := parseAmount(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_price", err)
		return
	}
	if price.IsNegative() {
		writeError(w, http.StatusBadRequest, "Unit price cannot be negative", nil)
		return
	}

	res := costing.Resource{
		ID:        costing.ResourceID(req.ID),
		Kind:      kind,
		Name:      req.Name,
		Unit:      req.Unit,
		UnitPrice: price,
	}
	if err := h.Store.SaveResource(r.Context(), res); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save resource", err)
		return
	}

	writeJSON(w, http.StatusCreated, ResourceDTO{
		ID: req.ID, Kind: req.Kind, Name: req.Name,
		Unit: req.Unit, UnitPrice: price.String(),
	})
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

// ListTemplates returns all stored templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Store.ListTemplates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list templates", err)
		return
	}

	dtos := make([]TemplateDTO, len(templates))
	for i, t := range templates {
		dtos[i] = TemplateDTO{ID: t.ID, Name: t.Name, Config: t.ConfigJSON}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateTemplate parses and stores a template config.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Reject bad configs before they are stored
	def, _, err := h.TemplateFactory.ParseTemplate(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid template config", err)
		return
	}

	record := sqlite.TemplateRecord{ID: def.ID, Name: def.Name, ConfigJSON: req.Config}
	if err := h.Store.SaveTemplate(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save template", err)
		return
	}

	writeJSON(w, http.StatusCreated, TemplateDTO{ID: def.ID, Name: def.Name, Config: req.Config})
}

// GetTemplate returns a single stored template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	record, err := h.Store.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get template", err)
		return
	}
	writeJSON(w, http.StatusOK, TemplateDTO{ID: record.ID, Name: record.Name, Config: record.ConfigJSON})
}

// MaterializeTemplate creates and persists a line item from a template.
func (h *Handler) MaterializeTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MaterializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.LineItemID == "" {
		writeError(w, http.StatusBadRequest, "line_item_id is required", nil)
		return
	}

	record, err := h.Store.GetTemplate(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get template", err)
		return
	}

	def, fundRows, err := h.TemplateFactory.ParseTemplate(record.ConfigJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored template config is invalid", err)
		return
	}

	params, err := eval.NewEnvironment(req.Parameters)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}
	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quantity", err)
		return
	}

	rows, err := costing.Materialize(ctx, def, params, h.Store)
	if err != nil {
		writeDomainError(w, "Materialization failed", err)
		return
	}

	li, err := costing.NewLineItem(def, rows, quantity, params, fundRows)
	if err != nil {
		writeDomainError(w, "Failed to build line item", err)
		return
	}
	li.ID = req.LineItemID
	if req.Name != "" {
		li.Name = req.Name
	}

	if err := h.Store.SaveLineItem(ctx, li); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save line item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toLineItemDTO(li))
}

// =============================================================================
// LINE ITEM HANDLERS
// =============================================================================

// ListLineItems returns line item headers.
func (h *Handler) ListLineItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListLineItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list line items", err)
		return
	}

	dtos := make([]LineItemDTO, len(items))
	for i := range items {
		dtos[i] = LineItemDTO{
			ID:                items[i].ID,
			DefinitionID:      items[i].DefinitionID,
			Name:              items[i].Name,
			Quantity:          items[i].Quantity.String(),
			EffectiveQuantity: items[i].EffectiveQuantity.String(),
			QuantityFormula:   items[i].QuantityFormula,
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetLineItem returns the full line item graph.
func (h *Handler) GetLineItem(w http.ResponseWriter, r *http.Request) {
	li, err := h.Store.GetLineItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get line item", err)
		return
	}
	writeJSON(w, http.StatusOK, toLineItemDTO(li))
}

// RecalculateLineItem reruns the costing cascade with new inputs and
// persists the result atomically. A failed recalculation leaves the
// stored line item untouched.
func (h *Handler) RecalculateLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	li, err := h.Store.GetLineItem(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get line item", err)
		return
	}

	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quantity", err)
		return
	}
	params, err := eval.NewEnvironment(req.Parameters)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}

	updated, err := costing.Recalculate(li, quantity, params)
	if err != nil {
		writeDomainError(w, "Recalculation failed", err)
		return
	}

	if err := h.Store.SaveLineItem(ctx, updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save line item", err)
		return
	}

	writeJSON(w, http.StatusOK, RecalculateResponse{
		Success:           true,
		EffectiveQuantity: updated.EffectiveQuantity.String(),
		LineItem:          toLineItemDTO(updated),
	})
}

// DeleteLineItem removes a line item.
func (h *Handler) DeleteLineItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteLineItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete line item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// =============================================================================
// FUND HANDLERS
// =============================================================================

// ListFunds returns fund headers.
func (h *Handler) ListFunds(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListFunds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list funds", err)
		return
	}

	dtos := make([]FundDTO, len(list))
	for i := range list {
		dtos[i] = FundDTO{
			ID:              list[i].ID,
			Name:            list[i].Name,
			TotalAmount:     list[i].TotalAmount.String(),
			AllocatedAmount: list[i].AllocatedAmount.String(),
			RemainingAmount: list[i].RemainingAmount.String(),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateFund creates a fund, runs the allocation pass, and persists it.
func (h *Handler) CreateFund(w http.ResponseWriter, r *http.Request) {
	var req CreateFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Fund id is required", nil)
		return
	}

	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total_amount", err)
		return
	}

	fund := &funds.Fund{ID: req.ID, Name: req.Name, TotalAmount: total}
	for _, cr := range req.Categories {
		c, err := toCategory(cr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid category", err)
			return
		}
		fund.Categories = append(fund.Categories, c)
	}

	allocated, err := funds.Reallocate(fund)
	if err != nil {
		writeDomainError(w, "Allocation failed", err)
		return
	}

	if err := h.Store.SaveFund(r.Context(), allocated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save fund", err)
		return
	}

	writeJSON(w, http.StatusCreated, toFundDTO(allocated))
}

// GetFund returns the full fund graph.
func (h *Handler) GetFund(w http.ResponseWriter, r *http.Request) {
	fund, err := h.Store.GetFund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get fund", err)
		return
	}
	writeJSON(w, http.StatusOK, toFundDTO(fund))
}

// DeleteFund removes a fund and its categories.
func (h *Handler) DeleteFund(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteFund(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete fund", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// mutateFund loads a fund, applies the mutation, and persists the
// reallocated result. The stored fund is untouched when the mutation fails.
func (h *Handler) mutateFund(w http.ResponseWriter, r *http.Request,
	mutate func(*funds.Fund) (*funds.Fund, error)) {

	ctx := r.Context()
	fund, err := h.Store.GetFund(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get fund", err)
		return
	}

	updated, err := mutate(fund)
	if err != nil {
		writeDomainError(w, "Fund update failed", err)
		return
	}

	if err := h.Store.SaveFund(ctx, updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save fund", err)
		return
	}

	writeJSON(w, http.StatusOK, toFundDTO(updated))
}

// AddCategory adds a category and reallocates.
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, err := toCategory(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category", err)
		return
	}

	h.mutateFund(w, r, func(f *funds.Fund) (*funds.Fund, error) {
		return funds.AddCategory(f, c)
	})
}

// UpdateCategory patches a category and reallocates.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := funds.CategoryPatch{Name: req.Name, Priority: req.Priority}
	if req.Type != nil {
		t := funds.CategoryType(*req.Type)
		patch.Type = &t
	}
	if req.PlannedAmount != nil {
		planned, err := parseAmount(*req.PlannedAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid planned_amount", err)
			return
		}
		patch.PlannedAmount = &planned
	}

	categoryID := chi.URLParam(r, "categoryID")
	h.mutateFund(w, r, func(f *funds.Fund) (*funds.Fund, error) {
		return funds.UpdateCategory(f, categoryID, patch)
	})
}

// DeleteCategory removes a category (and its items) and reallocates.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	h.mutateFund(w, r, func(f *funds.Fund) (*funds.Fund, error) {
		return funds.DeleteCategory(f, categoryID)
	})
}

// AddItem adds an item to a category and reallocates.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	item, err := toItem(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item", err)
		return
	}

	categoryID := chi.URLParam(r, "categoryID")
	h.mutateFund(w, r, func(f *funds.Fund) (*funds.Fund, error) {
		return funds.AddItem(f, categoryID, item)
	})
}

// DeleteItem removes an item from a category and reallocates.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	itemID := chi.URLParam(r, "itemID")
	h.mutateFund(w, r, func(f *funds.Fund) (*funds.Fund, error) {
		return funds.DeleteItem(f, categoryID, itemID)
	})
}

// =============================================================================
// HELPERS
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

// writeDomainError maps classified engine errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case costing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case costing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
