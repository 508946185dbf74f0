/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates catalog resources,
	templates, line items, and funds that demonstrate specific features.

AVAILABLE SCENARIOS:

	partition-wall: Priced catalog, a wall template with formula-driven
	                quantities and waste, and a materialized line item
	project-fund:   A fund with planned categories and additive tax items

HOW SCENARIOS WORK:
 1. Create catalog resources
 2. Create templates via factory config JSON
 3. Materialize line items with concrete parameters
 4. Create funds and run the allocation pass

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "partition-wall"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

SEE ALSO:
  - handlers.go: Shared handler context and helpers
  - factory/template.go: Template config schema
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/eval"
	"github.com/warp/costing-engine/funds"
	"github.com/warp/costing-engine/store/sqlite"
)

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "partition-wall",
		Name:        "Partition Wall",
		Description: "Catalog, wall template with formula quantities and waste, one materialized line item",
	},
	{
		ID:          "project-fund",
		Name:        "Project Fund",
		Description: "A 1,000,000 fund with planned categories and additive tax items",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario reports which scenario was loaded last, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario populates the database with a demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "partition-wall":
		err = h.loadPartitionWallScenario(r.Context())
	case "project-fund":
		err = h.loadProjectFundScenario(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO: PARTITION WALL
// =============================================================================

const partitionWallTemplate = `{
	"id": "partition-wall",
	"name": "Partition Wall",
	"quantity_formula": "WIDTH * HEIGHT / 10000",
	"components": [
		{
			"resource_kind": "material",
			"resource_id": "plasterboard",
			"output": "SHEETS",
			"quantity_formula": "Math.ceil(HEIGHT / 280)",
			"waste_percent": 10
		},
		{
			"resource_kind": "material",
			"resource_id": "screws",
			"quantity_formula": "SHEETS * 0.2"
		},
		{
			"resource_kind": "labor",
			"resource_id": "install",
			"quantity": 0.5
		}
	],
	"funds": [
		{"name": "Overhead", "fund_type": "percent", "value": 15},
		{"name": "Delivery", "fund_type": "fixed", "value": 40}
	]
}`

func (h *Handler) loadPartitionWallScenario(ctx context.Context) error {
	resources := []costing.Resource{
		{ID: "plasterboard", Kind: costing.ResourceMaterial, Name: "Plasterboard sheet", Unit: "sheet", UnitPrice: decimal.RequireFromString("12.50")},
		{ID: "screws", Kind: costing.ResourceMaterial, Name: "Drywall screws", Unit: "box", UnitPrice: decimal.RequireFromString("4")},
		{ID: "paint", Kind: costing.ResourceMaterial, Name: "Interior paint", Unit: "liter", UnitPrice: decimal.RequireFromString("8")},
		{ID: "install", Kind: costing.ResourceLabor, Name: "Installation", Unit: "hour", UnitPrice: decimal.RequireFromString("30")},
	}
	for _, res := range resources {
		if err := h.Store.SaveResource(ctx, res); err != nil {
			return err
		}
	}

	def, fundRows, err := h.TemplateFactory.ParseTemplate(partitionWallTemplate)
	if err != nil {
		return err
	}
	if err := h.Store.SaveTemplate(ctx, sqlite.TemplateRecord{
		ID: def.ID, Name: def.Name, ConfigJSON: partitionWallTemplate,
	}); err != nil {
		return err
	}

	// A 9m x 2.5m wall; the governing formula turns dimensions into units
	params, err := eval.NewEnvironment(map[string]any{
		"WIDTH":  900,
		"HEIGHT": 250,
	})
	if err != nil {
		return err
	}

	rows, err := costing.Materialize(ctx, def, params, h.Store)
	if err != nil {
		return err
	}
	li, err := costing.NewLineItem(def, rows, decimal.Zero, params, fundRows)
	if err != nil {
		return err
	}
	li.ID = "demo-wall"
	return h.Store.SaveLineItem(ctx, li)
}

// =============================================================================
// SCENARIO: PROJECT FUND
// =============================================================================

func (h *Handler) loadProjectFundScenario(ctx context.Context) error {
	fund := &funds.Fund{
		ID:          "demo-fund",
		Name:        "Project Fund",
		TotalAmount: decimal.New(1000000, 0),
		Categories: []funds.Category{
			{
				ID: "cat-salary", Name: "Salary", Type: funds.CategorySalary,
				Priority: 1, PlannedAmount: decimal.New(400000, 0),
			},
			{
				ID: "cat-overhead", Name: "Overhead", Type: funds.CategoryOverhead,
				Priority: 2, PlannedAmount: decimal.New(100000, 0),
			},
			{
				ID: "cat-taxes", Name: "Taxes", Type: funds.CategoryTaxes,
				Priority: 3,
				Items: []funds.Item{
					{ID: "tax-income", Type: "income", Percentage: decimal.New(13, 0)},
					{ID: "tax-social", Type: "social", Percentage: decimal.New(2, 0)},
				},
			},
		},
	}

	allocated, err := funds.Reallocate(fund)
	if err != nil {
		return err
	}
	return h.Store.SaveFund(ctx, allocated)
}
