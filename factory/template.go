/*
Package factory provides JSON to Go template conversion.

PURPOSE:
  Converts JSON template definitions into costing.Definition and fund row
  presets. This enables template configuration without code changes:
  estimators define product templates in JSON, and the factory creates the
  proper engine structs.

WHY JSON?
  - Non-developers can author templates
  - Easy integration with an admin UI
  - Version control for template definitions
  - Database storage of template configs

JSON SCHEMA:
  {
    "id": "partition-wall",
    "name": "Partition wall",
    "quantity_formula": "WIDTH * HEIGHT / 10000",
    "components": [
      {
        "resource_kind": "material",
        "resource_id": "plasterboard",
        "output": "SHEETS",
        "quantity_formula": "ceil(AREA / 3)",
        "waste_percent": 5
      },
      {"resource_kind": "labor", "resource_id": "install", "quantity": 0.8}
    ],
    "funds": [
      {"name": "overhead", "fund_type": "percent", "value": 15},
      {"name": "delivery", "fund_type": "fixed", "value": 40}
    ]
  }

KEY FEATURES:
  - Validates structure: each component is fixed XOR formula-driven
  - Compiles every formula at parse time, so a template with a banned or
    malformed formula is rejected before it can ever be materialized
  - Converts loosely-typed JSON numbers to decimals

USAGE:
  f := factory.NewTemplateFactory()
  def, fundRows, err := f.ParseTemplate(jsonString)
  rows, err := costing.Materialize(ctx, def, params, catalog)

SEE ALSO:
  - costing/types.go: Definition and ComponentSpec
  - api/scenarios.go: Demo templates expressed in this schema
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/eval"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TemplateJSON is the JSON representation of a product template.
type TemplateJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	QuantityFormula string          `json:"quantity_formula,omitempty"`
	Components      []ComponentJSON `json:"components"`
	Funds           []FundJSON      `json:"funds,omitempty"`
}

// ComponentJSON represents one declared component.
type ComponentJSON struct {
	ResourceKind    string   `json:"resource_kind"`
	ResourceID      string   `json:"resource_id"`
	Output          string   `json:"output,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	QuantityFormula string   `json:"quantity_formula,omitempty"`
	WastePercent    float64  `json:"waste_percent,omitempty"`
}

// FundJSON represents one fund row preset.
type FundJSON struct {
	Name     string  `json:"name"`
	FundType string  `json:"fund_type"` // "percent" or "fixed"
	Value    float64 `json:"value"`
}

// =============================================================================
// TEMPLATE FACTORY
// =============================================================================

// TemplateFactory converts JSON templates to engine structs.
type TemplateFactory struct{}

// NewTemplateFactory creates a new template factory.
func NewTemplateFactory() *TemplateFactory {
	return &TemplateFactory{}
}

// ParseTemplate parses and validates a JSON template, returning the
// definition and the fund row presets to attach at line-item creation.
func (f *TemplateFactory) ParseTemplate(configJSON string) (*costing.Definition, []costing.FundRow, error) {
	var tpl TemplateJSON
	if err := json.Unmarshal([]byte(configJSON), &tpl); err != nil {
		return nil, nil, fmt.Errorf("invalid template JSON: %w", err)
	}
	return f.Build(tpl)
}

// Build converts an already-decoded TemplateJSON.
func (f *TemplateFactory) Build(tpl TemplateJSON) (*costing.Definition, []costing.FundRow, error) {
	if tpl.ID == "" {
		return nil, nil, fmt.Errorf("template id is required")
	}
	if len(tpl.Components) == 0 {
		return nil, nil, fmt.Errorf("template %s: at least one component is required", tpl.ID)
	}

	if tpl.QuantityFormula != "" {
		if _, err := eval.Compile(tpl.QuantityFormula); err != nil {
			return nil, nil, fmt.Errorf("template %s: governing formula: %w", tpl.ID, err)
		}
	}

	def := &costing.Definition{
		ID:              tpl.ID,
		Name:            tpl.Name,
		QuantityFormula: tpl.QuantityFormula,
	}

	for i, comp := range tpl.Components {
		spec, err := buildComponent(comp)
		if err != nil {
			return nil, nil, fmt.Errorf("template %s: component %d: %w", tpl.ID, i+1, err)
		}
		def.Components = append(def.Components, spec)
	}

	rows, err := buildFundRows(tpl.Funds)
	if err != nil {
		return nil, nil, fmt.Errorf("template %s: %w", tpl.ID, err)
	}

	return def, rows, nil
}

func buildComponent(comp ComponentJSON) (costing.ComponentSpec, error) {
	var kind costing.ResourceKind
	switch comp.ResourceKind {
	case string(costing.ResourceMaterial):
		kind = costing.ResourceMaterial
	case string(costing.ResourceLabor):
		kind = costing.ResourceLabor
	default:
		return costing.ComponentSpec{}, fmt.Errorf("unknown resource_kind %q", comp.ResourceKind)
	}

	if comp.ResourceID == "" {
		return costing.ComponentSpec{}, fmt.Errorf("resource_id is required")
	}

	hasFixed := comp.Quantity != nil
	hasFormula := comp.QuantityFormula != ""
	if hasFixed == hasFormula {
		return costing.ComponentSpec{}, fmt.Errorf("exactly one of quantity and quantity_formula must be set")
	}
	if hasFormula {
		if _, err := eval.Compile(comp.QuantityFormula); err != nil {
			return costing.ComponentSpec{}, err
		}
	}
	if comp.WastePercent < 0 {
		return costing.ComponentSpec{}, fmt.Errorf("waste_percent must not be negative")
	}

	spec := costing.ComponentSpec{
		ResourceKind:    kind,
		ResourceID:      costing.ResourceID(comp.ResourceID),
		Output:          comp.Output,
		QuantityFormula: comp.QuantityFormula,
		WastePercent:    decimal.NewFromFloat(comp.WastePercent),
	}
	if hasFixed {
		spec.Quantity = decimal.NewFromFloat(*comp.Quantity)
	}
	return spec, nil
}

func buildFundRows(presets []FundJSON) ([]costing.FundRow, error) {
	var rows []costing.FundRow
	for _, preset := range presets {
		row := costing.FundRow{Name: preset.Name}
		switch preset.FundType {
		case string(costing.FundPercent):
			row.FundType = costing.FundPercent
			row.FundValue = decimal.NewFromFloat(preset.Value)
		case string(costing.FundFixed):
			row.FundType = costing.FundFixed
			row.Cost = decimal.NewFromFloat(preset.Value)
		default:
			return nil, fmt.Errorf("fund %q: unknown fund_type %q", preset.Name, preset.FundType)
		}
		if preset.Value < 0 {
			return nil, fmt.Errorf("fund %q: value must not be negative", preset.Name)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
