/*
Package costing provides the core cost-calculation engine.

PURPOSE:
  This package contains the domain types and algorithms for turning a
  product template plus a parameter set into a concrete, consistent cost
  structure: material rows, labor rows, and percentage-based fund rows.
  It covers two of the engine's entry points:

    Materialize: template definition + parameters -> bill of materials
    Recalculate: line item + new quantity -> proportionally rescaled line item

KEY CONCEPTS IN THIS FILE (types.go):
  - Resource:      A priced material or labor definition from the catalog
  - ComponentSpec: One declared component of a template (fixed or formula)
  - Definition:    A template: named set of components
  - BOMRow:        One concrete material/labor row with quantity and cost
  - FundRow:       A percentage-of-cost or fixed overhead row
  - LineItem:      The owning aggregate (materials + work + funds)

DESIGN PRINCIPLES:
  1. Purity: every entry point reads its inputs and returns new values;
     callers persist results. No I/O happens here except reading unit
     prices through the Catalog interface at materialization time.
  2. Precision: decimal.Decimal for every quantity, price, and cost.
  3. Paired mutation: a row's quantity and cost are always replaced
     together, never one without the other.
  4. Fail-fast: errors are returned before any part of the result is
     produced; there are no partial updates.

USAGE:
  rows, err := costing.Materialize(ctx, def, params, catalog)
  item, err := costing.NewLineItem(def, rows, quantity, params)
  updated, err := costing.Recalculate(item, newQuantity, params)

SEE ALSO:
  - materialize.go: BOM materialization and formula dependency ordering
  - recalc.go: The recalculation cascade
  - errors.go: Error taxonomy
  - funds package: Fund category allocation
*/
package costing

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESOURCES - Priced materials and labor from the catalog
// =============================================================================

// ResourceKind distinguishes material rows from labor rows.
type ResourceKind string

const (
	ResourceMaterial ResourceKind = "material"
	ResourceLabor    ResourceKind = "labor"
)

// ResourceID identifies a resource in the catalog.
type ResourceID string

// Resource is a catalog entry: a material or labor type with its current
// unit price. The engine only ever reads UnitPrice as a snapshot.
type Resource struct {
	ID        ResourceID
	Kind      ResourceKind
	Name      string
	Unit      string // e.g. "m2", "kg", "hour"
	UnitPrice decimal.Decimal
}

// Catalog supplies current unit prices at materialization time. The
// sqlite store implements this; tests use the in-memory catalog package.
// Price changes after materialization never touch already-snapshotted rows.
type Catalog interface {
	UnitPrice(ctx context.Context, kind ResourceKind, id ResourceID) (decimal.Decimal, error)
}

// =============================================================================
// TEMPLATE DEFINITIONS
// =============================================================================

// ComponentSpec declares one component of a template. Exactly one of
// Quantity (fixed) or QuantityFormula (computed) is set. Output, when
// non-empty, names this component's resolved base quantity so later
// formulas can reference it.
type ComponentSpec struct {
	ResourceKind    ResourceKind
	ResourceID      ResourceID
	Output          string          // derived value name, "" if not referenced
	Quantity        decimal.Decimal // fixed per-unit quantity (when HasFormula is false)
	QuantityFormula string          // formula source, "" for fixed components
	WastePercent    decimal.Decimal // applied after the base quantity is resolved
}

// HasFormula reports whether the component's quantity is formula-driven.
func (c ComponentSpec) HasFormula() bool { return c.QuantityFormula != "" }

// Definition is a product template: the components to materialize plus an
// optional governing formula for the line item's effective quantity.
type Definition struct {
	ID              string
	Name            string
	QuantityFormula string // governing formula for effective quantity, "" if none
	Components      []ComponentSpec
}

// =============================================================================
// BOM ROWS - One row per material or labor resource
// =============================================================================

// BOMRow is one concrete row of a bill of materials.
//
// Quantity and Cost are always replaced together: Cost is definitionally
// Quantity * UnitPriceSnapshot, and every code path that touches one
// recomputes the other in the same assignment.
//
// BaseQuantity is the per-unit-of-effective-quantity quantity resolved at
// materialization (waste included). It is what the recalculation cascade
// falls back to when the stored quantities cannot be rescaled by ratio.
type BOMRow struct {
	ResourceKind      ResourceKind
	ResourceID        ResourceID
	Quantity          decimal.Decimal
	UnitPriceSnapshot decimal.Decimal
	Cost              decimal.Decimal

	BaseQuantity    decimal.Decimal
	QuantityFormula string // original formula, "" for fixed components
	WastePercent    decimal.Decimal
}

// =============================================================================
// FUND ROWS - Overhead and fund allocations attached to a line item
// =============================================================================

// FundType selects how a fund row's cost is derived.
type FundType string

const (
	// FundPercent rows are recomputed as a percentage of the line item's
	// base cost on every recalculation.
	FundPercent FundType = "percent"

	// FundFixed rows carry a flat cost that recalculation never touches.
	FundFixed FundType = "fixed"
)

// FundRow is one overhead/fund allocation attached to a line item.
type FundRow struct {
	Name      string
	FundType  FundType
	FundValue decimal.Decimal // percentage for FundPercent, ignored for FundFixed
	Cost      decimal.Decimal
}

// =============================================================================
// LINE ITEM - The owning aggregate
// =============================================================================

// LineItem owns three row collections: materials, work types, and funds.
//
// Quantity is what the user entered; EffectiveQuantity is what costing
// actually uses, which differs when QuantityFormula governs it. The core
// invariant: for every material/work row, Quantity / EffectiveQuantity is
// constant across rows that were scaled together.
type LineItem struct {
	ID           string
	DefinitionID string
	Name         string

	Quantity          decimal.Decimal
	EffectiveQuantity decimal.Decimal
	QuantityFormula   string // governing formula, "" if quantity is used directly

	Materials []BOMRow
	WorkTypes []BOMRow
	Funds     []FundRow
}

// BaseCost returns the sum of material and work costs. Fund rows are
// derived from this value, never part of it.
func (li *LineItem) BaseCost() decimal.Decimal {
	total := decimal.Zero
	for _, r := range li.Materials {
		total = total.Add(r.Cost)
	}
	for _, r := range li.WorkTypes {
		total = total.Add(r.Cost)
	}
	return total
}

// TotalCost returns base cost plus all fund row costs.
func (li *LineItem) TotalCost() decimal.Decimal {
	total := li.BaseCost()
	for _, f := range li.Funds {
		total = total.Add(f.Cost)
	}
	return total
}

// Clone returns a deep copy. Entry points operate on copies so a failed
// computation leaves the caller's aggregate untouched.
func (li *LineItem) Clone() *LineItem {
	out := *li
	out.Materials = append([]BOMRow(nil), li.Materials...)
	out.WorkTypes = append([]BOMRow(nil), li.WorkTypes...)
	out.Funds = append([]FundRow(nil), li.Funds...)
	return &out
}
