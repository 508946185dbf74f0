/*
materialize.go - BOM materialization from template definitions

PURPOSE:
  Converts a template Definition plus a parameter set into concrete BOM
  rows: one row per declared component, with the quantity resolved (fixed
  or formula-driven), waste applied, and the unit price snapshotted from
  the catalog.

FORMULA ORDERING:
  A component's formula may reference the Output of another component
  ("derived values"), so formulas are evaluated in dependency order. The
  order is found with Kahn's algorithm over output references; if no valid
  order exists the whole materialization fails with CyclicFormulaError.

PRICE SNAPSHOTTING:
  The catalog is read exactly once per component, at materialization time.
  The snapshot lives in the row forever; later price changes never
  retroactively alter materialized rows.

WASTE:
  Waste/overage is multiplicative and applied after the base quantity is
  resolved: finalQuantity = baseQuantity * (1 + wastePercent/100).
  Derived values expose the pre-waste base quantity, since downstream
  formulas reason about net quantities.

SEE ALSO:
  - eval: Formula compilation and evaluation
  - recalc.go: Uses BaseQuantity for the fresh-materialization branch
*/
package costing

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/eval"
)

// Materialize resolves every component of def into a BOM row. Rows are
// per-unit: Quantity and BaseQuantity equal the resolved (waste-inclusive)
// quantity for one unit of effective quantity; NewLineItem scales them.
func Materialize(ctx context.Context, def *Definition, params eval.Environment, catalog Catalog) ([]BOMRow, error) {
	order, err := evaluationOrder(def)
	if err != nil {
		return nil, err
	}

	derived := make(eval.Environment, len(params)+len(def.Components))
	for name, v := range params {
		derived[name] = v
	}

	rows := make([]BOMRow, len(def.Components))
	for _, idx := range order {
		comp := def.Components[idx]

		base, err := resolveBaseQuantity(comp, derived)
		if err != nil {
			return nil, err
		}
		if base.IsNegative() {
			return nil, &ValidationError{
				Field:   componentLabel(comp),
				Message: fmt.Sprintf("quantity resolved to negative value %s", base),
			}
		}
		if comp.Output != "" {
			derived[comp.Output] = eval.Number(base.InexactFloat64())
		}

		final, err := applyWaste(base, comp.WastePercent)
		if err != nil {
			return nil, err
		}

		price, err := catalog.UnitPrice(ctx, comp.ResourceKind, comp.ResourceID)
		if err != nil {
			return nil, err
		}

		rows[idx] = BOMRow{
			ResourceKind:      comp.ResourceKind,
			ResourceID:        comp.ResourceID,
			Quantity:          final,
			UnitPriceSnapshot: price,
			Cost:              final.Mul(price),
			BaseQuantity:      final,
			QuantityFormula:   comp.QuantityFormula,
			WastePercent:      comp.WastePercent,
		}
	}

	return rows, nil
}

// NewLineItem builds a line item from materialized per-unit rows: it
// resolves the effective quantity (governing formula or the entered
// quantity), scales every material/work row to it, and derives the
// percentage fund rows from the resulting base cost.
func NewLineItem(def *Definition, rows []BOMRow, quantity decimal.Decimal, params eval.Environment, funds []FundRow) (*LineItem, error) {
	eff, err := resolveEffectiveQuantity(def.QuantityFormula, quantity, params)
	if err != nil {
		return nil, err
	}

	li := &LineItem{
		DefinitionID:      def.ID,
		Name:              def.Name,
		Quantity:          quantity,
		EffectiveQuantity: eff,
		QuantityFormula:   def.QuantityFormula,
		Funds:             append([]FundRow(nil), funds...),
	}

	for _, row := range rows {
		scaled := row
		scaled.Quantity = row.BaseQuantity.Mul(eff)
		scaled.Cost = scaled.Quantity.Mul(scaled.UnitPriceSnapshot)
		switch row.ResourceKind {
		case ResourceLabor:
			li.WorkTypes = append(li.WorkTypes, scaled)
		default:
			li.Materials = append(li.Materials, scaled)
		}
	}

	applyFundRows(li.Funds, li.BaseCost())
	return li, nil
}

// resolveEffectiveQuantity applies the governing formula when present and
// rejects non-positive results: a zero-or-negative effective quantity has
// no meaningful cost decomposition.
func resolveEffectiveQuantity(formula string, quantity decimal.Decimal, params eval.Environment) (decimal.Decimal, error) {
	eff := quantity
	if formula != "" {
		result, err := eval.Evaluate(formula, params)
		if err != nil {
			return decimal.Zero, err
		}
		eff = decimal.NewFromFloat(result)
	}
	if !eff.IsPositive() {
		return decimal.Zero, &ValidationError{
			Field:   "effective quantity",
			Message: fmt.Sprintf("must be positive, got %s", eff),
		}
	}
	return eff, nil
}

// resolveBaseQuantity yields a component's pre-waste quantity: either the
// declared fixed quantity or the formula result against env.
func resolveBaseQuantity(comp ComponentSpec, env eval.Environment) (decimal.Decimal, error) {
	if !comp.HasFormula() {
		return comp.Quantity, nil
	}
	result, err := eval.Evaluate(comp.QuantityFormula, env)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(result), nil
}

// applyWaste applies the multiplicative waste factor. Negative waste has
// no physical meaning and is rejected.
func applyWaste(base, wastePercent decimal.Decimal) (decimal.Decimal, error) {
	if wastePercent.IsZero() {
		return base, nil
	}
	if wastePercent.IsNegative() {
		return decimal.Zero, &ValidationError{
			Field:   "waste percent",
			Message: fmt.Sprintf("must not be negative, got %s", wastePercent),
		}
	}
	factor := decimal.NewFromInt(1).Add(wastePercent.Div(decimal.NewFromInt(100)))
	return base.Mul(factor), nil
}

// applyFundRows recomputes every percent-type fund row from baseCost.
// Fixed rows keep their cost untouched. Mutates rows in place; callers
// pass a slice they own.
func applyFundRows(funds []FundRow, baseCost decimal.Decimal) {
	for i := range funds {
		if funds[i].FundType != FundPercent {
			continue
		}
		funds[i].Cost = baseCost.Mul(funds[i].FundValue).Div(decimal.NewFromInt(100))
	}
}

// =============================================================================
// FORMULA DEPENDENCY ORDERING
// =============================================================================

// evaluationOrder returns component indexes in an order where every
// formula's referenced outputs are resolved before the formula runs.
// Kahn's algorithm; a leftover component set means a cycle.
func evaluationOrder(def *Definition) ([]int, error) {
	outputs := make(map[string]int, len(def.Components)) // output name -> component index
	for i, comp := range def.Components {
		if comp.Output != "" {
			outputs[comp.Output] = i
		}
	}

	// deps[i] = indexes of components whose output component i references.
	deps := make(map[int][]int, len(def.Components))
	dependents := make(map[int][]int, len(def.Components))
	for i, comp := range def.Components {
		if !comp.HasFormula() {
			continue
		}
		expr, err := eval.Compile(comp.QuantityFormula)
		if err != nil {
			return nil, err
		}
		for _, name := range expr.InputParameters() {
			src, ok := outputs[name]
			if !ok || src == i {
				continue // plain parameter, or self-named output
			}
			deps[i] = append(deps[i], src)
			dependents[src] = append(dependents[src], i)
		}
	}

	order := make([]int, 0, len(def.Components))
	var ready []int
	pending := make(map[int]int, len(def.Components))
	for i := range def.Components {
		if n := len(deps[i]); n > 0 {
			pending[i] = n
		} else {
			ready = append(ready, i)
		}
	}

	for len(ready) > 0 {
		idx := ready[0]
		ready = ready[1:]
		order = append(order, idx)
		for _, dep := range dependents[idx] {
			pending[dep]--
			if pending[dep] == 0 {
				delete(pending, dep)
				ready = append(ready, dep)
			}
		}
	}

	if len(pending) > 0 {
		var cycle []string
		for idx := range pending {
			cycle = append(cycle, componentLabel(def.Components[idx]))
		}
		sort.Strings(cycle)
		return nil, &CyclicFormulaError{DefinitionID: def.ID, Components: cycle}
	}
	return order, nil
}

func componentLabel(comp ComponentSpec) string {
	if comp.Output != "" {
		return comp.Output
	}
	return string(comp.ResourceID)
}
