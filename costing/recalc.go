/*
recalc.go - Line-item recalculation cascade

PURPOSE:
  Propagates a quantity change through a line item's three-tier cost
  structure. The steps run in a fixed order because later steps depend on
  earlier totals:

    1. Resolve the new effective quantity (governing formula or the
       entered quantity). Non-positive -> ValidationError.
    2. Rescale every material and work row proportionally:
       unitQuantity = quantity / oldEffectiveQuantity, then
       quantity = unitQuantity * newEffectiveQuantity and
       cost = quantity * unitPriceSnapshot. Linear and reversible.
    3. Recompute baseCost as the sum of material and work costs.
    4. Recompute every percent-type fund row from the new base cost.
       Fixed fund rows are untouched.
    5. Store the new effective quantity on the line item.

RESCALE vs FRESH MATERIALIZATION:
  Step 2's ratio is undefined when the old effective quantity is zero, so
  that case is an explicit branch, not a fallthrough: each row's quantity
  is rebuilt from its declared formula or snapshotted base quantity.
  Either way quantity and cost are replaced together.

PURITY:
  Recalculate never mutates its input. It returns a new LineItem, or an
  error and no result; the caller's persisted state is untouched on
  failure.

SEE ALSO:
  - materialize.go: Where BaseQuantity and row formulas are snapshotted
  - funds package: Fund-level reallocation (separate aggregate)
*/
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/eval"
)

// Recalculate rescales li to newQuantity and returns the updated copy.
func Recalculate(li *LineItem, newQuantity decimal.Decimal, params eval.Environment) (*LineItem, error) {
	newEff, err := resolveEffectiveQuantity(li.QuantityFormula, newQuantity, params)
	if err != nil {
		return nil, err
	}

	out := li.Clone()
	oldEff := li.EffectiveQuantity

	if oldEff.IsPositive() {
		rescaleRows(out.Materials, oldEff, newEff)
		rescaleRows(out.WorkTypes, oldEff, newEff)
	} else {
		// Zero old quantity: the ratio is undefined, so rebuild each row
		// from its declared quantity instead of rescaling.
		if err := rematerializeRows(out.Materials, newEff, params); err != nil {
			return nil, err
		}
		if err := rematerializeRows(out.WorkTypes, newEff, params); err != nil {
			return nil, err
		}
	}

	applyFundRows(out.Funds, out.BaseCost())

	if err := validateCosts(out); err != nil {
		return nil, err
	}

	out.Quantity = newQuantity
	out.EffectiveQuantity = newEff
	return out, nil
}

// rescaleRows applies the proportional rescale. Quantity and cost are
// replaced together in a single pass.
func rescaleRows(rows []BOMRow, oldEff, newEff decimal.Decimal) {
	for i := range rows {
		unitQuantity := rows[i].Quantity.Div(oldEff)
		rows[i].Quantity = unitQuantity.Mul(newEff)
		rows[i].Cost = rows[i].Quantity.Mul(rows[i].UnitPriceSnapshot)
	}
}

// rematerializeRows rebuilds each row's quantity from its declared
// formula or snapshotted per-unit base quantity, then scales to newEff.
func rematerializeRows(rows []BOMRow, newEff decimal.Decimal, params eval.Environment) error {
	for i := range rows {
		perUnit := rows[i].BaseQuantity
		if rows[i].QuantityFormula != "" {
			result, err := eval.Evaluate(rows[i].QuantityFormula, params)
			if err != nil {
				return err
			}
			perUnit, err = applyWaste(decimal.NewFromFloat(result), rows[i].WastePercent)
			if err != nil {
				return err
			}
		}
		rows[i].Quantity = perUnit.Mul(newEff)
		rows[i].Cost = rows[i].Quantity.Mul(rows[i].UnitPriceSnapshot)
	}
	return nil
}

// validateCosts is the final NaN/negative guard: a cost figure that is
// not a meaningful amount fails the whole recalculation rather than being
// silently coerced to zero.
func validateCosts(li *LineItem) error {
	check := func(kind string, rows []BOMRow) error {
		for _, r := range rows {
			if r.Quantity.IsNegative() || r.Cost.IsNegative() {
				return &ValidationError{
					Field:   fmt.Sprintf("%s row %s", kind, r.ResourceID),
					Message: fmt.Sprintf("negative quantity or cost (%s, %s)", r.Quantity, r.Cost),
				}
			}
		}
		return nil
	}
	if err := check("material", li.Materials); err != nil {
		return err
	}
	if err := check("work", li.WorkTypes); err != nil {
		return err
	}
	for _, f := range li.Funds {
		if f.Cost.IsNegative() {
			return &ValidationError{
				Field:   fmt.Sprintf("fund row %s", f.Name),
				Message: fmt.Sprintf("negative cost %s", f.Cost),
			}
		}
	}
	return nil
}
