/*
reallocate.go - The allocation pass and fund mutation operations

PURPOSE:
  Reallocate is the single recomputation entry point: it validates the
  fund graph, applies both percentage rules, and rebuilds the fund totals.
  The mutation operations (add/update/delete category or item) are thin
  wrappers that edit a copy of the graph and then run the full pass, so
  no caller can ever apply a partial update.

ALGORITHM (fixed order):
  1. Tax categories:     percentage = round2(sum of item percentages)
  2. totalPlanned      = sum of ALL categories' planned amounts
  3. Non-tax categories: percentage = round2(planned / totalPlanned * 100)
                         (0 when totalPlanned is 0)
  4. allocated = totalPlanned; remaining = total - allocated
  Every category's actualAmount = sum of its items' amounts.

SEE ALSO:
  - types.go: Aggregate definitions and the rounding policy
*/
package funds

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
)

var hundred = decimal.NewFromInt(100)

// round2 rounds to 2 decimal places, half away from zero. Applying it to
// an already-rounded value is a no-op, which is what makes Reallocate
// idempotent on its own output.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Reallocate recomputes every derived figure of the fund and returns the
// updated copy. The input is never mutated; on error nothing is returned.
func Reallocate(f *Fund) (*Fund, error) {
	if err := validate(f); err != nil {
		return nil, err
	}

	out := f.Clone()

	// Step 1: tax categories sum their items' independently declared
	// rates. Not normalized against other categories.
	for i := range out.Categories {
		c := &out.Categories[i]
		c.ActualAmount = itemTotal(c.Items)
		if c.Type != CategoryTaxes {
			continue
		}
		sum := decimal.Zero
		for _, item := range c.Items {
			sum = sum.Add(item.Percentage)
		}
		c.Percentage = round2(sum)
	}

	// Step 2: planned amounts of every category, tax and non-tax alike,
	// participate in the denominator.
	totalPlanned := decimal.Zero
	for _, c := range out.Categories {
		totalPlanned = totalPlanned.Add(c.PlannedAmount)
	}

	// Step 3: proportional share for everything that is not a tax.
	for i := range out.Categories {
		c := &out.Categories[i]
		if c.Type == CategoryTaxes {
			continue
		}
		if totalPlanned.IsPositive() {
			c.Percentage = round2(c.PlannedAmount.Div(totalPlanned).Mul(hundred))
		} else {
			c.Percentage = decimal.Zero
		}
	}

	// Step 4: fund totals.
	out.AllocatedAmount = totalPlanned
	out.RemainingAmount = out.TotalAmount.Sub(out.AllocatedAmount)

	return out, nil
}

// validate rejects graphs with no meaningful allocation before anything
// is computed (all-or-nothing).
func validate(f *Fund) error {
	if f.TotalAmount.IsNegative() {
		return &costing.ValidationError{
			Field:   "fund total amount",
			Message: fmt.Sprintf("must not be negative, got %s", f.TotalAmount),
		}
	}
	for _, c := range f.Categories {
		if c.PlannedAmount.IsNegative() {
			return &costing.ValidationError{
				Field:   fmt.Sprintf("category %s planned amount", c.Name),
				Message: fmt.Sprintf("must not be negative, got %s", c.PlannedAmount),
			}
		}
		for _, item := range c.Items {
			if item.Amount.IsNegative() {
				return &costing.ValidationError{
					Field:   fmt.Sprintf("item %s amount", item.ID),
					Message: fmt.Sprintf("must not be negative, got %s", item.Amount),
				}
			}
			if c.Type == CategoryTaxes && item.Percentage.IsNegative() {
				return &costing.ValidationError{
					Field:   fmt.Sprintf("tax item %s percentage", item.ID),
					Message: fmt.Sprintf("must not be negative, got %s", item.Percentage),
				}
			}
		}
	}
	return nil
}

func itemTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// =============================================================================
// MUTATION OPERATIONS - Always the full pass, never a local patch
// =============================================================================

// AddCategory appends a category and reruns the allocation.
func AddCategory(f *Fund, c Category) (*Fund, error) {
	out := f.Clone()
	out.Categories = append(out.Categories, c)
	return Reallocate(out)
}

// CategoryPatch carries the editable category fields. Nil fields are
// left unchanged.
type CategoryPatch struct {
	Name          *string
	Type          *CategoryType
	Priority      *int
	PlannedAmount *decimal.Decimal
}

// UpdateCategory applies a patch to the category and reruns the
// allocation. The category keeps exactly one rule per pass: its type at
// recomputation time decides, so a type change simply takes the other rule.
func UpdateCategory(f *Fund, categoryID string, patch CategoryPatch) (*Fund, error) {
	out := f.Clone()
	idx := out.categoryIndex(categoryID)
	if idx < 0 {
		return nil, &costing.NotFoundError{Kind: "category", ID: categoryID}
	}

	c := &out.Categories[idx]
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.Priority != nil {
		c.Priority = *patch.Priority
	}
	if patch.PlannedAmount != nil {
		c.PlannedAmount = *patch.PlannedAmount
	}
	return Reallocate(out)
}

// DeleteCategory removes the category and its items (exclusive
// ownership cascades) and reruns the allocation.
func DeleteCategory(f *Fund, categoryID string) (*Fund, error) {
	out := f.Clone()
	idx := out.categoryIndex(categoryID)
	if idx < 0 {
		return nil, &costing.NotFoundError{Kind: "category", ID: categoryID}
	}
	out.Categories = append(out.Categories[:idx], out.Categories[idx+1:]...)
	return Reallocate(out)
}

// AddItem appends an item to the category and reruns the allocation.
func AddItem(f *Fund, categoryID string, item Item) (*Fund, error) {
	out := f.Clone()
	idx := out.categoryIndex(categoryID)
	if idx < 0 {
		return nil, &costing.NotFoundError{Kind: "category", ID: categoryID}
	}
	out.Categories[idx].Items = append(out.Categories[idx].Items, item)
	return Reallocate(out)
}

// DeleteItem removes the item and reruns the allocation.
func DeleteItem(f *Fund, categoryID, itemID string) (*Fund, error) {
	out := f.Clone()
	idx := out.categoryIndex(categoryID)
	if idx < 0 {
		return nil, &costing.NotFoundError{Kind: "category", ID: categoryID}
	}

	items := out.Categories[idx].Items
	for i := range items {
		if items[i].ID == itemID {
			out.Categories[idx].Items = append(items[:i], items[i+1:]...)
			return Reallocate(out)
		}
	}
	return nil, &costing.NotFoundError{Kind: "item", ID: itemID}
}
