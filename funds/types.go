/*
Package funds provides the fund allocation engine.

PURPOSE:
  A Fund is a named pool of money subdivided into categories, each owning
  leaf items. This package recomputes the derived figures (category
  percentages, actual amounts, and the fund's allocated/remaining totals)
  as one pure pass over an in-memory snapshot. Callers persist the result.

TWO PERCENTAGE RULES:
  Tax categories:     percentage = sum of the items' independently declared
                      rates. Additive; never normalized against the rest.
  Everything else:    percentage = plannedAmount / total planned * 100.
                      Proportional share of the whole fund.

  Planned amounts of tax categories still participate in the denominator;
  only the percentage computation differs.

WHY A FULL PASS:
  Partial/local patches after a single item edit are the classic source of
  drift between allocatedAmount and the true category sums. Every mutation
  here (add/update/delete of a category or item) therefore reruns the
  entire reallocation, and the storage layer persists the full result
  atomically.

ROUNDING:
  Percentages are rounded to 2 decimal places, half away from zero, at the
  point of storage. Re-running reallocation on its own output changes
  nothing: rounded percentages are a fixed point.

USAGE:
  updated, err := funds.Reallocate(fund)

SEE ALSO:
  - reallocate.go: The allocation pass and mutation operations
  - costing/errors.go: Shared error taxonomy
*/
package funds

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY TYPES
// =============================================================================

// CategoryType selects the percentage rule. Taxes is the sole additive
// type; every other value takes the proportional-share rule.
type CategoryType string

const (
	CategoryTaxes CategoryType = "taxes"

	// Common non-tax types. The rule does not depend on these values;
	// they exist for template presets and display.
	CategorySalary   CategoryType = "salary"
	CategoryOverhead CategoryType = "overhead"
	CategoryReserve  CategoryType = "reserve"
)

// =============================================================================
// FUND AGGREGATE
// =============================================================================

// Fund is a pool of money with derived allocation totals. Invariant
// after every mutation: RemainingAmount = TotalAmount - AllocatedAmount.
type Fund struct {
	ID   string
	Name string

	TotalAmount     decimal.Decimal
	AllocatedAmount decimal.Decimal
	RemainingAmount decimal.Decimal

	Categories []Category
}

// Category groups fund items. ActualAmount is always the sum of its
// items' amounts; Percentage meaning depends on Type.
type Category struct {
	ID       string
	Name     string
	Type     CategoryType
	Priority int

	PlannedAmount decimal.Decimal
	ActualAmount  decimal.Decimal
	Percentage    decimal.Decimal

	Items []Item
}

// Item is a leaf entry owned by exactly one category. Percentage is only
// meaningful for items of tax categories (a tax rate); Currency is an
// opaque display code.
type Item struct {
	ID         string
	Type       string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Currency   string
}

// Clone returns a deep copy. The allocation pass and every mutation work
// on copies so a failed operation leaves the input untouched.
func (f *Fund) Clone() *Fund {
	out := *f
	out.Categories = make([]Category, len(f.Categories))
	for i, c := range f.Categories {
		out.Categories[i] = c
		out.Categories[i].Items = append([]Item(nil), c.Items...)
	}
	return &out
}

func (f *Fund) categoryIndex(id string) int {
	for i := range f.Categories {
		if f.Categories[i].ID == id {
			return i
		}
	}
	return -1
}
