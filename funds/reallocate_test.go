package funds_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/funds"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// projectFund is the reference fund: 1,000,000 total; salary 400k,
// overhead 100k, and a tax category of two rates (13% + 2%).
func projectFund() *funds.Fund {
	return &funds.Fund{
		ID:          "fund-1",
		Name:        "Project fund",
		TotalAmount: dec("1000000"),
		Categories: []funds.Category{
			{ID: "cat-salary", Name: "Salary", Type: funds.CategorySalary, PlannedAmount: dec("400000")},
			{ID: "cat-overhead", Name: "Overhead", Type: funds.CategoryOverhead, PlannedAmount: dec("100000")},
			{ID: "cat-taxes", Name: "Taxes", Type: funds.CategoryTaxes, Items: []funds.Item{
				{ID: "tax-income", Type: "income", Percentage: dec("13")},
				{ID: "tax-social", Type: "social", Percentage: dec("2")},
			}},
		},
	}
}

func category(f *funds.Fund, id string) *funds.Category {
	for i := range f.Categories {
		if f.Categories[i].ID == id {
			return &f.Categories[i]
		}
	}
	return nil
}

// =============================================================================
// ALLOCATION RULES
// =============================================================================

func TestReallocate_ReferenceScenario(t *testing.T) {
	// GIVEN: The reference fund
	// WHEN: Reallocating
	// THEN: Salary 80.00%, Overhead 20.00%, Taxes 15.00%; 500k allocated, 500k remaining
	out, err := funds.Reallocate(projectFund())
	require.NoError(t, err)

	assert.True(t, category(out, "cat-salary").Percentage.Equal(dec("80")),
		"salary percentage = %s", category(out, "cat-salary").Percentage)
	assert.True(t, category(out, "cat-overhead").Percentage.Equal(dec("20")),
		"overhead percentage = %s", category(out, "cat-overhead").Percentage)
	assert.True(t, category(out, "cat-taxes").Percentage.Equal(dec("15")),
		"tax percentage = %s", category(out, "cat-taxes").Percentage)

	assert.True(t, out.AllocatedAmount.Equal(dec("500000")), "allocated = %s", out.AllocatedAmount)
	assert.True(t, out.RemainingAmount.Equal(dec("500000")), "remaining = %s", out.RemainingAmount)
}

func TestReallocate_TaxAdditivity_IndependentOfPlannedAmounts(t *testing.T) {
	// GIVEN: The same tax items under wildly different planned totals
	// THEN: The tax percentage is always the exact sum of its item rates
	for _, planned := range []string{"0", "1", "400000", "99999999"} {
		f := projectFund()
		category(f, "cat-salary").PlannedAmount = dec(planned)

		out, err := funds.Reallocate(f)
		require.NoError(t, err)
		assert.True(t, category(out, "cat-taxes").Percentage.Equal(dec("15")),
			"planned=%s: tax percentage = %s", planned, category(out, "cat-taxes").Percentage)
	}
}

func TestReallocate_TaxPlannedAmountInDenominator(t *testing.T) {
	// GIVEN: A tax category that also carries a planned amount
	f := projectFund()
	category(f, "cat-taxes").PlannedAmount = dec("500000")

	out, err := funds.Reallocate(f)
	require.NoError(t, err)

	// Denominator becomes 1,000,000, so salary drops to 40%.
	assert.True(t, category(out, "cat-salary").Percentage.Equal(dec("40")),
		"salary percentage = %s", category(out, "cat-salary").Percentage)
	// The tax category itself still uses the additive rule.
	assert.True(t, category(out, "cat-taxes").Percentage.Equal(dec("15")))
	assert.True(t, out.AllocatedAmount.Equal(dec("1000000")))
	assert.True(t, out.RemainingAmount.Equal(dec("0")))
}

func TestReallocate_NonTaxPercentagesSumToHundred(t *testing.T) {
	// GIVEN: Planned amounts that do not divide evenly
	f := &funds.Fund{
		ID:          "fund-thirds",
		TotalAmount: dec("1000"),
		Categories: []funds.Category{
			{ID: "a", Type: funds.CategorySalary, PlannedAmount: dec("100")},
			{ID: "b", Type: funds.CategoryOverhead, PlannedAmount: dec("100")},
			{ID: "c", Type: funds.CategoryReserve, PlannedAmount: dec("100")},
		},
	}

	out, err := funds.Reallocate(f)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, c := range out.Categories {
		assert.True(t, c.Percentage.Equal(dec("33.33")), "%s percentage = %s", c.ID, c.Percentage)
		sum = sum.Add(c.Percentage)
	}
	// Within rounding tolerance of 100.
	assert.True(t, sum.Sub(dec("100")).Abs().LessThanOrEqual(dec("0.02")), "sum = %s", sum)
}

func TestReallocate_ZeroTotalPlanned_ZeroPercentages(t *testing.T) {
	f := &funds.Fund{
		ID:          "fund-empty",
		TotalAmount: dec("1000"),
		Categories: []funds.Category{
			{ID: "a", Type: funds.CategorySalary},
			{ID: "b", Type: funds.CategoryOverhead},
		},
	}

	out, err := funds.Reallocate(f)
	require.NoError(t, err)

	for _, c := range out.Categories {
		assert.True(t, c.Percentage.IsZero(), "%s percentage = %s", c.ID, c.Percentage)
	}
	assert.True(t, out.RemainingAmount.Equal(dec("1000")))
}

func TestReallocate_ActualAmountIsItemSum(t *testing.T) {
	f := projectFund()
	category(f, "cat-salary").Items = []funds.Item{
		{ID: "pay-1", Amount: dec("120000"), Currency: "USD"},
		{ID: "pay-2", Amount: dec("80000"), Currency: "USD"},
	}

	out, err := funds.Reallocate(f)
	require.NoError(t, err)
	assert.True(t, category(out, "cat-salary").ActualAmount.Equal(dec("200000")),
		"actual = %s", category(out, "cat-salary").ActualAmount)
}

// =============================================================================
// IDEMPOTENCE - Rounded percentages are a fixed point
// =============================================================================

func TestReallocate_IdempotentOnOwnOutput(t *testing.T) {
	// GIVEN: A fund whose shares need rounding (1/3 splits, odd tax rates)
	f := &funds.Fund{
		ID:          "fund-idem",
		TotalAmount: dec("777777.77"),
		Categories: []funds.Category{
			{ID: "a", Type: funds.CategorySalary, PlannedAmount: dec("123456.78")},
			{ID: "b", Type: funds.CategoryOverhead, PlannedAmount: dec("98765.43")},
			{ID: "c", Type: funds.CategoryTaxes, PlannedAmount: dec("11111.11"), Items: []funds.Item{
				{ID: "t1", Percentage: dec("13.333")},
				{ID: "t2", Percentage: dec("2.125")},
			}},
		},
	}

	once, err := funds.Reallocate(f)
	require.NoError(t, err)
	twice, err := funds.Reallocate(once)
	require.NoError(t, err)

	require.Equal(t, len(once.Categories), len(twice.Categories))
	for i := range once.Categories {
		assert.True(t, once.Categories[i].Percentage.Equal(twice.Categories[i].Percentage),
			"category %s: %s != %s", once.Categories[i].ID,
			once.Categories[i].Percentage, twice.Categories[i].Percentage)
	}
	assert.True(t, once.AllocatedAmount.Equal(twice.AllocatedAmount))
	assert.True(t, once.RemainingAmount.Equal(twice.RemainingAmount))
}

func TestReallocate_InputNotMutated(t *testing.T) {
	f := projectFund()
	_, err := funds.Reallocate(f)
	require.NoError(t, err)

	assert.True(t, f.AllocatedAmount.IsZero(), "input allocated mutated: %s", f.AllocatedAmount)
	assert.True(t, category(f, "cat-salary").Percentage.IsZero(), "input percentage mutated")
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestReallocate_NegativeAmounts_Rejected(t *testing.T) {
	cases := map[string]func(*funds.Fund){
		"negative planned amount": func(f *funds.Fund) {
			category(f, "cat-salary").PlannedAmount = dec("-1")
		},
		"negative item amount": func(f *funds.Fund) {
			category(f, "cat-salary").Items = []funds.Item{{ID: "x", Amount: dec("-5")}}
		},
		"negative tax rate": func(f *funds.Fund) {
			category(f, "cat-taxes").Items[0].Percentage = dec("-13")
		},
	}

	for name, corrupt := range cases {
		f := projectFund()
		corrupt(f)
		_, err := funds.Reallocate(f)
		require.ErrorIs(t, err, costing.ErrValidation, name)
	}
}

// =============================================================================
// MUTATIONS - Every edit triggers the full pass
// =============================================================================

func TestAddCategory_TriggersFullReallocation(t *testing.T) {
	// WHEN: Adding a reserve category of 500k
	out, err := funds.AddCategory(projectFund(), funds.Category{
		ID: "cat-reserve", Name: "Reserve", Type: funds.CategoryReserve, PlannedAmount: dec("500000"),
	})
	require.NoError(t, err)

	// THEN: Every existing percentage shifts; totals follow
	assert.True(t, category(out, "cat-salary").Percentage.Equal(dec("40")))
	assert.True(t, category(out, "cat-reserve").Percentage.Equal(dec("50")))
	assert.True(t, out.AllocatedAmount.Equal(dec("1000000")))
	assert.True(t, out.RemainingAmount.IsZero())
}

func TestUpdateCategory_PlannedAmount(t *testing.T) {
	planned := dec("100000")
	out, err := funds.UpdateCategory(projectFund(), "cat-salary", funds.CategoryPatch{
		PlannedAmount: &planned,
	})
	require.NoError(t, err)

	assert.True(t, category(out, "cat-salary").Percentage.Equal(dec("50")))
	assert.True(t, category(out, "cat-overhead").Percentage.Equal(dec("50")))
	assert.True(t, out.AllocatedAmount.Equal(dec("200000")))
}

func TestUpdateCategory_TypeChangeSwitchesRule(t *testing.T) {
	// GIVEN: Overhead reclassified as a tax category with no rate items
	taxes := funds.CategoryTaxes
	out, err := funds.UpdateCategory(projectFund(), "cat-overhead", funds.CategoryPatch{
		Type: &taxes,
	})
	require.NoError(t, err)

	// THEN: It takes the additive rule (sum of zero items = 0), while its
	// planned amount still weighs in the denominator.
	assert.True(t, category(out, "cat-overhead").Percentage.IsZero())
	assert.True(t, category(out, "cat-salary").Percentage.Equal(dec("80")))
}

func TestDeleteCategory_CascadesAndReallocates(t *testing.T) {
	out, err := funds.DeleteCategory(projectFund(), "cat-overhead")
	require.NoError(t, err)

	require.Nil(t, category(out, "cat-overhead"))
	assert.True(t, category(out, "cat-salary").Percentage.Equal(dec("100")))
	assert.True(t, out.AllocatedAmount.Equal(dec("400000")))
}

func TestAddItem_And_DeleteItem_Reallocate(t *testing.T) {
	// WHEN: Adding a third tax rate
	out, err := funds.AddItem(projectFund(), "cat-taxes", funds.Item{
		ID: "tax-military", Type: "military", Percentage: dec("1.5"),
	})
	require.NoError(t, err)
	assert.True(t, category(out, "cat-taxes").Percentage.Equal(dec("16.5")),
		"tax percentage = %s", category(out, "cat-taxes").Percentage)

	// WHEN: Deleting it again
	out, err = funds.DeleteItem(out, "cat-taxes", "tax-military")
	require.NoError(t, err)
	assert.True(t, category(out, "cat-taxes").Percentage.Equal(dec("15")))
}

func TestMutations_UnknownIDs(t *testing.T) {
	_, err := funds.UpdateCategory(projectFund(), "nope", funds.CategoryPatch{})
	require.ErrorIs(t, err, costing.ErrNotFound)

	_, err = funds.DeleteCategory(projectFund(), "nope")
	require.ErrorIs(t, err, costing.ErrNotFound)

	_, err = funds.AddItem(projectFund(), "nope", funds.Item{ID: "x"})
	require.ErrorIs(t, err, costing.ErrNotFound)

	_, err = funds.DeleteItem(projectFund(), "cat-taxes", "nope")
	require.ErrorIs(t, err, costing.ErrNotFound)
}
