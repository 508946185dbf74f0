package costing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/costing/catalog"
	"github.com/warp/costing-engine/eval"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func params(pairs map[string]float64) eval.Environment {
	env := eval.Environment{}
	for name, v := range pairs {
		env[name] = eval.Number(v)
	}
	return env
}

// newTestCatalog returns a catalog with a small construction price list.
func newTestCatalog() *catalog.Memory {
	cat := catalog.NewMemory()
	cat.Put(costing.Resource{ID: "plasterboard", Kind: costing.ResourceMaterial, Unit: "sheet", UnitPrice: dec("12.50")})
	cat.Put(costing.Resource{ID: "screws", Kind: costing.ResourceMaterial, Unit: "box", UnitPrice: dec("4")})
	cat.Put(costing.Resource{ID: "paint", Kind: costing.ResourceMaterial, Unit: "litre", UnitPrice: dec("8")})
	cat.Put(costing.Resource{ID: "install", Kind: costing.ResourceLabor, Unit: "hour", UnitPrice: dec("30")})
	return cat
}

func fixedComponent(kind costing.ResourceKind, id costing.ResourceID, qty string) costing.ComponentSpec {
	return costing.ComponentSpec{ResourceKind: kind, ResourceID: id, Quantity: dec(qty)}
}

// =============================================================================
// MATERIALIZATION
// =============================================================================

func TestMaterialize_FixedQuantities(t *testing.T) {
	// GIVEN: A template with two fixed components
	// WHEN: Materializing
	// THEN: Each row snapshots the price and cost = quantity * price
	def := &costing.Definition{
		ID: "wall-basic",
		Components: []costing.ComponentSpec{
			fixedComponent(costing.ResourceMaterial, "plasterboard", "2"),
			fixedComponent(costing.ResourceLabor, "install", "1.5"),
		},
	}

	rows, err := costing.Materialize(context.Background(), def, nil, newTestCatalog())
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if !rows[0].Cost.Equal(dec("25")) {
		t.Errorf("plasterboard cost = %s, want 25", rows[0].Cost)
	}
	if !rows[1].Cost.Equal(dec("45")) {
		t.Errorf("install cost = %s, want 45", rows[1].Cost)
	}
}

func TestMaterialize_FormulaQuantity(t *testing.T) {
	// GIVEN: A sheet count driven by wall height
	def := &costing.Definition{
		ID: "wall-formula",
		Components: []costing.ComponentSpec{
			{ResourceKind: costing.ResourceMaterial, ResourceID: "plasterboard",
				QuantityFormula: "Math.ceil(HEIGHT / 280)"},
		},
	}

	rows, err := costing.Materialize(context.Background(), def,
		params(map[string]float64{"HEIGHT": 2500}), newTestCatalog())
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	if !rows[0].Quantity.Equal(dec("9")) {
		t.Errorf("quantity = %s, want 9", rows[0].Quantity)
	}
	if !rows[0].Cost.Equal(dec("112.5")) {
		t.Errorf("cost = %s, want 112.5", rows[0].Cost)
	}
}

func TestMaterialize_DerivedValues_DeclarationOrderIndependent(t *testing.T) {
	// GIVEN: The screw count references SHEETS, declared *after* it
	// WHEN: Materializing
	// THEN: Formulas run in dependency order, not declaration order
	def := &costing.Definition{
		ID: "wall-derived",
		Components: []costing.ComponentSpec{
			{ResourceKind: costing.ResourceMaterial, ResourceID: "screws",
				QuantityFormula: "ceil(SHEETS * 30 / 200)"},
			{ResourceKind: costing.ResourceMaterial, ResourceID: "plasterboard",
				Output:          "SHEETS",
				QuantityFormula: "ceil(AREA / 3)"},
		},
	}

	rows, err := costing.Materialize(context.Background(), def,
		params(map[string]float64{"AREA": 30}), newTestCatalog())
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	// AREA=30 -> SHEETS=10 -> screws = ceil(300/200) = 2 boxes
	if !rows[1].Quantity.Equal(dec("10")) {
		t.Errorf("sheets = %s, want 10", rows[1].Quantity)
	}
	if !rows[0].Quantity.Equal(dec("2")) {
		t.Errorf("screw boxes = %s, want 2", rows[0].Quantity)
	}
}

func TestMaterialize_CyclicFormulas_Rejected(t *testing.T) {
	// GIVEN: Two formulas referencing each other's outputs
	def := &costing.Definition{
		ID: "cycle",
		Components: []costing.ComponentSpec{
			{ResourceKind: costing.ResourceMaterial, ResourceID: "plasterboard",
				Output: "A", QuantityFormula: "B + 1"},
			{ResourceKind: costing.ResourceMaterial, ResourceID: "screws",
				Output: "B", QuantityFormula: "A + 1"},
		},
	}

	_, err := costing.Materialize(context.Background(), def, nil, newTestCatalog())
	if err == nil {
		t.Fatal("expected CyclicFormulaError")
	}
	if !errors.Is(err, costing.ErrCyclicFormula) {
		t.Fatalf("expected ErrCyclicFormula, got %v", err)
	}

	var cyclic *costing.CyclicFormulaError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected *CyclicFormulaError, got %T", err)
	}
	if len(cyclic.Components) != 2 {
		t.Errorf("cycle components = %v, want both A and B", cyclic.Components)
	}
}

func TestMaterialize_WasteAppliedAfterBaseQuantity(t *testing.T) {
	// GIVEN: 10 litres of paint with 10% waste
	def := &costing.Definition{
		ID: "paint-job",
		Components: []costing.ComponentSpec{
			{ResourceKind: costing.ResourceMaterial, ResourceID: "paint",
				Quantity: dec("10"), WastePercent: dec("10")},
		},
	}

	rows, err := costing.Materialize(context.Background(), def, nil, newTestCatalog())
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	if !rows[0].Quantity.Equal(dec("11")) {
		t.Errorf("quantity with waste = %s, want 11", rows[0].Quantity)
	}
	if !rows[0].Cost.Equal(dec("88")) {
		t.Errorf("cost = %s, want 88", rows[0].Cost)
	}
}

func TestMaterialize_PriceSnapshotNotRefetched(t *testing.T) {
	// GIVEN: A materialized row
	cat := newTestCatalog()
	def := &costing.Definition{
		ID:         "snapshot",
		Components: []costing.ComponentSpec{fixedComponent(costing.ResourceMaterial, "paint", "5")},
	}

	rows, err := costing.Materialize(context.Background(), def, nil, cat)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	// WHEN: The catalog price changes afterwards
	cat.Put(costing.Resource{ID: "paint", Kind: costing.ResourceMaterial, Unit: "litre", UnitPrice: dec("99")})

	// THEN: The existing row keeps its snapshot; a fresh materialization sees the new price
	if !rows[0].UnitPriceSnapshot.Equal(dec("8")) {
		t.Errorf("snapshot changed to %s after price update", rows[0].UnitPriceSnapshot)
	}

	fresh, err := costing.Materialize(context.Background(), def, nil, cat)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if !fresh[0].UnitPriceSnapshot.Equal(dec("99")) {
		t.Errorf("fresh snapshot = %s, want 99", fresh[0].UnitPriceSnapshot)
	}
}

func TestMaterialize_UnknownResource(t *testing.T) {
	def := &costing.Definition{
		ID:         "missing",
		Components: []costing.ComponentSpec{fixedComponent(costing.ResourceMaterial, "unobtainium", "1")},
	}

	_, err := costing.Materialize(context.Background(), def, nil, newTestCatalog())
	if !costing.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMaterialize_NegativeFormulaResult_Rejected(t *testing.T) {
	def := &costing.Definition{
		ID: "negative",
		Components: []costing.ComponentSpec{
			{ResourceKind: costing.ResourceMaterial, ResourceID: "paint",
				QuantityFormula: "BASE - 100"},
		},
	}

	_, err := costing.Materialize(context.Background(), def,
		params(map[string]float64{"BASE": 10}), newTestCatalog())
	if !errors.Is(err, costing.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// =============================================================================
// LINE ITEM CONSTRUCTION
// =============================================================================

func TestNewLineItem_ScalesRowsAndDerivesFunds(t *testing.T) {
	// GIVEN: Per-unit rows and a 15% overhead fund
	cat := newTestCatalog()
	def := &costing.Definition{
		ID: "unit-wall",
		Components: []costing.ComponentSpec{
			fixedComponent(costing.ResourceMaterial, "plasterboard", "2"),
			fixedComponent(costing.ResourceLabor, "install", "0.5"),
		},
	}
	rows, err := costing.Materialize(context.Background(), def, nil, cat)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	// WHEN: Building a line item for 4 units
	li, err := costing.NewLineItem(def, rows, dec("4"), nil, []costing.FundRow{
		{Name: "overhead", FundType: costing.FundPercent, FundValue: dec("15")},
	})
	if err != nil {
		t.Fatalf("NewLineItem failed: %v", err)
	}

	// THEN: Rows scale to 4 units; overhead is 15% of base cost
	if !li.Materials[0].Quantity.Equal(dec("8")) {
		t.Errorf("material quantity = %s, want 8", li.Materials[0].Quantity)
	}
	if !li.WorkTypes[0].Quantity.Equal(dec("2")) {
		t.Errorf("work quantity = %s, want 2", li.WorkTypes[0].Quantity)
	}

	// base = 8*12.50 + 2*30 = 160; overhead = 24
	if !li.BaseCost().Equal(dec("160")) {
		t.Errorf("base cost = %s, want 160", li.BaseCost())
	}
	if !li.Funds[0].Cost.Equal(dec("24")) {
		t.Errorf("overhead cost = %s, want 24", li.Funds[0].Cost)
	}
	if !li.TotalCost().Equal(dec("184")) {
		t.Errorf("total cost = %s, want 184", li.TotalCost())
	}
}

func TestNewLineItem_GoverningFormula(t *testing.T) {
	// GIVEN: A template whose effective quantity is area-derived
	cat := newTestCatalog()
	def := &costing.Definition{
		ID:              "area-wall",
		QuantityFormula: "WIDTH * HEIGHT / 10000", // cm2 -> m2
		Components:      []costing.ComponentSpec{fixedComponent(costing.ResourceMaterial, "paint", "0.3")},
	}
	rows, err := costing.Materialize(context.Background(), def, nil, cat)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	li, err := costing.NewLineItem(def, rows, dec("1"),
		params(map[string]float64{"WIDTH": 400, "HEIGHT": 250}), nil)
	if err != nil {
		t.Fatalf("NewLineItem failed: %v", err)
	}

	if !li.EffectiveQuantity.Equal(dec("10")) {
		t.Errorf("effective quantity = %s, want 10", li.EffectiveQuantity)
	}
	if !li.Materials[0].Quantity.Equal(dec("3")) {
		t.Errorf("paint quantity = %s, want 3", li.Materials[0].Quantity)
	}
}

func TestNewLineItem_NonPositiveEffectiveQuantity_Rejected(t *testing.T) {
	def := &costing.Definition{ID: "empty"}

	_, err := costing.NewLineItem(def, nil, dec("0"), nil, nil)
	if !errors.Is(err, costing.ErrValidation) {
		t.Fatalf("expected ValidationError for zero quantity, got %v", err)
	}

	_, err = costing.NewLineItem(def, nil, dec("-3"), nil, nil)
	if !errors.Is(err, costing.ErrValidation) {
		t.Fatalf("expected ValidationError for negative quantity, got %v", err)
	}
}
