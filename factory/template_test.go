package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/factory"
)

const wallTemplate = `{
	"id": "partition-wall",
	"name": "Partition wall",
	"quantity_formula": "WIDTH * HEIGHT / 10000",
	"components": [
		{"resource_kind": "material", "resource_id": "plasterboard",
		 "output": "SHEETS", "quantity_formula": "ceil(AREA / 3)", "waste_percent": 5},
		{"resource_kind": "labor", "resource_id": "install", "quantity": 0.8}
	],
	"funds": [
		{"name": "overhead", "fund_type": "percent", "value": 15},
		{"name": "delivery", "fund_type": "fixed", "value": 40}
	]
}`

func TestParseTemplate_Valid(t *testing.T) {
	f := factory.NewTemplateFactory()

	def, fundRows, err := f.ParseTemplate(wallTemplate)
	if err != nil {
		t.Fatalf("ParseTemplate failed: %v", err)
	}

	if def.ID != "partition-wall" || def.QuantityFormula == "" {
		t.Errorf("definition not populated: %+v", def)
	}
	if len(def.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(def.Components))
	}
	if def.Components[0].Output != "SHEETS" || !def.Components[0].HasFormula() {
		t.Errorf("formula component not parsed: %+v", def.Components[0])
	}
	if def.Components[1].ResourceKind != costing.ResourceLabor {
		t.Errorf("labor component kind = %s", def.Components[1].ResourceKind)
	}

	if len(fundRows) != 2 {
		t.Fatalf("expected 2 fund rows, got %d", len(fundRows))
	}
	if fundRows[0].FundType != costing.FundPercent || !fundRows[0].FundValue.Equal(decimal.NewFromInt(15)) {
		t.Errorf("percent fund not parsed: %+v", fundRows[0])
	}
	if fundRows[1].FundType != costing.FundFixed || !fundRows[1].Cost.Equal(decimal.NewFromInt(40)) {
		t.Errorf("fixed fund not parsed: %+v", fundRows[1])
	}
}

func TestParseTemplate_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":             `{`,
		"missing id":           `{"components": [{"resource_kind": "material", "resource_id": "x", "quantity": 1}]}`,
		"no components":        `{"id": "t", "components": []}`,
		"bad resource kind":    `{"id": "t", "components": [{"resource_kind": "magic", "resource_id": "x", "quantity": 1}]}`,
		"missing resource id":  `{"id": "t", "components": [{"resource_kind": "material", "quantity": 1}]}`,
		"fixed and formula":    `{"id": "t", "components": [{"resource_kind": "material", "resource_id": "x", "quantity": 1, "quantity_formula": "A"}]}`,
		"neither quantity":     `{"id": "t", "components": [{"resource_kind": "material", "resource_id": "x"}]}`,
		"banned formula":       `{"id": "t", "components": [{"resource_kind": "material", "resource_id": "x", "quantity_formula": "fetch('x')"}]}`,
		"bad governing":        `{"id": "t", "quantity_formula": "1 +", "components": [{"resource_kind": "material", "resource_id": "x", "quantity": 1}]}`,
		"negative waste":       `{"id": "t", "components": [{"resource_kind": "material", "resource_id": "x", "quantity": 1, "waste_percent": -5}]}`,
		"bad fund type":        `{"id": "t", "components": [{"resource_kind": "material", "resource_id": "x", "quantity": 1}], "funds": [{"name": "f", "fund_type": "magic", "value": 1}]}`,
		"negative fund value":  `{"id": "t", "components": [{"resource_kind": "material", "resource_id": "x", "quantity": 1}], "funds": [{"name": "f", "fund_type": "percent", "value": -1}]}`,
	}

	f := factory.NewTemplateFactory()
	for name, config := range cases {
		if _, _, err := f.ParseTemplate(config); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
