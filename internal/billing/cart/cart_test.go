package cart

import (
	"testing"

	"github.com/bagshop/billing/internal/billing/api"
)

func TestAddProductMergesDuplicates(t *testing.T) {
	c := New()
	bag := api.Bag{ID: "bag-1", SKU: "TOTE-01", SalePrice: 10}

	for i := 0; i < 4; i++ {
		c.AddProduct(bag)
	}

	if c.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", c.Len())
	}
	line, _ := c.Line(0)
	if line.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", line.Quantity)
	}
	if line.UnitPrice != 10 {
		t.Fatalf("expected unit price 10, got %v", line.UnitPrice)
	}
}

func TestAddProductPinsPriceAtAddTime(t *testing.T) {
	c := New()
	c.AddProduct(api.Bag{ID: "bag-1", SalePrice: 10})

	// Catalog price changed; the merged line keeps the captured price.
	c.AddProduct(api.Bag{ID: "bag-1", SalePrice: 25})

	line, _ := c.Line(0)
	if line.UnitPrice != 10 {
		t.Fatalf("expected pinned price 10, got %v", line.UnitPrice)
	}
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
}

func TestInsertionOrderStableUnderEdits(t *testing.T) {
	c := New()
	c.AddProduct(api.Bag{ID: "bag-1", SalePrice: 10})
	c.AddProduct(api.Bag{ID: "bag-2", SalePrice: 20})
	c.AddProduct(api.Bag{ID: "bag-3", SalePrice: 30})

	if !c.SetQuantity(1, 7) {
		t.Fatalf("expected index 1 to be editable")
	}
	if !c.SetUnitPrice(0, 12.5) {
		t.Fatalf("expected index 0 to be editable")
	}

	lines := c.Lines()
	want := []string{"bag-1", "bag-2", "bag-3"}
	for i, id := range want {
		if lines[i].BagID != id {
			t.Fatalf("line %d: expected %s, got %s", i, id, lines[i].BagID)
		}
	}
	if lines[1].Quantity != 7 {
		t.Fatalf("expected quantity 7 on line 1, got %d", lines[1].Quantity)
	}
}

func TestEditAfterMerge(t *testing.T) {
	c := New()
	bag := api.Bag{ID: "bag-1", SalePrice: 10}
	c.AddProduct(bag)
	c.AddProduct(bag)

	if !c.SetQuantity(0, 5) {
		t.Fatalf("expected line 0 to exist")
	}

	if c.Len() != 1 {
		t.Fatalf("expected single line, got %d", c.Len())
	}
	line, _ := c.Line(0)
	if line.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", line.Quantity)
	}
}

func TestPermissiveEditsAccepted(t *testing.T) {
	c := New()
	c.AddProduct(api.Bag{ID: "bag-1", SalePrice: 10})

	c.SetQuantity(0, -3)
	c.SetUnitPrice(0, -1.5)
	c.SetBagID(0, "")

	line, _ := c.Line(0)
	if line.Quantity != -3 || line.UnitPrice != -1.5 || line.BagID != "" {
		t.Fatalf("expected permissive overwrite, got %+v", line)
	}
}

func TestAppendBlankLine(t *testing.T) {
	c := New()

	// Empty cart with no catalog loaded is a valid edge case.
	c.AppendBlankLine(nil)
	line, ok := c.Line(0)
	if !ok {
		t.Fatalf("expected blank line")
	}
	if line.BagID != "" || line.UnitPrice != 0 || line.Quantity != 1 {
		t.Fatalf("unexpected blank line: %+v", line)
	}

	catalog := []api.Bag{{ID: "bag-9", SalePrice: 42}, {ID: "bag-2", SalePrice: 5}}
	c.AppendBlankLine(catalog)
	line, _ = c.Line(1)
	if line.BagID != "bag-9" || line.UnitPrice != 42 {
		t.Fatalf("expected first catalog defaults, got %+v", line)
	}
}

func TestRemoveAndReset(t *testing.T) {
	c := New()
	c.AddProduct(api.Bag{ID: "bag-1", SalePrice: 1})
	c.AddProduct(api.Bag{ID: "bag-2", SalePrice: 2})
	c.AddProduct(api.Bag{ID: "bag-3", SalePrice: 3})

	if !c.Remove(1) {
		t.Fatalf("expected removal at index 1")
	}
	lines := c.Lines()
	if len(lines) != 2 || lines[0].BagID != "bag-1" || lines[1].BagID != "bag-3" {
		t.Fatalf("unexpected lines after removal: %+v", lines)
	}

	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("expected empty cart after reset, got %d", c.Len())
	}
	if c.Remove(0) {
		t.Fatalf("remove on empty cart should report false")
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	c := New()
	c.AddProduct(api.Bag{ID: "bag-1", SalePrice: 10})

	lines := c.Lines()
	lines[0].Quantity = 99

	line, _ := c.Line(0)
	if line.Quantity != 1 {
		t.Fatalf("external mutation leaked into cart: %+v", line)
	}
}
