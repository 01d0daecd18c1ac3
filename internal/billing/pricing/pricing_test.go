package pricing

import (
	"testing"

	"github.com/bagshop/billing/internal/billing/cart"
)

func TestComputeTotals(t *testing.T) {
	lines := []cart.Line{
		{BagID: "bag-1", Quantity: 2, UnitPrice: 10},
		{BagID: "bag-2", Quantity: 1, UnitPrice: 5},
	}

	totals := ComputeTotals(lines, 3, 0.1)

	if totals.Subtotal != 25 {
		t.Fatalf("expected subtotal 25, got %v", totals.Subtotal)
	}
	if totals.Tax != 2.5 {
		t.Fatalf("expected tax 2.5, got %v", totals.Tax)
	}
	if totals.Total != 24.5 {
		t.Fatalf("expected total 24.5, got %v", totals.Total)
	}
}

func TestComputeTotalsFloorsAtZero(t *testing.T) {
	lines := []cart.Line{{BagID: "bag-1", Quantity: 1, UnitPrice: 10}}

	totals := ComputeTotals(lines, 100, 0)

	if totals.Total != 0 {
		t.Fatalf("expected floored total 0, got %v", totals.Total)
	}
	if totals.Subtotal != 10 {
		t.Fatalf("subtotal must not be floored, got %v", totals.Subtotal)
	}
}

func TestComputeTotalsIsPure(t *testing.T) {
	lines := []cart.Line{
		{BagID: "bag-1", Quantity: 3, UnitPrice: 19.99},
		{BagID: "bag-2", Quantity: -1, UnitPrice: 7},
	}

	first := ComputeTotals(lines, 5, 0.08)
	for i := 0; i < 10; i++ {
		if got := ComputeTotals(lines, 5, 0.08); got != first {
			t.Fatalf("expected identical totals, got %+v vs %+v", got, first)
		}
	}
}

func TestComputeTotalsAcceptsNegativeLines(t *testing.T) {
	// The cart layer is permissive; pricing applies the formula as-is with
	// only the final zero floor.
	lines := []cart.Line{{BagID: "bag-1", Quantity: -2, UnitPrice: 10}}

	totals := ComputeTotals(lines, 0, 0)

	if totals.Subtotal != -20 {
		t.Fatalf("expected subtotal -20, got %v", totals.Subtotal)
	}
	if totals.Total != 0 {
		t.Fatalf("expected total floored to 0, got %v", totals.Total)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, 0, 0.1)
	if totals != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{2.346, 2.35},
		{2.344, 2.34},
		{24.499999, 24.5},
		{0, 0},
		{-2.346, -2.35},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(24.5); got != "24.50" {
		t.Fatalf("expected 24.50, got %s", got)
	}
	if got := FormatAmount(0); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
}
