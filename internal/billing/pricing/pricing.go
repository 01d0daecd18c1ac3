// Package pricing computes order totals. The functions are pure; callers
// recompute on every cart, discount, or tax-rate mutation instead of caching.
package pricing

import (
	"math"
	"strconv"

	"github.com/bagshop/billing/internal/billing/cart"
)

// Totals is the derived pricing state of a draft order. Values are kept
// unrounded; rounding happens only at the display or payload boundary.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// ComputeTotals derives subtotal, tax, and the floored total from the lines
// and the order-level adjustments.
//
//	subtotal = sum(quantity * unit price)
//	tax      = subtotal * taxRate
//	total    = max(0, subtotal + tax - discount)
func ComputeTotals(lines []cart.Line, discount, taxRate float64) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += float64(line.Quantity) * line.UnitPrice
	}
	tax := subtotal * taxRate
	total := math.Max(0, subtotal+tax-discount)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
	}
}

// Round2 rounds an amount to two decimal places for presentation.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(Round2(amount), 'f', 2, 64)
}
