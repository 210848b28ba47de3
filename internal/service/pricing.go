package service

import (
	"github.com/atwebdev/storefront-service/internal/entities"

	"github.com/shopspring/decimal"
)

var shippingRates = map[entities.ShippingMethod]decimal.Decimal{
	entities.ShippingStandard:  decimal.Zero,
	entities.ShippingExpress:   decimal.RequireFromString("15.99"),
	entities.ShippingOvernight: decimal.RequireFromString("29.99"),
}

// ShippingCost looks up the fixed rate for a shipping method. Unknown methods
// fall back to the standard (free) tier.
func ShippingCost(method entities.ShippingMethod) decimal.Decimal {
	if cost, ok := shippingRates[method]; ok {
		return cost
	}
	return shippingRates[entities.ShippingStandard]
}

type Totals struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

// ComputeTotals prices an order from its frozen line items. Tax is a flat
// percentage of the subtotal. Discount is always zero until coupon validation
// exists. Rounding happens once, on the grand total, and the result is never
// negative.
func ComputeTotals(items []entities.LineItem, method entities.ShippingMethod, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	shipping := ShippingCost(method)
	tax := subtotal.Mul(taxRate)
	discount := decimal.Zero

	total := subtotal.Add(shipping).Add(tax).Sub(discount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Discount:     discount,
		Total:        total,
	}
}
