package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID            string
	ProductID     string
	Quantity      int
	UnitPrice     decimal.Decimal
	SelectedColor string
	AddedAt       time.Time
}

// Cart is the per-user mutable bag of items. It lives only until checkout,
// which empties it atomically with order creation.
type Cart struct {
	UserID string
	Items  []CartItem
}

type CartTotals struct {
	Subtotal  decimal.Decimal
	ItemCount int
}

// Totals is a pure function of the cart's items.
func (c Cart) Totals() CartTotals {
	totals := CartTotals{Subtotal: decimal.Zero}
	for _, it := range c.Items {
		totals.Subtotal = totals.Subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		totals.ItemCount += it.Quantity
	}
	return totals
}
