package entities

import "github.com/shopspring/decimal"

// ProductSnapshot is a point-in-time read of price and availability, returned
// by the catalog reader. Invariant kept by the inventory ledger:
// InStock == (Quantity > 0).
type ProductSnapshot struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	Quantity  int
	InStock   bool
	Thumbnail string
}

// EffectiveUnitPrice is the sale price when present, the list price otherwise.
func (p ProductSnapshot) EffectiveUnitPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
