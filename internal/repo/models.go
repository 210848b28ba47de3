package repo

import (
	"database/sql"
	"time"

	"github.com/atwebdev/storefront-service/internal/entities"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          string `db:"id"`
	OrderNumber string `db:"order_number"`
	UserID      string `db:"user_id"`

	ShipFullName string         `db:"ship_full_name"`
	ShipStreet   string         `db:"ship_street"`
	ShipCity     string         `db:"ship_city"`
	ShipState    string         `db:"ship_state"`
	ShipZip      string         `db:"ship_zip"`
	ShipCountry  sql.NullString `db:"ship_country"`
	ShipPhone    string         `db:"ship_phone"`

	ShippingMethod string          `db:"shipping_method"`
	Subtotal       decimal.Decimal `db:"subtotal"`
	ShippingCost   decimal.Decimal `db:"shipping_cost"`
	Tax            decimal.Decimal `db:"tax"`
	Discount       decimal.Decimal `db:"discount"`
	Total          decimal.Decimal `db:"total"`
	CouponCode     sql.NullString  `db:"coupon_code"`

	PaymentMethod string         `db:"payment_method"`
	PaymentStatus string         `db:"payment_status"`
	OrderStatus   string         `db:"order_status"`
	PaymentRef    sql.NullString `db:"payment_ref"`

	TrackingNumber     sql.NullString `db:"tracking_number"`
	EstimatedDelivery  time.Time      `db:"estimated_delivery"`
	DeliveredAt        sql.NullTime   `db:"delivered_at"`
	CancelledAt        sql.NullTime   `db:"cancelled_at"`
	CancellationReason sql.NullString `db:"cancellation_reason"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type OrderItem struct {
	ID            string          `db:"id"`
	OrderID       string          `db:"order_id"`
	ProductID     string          `db:"product_id"`
	Name          string          `db:"name"`
	UnitPrice     decimal.Decimal `db:"unit_price"`
	Quantity      int             `db:"quantity"`
	SelectedColor sql.NullString  `db:"selected_color"`
	Thumbnail     sql.NullString  `db:"thumbnail"`
}

type Product struct {
	ID        string              `db:"id"`
	Name      string              `db:"name"`
	Price     decimal.Decimal     `db:"price"`
	SalePrice decimal.NullDecimal `db:"sale_price"`
	Quantity  int                 `db:"quantity"`
	InStock   bool                `db:"in_stock"`
	Thumbnail sql.NullString      `db:"thumbnail"`
}

type CartItem struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	ProductID     string          `db:"product_id"`
	Quantity      int             `db:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price"`
	SelectedColor sql.NullString  `db:"selected_color"`
	AddedAt       time.Time       `db:"added_at"`
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		ShippingAddress: entities.ShippingAddress{
			FullName: o.ShipFullName,
			Street:   o.ShipStreet,
			City:     o.ShipCity,
			State:    o.ShipState,
			ZipCode:  o.ShipZip,
			Country:  nullStringToString(o.ShipCountry),
			Phone:    o.ShipPhone,
		},
		ShippingMethod:     entities.ShippingMethod(o.ShippingMethod),
		Subtotal:           o.Subtotal,
		ShippingCost:       o.ShippingCost,
		Tax:                o.Tax,
		Discount:           o.Discount,
		Total:              o.Total,
		CouponCode:         nullStringToString(o.CouponCode),
		PaymentMethod:      entities.PaymentMethod(o.PaymentMethod),
		PaymentStatus:      entities.PaymentStatus(o.PaymentStatus),
		OrderStatus:        entities.OrderStatus(o.OrderStatus),
		PaymentRef:         nullStringToString(o.PaymentRef),
		TrackingNumber:     nullStringToString(o.TrackingNumber),
		EstimatedDelivery:  o.EstimatedDelivery,
		DeliveredAt:        nullTimeToPtr(o.DeliveredAt),
		CancelledAt:        nullTimeToPtr(o.CancelledAt),
		CancellationReason: nullStringToString(o.CancellationReason),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.LineItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func ItemToEntity(i OrderItem) entities.LineItem {
	return entities.LineItem{
		ProductID:     i.ProductID,
		Name:          i.Name,
		UnitPrice:     i.UnitPrice,
		Quantity:      i.Quantity,
		SelectedColor: nullStringToString(i.SelectedColor),
		Thumbnail:     nullStringToString(i.Thumbnail),
	}
}

func ProductToSnapshot(p Product) entities.ProductSnapshot {
	snap := entities.ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  p.Quantity,
		InStock:   p.InStock,
		Thumbnail: nullStringToString(p.Thumbnail),
	}
	if p.SalePrice.Valid {
		sale := p.SalePrice.Decimal
		snap.SalePrice = &sale
	}
	return snap
}

func CartItemToEntity(i CartItem) entities.CartItem {
	return entities.CartItem{
		ID:            i.ID,
		ProductID:     i.ProductID,
		Quantity:      i.Quantity,
		UnitPrice:     i.UnitPrice,
		SelectedColor: nullStringToString(i.SelectedColor),
		AddedAt:       i.AddedAt,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}
