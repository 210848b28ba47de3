package handler

import (
	"time"

	"github.com/atwebdev/storefront-service/internal/entities"
	"github.com/atwebdev/storefront-service/internal/service"
)

// CheckoutRequest is the inbound order creation payload.
type CheckoutRequest struct {
	Items           []CheckoutItem  `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shipping_address" validate:"required"`
	ShippingMethod  string          `json:"shipping_method" validate:"required,oneof=Standard Express Overnight"`
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=card cod stripe paypal"`
	CouponCode      string          `json:"coupon_code,omitempty"`
}

type CheckoutItem struct {
	ProductID     string `json:"product_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	SelectedColor string `json:"selected_color,omitempty"`
}

type ShippingAddress struct {
	FullName string `json:"full_name" validate:"required"`
	Street   string `json:"street" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	ZipCode  string `json:"zip_code" validate:"required"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone" validate:"required"`
}

// Order represents an order in responses. Monetary fields are fixed to two
// decimal places on the wire.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`

	Items           []LineItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	ShippingMethod  string          `json:"shipping_method"`

	Subtotal     string `json:"subtotal"`
	ShippingCost string `json:"shipping_cost"`
	Tax          string `json:"tax"`
	Discount     string `json:"discount"`
	Total        string `json:"total"`
	CouponCode   string `json:"coupon_code,omitempty"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	OrderStatus   string `json:"order_status"`

	TrackingNumber     string     `json:"tracking_number,omitempty"`
	EstimatedDelivery  time.Time  `json:"estimated_delivery"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type LineItem struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	UnitPrice     string `json:"unit_price"`
	Quantity      int    `json:"quantity"`
	SelectedColor string `json:"selected_color,omitempty"`
	Thumbnail     string `json:"thumbnail,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type CancelResponse struct {
	Order          Order    `json:"order"`
	RestoreWarning []string `json:"restore_warning,omitempty"`
}

type ListOrdersResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type AddCartItemRequest struct {
	ProductID     string `json:"product_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	SelectedColor string `json:"selected_color,omitempty"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type CartItem struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	SelectedColor string `json:"selected_color,omitempty"`
}

type CartResponse struct {
	Items     []CartItem `json:"items"`
	Subtotal  string     `json:"subtotal"`
	ItemCount int        `json:"item_count"`
}

type CreateSessionRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type VerifyResponse struct {
	PaymentStatus string `json:"payment_status"`
	Order         Order  `json:"order"`
}

// WebhookPayload mirrors the gateway's event envelope.
type WebhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type" validate:"required"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItem{
			ProductID:     it.ProductID,
			Name:          it.Name,
			UnitPrice:     it.UnitPrice.StringFixed(2),
			Quantity:      it.Quantity,
			SelectedColor: it.SelectedColor,
			Thumbnail:     it.Thumbnail,
		})
	}

	return Order{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Items:       items,
		ShippingAddress: ShippingAddress{
			FullName: o.ShippingAddress.FullName,
			Street:   o.ShippingAddress.Street,
			City:     o.ShippingAddress.City,
			State:    o.ShippingAddress.State,
			ZipCode:  o.ShippingAddress.ZipCode,
			Country:  o.ShippingAddress.Country,
			Phone:    o.ShippingAddress.Phone,
		},
		ShippingMethod:     string(o.ShippingMethod),
		Subtotal:           o.Subtotal.StringFixed(2),
		ShippingCost:       o.ShippingCost.StringFixed(2),
		Tax:                o.Tax.StringFixed(2),
		Discount:           o.Discount.StringFixed(2),
		Total:              o.Total.StringFixed(2),
		CouponCode:         o.CouponCode,
		PaymentMethod:      string(o.PaymentMethod),
		PaymentStatus:      string(o.PaymentStatus),
		OrderStatus:        string(o.OrderStatus),
		TrackingNumber:     o.TrackingNumber,
		EstimatedDelivery:  o.EstimatedDelivery,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
	}
}

func CheckoutRequestToInput(req CheckoutRequest) service.CheckoutInput {
	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.CheckoutItem{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			SelectedColor: it.SelectedColor,
		})
	}

	country := req.ShippingAddress.Country
	if country == "" {
		country = "USA"
	}

	return service.CheckoutInput{
		Items: items,
		ShippingAddress: entities.ShippingAddress{
			FullName: req.ShippingAddress.FullName,
			Street:   req.ShippingAddress.Street,
			City:     req.ShippingAddress.City,
			State:    req.ShippingAddress.State,
			ZipCode:  req.ShippingAddress.ZipCode,
			Country:  country,
			Phone:    req.ShippingAddress.Phone,
		},
		ShippingMethod: entities.ShippingMethod(req.ShippingMethod),
		PaymentMethod:  entities.PaymentMethod(req.PaymentMethod),
		CouponCode:     req.CouponCode,
	}
}

func CartEntityToJSON(c entities.Cart) CartResponse {
	items := make([]CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItem{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice.StringFixed(2),
			SelectedColor: it.SelectedColor,
		})
	}
	totals := c.Totals()
	return CartResponse{
		Items:     items,
		Subtotal:  totals.Subtotal.StringFixed(2),
		ItemCount: totals.ItemCount,
	}
}

func WebhookPayloadToEvent(p WebhookPayload) service.WebhookEvent {
	return service.WebhookEvent{
		ID:            p.ID,
		Type:          p.Type,
		SessionID:     p.Data.Object.ID,
		PaymentIntent: p.Data.Object.PaymentIntent,
		OrderID:       p.Data.Object.Metadata["order_id"],
	}
}
