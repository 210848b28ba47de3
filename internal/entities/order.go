package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "Standard"
	ShippingExpress   ShippingMethod = "Express"
	ShippingOvernight ShippingMethod = "Overnight"
)

// DeliveryDays is the estimated delivery offset per shipping method.
func (m ShippingMethod) DeliveryDays() int {
	switch m {
	case ShippingExpress:
		return 2
	case ShippingOvernight:
		return 1
	default:
		return 5
	}
}

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentCOD    PaymentMethod = "cod"
	PaymentStripe PaymentMethod = "stripe"
	PaymentPaypal PaymentMethod = "paypal"
)

// GatewayBased reports whether payment for this method is settled through the
// external gateway, as opposed to collected on delivery.
func (m PaymentMethod) GatewayBased() bool {
	return m != PaymentCOD
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// LineItem is a frozen price/quantity snapshot captured at order creation.
// It is never re-read from the catalog afterwards.
type LineItem struct {
	ProductID     string
	Name          string
	UnitPrice     decimal.Decimal
	Quantity      int
	SelectedColor string
	Thumbnail     string
}

type ShippingAddress struct {
	FullName string
	Street   string
	City     string
	State    string
	ZipCode  string
	Country  string
	Phone    string
}

type Order struct {
	ID          string
	OrderNumber string
	UserID      string

	Items           []LineItem
	ShippingAddress ShippingAddress
	ShippingMethod  ShippingMethod

	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
	CouponCode   string

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	OrderStatus   OrderStatus
	PaymentRef    string

	TrackingNumber     string
	EstimatedDelivery  time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cancellable reports whether the order may still be cancelled by the user.
func (o *Order) Cancellable() bool {
	return o.OrderStatus == OrderPending || o.OrderStatus == OrderProcessing
}
