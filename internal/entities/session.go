package entities

// CheckoutSession is the redirect handle returned by the gateway when a
// payment session is opened for an order.
type CheckoutSession struct {
	ID  string
	URL string
}

// GatewaySession is the gateway's authoritative view of a payment session.
type GatewaySession struct {
	ID            string
	OrderID       string
	PaymentIntent string
	Paid          bool
}
