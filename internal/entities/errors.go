package entities

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidOrderState    = errors.New("operation not allowed for current order status")
	ErrNotOrderOwner        = errors.New("order belongs to another user")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrSessionNotFound      = errors.New("payment session not found")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrInvalidSignature     = errors.New("webhook signature verification failed")
)
