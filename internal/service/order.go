package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atwebdev/storefront-service/internal/entities"
)

type OrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error)
	GetOrderByTracking(ctx context.Context, trackingNumber string) (entities.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]entities.Order, int, error)
	CancelOrder(ctx context.Context, orderID, reason string) (bool, error)
}

// PaymentVerifier is the reconciliation engine's lazy entry point. A read of
// a pending gateway-paid order triggers an opportunistic status check.
type PaymentVerifier interface {
	AutoVerify(ctx context.Context, order *entities.Order)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type orderService struct {
	logger    *slog.Logger
	repo      OrderRepo
	inventory InventoryLedger
	verifier  PaymentVerifier
	cache     Cache
}

func NewOrderService(logger *slog.Logger, repo OrderRepo, inventory InventoryLedger, verifier PaymentVerifier, cache Cache) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		repo:      repo,
		inventory: inventory,
		verifier:  verifier,
		cache:     cache,
	}
}

// resolveOrder is the dual-key lookup contract: the human readable order
// number is tried first, then the internal id. Callers never need to know
// which form they hold.
func (s *orderService) resolveOrder(ctx context.Context, idOrNumber string) (entities.Order, error) {
	order, err := s.repo.GetOrderByNumber(ctx, idOrNumber)
	if errors.Is(err, entities.ErrOrderNotFound) {
		return s.repo.GetOrderByID(ctx, idOrNumber)
	}
	return order, err
}

// GetOrder returns the caller's order. Reading a pending gateway-paid order
// opportunistically reconciles its payment status; any failure there is
// swallowed and must never fail the read.
func (s *orderService) GetOrder(ctx context.Context, userID, idOrNumber string) (entities.Order, error) {
	order, err := s.resolveOrder(ctx, idOrNumber)
	if err != nil {
		return entities.Order{}, err
	}
	if order.UserID != userID {
		return entities.Order{}, entities.ErrNotOrderOwner
	}

	if s.verifier != nil &&
		order.PaymentMethod.GatewayBased() &&
		order.PaymentStatus == entities.PaymentPending &&
		order.PaymentRef != "" {
		s.verifier.AutoVerify(ctx, &order)
	}

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string, limit, offset int) ([]entities.Order, int, error) {
	return s.repo.ListOrdersByUser(ctx, userID, limit, offset)
}

const defaultCancelReason = "Cancelled by user"

// CancelOrder cancels the caller's order if it is still pending or processing
// and restores stock for every line item. Restores are best-effort per item:
// one failure does not block the others, but the affected product ids are
// returned as a partial-success warning.
func (s *orderService) CancelOrder(ctx context.Context, userID, idOrNumber, reason string) (entities.Order, []string, error) {
	order, err := s.resolveOrder(ctx, idOrNumber)
	if err != nil {
		return entities.Order{}, nil, err
	}
	if order.UserID != userID {
		return entities.Order{}, nil, entities.ErrNotOrderOwner
	}

	if reason == "" {
		reason = defaultCancelReason
	}

	ok, err := s.repo.CancelOrder(ctx, order.ID, reason)
	if err != nil {
		return entities.Order{}, nil, err
	}
	if !ok {
		return entities.Order{}, nil, fmt.Errorf("order %s is %s: %w",
			order.OrderNumber, order.OrderStatus, entities.ErrInvalidOrderState)
	}

	var failed []string
	restoreCtx := context.WithoutCancel(ctx)
	for _, it := range order.Items {
		if err := s.inventory.Restore(restoreCtx, it.ProductID, it.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to restore stock on cancellation",
				slog.String("order_number", order.OrderNumber),
				slog.String("product_id", it.ProductID),
				slog.Any("error", err),
			)
			failed = append(failed, it.ProductID)
		}
	}

	now := time.Now()
	order.OrderStatus = entities.OrderCancelled
	order.CancelledAt = &now
	order.CancellationReason = reason

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_number", order.OrderNumber),
		slog.Int("restore_failures", len(failed)),
	)
	return order, failed, nil
}

// TrackingView is the reduced, ownership-agnostic projection served on the
// public tracking endpoint.
type TrackingView struct {
	OrderNumber       string     `json:"order_number"`
	OrderStatus       string     `json:"order_status"`
	ShippingMethod    string     `json:"shipping_method"`
	EstimatedDelivery time.Time  `json:"estimated_delivery"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
}

// TrackOrder serves the public tracking lookup, keyed by tracking number
// only. Results are cached briefly, tracking reads tolerate staleness.
func (s *orderService) TrackOrder(ctx context.Context, trackingNumber string) (TrackingView, error) {
	cacheKey := "tracking:" + trackingNumber
	if s.cache != nil {
		if data, ok := s.cache.Get(cacheKey); ok {
			var view TrackingView
			if err := json.Unmarshal(data, &view); err == nil {
				return view, nil
			}
		}
	}

	order, err := s.repo.GetOrderByTracking(ctx, trackingNumber)
	if err != nil {
		return TrackingView{}, err
	}

	view := TrackingView{
		OrderNumber:       order.OrderNumber,
		OrderStatus:       string(order.OrderStatus),
		ShippingMethod:    string(order.ShippingMethod),
		EstimatedDelivery: order.EstimatedDelivery,
		DeliveredAt:       order.DeliveredAt,
	}

	if s.cache != nil {
		if data, err := json.Marshal(view); err == nil {
			s.cache.Set(cacheKey, data)
		}
	}
	return view, nil
}
