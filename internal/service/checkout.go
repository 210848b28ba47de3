package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atwebdev/storefront-service/internal/entities"
	"github.com/atwebdev/storefront-service/pkg/trm"
	"github.com/atwebdev/storefront-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CatalogReader interface {
	GetMany(ctx context.Context, ids []string) (map[string]entities.ProductSnapshot, error)
}

type InventoryLedger interface {
	Reserve(ctx context.Context, productID string, qty int) error
	Restore(ctx context.Context, productID string, qty int) error
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, o entities.Order) error
}

type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type Notifier interface {
	OrderCreated(ctx context.Context, order entities.Order, recipient string) error
}

type CheckoutItem struct {
	ProductID     string
	Quantity      int
	SelectedColor string
}

type CheckoutInput struct {
	Items           []CheckoutItem
	ShippingAddress entities.ShippingAddress
	ShippingMethod  entities.ShippingMethod
	PaymentMethod   entities.PaymentMethod
	CouponCode      string
}

type CheckoutConfig struct {
	NumberPrefix   string
	TaxRate        decimal.Decimal
	CreateAttempts int
}

type checkoutService struct {
	logger    *slog.Logger
	txManager trm.Manager
	catalog   CatalogReader
	inventory InventoryLedger
	orders    OrderCreator
	carts     CartClearer
	notifier  Notifier
	cfg       CheckoutConfig
}

func NewCheckoutService(
	logger *slog.Logger,
	txManager trm.Manager,
	catalog CatalogReader,
	inventory InventoryLedger,
	orders OrderCreator,
	carts CartClearer,
	notifier Notifier,
	cfg CheckoutConfig,
) *checkoutService {
	if cfg.CreateAttempts <= 0 {
		cfg.CreateAttempts = 3
	}
	return &checkoutService{
		logger:    logger.With(slog.String("service", "checkout")),
		txManager: txManager,
		catalog:   catalog,
		inventory: inventory,
		orders:    orders,
		carts:     carts,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// CreateOrder turns a cart snapshot into a committed order: one bulk catalog
// read, a batch stock reservation with compensating rollback, a price
// computation over the frozen line items, and a transactional order insert
// that also empties the cart. Notification is fire-and-forget.
func (s *checkoutService) CreateOrder(ctx context.Context, userID, recipient string, input CheckoutInput) (entities.Order, error) {
	if len(input.Items) == 0 {
		return entities.Order{}, fmt.Errorf("no order items provided: %w", entities.ErrProductNotFound)
	}

	ids := make([]string, 0, len(input.Items))
	for _, it := range input.Items {
		ids = append(ids, it.ProductID)
	}

	snapshots, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		checkoutsTotal.WithLabelValues("error").Inc()
		return entities.Order{}, fmt.Errorf("failed to read catalog: %w", err)
	}

	items := make([]entities.LineItem, 0, len(input.Items))
	for _, it := range input.Items {
		snap, ok := snapshots[it.ProductID]
		if !ok {
			checkoutsTotal.WithLabelValues("rejected").Inc()
			return entities.Order{}, fmt.Errorf("product %s: %w", it.ProductID, entities.ErrProductNotFound)
		}
		if !snap.InStock || snap.Quantity < it.Quantity {
			checkoutsTotal.WithLabelValues("rejected").Inc()
			return entities.Order{}, fmt.Errorf("product %s: %w", it.ProductID, entities.ErrInsufficientStock)
		}
		items = append(items, entities.LineItem{
			ProductID:     snap.ID,
			Name:          snap.Name,
			UnitPrice:     snap.EffectiveUnitPrice(),
			Quantity:      it.Quantity,
			SelectedColor: it.SelectedColor,
			Thumbnail:     snap.Thumbnail,
		})
	}

	if err := s.reserveAll(ctx, items); err != nil {
		checkoutsTotal.WithLabelValues("rejected").Inc()
		return entities.Order{}, err
	}

	totals := ComputeTotals(items, input.ShippingMethod, s.cfg.TaxRate)

	now := time.Now()
	order := entities.Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		Items:             items,
		ShippingAddress:   input.ShippingAddress,
		ShippingMethod:    input.ShippingMethod,
		Subtotal:          totals.Subtotal,
		ShippingCost:      totals.ShippingCost,
		Tax:               totals.Tax,
		Discount:          totals.Discount,
		Total:             totals.Total,
		CouponCode:        input.CouponCode,
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     entities.PaymentPending,
		OrderStatus:       entities.OrderPending,
		EstimatedDelivery: now.AddDate(0, 0, input.ShippingMethod.DeliveryDays()),
		CreatedAt:         now,
	}
	// Cash on delivery is confirmed immediately, payment settles at the door.
	if order.PaymentMethod == entities.PaymentCOD {
		order.OrderStatus = entities.OrderProcessing
	}

	if err := s.persistOrder(ctx, &order); err != nil {
		s.rollbackReserved(ctx, items)
		checkoutsTotal.WithLabelValues("error").Inc()
		return entities.Order{}, err
	}

	checkoutsTotal.WithLabelValues("created").Inc()
	s.logger.InfoContext(ctx, "order created",
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", userID),
		slog.String("total", order.Total.String()),
	)

	s.notifyAsync(order, recipient)

	return order, nil
}

// reserveAll decrements stock item by item. On the first failure every prior
// decrement is restored before the error surfaces, so a rejected checkout
// never leaves inventory partially decremented.
func (s *checkoutService) reserveAll(ctx context.Context, items []entities.LineItem) error {
	reserved := make([]entities.LineItem, 0, len(items))
	for _, it := range items {
		if err := s.inventory.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
			s.rollbackReserved(ctx, reserved)
			return fmt.Errorf("product %s: %w", it.ProductID, err)
		}
		reserved = append(reserved, it)
	}
	return nil
}

func (s *checkoutService) rollbackReserved(ctx context.Context, reserved []entities.LineItem) {
	if len(reserved) == 0 {
		return
	}
	// The rollback must run even when the request context is already gone.
	ctx = context.WithoutCancel(ctx)
	for _, it := range reserved {
		if err := s.inventory.Restore(ctx, it.ProductID, it.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back reservation",
				slog.String("product_id", it.ProductID),
				slog.Int("quantity", it.Quantity),
				slog.Any("error", err),
			)
		}
	}
	stockRollbacks.Inc()
}

// persistOrder writes the order and empties the cart in one transaction,
// regenerating the order number on a duplicate-key collision.
func (s *checkoutService) persistOrder(ctx context.Context, order *entities.Order) error {
	var err error
	for attempt := 0; attempt < s.cfg.CreateAttempts; attempt++ {
		order.OrderNumber = entities.NewOrderNumber(s.cfg.NumberPrefix)

		err = s.txManager.Do(ctx, func(ctx context.Context) error {
			if err := s.orders.CreateOrder(ctx, *order); err != nil {
				return err
			}
			return s.carts.Clear(ctx, order.UserID)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, entities.ErrDuplicateOrderNumber) {
			return fmt.Errorf("failed to persist order: %w", err)
		}
		s.logger.WarnContext(ctx, "order number collision, regenerating",
			slog.String("order_number", order.OrderNumber))
	}
	return fmt.Errorf("failed to persist order: %w", err)
}

const notifyTimeout = 10 * time.Second

func (s *checkoutService) notifyAsync(order entities.Order, recipient string) {
	if s.notifier == nil || recipient == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		cfg := utils.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond}
		err := utils.Retry(ctx, cfg, func() error {
			return s.notifier.OrderCreated(ctx, order, recipient)
		})
		if err != nil {
			notifyFailures.Inc()
			s.logger.Error("failed to send order confirmation",
				slog.String("order_number", order.OrderNumber),
				slog.Any("error", err),
			)
		}
	}()
}
