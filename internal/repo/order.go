package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atwebdev/storefront-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

var orderColumns = []string{
	"id", "order_number", "user_id",
	"ship_full_name", "ship_street", "ship_city", "ship_state", "ship_zip", "ship_country", "ship_phone",
	"shipping_method", "subtotal", "shipping_cost", "tax", "discount", "total", "coupon_code",
	"payment_method", "payment_status", "order_status", "payment_ref",
	"tracking_number", "estimated_delivery", "delivered_at", "cancelled_at", "cancellation_reason",
	"created_at", "updated_at",
}

var orderItemColumns = []string{
	"id", "order_id", "product_id", "name", "unit_price", "quantity", "selected_color", "thumbnail",
}

type orderRepo struct {
	querier
}

func NewOrderRepo(db *sqlx.DB) *orderRepo {
	return &orderRepo{querier: newQuerier(db)}
}

// CreateOrder inserts the order row and its line items. It is expected to run
// inside a trm transaction so a failure on either statement leaves nothing behind.
func (r *orderRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns[:len(orderColumns)-2]...).
		Values(
			o.ID, o.OrderNumber, o.UserID,
			o.ShippingAddress.FullName, o.ShippingAddress.Street, o.ShippingAddress.City,
			o.ShippingAddress.State, o.ShippingAddress.ZipCode, nullString(o.ShippingAddress.Country),
			o.ShippingAddress.Phone,
			string(o.ShippingMethod), o.Subtotal, o.ShippingCost, o.Tax, o.Discount, o.Total,
			nullString(o.CouponCode),
			string(o.PaymentMethod), string(o.PaymentStatus), string(o.OrderStatus), nullString(o.PaymentRef),
			nullString(o.TrackingNumber), o.EstimatedDelivery, nil, nil, nullString(o.CancellationReason),
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").Columns(orderItemColumns[1:]...)
	for _, it := range o.Items {
		q = q.Values(o.ID, it.ProductID, it.Name, it.UnitPrice, it.Quantity,
			nullString(it.SelectedColor), nullString(it.Thumbnail))
	}

	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *orderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"id": orderID})
}

func (r *orderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"order_number": orderNumber})
}

func (r *orderRepo) GetOrderByTracking(ctx context.Context, trackingNumber string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"tracking_number": trackingNumber})
}

func (r *orderRepo) GetOrderByPaymentRef(ctx context.Context, paymentRef string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"payment_ref": paymentRef})
}

func (r *orderRepo) getOrder(ctx context.Context, where sq.Eq) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(where).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": order.ID}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	return OrderToEntity(order, items), nil
}

// ListOrdersByUser returns a page of the user's orders, newest first, plus the
// total count. Page and count queries run concurrently.
func (r *orderRepo) ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]entities.Order, int, error) {
	var (
		orders []Order
		total  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		query, args := r.qb.Select(orderColumns...).
			From("orders").
			Where(sq.Eq{"user_id": userID}).
			OrderBy("created_at DESC").
			Limit(uint64(limit)).
			Offset(uint64(offset)).
			MustSql()
		if err := r.selectContext(gctx, &orders, query, args...); err != nil {
			return fmt.Errorf("failed to select orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		query, args := r.qb.Select("COUNT(*)").
			From("orders").
			Where(sq.Eq{"user_id": userID}).
			MustSql()
		if err := r.getContext(gctx, &total, query, args...); err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if len(orders) == 0 {
		return []entities.Order{}, total, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	query, args := r.qb.Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select order items: %w", err)
	}
	itemsMap := make(map[string][]OrderItem, len(ids))
	for _, it := range items {
		itemsMap[it.OrderID] = append(itemsMap[it.OrderID], it)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToEntity(o, itemsMap[o.ID]))
	}
	return result, total, nil
}

// MarkPaymentCompleted flips the order to completed/processing and records the
// canonical payment reference. The guard on the current payment status makes
// the transition a compare-and-swap: duplicate or reordered success signals
// find zero rows to update and report false.
func (r *orderRepo) MarkPaymentCompleted(ctx context.Context, orderID, paymentRef string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("payment_status", string(entities.PaymentCompleted)).
		Set("order_status", string(entities.OrderProcessing)).
		Set("payment_ref", paymentRef).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": orderID}).
		Where(sq.NotEq{"payment_status": string(entities.PaymentCompleted)}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkPaymentFailed records a failed payment, but only while the order is
// still pending: a failure arriving after a success never regresses the order.
func (r *orderRepo) MarkPaymentFailed(ctx context.Context, orderID string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("payment_status", string(entities.PaymentFailed)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{
			"id":             orderID,
			"payment_status": string(entities.PaymentPending),
		}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *orderRepo) SetPaymentRef(ctx context.Context, orderID, paymentRef string) error {
	query, args := r.qb.Update("orders").
		Set("payment_ref", paymentRef).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set payment ref: %w", err)
	}
	return nil
}

// CancelOrder transitions the order to cancelled, guarded on the statuses
// cancellation is permitted from. Zero rows means the order was already past
// the point of cancellation.
func (r *orderRepo) CancelOrder(ctx context.Context, orderID, reason string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("order_status", string(entities.OrderCancelled)).
		Set("cancelled_at", time.Now()).
		Set("cancellation_reason", reason).
		Set("updated_at", time.Now()).
		Where(sq.Eq{
			"id":           orderID,
			"order_status": []string{string(entities.OrderPending), string(entities.OrderProcessing)},
		}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
