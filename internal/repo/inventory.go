package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/atwebdev/storefront-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type inventoryRepo struct {
	querier
}

func NewInventoryRepo(db *sqlx.DB) *inventoryRepo {
	return &inventoryRepo{querier: newQuerier(db)}
}

// Reserve decrements quantity-on-hand by qty in a single conditional UPDATE.
// The WHERE guard on the current quantity makes the decrement linearizable per
// product: two racing reservations cannot both pass the guard when their
// combined quantity exceeds stock. Availability is recomputed in the same
// statement, never in a separate write.
func (r *inventoryRepo) Reserve(ctx context.Context, productID string, qty int) error {
	query, args := r.qb.Update("products").
		Set("quantity", sq.Expr("quantity - ?", qty)).
		Set("in_stock", sq.Expr("quantity - ? > 0", qty)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		Where(sq.GtOrEq{"quantity": qty}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Nothing updated: tell the caller whether the product is missing or the
	// stock is short.
	query, args = r.qb.Select("1").
		From("products").
		Where(sq.Eq{"id": productID}).
		MustSql()

	var one int
	if err := r.getContext(ctx, &one, query, args...); err != nil {
		return entities.ErrProductNotFound
	}
	return entities.ErrInsufficientStock
}

// Restore adds reserved quantity back, used only by cancellation and by
// compensating rollback of a failed checkout batch.
func (r *inventoryRepo) Restore(ctx context.Context, productID string, qty int) error {
	query, args := r.qb.Update("products").
		Set("quantity", sq.Expr("quantity + ?", qty)).
		Set("in_stock", true).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}
