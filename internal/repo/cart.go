package repo

import (
	"context"
	"fmt"

	"github.com/atwebdev/storefront-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type cartRepo struct {
	querier
}

func NewCartRepo(db *sqlx.DB) *cartRepo {
	return &cartRepo{querier: newQuerier(db)}
}

func (r *cartRepo) GetCart(ctx context.Context, userID string) (entities.Cart, error) {
	query, args := r.qb.Select("id", "user_id", "product_id", "quantity", "unit_price", "selected_color", "added_at").
		From("cart_items").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("added_at ASC").
		MustSql()

	var rows []CartItem
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to select cart items: %w", err)
	}

	cart := entities.Cart{UserID: userID, Items: make([]entities.CartItem, 0, len(rows))}
	for _, row := range rows {
		cart.Items = append(cart.Items, CartItemToEntity(row))
	}
	return cart, nil
}

// AddItem merges on (user, product, variant): adding a product already in the
// cart bumps the quantity and refreshes the captured price.
func (r *cartRepo) AddItem(ctx context.Context, userID string, item entities.CartItem) error {
	query, args := r.qb.Insert("cart_items").
		Columns("id", "user_id", "product_id", "quantity", "unit_price", "selected_color").
		Values(item.ID, userID, item.ProductID, item.Quantity, item.UnitPrice, item.SelectedColor).
		Suffix(`ON CONFLICT (user_id, product_id, selected_color) DO UPDATE
			SET quantity = cart_items.quantity + EXCLUDED.quantity,
			    unit_price = EXCLUDED.unit_price`).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	query, args := r.qb.Update("cart_items").
		Set("quantity", quantity).
		Where(sq.Eq{"id": itemID, "user_id": userID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entities.ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepo) RemoveItem(ctx context.Context, userID, itemID string) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"id": itemID, "user_id": userID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entities.ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepo) Clear(ctx context.Context, userID string) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
