package repo

import (
	"context"
	"fmt"

	"github.com/atwebdev/storefront-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type catalogRepo struct {
	querier
}

func NewCatalogRepo(db *sqlx.DB) *catalogRepo {
	return &catalogRepo{querier: newQuerier(db)}
}

// GetMany bulk-reads price and availability snapshots for a set of products.
// Missing ids are simply absent from the result, callers decide whether that
// is an error.
func (r *catalogRepo) GetMany(ctx context.Context, ids []string) (map[string]entities.ProductSnapshot, error) {
	if len(ids) == 0 {
		return map[string]entities.ProductSnapshot{}, nil
	}

	query, args := r.qb.Select("id", "name", "price", "sale_price", "quantity", "in_stock", "thumbnail").
		From("products").
		Where(sq.Eq{"id": ids}).
		MustSql()

	var products []Product
	if err := r.selectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	snapshots := make(map[string]entities.ProductSnapshot, len(products))
	for _, p := range products {
		snapshots[p.ID] = ProductToSnapshot(p)
	}
	return snapshots, nil
}
