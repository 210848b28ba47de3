// Package trm carries a sqlx transaction through context so repositories
// join an ambient transaction without knowing who opened it.
package trm

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

type Transaction interface {
	Commit() error
	Rollback() error
}

type ctxKey struct{}

func ExtractTx(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(ctxKey{}).(*sqlx.Tx)
	return tx
}

type Manager interface {
	BeginTx(ctx context.Context) (context.Context, Transaction, error)
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewManager(db *sqlx.DB) Manager {
	return &manager{db: db}
}

type manager struct {
	db *sqlx.DB
}

func (m *manager) BeginTx(ctx context.Context) (context.Context, Transaction, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	return context.WithValue(ctx, ctxKey{}, tx), tx, nil
}

// Do runs fn in a transaction. A nested Do joins the transaction already
// in ctx instead of opening a second one.
func (m *manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ExtractTx(ctx) != nil {
		return fn(ctx)
	}

	ctx, tx, err := m.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
