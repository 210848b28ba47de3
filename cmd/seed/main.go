// Seeds the product catalog for local development.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/atwebdev/storefront-service/internal/config"
	"github.com/atwebdev/storefront-service/internal/postgres"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type product struct {
	name      string
	price     string
	salePrice string
	quantity  int
	thumbnail string
}

var products = []product{
	{name: "Wireless Ergonomic Mouse", price: "49.99", salePrice: "39.99", quantity: 120, thumbnail: "/images/mouse.jpg"},
	{name: "Mechanical Keyboard", price: "129.99", quantity: 60, thumbnail: "/images/keyboard.jpg"},
	{name: "27\" 4K Monitor", price: "399.00", salePrice: "349.00", quantity: 25, thumbnail: "/images/monitor.jpg"},
	{name: "USB-C Docking Station", price: "189.50", quantity: 40, thumbnail: "/images/dock.jpg"},
	{name: "Noise Cancelling Headphones", price: "249.99", salePrice: "199.99", quantity: 80, thumbnail: "/images/headphones.jpg"},
	{name: "Laptop Stand", price: "34.99", quantity: 200, thumbnail: "/images/stand.jpg"},
	{name: "Webcam 1080p", price: "79.99", quantity: 0, thumbnail: "/images/webcam.jpg"},
	{name: "Desk Lamp", price: "24.50", quantity: 150, thumbnail: "/images/lamp.jpg"},
}

func main() {
	godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	conf := config.New()
	db, err := postgres.New(conf.Postgres)
	if err != nil {
		logger.Error("failed to connect to db", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	qb := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	for _, p := range products {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			logger.Error("invalid price", slog.String("product", p.name), slog.Any("error", err))
			os.Exit(1)
		}

		var sale any
		if p.salePrice != "" {
			sale, err = decimal.NewFromString(p.salePrice)
			if err != nil {
				logger.Error("invalid sale price", slog.String("product", p.name), slog.Any("error", err))
				os.Exit(1)
			}
		}

		query, args := qb.Insert("products").
			Columns("id", "name", "price", "sale_price", "quantity", "in_stock", "thumbnail").
			Values(uuid.NewString(), p.name, price, sale, p.quantity, p.quantity > 0, p.thumbnail).
			Suffix("ON CONFLICT (id) DO NOTHING").
			MustSql()

		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			logger.Error("failed to insert product", slog.String("product", p.name), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("product seeded", slog.String("name", p.name))
	}
}
