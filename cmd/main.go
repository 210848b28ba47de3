package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/atwebdev/storefront-service/internal/app"
	"github.com/atwebdev/storefront-service/internal/config"
	"github.com/atwebdev/storefront-service/internal/gateway"
	"github.com/atwebdev/storefront-service/internal/handler"
	"github.com/atwebdev/storefront-service/internal/notifier"
	"github.com/atwebdev/storefront-service/internal/postgres"
	"github.com/atwebdev/storefront-service/internal/redisx"
	"github.com/atwebdev/storefront-service/internal/repo"
	"github.com/atwebdev/storefront-service/internal/service"
	"github.com/atwebdev/storefront-service/pkg/cache"
	"github.com/atwebdev/storefront-service/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	taxRate, err := decimal.NewFromString(conf.Orders.TaxRate)
	panicIfErr("invalid tax rate", err)

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	redisClient := redisx.New(conf.Redis)

	orderRepo := repo.NewOrderRepo(db)
	inventoryRepo := repo.NewInventoryRepo(db)
	catalogRepo := repo.NewCatalogRepo(db)
	cartRepo := repo.NewCartRepo(db)

	txManager := trm.NewManager(db)
	trackingCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	gatewayClient := gateway.NewClient(conf.Gateway)
	orderNotifier := notifier.NewKafkaNotifier(logger, conf.Kafka)
	dedup := redisx.NewEventDedup(redisClient, conf.Redis.DedupTTL)

	checkoutService := service.NewCheckoutService(
		logger, txManager, catalogRepo, inventoryRepo, orderRepo, cartRepo, orderNotifier,
		service.CheckoutConfig{
			NumberPrefix:   conf.Orders.NumberPrefix,
			TaxRate:        taxRate,
			CreateAttempts: conf.Orders.CreateAttempts,
		},
	)
	paymentService := service.NewPaymentService(logger, orderRepo, gatewayClient, dedup)
	orderService := service.NewOrderService(logger, orderRepo, inventoryRepo, paymentService, trackingCache)
	cartService := service.NewCartService(logger, cartRepo, catalogRepo)

	orderHandler := handler.NewOrderHandler(logger, checkoutService, orderService, conf.Orders.DefaultPageSize)
	cartHandler := handler.NewCartHandler(logger, cartService)
	paymentHandler := handler.NewPaymentHandler(logger, paymentService, conf.Gateway.WebhookSecret)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(orderHandler, cartHandler, paymentHandler)
	app.SetStarters(trackingCache)
	app.SetClosers(orderNotifier, redisClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
