// Package notifier publishes order-created confirmations to Kafka. The
// downstream mailer owns delivery; this side is strictly best-effort and a
// publish failure never propagates to the checkout caller.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/atwebdev/storefront-service/internal/config"
	"github.com/atwebdev/storefront-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

type kafkaNotifier struct {
	logger *slog.Logger
	writer *kafka.Writer
}

func NewKafkaNotifier(logger *slog.Logger, cfg config.Kafka) *kafkaNotifier {
	return &kafkaNotifier{
		logger: logger.With(slog.String("notifier", "kafka")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.OrdersTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

type orderCreatedMessage struct {
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Recipient   string    `json:"recipient"`
	Total       string    `json:"total"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (n *kafkaNotifier) OrderCreated(ctx context.Context, order entities.Order, recipient string) error {
	count := 0
	for _, it := range order.Items {
		count += it.Quantity
	}

	value, err := json.Marshal(orderCreatedMessage{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Recipient:   recipient,
		Total:       order.Total.StringFixed(2),
		ItemCount:   count,
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		return err
	}

	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: value,
	})
}

func (n *kafkaNotifier) Close() error {
	return n.writer.Close()
}
