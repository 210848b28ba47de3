package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atwebdev/storefront-service/internal/entities"
)

type PaymentOrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error)
	GetOrderByPaymentRef(ctx context.Context, paymentRef string) (entities.Order, error)
	MarkPaymentCompleted(ctx context.Context, orderID, paymentRef string) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID string) (bool, error)
	SetPaymentRef(ctx context.Context, orderID, paymentRef string) error
}

type Gateway interface {
	CreateSession(ctx context.Context, order entities.Order, customerEmail string) (entities.CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (entities.GatewaySession, error)
}

// Dedup short-circuits re-delivered webhook events. It is an optimization in
// front of the status compare-and-swap, not a correctness mechanism: losing it
// degrades to the CAS path.
type Dedup interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

// Webhook event types as delivered by the gateway.
const (
	EventSessionCompleted = "checkout.session.completed"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type WebhookEvent struct {
	ID            string
	Type          string
	SessionID     string
	PaymentIntent string
	OrderID       string
}

type VerifyResult struct {
	PaymentStatus entities.PaymentStatus
	Order         entities.Order
}

type paymentService struct {
	logger  *slog.Logger
	repo    PaymentOrderRepo
	gateway Gateway
	dedup   Dedup
}

func NewPaymentService(logger *slog.Logger, repo PaymentOrderRepo, gateway Gateway, dedup Dedup) *paymentService {
	return &paymentService{
		logger:  logger.With(slog.String("service", "payment")),
		repo:    repo,
		gateway: gateway,
		dedup:   dedup,
	}
}

// CreateCheckoutSession opens a gateway payment session for the caller's
// order and stores the session id as the order's payment reference, which is
// how later signals find their way back to the order.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, userID, idOrNumber, customerEmail string) (entities.CheckoutSession, error) {
	order, err := s.resolveOrder(ctx, idOrNumber)
	if err != nil {
		return entities.CheckoutSession{}, err
	}
	if order.UserID != userID {
		return entities.CheckoutSession{}, entities.ErrNotOrderOwner
	}
	if !order.PaymentMethod.GatewayBased() {
		return entities.CheckoutSession{}, fmt.Errorf("order %s pays on delivery: %w",
			order.OrderNumber, entities.ErrInvalidOrderState)
	}
	if order.PaymentStatus == entities.PaymentCompleted {
		return entities.CheckoutSession{}, fmt.Errorf("order %s already paid: %w",
			order.OrderNumber, entities.ErrInvalidOrderState)
	}

	session, err := s.gateway.CreateSession(ctx, order, customerEmail)
	if err != nil {
		return entities.CheckoutSession{}, fmt.Errorf("failed to create gateway session: %w", err)
	}

	if err := s.repo.SetPaymentRef(ctx, order.ID, session.ID); err != nil {
		return entities.CheckoutSession{}, err
	}

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("order_number", order.OrderNumber),
		slog.String("session_id", session.ID),
	)
	return session, nil
}

func (s *paymentService) resolveOrder(ctx context.Context, idOrNumber string) (entities.Order, error) {
	order, err := s.repo.GetOrderByNumber(ctx, idOrNumber)
	if errors.Is(err, entities.ErrOrderNotFound) {
		return s.repo.GetOrderByID(ctx, idOrNumber)
	}
	return order, err
}

// HandleWebhookEvent processes a signature-verified gateway event. Unknown
// event types are logged and acknowledged; retry policy belongs to the
// sender. The method is idempotent: re-delivery of a success event finds the
// order already completed and does nothing.
func (s *paymentService) HandleWebhookEvent(ctx context.Context, ev WebhookEvent) error {
	if s.dedup != nil && ev.ID != "" {
		first, err := s.dedup.FirstSeen(ctx, ev.ID)
		if err != nil {
			// Dedup store down: fall through, the CAS keeps us safe.
			s.logger.WarnContext(ctx, "event dedup unavailable", slog.Any("error", err))
		} else if !first {
			s.logger.DebugContext(ctx, "duplicate webhook event skipped", slog.String("event_id", ev.ID))
			return nil
		}
	}

	switch ev.Type {
	case EventSessionCompleted:
		ref := ev.PaymentIntent
		if ref == "" {
			ref = ev.SessionID
		}
		if ev.OrderID == "" {
			s.logger.WarnContext(ctx, "session completed event without order metadata",
				slog.String("event_id", ev.ID))
			return nil
		}
		return s.markPaid(ctx, ev.OrderID, ref, "webhook")

	case EventPaymentFailed:
		order, err := s.repo.GetOrderByPaymentRef(ctx, ev.PaymentIntent)
		if errors.Is(err, entities.ErrOrderNotFound) {
			s.logger.WarnContext(ctx, "payment failed event for unknown reference",
				slog.String("payment_intent", ev.PaymentIntent))
			return nil
		}
		if err != nil {
			return err
		}
		ok, err := s.repo.MarkPaymentFailed(ctx, order.ID)
		if err != nil {
			return err
		}
		result := "applied"
		if !ok {
			// Order already completed or failed: a late failure never
			// regresses a success.
			result = "noop"
		}
		reconciliationsTotal.WithLabelValues("webhook", result).Inc()
		s.logger.InfoContext(ctx, "payment failure recorded",
			slog.String("order_number", order.OrderNumber),
			slog.Bool("applied", ok),
		)
		return nil

	default:
		s.logger.DebugContext(ctx, "unhandled webhook event type", slog.String("type", ev.Type))
		return nil
	}
}

// VerifyPayment is the user-triggered pull: ask the gateway for the
// authoritative session status and reconcile if it reports paid. Gateway
// failures are indeterminate, the order is left untouched.
func (s *paymentService) VerifyPayment(ctx context.Context, userID, sessionID string) (VerifyResult, error) {
	session, err := s.gateway.GetSession(ctx, sessionID)
	if errors.Is(err, entities.ErrSessionNotFound) {
		return VerifyResult{}, err
	}
	if err != nil {
		return VerifyResult{}, fmt.Errorf("%w: %v", entities.ErrGatewayUnavailable, err)
	}

	order, err := s.repo.GetOrderByID(ctx, session.OrderID)
	if err != nil {
		return VerifyResult{}, err
	}
	if order.UserID != userID {
		return VerifyResult{}, entities.ErrNotOrderOwner
	}

	if session.Paid {
		ref := session.PaymentIntent
		if ref == "" {
			ref = session.ID
		}
		if err := s.markPaid(ctx, order.ID, ref, "verify"); err != nil {
			return VerifyResult{}, err
		}
		order, err = s.repo.GetOrderByID(ctx, order.ID)
		if err != nil {
			return VerifyResult{}, err
		}
	}

	return VerifyResult{PaymentStatus: order.PaymentStatus, Order: order}, nil
}

// AutoVerify is the lazy trigger, called while an order is being read. All
// errors are swallowed: an indeterminate gateway answer must never fail the
// read, and is never treated as a failed payment.
func (s *paymentService) AutoVerify(ctx context.Context, order *entities.Order) {
	session, err := s.gateway.GetSession(ctx, order.PaymentRef)
	if err != nil {
		s.logger.WarnContext(ctx, "auto-verify skipped, gateway unavailable",
			slog.String("order_number", order.OrderNumber),
			slog.Any("error", err),
		)
		return
	}
	if !session.Paid {
		return
	}

	ref := session.PaymentIntent
	if ref == "" {
		ref = session.ID
	}
	if err := s.markPaid(ctx, order.ID, ref, "auto"); err != nil {
		s.logger.ErrorContext(ctx, "auto-verify failed to apply transition",
			slog.String("order_number", order.OrderNumber),
			slog.Any("error", err),
		)
		return
	}

	order.PaymentStatus = entities.PaymentCompleted
	order.OrderStatus = entities.OrderProcessing
	order.PaymentRef = ref
}

// markPaid is the single idempotent transition all three reconciliation
// triggers converge on. The repo guard (not already completed) makes repeated
// or racing calls one effective transition; a success after a recorded
// failure still goes through, that is the recovery path.
func (s *paymentService) markPaid(ctx context.Context, orderID, paymentRef, trigger string) error {
	ok, err := s.repo.MarkPaymentCompleted(ctx, orderID, paymentRef)
	if err != nil {
		reconciliationsTotal.WithLabelValues(trigger, "error").Inc()
		return err
	}
	result := "applied"
	if !ok {
		result = "noop"
	}
	reconciliationsTotal.WithLabelValues(trigger, result).Inc()
	s.logger.InfoContext(ctx, "payment reconciled",
		slog.String("order_id", orderID),
		slog.String("trigger", trigger),
		slog.Bool("applied", ok),
	)
	return nil
}
