package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/atwebdev/storefront-service/internal/entities"
	"github.com/atwebdev/storefront-service/internal/middleware"
	"github.com/atwebdev/storefront-service/internal/service"
	"github.com/atwebdev/storefront-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// SignatureHeader carries the gateway's HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Gateway-Signature"

const maxWebhookBody = 1 << 20

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, userID, idOrNumber, customerEmail string) (entities.CheckoutSession, error)
	HandleWebhookEvent(ctx context.Context, ev service.WebhookEvent) error
	VerifyPayment(ctx context.Context, userID, sessionID string) (service.VerifyResult, error)
}

type PaymentHandler struct {
	logger        *slog.Logger
	validate      *validator.Validate
	svc           PaymentService
	webhookSecret []byte
}

func NewPaymentHandler(logger *slog.Logger, svc PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		logger:        logger.With(slog.String("handler", "payment")),
		validate:      validator.New(),
		svc:           svc,
		webhookSecret: []byte(webhookSecret),
	}
}

func (h *PaymentHandler) Init(r chi.Router) {
	// The webhook is public; authenticity comes from the signature.
	r.Post("/payment/webhook", h.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/payment/checkout-session", h.CreateCheckoutSession)
		r.Get("/payment/verify/{session_id}", h.VerifyPayment)
	})
}

// CreateCheckoutSession opens a gateway payment session for an order.
// @Summary      Create checkout session
// @Tags         payment
// @Success      200  {object}  CreateSessionResponse
// @Router       /payment/checkout-session [post]
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSessionRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	session, err := h.svc.CreateCheckoutSession(ctx, middleware.UserID(ctx), req.OrderID, middleware.UserEmail(ctx))
	if err != nil {
		h.writePaymentError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, CreateSessionResponse{SessionID: session.ID, URL: session.URL}, http.StatusOK)
}

// Webhook receives signed gateway events. Signature failures are rejected
// before any state is touched; unrecognized event types are acknowledged so
// the sender stops retrying them.
// @Summary      Payment webhook
// @Tags         payment
// @Router       /payment/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.verifySignature(body, r.Header.Get(SignatureHeader)); err != nil {
		webhookRejected.Inc()
		h.logger.WarnContext(ctx, "webhook signature verification failed", slog.Any("error", err))
		utils.WriteError(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.WriteError(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	if err := h.svc.HandleWebhookEvent(ctx, WebhookPayloadToEvent(payload)); err != nil {
		h.logger.ErrorContext(ctx, "failed to process webhook event",
			slog.String("event_id", payload.ID),
			slog.String("type", payload.Type),
			slog.Any("error", err),
		)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]bool{"received": true}, http.StatusOK)
}

// VerifyPayment asks the gateway for the authoritative session status.
// @Summary      Verify payment
// @Tags         payment
// @Success      200  {object}  VerifyResponse
// @Router       /payment/verify/{session_id} [get]
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "session_id")

	if err := h.validate.Var(sessionID, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	result, err := h.svc.VerifyPayment(ctx, middleware.UserID(ctx), sessionID)
	if err != nil {
		h.writePaymentError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, VerifyResponse{
		PaymentStatus: string(result.PaymentStatus),
		Order:         OrderEntityToJSON(result.Order),
	}, http.StatusOK)
}

func (h *PaymentHandler) verifySignature(body []byte, signature string) error {
	if signature == "" {
		return entities.ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return entities.ErrInvalidSignature
	}
	return nil
}

func (h *PaymentHandler) writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrSessionNotFound):
		utils.WriteError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrNotOrderOwner):
		utils.WriteError(w, "not authorized", http.StatusForbidden)
	case errors.Is(err, entities.ErrInvalidOrderState):
		utils.WriteError(w, "order is not payable", http.StatusBadRequest)
	case errors.Is(err, entities.ErrGatewayUnavailable):
		utils.WriteError(w, "payment gateway unavailable, try again later", http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(ctx, "payment operation failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
