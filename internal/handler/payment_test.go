package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atwebdev/storefront-service/internal/entities"
	"github.com/atwebdev/storefront-service/internal/handler"
	"github.com/atwebdev/storefront-service/internal/middleware"
	"github.com/atwebdev/storefront-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

type fakePaymentService struct {
	createFn func(ctx context.Context, userID, idOrNumber, customerEmail string) (entities.CheckoutSession, error)
	eventFn  func(ctx context.Context, ev service.WebhookEvent) error
	verifyFn func(ctx context.Context, userID, sessionID string) (service.VerifyResult, error)
}

func (f *fakePaymentService) CreateCheckoutSession(ctx context.Context, userID, idOrNumber, customerEmail string) (entities.CheckoutSession, error) {
	return f.createFn(ctx, userID, idOrNumber, customerEmail)
}

func (f *fakePaymentService) HandleWebhookEvent(ctx context.Context, ev service.WebhookEvent) error {
	return f.eventFn(ctx, ev)
}

func (f *fakePaymentService) VerifyPayment(ctx context.Context, userID, sessionID string) (service.VerifyResult, error) {
	return f.verifyFn(ctx, userID, sessionID)
}

func newPaymentRouter(svc handler.PaymentService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewPaymentHandler(logger, svc, webhookSecret)
	r := chi.NewRouter()
	h.Init(r)
	return r
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

const completedEventBody = `{
	"id": "evt_1",
	"type": "checkout.session.completed",
	"data": {
		"object": {
			"id": "cs_test_1",
			"payment_intent": "pi_test_1",
			"metadata": {"order_id": "order-1"}
		}
	}
}`

func TestPaymentHandler_Webhook(t *testing.T) {
	t.Run("signed event dispatched", func(t *testing.T) {
		var got service.WebhookEvent
		svc := &fakePaymentService{eventFn: func(_ context.Context, ev service.WebhookEvent) error {
			got = ev
			return nil
		}}
		r := newPaymentRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(completedEventBody))
		req.Header.Set(handler.SignatureHeader, sign(completedEventBody))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"received":true`)

		assert.Equal(t, "evt_1", got.ID)
		assert.Equal(t, service.EventSessionCompleted, got.Type)
		assert.Equal(t, "cs_test_1", got.SessionID)
		assert.Equal(t, "pi_test_1", got.PaymentIntent)
		assert.Equal(t, "order-1", got.OrderID)
	})

	t.Run("tampered body rejected before processing", func(t *testing.T) {
		called := false
		svc := &fakePaymentService{eventFn: func(context.Context, service.WebhookEvent) error {
			called = true
			return nil
		}}
		r := newPaymentRouter(svc)

		tampered := strings.Replace(completedEventBody, "order-1", "order-2", 1)
		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(tampered))
		req.Header.Set(handler.SignatureHeader, sign(completedEventBody))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, called, "service must not see unverified events")
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		svc := &fakePaymentService{eventFn: func(context.Context, service.WebhookEvent) error {
			t.Fatal("service must not be called")
			return nil
		}}
		r := newPaymentRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(completedEventBody))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("processing failure returns 500 for redelivery", func(t *testing.T) {
		svc := &fakePaymentService{eventFn: func(context.Context, service.WebhookEvent) error {
			return errors.New("db down")
		}}
		r := newPaymentRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(completedEventBody))
		req.Header.Set(handler.SignatureHeader, sign(completedEventBody))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestPaymentHandler_CreateCheckoutSession(t *testing.T) {
	t.Run("session returned", func(t *testing.T) {
		svc := &fakePaymentService{createFn: func(_ context.Context, userID, idOrNumber, email string) (entities.CheckoutSession, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "ATW-12345678-0001", idOrNumber)
			assert.Equal(t, "user@example.com", email)
			return entities.CheckoutSession{ID: "cs_test_1", URL: "https://gw/cs_test_1"}, nil
		}}
		r := newPaymentRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/checkout-session",
			strings.NewReader(`{"order_id": "ATW-12345678-0001"}`))
		req.Header.Set(middleware.HeaderUserID, "user-1")
		req.Header.Set(middleware.HeaderUserEmail, "user@example.com")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"session_id":"cs_test_1"`)
	})

	t.Run("cash on delivery order", func(t *testing.T) {
		svc := &fakePaymentService{createFn: func(context.Context, string, string, string) (entities.CheckoutSession, error) {
			return entities.CheckoutSession{}, entities.ErrInvalidOrderState
		}}
		r := newPaymentRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/checkout-session",
			strings.NewReader(`{"order_id": "ATW-12345678-0001"}`))
		req.Header.Set(middleware.HeaderUserID, "user-1")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := newPaymentRouter(&fakePaymentService{})

		req := httptest.NewRequest(http.MethodPost, "/payment/checkout-session",
			strings.NewReader(`{"order_id": "ATW-12345678-0001"}`))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestPaymentHandler_VerifyPayment(t *testing.T) {
	testCases := []struct {
		name       string
		verifyFn   func(ctx context.Context, userID, sessionID string) (service.VerifyResult, error)
		wantStatus int
		wantBody   string
	}{
		{
			name: "completed",
			verifyFn: func(_ context.Context, _, sessionID string) (service.VerifyResult, error) {
				assert.Equal(t, "cs_test_1", sessionID)
				o := sampleOrder()
				o.PaymentStatus = entities.PaymentCompleted
				return service.VerifyResult{PaymentStatus: entities.PaymentCompleted, Order: o}, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   `"payment_status":"completed"`,
		},
		{
			name: "session not found",
			verifyFn: func(context.Context, string, string) (service.VerifyResult, error) {
				return service.VerifyResult{}, entities.ErrSessionNotFound
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "gateway unavailable",
			verifyFn: func(context.Context, string, string) (service.VerifyResult, error) {
				return service.VerifyResult{}, entities.ErrGatewayUnavailable
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newPaymentRouter(&fakePaymentService{verifyFn: tc.verifyFn})

			req := httptest.NewRequest(http.MethodGet, "/payment/verify/cs_test_1", nil)
			req.Header.Set(middleware.HeaderUserID, "user-1")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}
