package handler_test

import (
	"context"
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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckoutService struct {
	createFn func(ctx context.Context, userID, recipient string, input service.CheckoutInput) (entities.Order, error)
}

func (f *fakeCheckoutService) CreateOrder(ctx context.Context, userID, recipient string, input service.CheckoutInput) (entities.Order, error) {
	return f.createFn(ctx, userID, recipient, input)
}

type fakeOrderService struct {
	getFn    func(ctx context.Context, userID, idOrNumber string) (entities.Order, error)
	listFn   func(ctx context.Context, userID string, limit, offset int) ([]entities.Order, int, error)
	cancelFn func(ctx context.Context, userID, idOrNumber, reason string) (entities.Order, []string, error)
	trackFn  func(ctx context.Context, trackingNumber string) (service.TrackingView, error)
}

func (f *fakeOrderService) GetOrder(ctx context.Context, userID, idOrNumber string) (entities.Order, error) {
	return f.getFn(ctx, userID, idOrNumber)
}

func (f *fakeOrderService) ListOrders(ctx context.Context, userID string, limit, offset int) ([]entities.Order, int, error) {
	return f.listFn(ctx, userID, limit, offset)
}

func (f *fakeOrderService) CancelOrder(ctx context.Context, userID, idOrNumber, reason string) (entities.Order, []string, error) {
	return f.cancelFn(ctx, userID, idOrNumber, reason)
}

func (f *fakeOrderService) TrackOrder(ctx context.Context, trackingNumber string) (service.TrackingView, error) {
	return f.trackFn(ctx, trackingNumber)
}

func newOrderRouter(checkout handler.CheckoutService, orders handler.OrderService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewOrderHandler(logger, checkout, orders, 10)
	r := chi.NewRouter()
	h.Init(r)
	return r
}

func sampleOrder() entities.Order {
	return entities.Order{
		ID:          "11111111-aaaa-bbbb-cccc-000000000001",
		OrderNumber: "ATW-12345678-0001",
		UserID:      "user-1",
		Items: []entities.LineItem{
			{ProductID: "p-mouse", Name: "Mouse", UnitPrice: decimal.RequireFromString("39.99"), Quantity: 2},
		},
		Subtotal:      decimal.RequireFromString("79.98"),
		Tax:           decimal.RequireFromString("6.3984"),
		Total:         decimal.RequireFromString("86.38"),
		PaymentMethod: entities.PaymentCard,
		PaymentStatus: entities.PaymentPending,
		OrderStatus:   entities.OrderPending,
	}
}

const validCheckoutBody = `{
	"items": [{"product_id": "p-mouse", "quantity": 2}],
	"shipping_address": {
		"full_name": "John Doe",
		"street": "1 Main St",
		"city": "Springfield",
		"state": "IL",
		"zip_code": "62704",
		"phone": "+15551234567"
	},
	"shipping_method": "Standard",
	"payment_method": "card"
}`

func TestOrderHandler_Checkout(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		userID     string
		createFn   func(ctx context.Context, userID, recipient string, input service.CheckoutInput) (entities.Order, error)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "created",
			body:   validCheckoutBody,
			userID: "user-1",
			createFn: func(_ context.Context, userID, _ string, input service.CheckoutInput) (entities.Order, error) {
				if userID != "user-1" || len(input.Items) != 1 {
					return entities.Order{}, errors.New("unexpected input")
				}
				return sampleOrder(), nil
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"order_number":"ATW-12345678-0001"`,
		},
		{
			name:       "tax serialized to cents",
			body:       validCheckoutBody,
			userID:     "user-1",
			createFn:   func(context.Context, string, string, service.CheckoutInput) (entities.Order, error) { return sampleOrder(), nil },
			wantStatus: http.StatusCreated,
			wantBody:   `"tax":"6.40"`,
		},
		{
			name:       "invalid shipping method",
			body:       strings.Replace(validCheckoutBody, `"Standard"`, `"Teleport"`, 1),
			userID:     "user-1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing items",
			body:       `{"items": [], "shipping_method": "Standard", "payment_method": "card"}`,
			userID:     "user-1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unauthenticated",
			body:       validCheckoutBody,
			userID:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "insufficient stock",
			body:   validCheckoutBody,
			userID: "user-1",
			createFn: func(context.Context, string, string, service.CheckoutInput) (entities.Order, error) {
				return entities.Order{}, entities.ErrInsufficientStock
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:   "unknown product",
			body:   validCheckoutBody,
			userID: "user-1",
			createFn: func(context.Context, string, string, service.CheckoutInput) (entities.Order, error) {
				return entities.Order{}, entities.ErrProductNotFound
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newOrderRouter(&fakeCheckoutService{createFn: tc.createFn}, &fakeOrderService{})

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tc.body))
			if tc.userID != "" {
				req.Header.Set(middleware.HeaderUserID, tc.userID)
				req.Header.Set(middleware.HeaderUserEmail, "user@example.com")
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestOrderHandler_GetOrder(t *testing.T) {
	testCases := []struct {
		name       string
		orderID    string
		getFn      func(ctx context.Context, userID, idOrNumber string) (entities.Order, error)
		wantStatus int
		wantBody   string
	}{
		{
			name:    "success",
			orderID: "ATW-12345678-0001",
			getFn: func(_ context.Context, _, idOrNumber string) (entities.Order, error) {
				if idOrNumber != "ATW-12345678-0001" {
					return entities.Order{}, entities.ErrOrderNotFound
				}
				return sampleOrder(), nil
			},
			wantStatus: http.StatusOK,
			wantBody:   `"order_number":"ATW-12345678-0001"`,
		},
		{
			name:    "not found",
			orderID: "no-such",
			getFn: func(context.Context, string, string) (entities.Order, error) {
				return entities.Order{}, entities.ErrOrderNotFound
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"order not found"`,
		},
		{
			name:    "foreign order",
			orderID: "ATW-12345678-0001",
			getFn: func(context.Context, string, string) (entities.Order, error) {
				return entities.Order{}, entities.ErrNotOrderOwner
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:    "internal error",
			orderID: "ATW-12345678-0001",
			getFn: func(context.Context, string, string) (entities.Order, error) {
				return entities.Order{}, errors.New("db error")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"internal server error"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newOrderRouter(&fakeCheckoutService{}, &fakeOrderService{getFn: tc.getFn})

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tc.orderID, nil)
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

func TestOrderHandler_ListOrders(t *testing.T) {
	orders := &fakeOrderService{
		listFn: func(_ context.Context, userID string, limit, offset int) ([]entities.Order, int, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, 5, limit)
			assert.Equal(t, 10, offset)
			return []entities.Order{sampleOrder()}, 11, nil
		},
	}
	r := newOrderRouter(&fakeCheckoutService{}, orders)

	req := httptest.NewRequest(http.MethodGet, "/orders?page=3&limit=5", nil)
	req.Header.Set(middleware.HeaderUserID, "user-1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total":11`)
	assert.Contains(t, rr.Body.String(), `"pages":3`)
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	t.Run("cancelled with restore warning", func(t *testing.T) {
		orders := &fakeOrderService{
			cancelFn: func(_ context.Context, _, _, reason string) (entities.Order, []string, error) {
				assert.Equal(t, "changed my mind", reason)
				o := sampleOrder()
				o.OrderStatus = entities.OrderCancelled
				return o, []string{"p-mouse"}, nil
			},
		}
		r := newOrderRouter(&fakeCheckoutService{}, orders)

		req := httptest.NewRequest(http.MethodPost, "/orders/ATW-12345678-0001/cancel",
			strings.NewReader(`{"reason": "changed my mind"}`))
		req.Header.Set(middleware.HeaderUserID, "user-1")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"order_status":"cancelled"`)
		assert.Contains(t, rr.Body.String(), `"restore_warning":["p-mouse"]`)
	})

	t.Run("shipped order rejected", func(t *testing.T) {
		orders := &fakeOrderService{
			cancelFn: func(context.Context, string, string, string) (entities.Order, []string, error) {
				return entities.Order{}, nil, entities.ErrInvalidOrderState
			},
		}
		r := newOrderRouter(&fakeCheckoutService{}, orders)

		req := httptest.NewRequest(http.MethodPost, "/orders/ATW-12345678-0001/cancel", nil)
		req.Header.Set(middleware.HeaderUserID, "user-1")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestOrderHandler_TrackOrder(t *testing.T) {
	t.Run("public lookup needs no identity", func(t *testing.T) {
		orders := &fakeOrderService{
			trackFn: func(_ context.Context, trackingNumber string) (service.TrackingView, error) {
				assert.Equal(t, "TRK1A2B3C4D5E", trackingNumber)
				return service.TrackingView{
					OrderNumber: "ATW-12345678-0001",
					OrderStatus: string(entities.OrderShipped),
				}, nil
			},
		}
		r := newOrderRouter(&fakeCheckoutService{}, orders)

		req := httptest.NewRequest(http.MethodGet, "/orders/tracking/TRK1A2B3C4D5E", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"order_status":"shipped"`)
		assert.NotContains(t, rr.Body.String(), "shipping_address", "tracking view stays reduced")
	})

	t.Run("unknown tracking number", func(t *testing.T) {
		orders := &fakeOrderService{
			trackFn: func(context.Context, string) (service.TrackingView, error) {
				return service.TrackingView{}, entities.ErrOrderNotFound
			},
		}
		r := newOrderRouter(&fakeCheckoutService{}, orders)

		req := httptest.NewRequest(http.MethodGet, "/orders/tracking/TRK0000000000", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
