package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/atwebdev/storefront-service/internal/entities"
	"github.com/atwebdev/storefront-service/internal/middleware"
	"github.com/atwebdev/storefront-service/internal/service"
	"github.com/atwebdev/storefront-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CheckoutService interface {
	CreateOrder(ctx context.Context, userID, recipient string, input service.CheckoutInput) (entities.Order, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, userID, idOrNumber string) (entities.Order, error)
	ListOrders(ctx context.Context, userID string, limit, offset int) ([]entities.Order, int, error)
	CancelOrder(ctx context.Context, userID, idOrNumber, reason string) (entities.Order, []string, error)
	TrackOrder(ctx context.Context, trackingNumber string) (service.TrackingView, error)
}

type OrderHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	checkout CheckoutService
	orders   OrderService
	pageSize int
}

func NewOrderHandler(logger *slog.Logger, checkout CheckoutService, orders OrderService, pageSize int) *OrderHandler {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &OrderHandler{
		logger:   logger.With(slog.String("handler", "orders")),
		validate: validator.New(),
		checkout: checkout,
		orders:   orders,
		pageSize: pageSize,
	}
}

func (h *OrderHandler) Init(r chi.Router) {
	// Tracking is public: anyone holding the tracking number may look it up.
	r.Get("/orders/tracking/{tracking_number}", h.TrackOrder)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/orders", h.Checkout)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{order_id}", h.GetOrder)
		r.Post("/orders/{order_id}/cancel", h.CancelOrder)
	})
}

// Checkout creates an order from the submitted items.
// @Summary      Create order
// @Tags         orders
// @Success      201  {object}  Order
// @Router       /orders [post]
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CheckoutRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.checkout.CreateOrder(ctx, middleware.UserID(ctx), middleware.UserEmail(ctx), CheckoutRequestToInput(req))
	if err != nil {
		h.writeOrderError(ctx, w, err, "failed to create order")
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

// ListOrders returns a page of the caller's orders.
// @Summary      List orders
// @Tags         orders
// @Success      200  {object}  ListOrdersResponse
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = h.pageSize
	}

	orders, total, err := h.orders.ListOrders(ctx, middleware.UserID(ctx), limit, (page-1)*limit)
	if err != nil {
		h.writeOrderError(ctx, w, err, "failed to list orders")
		return
	}

	res := ListOrdersResponse{
		Orders: make([]Order, 0, len(orders)),
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}
	for _, o := range orders {
		res.Orders = append(res.Orders, OrderEntityToJSON(o))
	}

	utils.WriteJSON(w, res, http.StatusOK)
}

// GetOrder returns one of the caller's orders, looked up by order number or
// internal id.
// @Summary      Get order
// @Tags         orders
// @Success      200  {object}  Order
// @Router       /orders/{order_id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.GetOrder(ctx, middleware.UserID(ctx), orderID)
	if err != nil {
		h.writeOrderError(ctx, w, err, "failed to get order")
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// CancelOrder cancels one of the caller's orders and restores its stock.
// @Summary      Cancel order
// @Tags         orders
// @Success      200  {object}  CancelResponse
// @Router       /orders/{order_id}/cancel [post]
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req CancelRequest
	if r.ContentLength > 0 {
		if err := utils.DecodeBody(r, &req); err != nil {
			utils.WriteError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	order, failed, err := h.orders.CancelOrder(ctx, middleware.UserID(ctx), orderID, req.Reason)
	if err != nil {
		h.writeOrderError(ctx, w, err, "failed to cancel order")
		return
	}

	utils.WriteJSON(w, CancelResponse{
		Order:          OrderEntityToJSON(order),
		RestoreWarning: failed,
	}, http.StatusOK)
}

// TrackOrder is the public, reduced tracking lookup.
// @Summary      Track order
// @Tags         orders
// @Success      200  {object}  service.TrackingView
// @Router       /orders/tracking/{tracking_number} [get]
func (h *OrderHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trackingNumber := chi.URLParam(r, "tracking_number")

	if err := h.validate.Var(trackingNumber, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	view, err := h.orders.TrackOrder(ctx, trackingNumber)
	if err != nil {
		h.writeOrderError(ctx, w, err, "failed to track order")
		return
	}

	utils.WriteJSON(w, view, http.StatusOK)
}

func (h *OrderHandler) writeOrderError(ctx context.Context, w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, "product not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrInsufficientStock):
		utils.WriteError(w, "product not available in requested quantity", http.StatusConflict)
	case errors.Is(err, entities.ErrNotOrderOwner):
		utils.WriteError(w, "not authorized to access this order", http.StatusForbidden)
	case errors.Is(err, entities.ErrInvalidOrderState):
		utils.WriteError(w, "order cannot be modified at this stage", http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, logMsg, slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
