package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/atwebdev/storefront-service/internal/entities"
	"github.com/atwebdev/storefront-service/internal/middleware"
	"github.com/atwebdev/storefront-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (entities.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int, selectedColor string) (entities.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID string, quantity int) (entities.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (entities.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      CartService
}

func NewCartHandler(logger *slog.Logger, svc CartService) *CartHandler {
	return &CartHandler{
		logger:   logger.With(slog.String("handler", "cart")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *CartHandler) Init(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/cart", h.GetCart)
		r.Post("/cart/items", h.AddItem)
		r.Put("/cart/items/{item_id}", h.UpdateItem)
		r.Delete("/cart/items/{item_id}", h.RemoveItem)
		r.Delete("/cart", h.ClearCart)
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cart, err := h.svc.GetCart(ctx, middleware.UserID(ctx))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddCartItemRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	cart, err := h.svc.AddItem(ctx, middleware.UserID(ctx), req.ProductID, req.Quantity, req.SelectedColor)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "item_id")

	var req UpdateCartItemRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	cart, err := h.svc.UpdateItem(ctx, middleware.UserID(ctx), itemID, req.Quantity)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "item_id")

	cart, err := h.svc.RemoveItem(ctx, middleware.UserID(ctx), itemID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.svc.ClearCart(ctx, middleware.UserID(ctx)); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(entities.Cart{}), http.StatusOK)
}

func (h *CartHandler) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, "product not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrCartItemNotFound):
		utils.WriteError(w, "item not found in cart", http.StatusNotFound)
	case errors.Is(err, entities.ErrInsufficientStock):
		utils.WriteError(w, "product not available in requested quantity", http.StatusConflict)
	default:
		h.logger.ErrorContext(ctx, "cart operation failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
