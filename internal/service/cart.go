package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atwebdev/storefront-service/internal/entities"

	"github.com/google/uuid"
)

type CartRepo interface {
	GetCart(ctx context.Context, userID string) (entities.Cart, error)
	AddItem(ctx context.Context, userID string, item entities.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type cartService struct {
	logger  *slog.Logger
	repo    CartRepo
	catalog CatalogReader
}

func NewCartService(logger *slog.Logger, repo CartRepo, catalog CatalogReader) *cartService {
	return &cartService{
		logger:  logger.With(slog.String("service", "cart")),
		repo:    repo,
		catalog: catalog,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID string) (entities.Cart, error) {
	return s.repo.GetCart(ctx, userID)
}

// AddItem snapshots the current effective price into the cart line. Adding a
// product already in the cart merges quantities.
func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int, selectedColor string) (entities.Cart, error) {
	snap, err := s.lookupAvailable(ctx, productID, quantity)
	if err != nil {
		return entities.Cart{}, err
	}

	item := entities.CartItem{
		ID:            uuid.NewString(),
		ProductID:     productID,
		Quantity:      quantity,
		UnitPrice:     snap.EffectiveUnitPrice(),
		SelectedColor: selectedColor,
	}
	if err := s.repo.AddItem(ctx, userID, item); err != nil {
		return entities.Cart{}, err
	}
	return s.repo.GetCart(ctx, userID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (entities.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return entities.Cart{}, err
	}

	var productID string
	for _, it := range cart.Items {
		if it.ID == itemID {
			productID = it.ProductID
			break
		}
	}
	if productID == "" {
		return entities.Cart{}, entities.ErrCartItemNotFound
	}

	if _, err := s.lookupAvailable(ctx, productID, quantity); err != nil {
		return entities.Cart{}, err
	}
	if err := s.repo.UpdateItemQuantity(ctx, userID, itemID, quantity); err != nil {
		return entities.Cart{}, err
	}
	return s.repo.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) (entities.Cart, error) {
	if err := s.repo.RemoveItem(ctx, userID, itemID); err != nil {
		return entities.Cart{}, err
	}
	return s.repo.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

func (s *cartService) lookupAvailable(ctx context.Context, productID string, quantity int) (entities.ProductSnapshot, error) {
	snapshots, err := s.catalog.GetMany(ctx, []string{productID})
	if err != nil {
		return entities.ProductSnapshot{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	snap, ok := snapshots[productID]
	if !ok {
		return entities.ProductSnapshot{}, fmt.Errorf("product %s: %w", productID, entities.ErrProductNotFound)
	}
	if !snap.InStock || snap.Quantity < quantity {
		return entities.ProductSnapshot{}, fmt.Errorf("product %s: %w", productID, entities.ErrInsufficientStock)
	}
	return snap, nil
}
