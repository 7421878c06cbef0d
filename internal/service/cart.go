package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/model"
	"github.com/harlow/go-storefront-api/internal/repository"
)

var (
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return s.cartRepo.GetCartWithItems(ctx, cart.ID)
}

// UpsertItem sets the line quantity for a product, adding the line when
// it is not in the cart yet.
func (s *CartService) UpsertItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	if err := s.cartRepo.UpsertItem(ctx, &model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}); err != nil {
		return nil, err
	}
	return s.cartRepo.GetCartWithItems(ctx, cart.ID)
}

func (s *CartService) DeleteItem(ctx context.Context, userID, productID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	if err := s.cartRepo.DeleteItem(ctx, cart.ID, productID); err != nil {
		if isNoRows(err) {
			return nil, ErrItemNotInCart
		}
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	return s.cartRepo.GetCartWithItems(ctx, cart.ID)
}

// Replace validates every line against the catalog, then swaps the whole
// item set atomically. A bad line rejects the entire request.
func (s *CartService) Replace(ctx context.Context, userID uuid.UUID, req dto.ReplaceCartRequest) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	items := make([]model.CartItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, line.ProductID)
		}
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		items = append(items, model.CartItem{
			CartID:    cart.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	if err := s.cartRepo.ReplaceItems(ctx, cart.ID, items); err != nil {
		return nil, fmt.Errorf("replace cart items: %w", err)
	}
	return s.cartRepo.GetCartWithItems(ctx, cart.ID)
}
