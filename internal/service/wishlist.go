package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harlow/go-storefront-api/internal/model"
	"github.com/harlow/go-storefront-api/internal/repository"
)

var ErrProductNotInWishlist = errors.New("product not in wishlist")

type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

func (s *WishlistService) Get(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	wishlist, err := s.wishlistRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create wishlist: %w", err)
	}
	products, err := s.wishlistRepo.ListProducts(ctx, wishlist.ID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist products: %w", err)
	}
	wishlist.Products = products
	return wishlist, nil
}

func (s *WishlistService) AddProduct(ctx context.Context, userID, productID uuid.UUID) (*model.Wishlist, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	wishlist, err := s.wishlistRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create wishlist: %w", err)
	}
	if err := s.wishlistRepo.AddProduct(ctx, wishlist.ID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *WishlistService) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) (*model.Wishlist, error) {
	wishlist, err := s.wishlistRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create wishlist: %w", err)
	}
	if err := s.wishlistRepo.RemoveProduct(ctx, wishlist.ID, productID); err != nil {
		if isNoRows(err) {
			return nil, ErrProductNotInWishlist
		}
		return nil, fmt.Errorf("remove wishlist product: %w", err)
	}
	return s.Get(ctx, userID)
}
