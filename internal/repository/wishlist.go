package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harlow/go-storefront-api/internal/model"
)

type WishlistRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error)
	ListProducts(ctx context.Context, wishlistID uuid.UUID) ([]model.Product, error)
	AddProduct(ctx context.Context, wishlistID, productID uuid.UUID) error
	RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) error
}

type pgWishlistRepo struct{ pool *pgxpool.Pool }

func NewWishlistRepository(pool *pgxpool.Pool) WishlistRepository {
	return &pgWishlistRepo{pool: pool}
}

func (r *pgWishlistRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	w := &model.Wishlist{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id FROM wishlists WHERE user_id = $1`, userID,
	).Scan(&w.ID, &w.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			w.ID = uuid.New()
			w.UserID = userID
			if _, err := r.pool.Exec(ctx,
				`INSERT INTO wishlists (id, user_id) VALUES ($1, $2)`, w.ID, w.UserID,
			); err != nil {
				return nil, fmt.Errorf("create wishlist: %w", err)
			}
			return w, nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return w, nil
}

func (r *pgWishlistRepo) ListProducts(ctx context.Context, wishlistID uuid.UUID) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.price, p.stock, p.category_id, p.is_active, p.created_at, p.updated_at
		 FROM wishlist_products wp
		 JOIN products p ON p.id = wp.product_id
		 WHERE wp.wishlist_id = $1 ORDER BY p.name`, wishlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wishlist products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *pgWishlistRepo) AddProduct(ctx context.Context, wishlistID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_products (wishlist_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		wishlistID, productID,
	)
	if err != nil {
		return fmt.Errorf("add wishlist product: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_products WHERE wishlist_id = $1 AND product_id = $2`, wishlistID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove wishlist product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
