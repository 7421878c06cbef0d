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

type AddressRepository interface {
	Create(ctx context.Context, addr *model.Address) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgAddressRepo struct{ pool *pgxpool.Pool }

func NewAddressRepository(pool *pgxpool.Pool) AddressRepository {
	return &pgAddressRepo{pool: pool}
}

func (r *pgAddressRepo) Create(ctx context.Context, addr *model.Address) error {
	addr.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO addresses (id, user_id, street_address, city, state, postal_code, country, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		addr.ID, addr.UserID, addr.StreetAddress, addr.City, addr.State, addr.PostalCode, addr.Country, addr.IsDefault,
	)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return nil
}

func (r *pgAddressRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	addr := &model.Address{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, street_address, city, state, postal_code, country, is_default
		 FROM addresses WHERE id = $1`, id,
	).Scan(&addr.ID, &addr.UserID, &addr.StreetAddress, &addr.City, &addr.State, &addr.PostalCode, &addr.Country, &addr.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return addr, nil
}

func (r *pgAddressRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, street_address, city, state, postal_code, country, is_default
		 FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addrs []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.StreetAddress, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

func (r *pgAddressRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
