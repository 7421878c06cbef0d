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

type ShippingRepository interface {
	Create(ctx context.Context, method *model.ShippingMethod) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error)
	GetByName(ctx context.Context, name string) (*model.ShippingMethod, error)
	List(ctx context.Context, limit, offset int) ([]model.ShippingMethod, int, error)
	Update(ctx context.Context, method *model.ShippingMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgShippingRepo struct{ pool *pgxpool.Pool }

func NewShippingRepository(pool *pgxpool.Pool) ShippingRepository {
	return &pgShippingRepo{pool: pool}
}

func (r *pgShippingRepo) Create(ctx context.Context, method *model.ShippingMethod) error {
	method.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO shipping_methods (id, name, description, cost, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		method.ID, method.Name, method.Description, method.Cost, method.IsActive,
	).Scan(&method.CreatedAt, &method.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create shipping method: %w", err)
	}
	return nil
}

func (r *pgShippingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error) {
	m := &model.ShippingMethod{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, cost, is_active, created_at, updated_at FROM shipping_methods WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Cost, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipping method: %w", err)
	}
	return m, nil
}

func (r *pgShippingRepo) GetByName(ctx context.Context, name string) (*model.ShippingMethod, error) {
	m := &model.ShippingMethod{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, cost, is_active, created_at, updated_at FROM shipping_methods WHERE name = $1`, name,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Cost, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipping method by name: %w", err)
	}
	return m, nil
}

func (r *pgShippingRepo) List(ctx context.Context, limit, offset int) ([]model.ShippingMethod, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shipping_methods`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shipping methods: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, cost, is_active, created_at, updated_at
		 FROM shipping_methods ORDER BY name LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipping methods: %w", err)
	}
	defer rows.Close()

	var methods []model.ShippingMethod
	for rows.Next() {
		var m model.ShippingMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Cost, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan shipping method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, total, nil
}

func (r *pgShippingRepo) Update(ctx context.Context, method *model.ShippingMethod) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE shipping_methods SET name=$2, description=$3, cost=$4, is_active=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		method.ID, method.Name, method.Description, method.Cost, method.IsActive,
	).Scan(&method.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update shipping method: %w", err)
	}
	return nil
}

func (r *pgShippingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM shipping_methods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shipping method: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
