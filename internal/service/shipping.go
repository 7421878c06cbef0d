package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/model"
	"github.com/harlow/go-storefront-api/internal/pagination"
	"github.com/harlow/go-storefront-api/internal/repository"
)

var (
	ErrShippingMethodNotFound = errors.New("shipping method not found")
	ErrShippingMethodExists   = errors.New("shipping method already exists")
)

type ShippingService struct {
	shippingRepo repository.ShippingRepository
}

func NewShippingService(shippingRepo repository.ShippingRepository) *ShippingService {
	return &ShippingService{shippingRepo: shippingRepo}
}

func (s *ShippingService) Create(ctx context.Context, req dto.CreateShippingMethodRequest) (*dto.ShippingMethodResponse, error) {
	existing, err := s.shippingRepo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("check shipping method: %w", err)
	}
	if existing != nil {
		return nil, ErrShippingMethodExists
	}

	method := &model.ShippingMethod{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
		IsActive:    true,
	}
	if err := s.shippingRepo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("create shipping method: %w", err)
	}
	resp := toShippingMethodResponse(method)
	return &resp, nil
}

func (s *ShippingService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ShippingMethodResponse, error) {
	method, err := s.shippingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shipping method: %w", err)
	}
	if method == nil {
		return nil, ErrShippingMethodNotFound
	}
	resp := toShippingMethodResponse(method)
	return &resp, nil
}

func (s *ShippingService) List(ctx context.Context, req pagination.Request) (*pagination.Page[dto.ShippingMethodResponse], error) {
	methods, total, err := s.shippingRepo.List(ctx, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list shipping methods: %w", err)
	}
	items := make([]dto.ShippingMethodResponse, 0, len(methods))
	for i := range methods {
		items = append(items, toShippingMethodResponse(&methods[i]))
	}
	return pagination.New(items, req.Page, req.Size, total)
}

func (s *ShippingService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateShippingMethodRequest) (*dto.ShippingMethodResponse, error) {
	method, err := s.shippingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shipping method: %w", err)
	}
	if method == nil {
		return nil, ErrShippingMethodNotFound
	}

	if req.Name != nil && *req.Name != method.Name {
		existing, err := s.shippingRepo.GetByName(ctx, *req.Name)
		if err != nil {
			return nil, fmt.Errorf("check shipping method: %w", err)
		}
		if existing != nil {
			return nil, ErrShippingMethodExists
		}
		method.Name = *req.Name
	}
	if req.Description != nil {
		method.Description = *req.Description
	}
	if req.Cost != nil {
		method.Cost = *req.Cost
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}

	if err := s.shippingRepo.Update(ctx, method); err != nil {
		return nil, fmt.Errorf("update shipping method: %w", err)
	}
	resp := toShippingMethodResponse(method)
	return &resp, nil
}

func (s *ShippingService) Delete(ctx context.Context, id uuid.UUID) error {
	method, err := s.shippingRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get shipping method: %w", err)
	}
	if method == nil {
		return ErrShippingMethodNotFound
	}
	if err := s.shippingRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete shipping method: %w", err)
	}
	return nil
}

func toShippingMethodResponse(m *model.ShippingMethod) dto.ShippingMethodResponse {
	return dto.ShippingMethodResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Cost:        m.Cost,
		IsActive:    m.IsActive,
	}
}
