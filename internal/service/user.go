package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/model"
	"github.com/harlow/go-storefront-api/internal/repository"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNotOwner        = errors.New("not authorized for this resource")
	ErrAddressNotFound = errors.New("address not found")
)

type UserService struct {
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
}

func NewUserService(userRepo repository.UserRepository, addressRepo repository.AddressRepository) *UserService {
	return &UserService{userRepo: userRepo, addressRepo: addressRepo}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// Update applies only the fields present in req. Callers may only update
// their own record.
func (s *UserService) Update(ctx context.Context, callerID, targetID uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.ID != callerID {
		return nil, ErrNotOwner
	}

	if req.Email != nil && *req.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if existing != nil {
			return nil, ErrUserAlreadyExists
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) Delete(ctx context.Context, callerID, targetID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.ID != callerID {
		return ErrNotOwner
	}
	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserService) CreateAddress(ctx context.Context, userID uuid.UUID, req dto.CreateAddressRequest) (*dto.AddressResponse, error) {
	addr := &model.Address{
		UserID:        userID,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}
	if err := s.addressRepo.Create(ctx, addr); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	resp := toAddressResponse(addr)
	return &resp, nil
}

func (s *UserService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]dto.AddressResponse, error) {
	addrs, err := s.addressRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	resp := make([]dto.AddressResponse, 0, len(addrs))
	for i := range addrs {
		resp = append(resp, toAddressResponse(&addrs[i]))
	}
	return resp, nil
}

func (s *UserService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	addr, err := s.addressRepo.GetByID(ctx, addressID)
	if err != nil {
		return fmt.Errorf("get address: %w", err)
	}
	if addr == nil {
		return ErrAddressNotFound
	}
	if addr.UserID != userID {
		return ErrNotOwner
	}
	if err := s.addressRepo.Delete(ctx, addressID); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}

func toAddressResponse(a *model.Address) dto.AddressResponse {
	return dto.AddressResponse{
		ID:            a.ID,
		StreetAddress: a.StreetAddress,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		IsDefault:     a.IsDefault,
	}
}
