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
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAmountMismatch  = errors.New("payment amount does not match order total")
)

type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
}

func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository) *PaymentService {
	return &PaymentService{paymentRepo: paymentRepo, orderRepo: orderRepo}
}

// Create records a payment against an order. The claimed amount must
// equal the order total exactly; nothing is persisted otherwise.
func (s *PaymentService) Create(ctx context.Context, userID uuid.UUID, req dto.CreatePaymentRequest) (*model.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	if !order.TotalPrice.Equal(req.Amount) {
		return nil, fmt.Errorf("%w: got %s, order total is %s", ErrAmountMismatch, req.Amount, order.TotalPrice)
	}

	payment := &model.Payment{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        model.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

func (s *PaymentService) GetByID(ctx context.Context, paymentID, userID uuid.UUID) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return payment, nil
}

func (s *PaymentService) ListByOrder(ctx context.Context, orderID, userID uuid.UUID) ([]model.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return s.paymentRepo.ListByOrderID(ctx, orderID)
}

func (s *PaymentService) UpdateStatus(ctx context.Context, paymentID uuid.UUID, target model.PaymentStatus, transactionID *string) (*model.Payment, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, target)
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if !payment.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, payment.Status, target)
	}

	if err := s.paymentRepo.UpdateStatus(ctx, paymentID, target, transactionID); err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	payment.Status = target
	if transactionID != nil {
		payment.TransactionID = transactionID
	}
	return payment, nil
}
