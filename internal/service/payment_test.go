package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/model"
)

type mockPaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, p *model.Payment) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.payments[p.ID] = p
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	return m.payments[id], nil
}

func (m *mockPaymentRepo) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus, transactionID *string) error {
	if p, ok := m.payments[id]; ok {
		p.Status = status
		if transactionID != nil {
			p.TransactionID = transactionID
		}
	}
	return nil
}

func seedOrder(repo *mockOrderRepo, userID uuid.UUID, total decimal.Decimal) uuid.UUID {
	id := uuid.New()
	repo.orders[id] = &model.Order{ID: id, UserID: userID, Status: model.OrderStatusPending, TotalPrice: total}
	return id
}

func TestPaymentService_Create(t *testing.T) {
	orderRepo := newMockOrderRepo()
	paymentRepo := newMockPaymentRepo()
	svc := NewPaymentService(paymentRepo, orderRepo)

	userID := uuid.New()
	orderID := seedOrder(orderRepo, userID, decimal.NewFromFloat(24.98))

	payment, err := svc.Create(context.Background(), userID, dto.CreatePaymentRequest{
		OrderID: orderID, Amount: decimal.NewFromFloat(24.98), PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromFloat(24.98)))
}

func TestPaymentService_Create_AmountMismatch(t *testing.T) {
	orderRepo := newMockOrderRepo()
	paymentRepo := newMockPaymentRepo()
	svc := NewPaymentService(paymentRepo, orderRepo)

	userID := uuid.New()
	orderID := seedOrder(orderRepo, userID, decimal.NewFromFloat(24.98))

	_, err := svc.Create(context.Background(), userID, dto.CreatePaymentRequest{
		OrderID: orderID, Amount: decimal.NewFromFloat(24.99), PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, paymentRepo.payments)
}

func TestPaymentService_Create_OrderNotFound(t *testing.T) {
	svc := NewPaymentService(newMockPaymentRepo(), newMockOrderRepo())
	_, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		OrderID: uuid.New(), Amount: decimal.NewFromFloat(1.00), PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_Create_AccessDenied(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewPaymentService(newMockPaymentRepo(), orderRepo)

	orderID := seedOrder(orderRepo, uuid.New(), decimal.NewFromFloat(10.00))

	_, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		OrderID: orderID, Amount: decimal.NewFromFloat(10.00), PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestPaymentService_GetByID_AccessDenied(t *testing.T) {
	orderRepo := newMockOrderRepo()
	paymentRepo := newMockPaymentRepo()
	svc := NewPaymentService(paymentRepo, orderRepo)

	orderID := seedOrder(orderRepo, uuid.New(), decimal.NewFromFloat(10.00))
	payment := &model.Payment{OrderID: orderID, Amount: decimal.NewFromFloat(10.00), Status: model.PaymentStatusPending}
	require.NoError(t, paymentRepo.Create(context.Background(), payment))

	_, err := svc.GetByID(context.Background(), payment.ID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestPaymentService_ListByOrder(t *testing.T) {
	orderRepo := newMockOrderRepo()
	paymentRepo := newMockPaymentRepo()
	svc := NewPaymentService(paymentRepo, orderRepo)

	userID := uuid.New()
	orderID := seedOrder(orderRepo, userID, decimal.NewFromFloat(10.00))
	require.NoError(t, paymentRepo.Create(context.Background(), &model.Payment{
		OrderID: orderID, Amount: decimal.NewFromFloat(10.00), Status: model.PaymentStatusPending,
	}))

	payments, err := svc.ListByOrder(context.Background(), orderID, userID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = svc.ListByOrder(context.Background(), orderID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestPaymentService_UpdateStatus(t *testing.T) {
	paymentRepo := newMockPaymentRepo()
	svc := NewPaymentService(paymentRepo, newMockOrderRepo())

	payment := &model.Payment{OrderID: uuid.New(), Status: model.PaymentStatusPending}
	require.NoError(t, paymentRepo.Create(context.Background(), payment))

	txnID := "txn_123"
	updated, err := svc.UpdateStatus(context.Background(), payment.ID, model.PaymentStatusSuccessful, &txnID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccessful, updated.Status)
	require.NotNil(t, updated.TransactionID)
	assert.Equal(t, "txn_123", *updated.TransactionID)

	// A successful payment can still be refunded.
	updated, err = svc.UpdateStatus(context.Background(), payment.ID, model.PaymentStatusRefunded, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, updated.Status)
}

func TestPaymentService_UpdateStatus_InvalidTransition(t *testing.T) {
	paymentRepo := newMockPaymentRepo()
	svc := NewPaymentService(paymentRepo, newMockOrderRepo())

	payment := &model.Payment{OrderID: uuid.New(), Status: model.PaymentStatusFailed}
	require.NoError(t, paymentRepo.Create(context.Background(), payment))

	_, err := svc.UpdateStatus(context.Background(), payment.ID, model.PaymentStatusSuccessful, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.PaymentStatusFailed, paymentRepo.payments[payment.ID].Status)
}
