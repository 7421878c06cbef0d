package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/model"
	"github.com/harlow/go-storefront-api/internal/pagination"
)

// fakeTx satisfies pgx.Tx for services that only call Commit and Rollback
// on it directly; everything else panics if reached.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) BeginTx(_ context.Context) (pgx.Tx, error) {
	return fakeTx{}, nil
}

func (m *mockOrderRepo) CreateTx(_ context.Context, _ pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) CreateItemsTx(_ context.Context, _ pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	if o, ok := m.orders[items[0].OrderID]; ok {
		o.Items = items
	}
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, int, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrderTestService(orderRepo *mockOrderRepo, cartRepo *mockCartRepo, productRepo *mockProductRepo) *OrderService {
	return NewOrderService(orderRepo, cartRepo, productRepo, newMockAddressRepo(), newMockUserRepo(), nil, testLogger())
}

func TestOrderService_PlaceOrder(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	svc := newOrderTestService(orderRepo, newMockCartRepo(), productRepo)

	widget := &model.Product{Name: "Widget", Price: decimal.NewFromFloat(9.99), Stock: 10}
	require.NoError(t, productRepo.Create(context.Background(), widget))
	gadget := &model.Product{Name: "Gadget", Price: decimal.NewFromFloat(5.00), Stock: 3}
	require.NoError(t, productRepo.Create(context.Background(), gadget))

	order, err := svc.PlaceOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		Items: []dto.OrderLineRequest{
			{ProductID: widget.ID, Quantity: 2},
			{ProductID: gadget.ID, Quantity: 1},
		},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromFloat(24.98)), "got total %s", order.TotalPrice)
	assert.Equal(t, 8, productRepo.products[widget.ID].Stock)
	assert.Equal(t, 2, productRepo.products[gadget.ID].Stock)

	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromFloat(9.99)))
}

func TestOrderService_PlaceOrder_MergesDuplicateLines(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	svc := newOrderTestService(orderRepo, newMockCartRepo(), productRepo)

	widget := &model.Product{Name: "Widget", Price: decimal.NewFromFloat(2.00), Stock: 10}
	require.NoError(t, productRepo.Create(context.Background(), widget))

	order, err := svc.PlaceOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		Items: []dto.OrderLineRequest{
			{ProductID: widget.ID, Quantity: 1},
			{ProductID: widget.ID, Quantity: 2},
		},
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	// Repeated lines for one product collapse into a single order item.
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromFloat(6.00)), "got total %s", order.TotalPrice)
	assert.Equal(t, 7, productRepo.products[widget.ID].Stock)
}

func TestOrderService_PlaceOrder_InsufficientStock(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	svc := newOrderTestService(orderRepo, newMockCartRepo(), productRepo)

	widget := &model.Product{Name: "Widget", Price: decimal.NewFromFloat(9.99), Stock: 1}
	require.NoError(t, productRepo.Create(context.Background(), widget))

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		Items:         []dto.OrderLineRequest{{ProductID: widget.ID, Quantity: 2}},
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, productRepo.products[widget.ID].Stock)
	assert.Empty(t, orderRepo.orders)
}

func TestOrderService_PlaceOrder_UnknownProduct(t *testing.T) {
	svc := newOrderTestService(newMockOrderRepo(), newMockCartRepo(), newMockProductRepo())
	_, err := svc.PlaceOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		Items:         []dto.OrderLineRequest{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestOrderService_PlaceOrder_AddressNotOwned(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	addressRepo := newMockAddressRepo()
	svc := NewOrderService(orderRepo, newMockCartRepo(), productRepo, addressRepo, newMockUserRepo(), nil, testLogger())

	addr := &model.Address{UserID: uuid.New()}
	require.NoError(t, addressRepo.Create(context.Background(), addr))

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		Items:             []dto.OrderLineRequest{{ProductID: uuid.New(), Quantity: 1}},
		ShippingAddressID: &addr.ID,
		PaymentMethod:     "card",
	})
	assert.ErrorIs(t, err, ErrAddressNotOwned)
}

func TestOrderService_Checkout(t *testing.T) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	productRepo := newMockProductRepo()
	svc := newOrderTestService(orderRepo, cartRepo, productRepo)
	userID := uuid.New()

	widget := &model.Product{Name: "Widget", Price: decimal.NewFromFloat(3.50), Stock: 10}
	require.NoError(t, productRepo.Create(context.Background(), widget))

	cart, err := cartRepo.GetOrCreateCart(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.UpsertItem(context.Background(), &model.CartItem{
		CartID: cart.ID, ProductID: widget.ID, Quantity: 4,
	}))

	order, err := svc.Checkout(context.Background(), userID, dto.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromFloat(14.00)))

	// The cart is emptied after a successful checkout.
	after, err := cartRepo.GetCartWithItems(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
}

type failingClearCartRepo struct{ *mockCartRepo }

func (f failingClearCartRepo) ClearCart(context.Context, uuid.UUID) error {
	return errors.New("connection reset")
}

func TestOrderService_Checkout_ClearCartFailure(t *testing.T) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	productRepo := newMockProductRepo()

	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, nil))
	svc := NewOrderService(orderRepo, failingClearCartRepo{cartRepo}, productRepo,
		newMockAddressRepo(), newMockUserRepo(), nil, log)
	userID := uuid.New()

	widget := &model.Product{Name: "Widget", Price: decimal.NewFromFloat(3.50), Stock: 10}
	require.NoError(t, productRepo.Create(context.Background(), widget))

	cart, err := cartRepo.GetOrCreateCart(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.UpsertItem(context.Background(), &model.CartItem{
		CartID: cart.ID, ProductID: widget.ID, Quantity: 1,
	}))

	// A failed cart clear is logged but does not undo the placed order.
	order, err := svc.Checkout(context.Background(), userID, dto.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.NotNil(t, orderRepo.orders[order.ID])
	assert.Contains(t, logBuf.String(), "clear cart after checkout failed")
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	svc := newOrderTestService(newMockOrderRepo(), newMockCartRepo(), newMockProductRepo())
	_, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_GetByID(t *testing.T) {
	orderRepo := newMockOrderRepo()
	userID := uuid.New()
	orderID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{
		ID: orderID, UserID: userID, Status: model.OrderStatusPending,
		TotalPrice: decimal.NewFromFloat(99.99), CreatedAt: time.Now(),
	}
	svc := newOrderTestService(orderRepo, newMockCartRepo(), newMockProductRepo())

	order, err := svc.GetByID(context.Background(), orderID, userID)
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	svc := newOrderTestService(newMockOrderRepo(), newMockCartRepo(), newMockProductRepo())
	_, err := svc.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_GetByID_AccessDenied(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orderID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New()}
	svc := newOrderTestService(orderRepo, newMockCartRepo(), newMockProductRepo())

	_, err := svc.GetByID(context.Background(), orderID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestOrderService_ListByUserID(t *testing.T) {
	orderRepo := newMockOrderRepo()
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		id := uuid.New()
		orderRepo.orders[id] = &model.Order{ID: id, UserID: userID}
	}
	svc := newOrderTestService(orderRepo, newMockCartRepo(), newMockProductRepo())

	page, err := svc.ListByUserID(context.Background(), userID, pagination.Request{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 3)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orderID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{ID: orderID, Status: model.OrderStatusPending}
	svc := newOrderTestService(orderRepo, newMockCartRepo(), newMockProductRepo())

	order, err := svc.UpdateStatus(context.Background(), orderID, model.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
}

func TestOrderService_UpdateStatus_InvalidTransition(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orderID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{ID: orderID, Status: model.OrderStatusDelivered}
	svc := newOrderTestService(orderRepo, newMockCartRepo(), newMockProductRepo())

	_, err := svc.UpdateStatus(context.Background(), orderID, model.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.OrderStatusDelivered, orderRepo.orders[orderID].Status)
}

func TestOrderService_UpdateStatus_UnknownStatus(t *testing.T) {
	svc := newOrderTestService(newMockOrderRepo(), newMockCartRepo(), newMockProductRepo())
	_, err := svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatus("teleported"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
