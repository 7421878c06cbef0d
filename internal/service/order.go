package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/model"
	"github.com/harlow/go-storefront-api/internal/pagination"
	"github.com/harlow/go-storefront-api/internal/repository"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAccessDenied  = errors.New("access denied")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrAddressNotOwned    = errors.New("shipping address does not belong to user")
)

type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	addressRepo repository.AddressRepository
	userRepo    repository.UserRepository
	amqpCh      *amqp.Channel
	log         *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	addressRepo repository.AddressRepository,
	userRepo repository.UserRepository,
	amqpCh *amqp.Channel,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		userRepo:    userRepo,
		amqpCh:      amqpCh,
		log:         log,
	}
}

// PlaceOrder runs the whole placement in one transaction: every product
// row is locked, the stock check and decrement happen under that lock,
// and the order header plus items commit together or not at all. Prices
// are snapshotted from the catalog, never taken from the client.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*model.Order, error) {
	if req.ShippingAddressID != nil {
		addr, err := s.addressRepo.GetByID(ctx, *req.ShippingAddressID)
		if err != nil {
			return nil, fmt.Errorf("get address: %w", err)
		}
		if addr == nil {
			return nil, ErrAddressNotFound
		}
		if addr.UserID != userID {
			return nil, ErrAddressNotOwned
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// A product may appear on several request lines; order_items is keyed
	// by (order_id, product_id), so duplicates collapse into one line with
	// their quantities summed.
	lines := make([]dto.OrderLineRequest, 0, len(req.Items))
	seen := make(map[uuid.UUID]int)
	for _, line := range req.Items {
		if i, ok := seen[line.ProductID]; ok {
			lines[i].Quantity += line.Quantity
			continue
		}
		seen[line.ProductID] = len(lines)
		lines = append(lines, line)
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.productRepo.GetForUpdate(ctx, tx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
		}

		if err := s.productRepo.DecrementStock(ctx, tx, product.ID, line.Quantity); err != nil {
			return nil, err
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}

	order := &model.Order{
		UserID:            userID,
		ShippingAddressID: req.ShippingAddressID,
		Status:            model.OrderStatusPending,
		TotalPrice:        total,
		PaymentMethod:     req.PaymentMethod,
	}
	if err := s.orderRepo.CreateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.orderRepo.CreateItemsTx(ctx, tx, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	order.Items = items

	s.publishOrderCreated(ctx, order)
	return order, nil
}

// Checkout places an order from the caller's cart and clears it.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*model.Order, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cartWithItems, err := s.cartRepo.GetCartWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if cartWithItems == nil || len(cartWithItems.Items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]dto.OrderLineRequest, 0, len(cartWithItems.Items))
	for _, item := range cartWithItems.Items {
		lines = append(lines, dto.OrderLineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := s.PlaceOrder(ctx, userID, dto.CreateOrderRequest{
		Items:             lines,
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.ClearCart(ctx, cart.ID); err != nil {
		// The order is already committed; a stale cart is not worth
		// failing the checkout over, but it must show up in the logs.
		s.log.Warn("clear cart after checkout failed", "cart_id", cart.ID, "order_id", order.ID, "error", err)
	}
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
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
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID, req pagination.Request) (*pagination.Page[model.Order], error) {
	orders, total, err := s.orderRepo.ListByUserID(ctx, userID, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return pagination.New(orders, req.Page, req.Size, total)
}

// UpdateStatus enforces the order lifecycle; a target outside the enum or
// off the allowed-transitions table is rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, target)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, target); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = target
	return order, nil
}

// Best effort; a publish failure never fails the order.
func (s *OrderService) publishOrderCreated(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	email := ""
	if user, err := s.userRepo.GetByID(ctx, order.UserID); err == nil && user != nil {
		email = user.Email
	}
	msg, _ := json.Marshal(model.OrderMessage{OrderID: order.ID, UserID: order.UserID, Email: email})
	_ = s.amqpCh.PublishWithContext(ctx, "", "orders", false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
}
