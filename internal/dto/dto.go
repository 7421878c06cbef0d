package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harlow/go-storefront-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- User ---

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
}

type CreateAddressRequest struct {
	StreetAddress string `json:"street_address" binding:"required"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required"`
	PostalCode    string `json:"postal_code" binding:"required"`
	Country       string `json:"country" binding:"required"`
	IsDefault     bool   `json:"is_default"`
}

type AddressResponse struct {
	ID            uuid.UUID `json:"id"`
	StreetAddress string    `json:"street_address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	IsDefault     bool      `json:"is_default"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock" binding:"min=0"`
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	IsActive    *bool            `json:"is_active"`
}

type ListProductsRequest struct {
	Page       int       `form:"page,default=1" binding:"min=1"`
	Size       int       `form:"size,default=10" binding:"min=1,max=100"`
	Search     string    `form:"search"`
	CategoryID uuid.UUID `form:"category_id"`
	Sort       string    `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order      string    `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  uuid.UUID       `json:"category_id"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// --- Shipping ---

type CreateShippingMethodRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost" binding:"required"`
}

type UpdateShippingMethodRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Cost        *decimal.Decimal `json:"cost"`
	IsActive    *bool            `json:"is_active"`
}

type ShippingMethodResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	IsActive    bool            `json:"is_active"`
}

// --- Cart ---

type CartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type ReplaceCartRequest struct {
	Items []CartItemRequest `json:"items" binding:"required,dive"`
}

type CartResponse struct {
	ID    uuid.UUID          `json:"id"`
	Items []CartItemResponse `json:"items"`
}

type CartItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// --- Order ---

type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	Items             []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddressID *uuid.UUID         `json:"shipping_address_id"`
	PaymentMethod     string             `json:"payment_method" binding:"required"`
}

type CheckoutRequest struct {
	ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
	PaymentMethod     string     `json:"payment_method" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	UserID            uuid.UUID           `json:"user_id"`
	ShippingAddressID *uuid.UUID          `json:"shipping_address_id,omitempty"`
	Status            model.OrderStatus   `json:"status"`
	TotalPrice        decimal.Decimal     `json:"total_price"`
	PaymentMethod     string              `json:"payment_method"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// --- Payment ---

type CreatePaymentRequest struct {
	OrderID       uuid.UUID       `json:"order_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	Status        string  `json:"status" binding:"required"`
	TransactionID *string `json:"transaction_id"`
}

type PaymentResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	Amount        decimal.Decimal     `json:"amount"`
	PaymentMethod string              `json:"payment_method"`
	Status        model.PaymentStatus `json:"status"`
	TransactionID *string             `json:"transaction_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// --- Wishlist ---

type WishlistItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

type WishlistResponse struct {
	ID       uuid.UUID         `json:"id"`
	Products []ProductResponse `json:"products"`
}
