package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlow/go-storefront-api/internal/model"
)

func cleanupAll(t *testing.T) {
	t.Helper()
	cleanupTable(t,
		"payments", "order_items", "orders",
		"cart_items", "carts",
		"wishlist_products", "wishlists",
		"addresses", "products", "categories", "shipping_methods", "users",
	)
}

func createTestUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email: email, Password: "hashed",
		FirstName: "John", LastName: "Doe", Role: "customer", IsActive: true,
	}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func createTestProduct(t *testing.T, name string, price float64, stock int) *model.Product {
	t.Helper()
	ctx := context.Background()
	category := &model.Category{Name: name + " category", IsActive: true}
	require.NoError(t, NewCategoryRepository(testPool).Create(ctx, category))

	product := &model.Product{
		Name: name, Description: "test",
		Price: decimal.NewFromFloat(price), Stock: stock,
		CategoryID: category.ID, IsActive: true,
	}
	require.NoError(t, NewProductRepository(testPool).Create(ctx, product))
	return product
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupAll(t)

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "test@example.com")
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupAll(t)

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	product := createTestProduct(t, "Widget", 29.99, 100)
	assert.NotEqual(t, uuid.Nil, product.ID)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", found.Name)
	assert.True(t, found.Price.Equal(decimal.NewFromFloat(29.99)))

	product.Name = "Updated"
	require.NoError(t, repo.Update(ctx, product))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Updated", found.Name)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)
}

func TestProductRepo_List_SearchAndFilter(t *testing.T) {
	cleanupAll(t)

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	widget := createTestProduct(t, "Widget", 9.99, 10)
	createTestProduct(t, "Gadget", 5.00, 10)

	products, total, err := repo.List(ctx, 10, 0, "widg", uuid.Nil, "created_at", "desc")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)

	products, total, err = repo.List(ctx, 10, 0, "", widget.CategoryID, "name", "asc")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, widget.ID, products[0].ID)
}

func TestProductRepo_DecrementStock_Conditional(t *testing.T) {
	cleanupAll(t)

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	product := createTestProduct(t, "Scarce", 10.00, 3)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	locked, err := repo.GetForUpdate(ctx, tx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, locked.Stock)

	require.NoError(t, repo.DecrementStock(ctx, tx, product.ID, 2))

	// Decrementing past zero must fail and leave the row alone.
	err = repo.DecrementStock(ctx, tx, product.ID, 2)
	require.Error(t, err)

	require.NoError(t, tx.Commit(ctx))

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Stock)
}

func TestCartRepo_UpsertAndGetItems(t *testing.T) {
	cleanupAll(t)

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "cart@example.com")
	product := createTestProduct(t, "P", 15.00, 10)

	cart, err := cartRepo.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, cartRepo.UpsertItem(ctx, &model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Quantity: 2,
	}))
	// Upsert overwrites the quantity.
	require.NoError(t, cartRepo.UpsertItem(ctx, &model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Quantity: 5,
	}))

	cartWithItems, err := cartRepo.GetCartWithItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, cartWithItems.Items, 1)
	assert.Equal(t, 5, cartWithItems.Items[0].Quantity)
}

func TestCartRepo_ReplaceItems(t *testing.T) {
	cleanupAll(t)

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "replace@example.com")
	first := createTestProduct(t, "First", 1.00, 10)
	second := createTestProduct(t, "Second", 2.00, 10)

	cart, err := cartRepo.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, cartRepo.UpsertItem(ctx, &model.CartItem{
		CartID: cart.ID, ProductID: first.ID, Quantity: 1,
	}))

	require.NoError(t, cartRepo.ReplaceItems(ctx, cart.ID, []model.CartItem{
		{CartID: cart.ID, ProductID: second.ID, Quantity: 3},
	}))

	cartWithItems, err := cartRepo.GetCartWithItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, cartWithItems.Items, 1)
	assert.Equal(t, second.ID, cartWithItems.Items[0].ProductID)
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	cleanupAll(t)

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "order@example.com")
	product := createTestProduct(t, "P", 25.00, 10)

	tx, err := orderRepo.BeginTx(ctx)
	require.NoError(t, err)

	order := &model.Order{
		UserID: user.ID, Status: model.OrderStatusPending,
		TotalPrice: decimal.NewFromFloat(50), PaymentMethod: "card",
	}
	require.NoError(t, orderRepo.CreateTx(ctx, tx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	require.NoError(t, orderRepo.CreateItemsTx(ctx, tx, []model.OrderItem{
		{OrderID: order.ID, ProductID: product.ID, Quantity: 2, Price: product.Price},
	}))
	require.NoError(t, tx.Commit(ctx))

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Items[0].Price.Equal(decimal.NewFromFloat(25)))
}

func TestPaymentRepo_CreateAndUpdateStatus(t *testing.T) {
	cleanupAll(t)

	orderRepo := NewOrderRepository(testPool)
	paymentRepo := NewPaymentRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "pay@example.com")

	tx, err := orderRepo.BeginTx(ctx)
	require.NoError(t, err)
	order := &model.Order{
		UserID: user.ID, Status: model.OrderStatusPending,
		TotalPrice: decimal.NewFromFloat(10), PaymentMethod: "card",
	}
	require.NoError(t, orderRepo.CreateTx(ctx, tx, order))
	require.NoError(t, tx.Commit(ctx))

	payment := &model.Payment{
		OrderID: order.ID, Amount: decimal.NewFromFloat(10),
		PaymentMethod: "card", Status: model.PaymentStatusPending,
	}
	require.NoError(t, paymentRepo.Create(ctx, payment))

	txnID := "txn_abc"
	require.NoError(t, paymentRepo.UpdateStatus(ctx, payment.ID, model.PaymentStatusSuccessful, &txnID))

	found, err := paymentRepo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccessful, found.Status)
	require.NotNil(t, found.TransactionID)
	assert.Equal(t, "txn_abc", *found.TransactionID)
}

func TestWishlistRepo_AddListRemove(t *testing.T) {
	cleanupAll(t)

	wishlistRepo := NewWishlistRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "wish@example.com")
	product := createTestProduct(t, "Wanted", 99.99, 1)

	wishlist, err := wishlistRepo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, wishlistRepo.AddProduct(ctx, wishlist.ID, product.ID))
	// Adding again is a no-op.
	require.NoError(t, wishlistRepo.AddProduct(ctx, wishlist.ID, product.ID))

	products, err := wishlistRepo.ListProducts(ctx, wishlist.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)

	require.NoError(t, wishlistRepo.RemoveProduct(ctx, wishlist.ID, product.ID))
	err = wishlistRepo.RemoveProduct(ctx, wishlist.ID, product.ID)
	require.Error(t, err)
}
