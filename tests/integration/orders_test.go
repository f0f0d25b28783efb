package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/emranffl/gain-solutions/internal/orders"
	"github.com/emranffl/gain-solutions/internal/store"
	"github.com/shopspring/decimal"
)

func TestCreateOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "create@example.com")
	product1 := createTestProduct(t, db, "Product 1", models.CategoryElectronics, "100.00", 50)
	product2 := createTestProduct(t, db, "Product 2", models.CategoryBooks, "19.99", 30)

	order, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product1.ID, Quantity: 5},
		{ProductID: product2.ID, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if order.ID == 0 {
		t.Error("Order ID should not be 0")
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("Expected status PENDING, got %s", order.Status)
	}

	expectedTotal := decimal.RequireFromString("559.97")
	if !order.TotalAmount.Equal(expectedTotal) {
		t.Errorf("Expected total %s, got %s", expectedTotal, order.TotalAmount)
	}

	itemTotal := store.OrderTotal(order.Items)
	if !order.TotalAmount.Equal(itemTotal) {
		t.Errorf("Order total %s does not match item sum %s", order.TotalAmount, itemTotal)
	}

	if got := productStock(t, db, product1.ID); got != 45 {
		t.Errorf("Expected product 1 stock 45, got %d", got)
	}
	if got := productStock(t, db, product2.ID); got != 27 {
		t.Errorf("Expected product 2 stock 27, got %d", got)
	}
}

func TestCreateOrderPriceSnapshotIsImmutable(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "snapshot@example.com")
	product := createTestProduct(t, db, "Snapshot", models.CategoryHome, "10.00", 10)

	order, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product.ID, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	newPrice := decimal.RequireFromString("99.00")
	if _, err := store.UpdateProduct(ctx, db, product.ID, store.ProductPatch{Price: &newPrice}); err != nil {
		t.Fatalf("Update price: %v", err)
	}

	stored, err := store.GetOrderForUser(ctx, db, order.ID, user.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if !stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Unit price snapshot changed to %s", stored.Items[0].UnitPrice)
	}
}

func TestCreateOrderInsufficientStockIsAtomic(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "atomic@example.com")
	product1 := createTestProduct(t, db, "Plenty", models.CategoryGrocery, "10.00", 50)
	product2 := createTestProduct(t, db, "Scarce", models.CategoryGrocery, "5.00", 3)

	_, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product1.ID, Quantity: 5},
		{ProductID: product2.ID, Quantity: 10},
	})
	if !errors.Is(err, database.ErrInsufficientStock) {
		t.Fatalf("Expected insufficient stock error, got: %v", err)
	}

	if got := productStock(t, db, product1.ID); got != 50 {
		t.Errorf("First line stock changed to %d, want 50", got)
	}
	if got := productStock(t, db, product2.ID); got != 3 {
		t.Errorf("Second line stock changed to %d, want 3", got)
	}

	var orderCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("Count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("Expected zero order rows, got %d", orderCount)
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "unknown@example.com")
	product := createTestProduct(t, db, "Known", models.CategoryBooks, "10.00", 10)

	_, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product.ID, Quantity: 1},
		{ProductID: product.ID + 1000, Quantity: 1},
	})
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Fatalf("Expected product not found, got: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 10 {
		t.Errorf("Stock changed to %d, want 10", got)
	}
}

func TestConcurrentOrderCreation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "concurrent@example.com")
	product := createTestProduct(t, db, "Contended", models.CategoryElectronics, "100.00", 5)

	concurrency := 10
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
				{ProductID: product.ID, Quantity: 1},
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	insufficientStockCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, database.ErrInsufficientStock):
			insufficientStockCount++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 5 {
		t.Errorf("Expected 5 successful orders, got %d", successCount)
	}
	if insufficientStockCount != 5 {
		t.Errorf("Expected 5 insufficient-stock failures, got %d", insufficientStockCount)
	}
	if got := productStock(t, db, product.ID); got != 0 {
		t.Errorf("Expected final stock 0, got %d", got)
	}
}

func TestCancelOrderRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "cancel@example.com")
	product := createTestProduct(t, db, "Returnable", models.CategoryFashion, "40.00", 12)

	order, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product.ID, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 8 {
		t.Fatalf("Expected stock 8 after create, got %d", got)
	}

	canceled, err := coordinator.CancelOrder(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("Cancel order: %v", err)
	}

	if canceled.Status != models.OrderStatusCanceled {
		t.Errorf("Expected status CANCELED, got %s", canceled.Status)
	}
	if !canceled.TotalAmount.IsZero() {
		t.Errorf("Expected zero total, got %s", canceled.TotalAmount)
	}
	if canceled.CanceledAt == nil {
		t.Error("Expected canceled_at to be set")
	}
	if got := productStock(t, db, product.ID); got != 12 {
		t.Errorf("Expected stock restored to 12, got %d", got)
	}

	stored, err := store.GetOrderForUser(ctx, db, order.ID, user.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if stored.Status != models.OrderStatusCanceled || !stored.TotalAmount.IsZero() {
		t.Errorf("Persisted order not canceled: status=%s total=%s", stored.Status, stored.TotalAmount)
	}
}

func TestCancelAlreadyCanceled(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "double@example.com")
	product := createTestProduct(t, db, "Once", models.CategoryBeauty, "15.00", 6)

	order, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product.ID, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if _, err := coordinator.CancelOrder(ctx, user.ID, order.ID); err != nil {
		t.Fatalf("First cancel: %v", err)
	}

	_, err = coordinator.CancelOrder(ctx, user.ID, order.ID)
	if !errors.Is(err, database.ErrAlreadyCanceled) {
		t.Fatalf("Expected already-canceled error, got: %v", err)
	}

	if got := productStock(t, db, product.ID); got != 6 {
		t.Errorf("Stock double-released: got %d, want 6", got)
	}
}

func TestCancelDeliveredOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "delivered@example.com")
	product := createTestProduct(t, db, "Gone", models.CategorySports, "60.00", 10)

	order, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product.ID, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	setOrderStatus(t, db, order.ID, models.OrderStatusDelivered)

	_, err = coordinator.CancelOrder(ctx, user.ID, order.ID)
	if !errors.Is(err, database.ErrInvalidStateTransition) {
		t.Fatalf("Expected invalid-state-transition error, got: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 7 {
		t.Errorf("Stock changed to %d, want 7", got)
	}
}

func TestCancelShippedOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "shipped@example.com")
	product := createTestProduct(t, db, "EnRoute", models.CategoryHome, "30.00", 9)

	order, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
		{ProductID: product.ID, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	setOrderStatus(t, db, order.ID, models.OrderStatusShipped)

	canceled, err := coordinator.CancelOrder(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("Cancel shipped order: %v", err)
	}
	if canceled.Status != models.OrderStatusCanceled {
		t.Errorf("Expected CANCELED, got %s", canceled.Status)
	}
	if got := productStock(t, db, product.ID); got != 9 {
		t.Errorf("Expected stock restored to 9, got %d", got)
	}
}

func TestCancelOrderOwnership(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")
	product := createTestProduct(t, db, "Private", models.CategoryBooks, "20.00", 5)

	order, err := coordinator.CreateOrder(ctx, owner.ID, []orders.LineItem{
		{ProductID: product.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	_, err = coordinator.CancelOrder(ctx, stranger.ID, order.ID)
	if !errors.Is(err, database.ErrOrderNotFound) {
		t.Fatalf("Expected not-found error for foreign order, got: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 4 {
		t.Errorf("Stock changed to %d, want 4", got)
	}
}

func TestListOrdersCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	coordinator := newTestCoordinator(db)

	user := createTestUser(t, db, "list@example.com")
	product := createTestProduct(t, db, "Bulk", models.CategoryGrocery, "2.00", 100)

	for i := 0; i < 15; i++ {
		_, err := coordinator.CreateOrder(ctx, user.ID, []orders.LineItem{
			{ProductID: product.ID, Quantity: 1},
		})
		if err != nil {
			t.Fatalf("Create order %d: %v", i, err)
		}
	}

	page1, err := store.ListOrdersCursor(ctx, db, user.ID, "", 10)
	if err != nil {
		t.Fatalf("List orders page 1: %v", err)
	}
	if !page1.HasMore {
		t.Error("Page 1 should have more results")
	}
	if page1.NextCursor == "" {
		t.Error("Page 1 should have a next cursor")
	}

	page2, err := store.ListOrdersCursor(ctx, db, user.ID, page1.NextCursor, 10)
	if err != nil {
		t.Fatalf("List orders page 2: %v", err)
	}
	if page2.HasMore {
		t.Error("Page 2 should not have more results")
	}
}
