package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/emranffl/gain-solutions/internal/store"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store whose units of work hold a global
// lock from Begin to Commit/Rollback, standing in for the database's
// row-level serialization. Writes stay staged until Commit.
type fakeStore struct {
	mu          sync.Mutex
	products    map[int64]*models.Product
	orders      map[int64]*models.Order
	nextOrderID int64
	nextItemID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[int64]*models.Product),
		orders:   make(map[int64]*models.Order),
	}
}

func (s *fakeStore) addProduct(id int64, price string, stock int) {
	s.products[id] = &models.Product{
		ID:       id,
		Name:     fmt.Sprintf("product-%d", id),
		Category: models.CategoryElectronics,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
}

func (s *fakeStore) stockOf(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *fakeStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *fakeStore) Begin(ctx context.Context, opts database.TxOptions) (store.UnitOfWork, error) {
	s.mu.Lock()
	stock := make(map[int64]int, len(s.products))
	for id, p := range s.products {
		stock[id] = p.Stock
	}
	return &fakeUOW{s: s, stock: stock}, nil
}

type fakeUOW struct {
	s      *fakeStore
	stock  map[int64]int
	staged []func()
	done   bool
}

func (u *fakeUOW) Products() store.ProductRepository { return u }
func (u *fakeUOW) Orders() store.OrderRepository     { return u }
func (u *fakeUOW) Stock() store.StockLedger          { return u }

func (u *fakeUOW) Commit() error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.done = true
	for id, stock := range u.stock {
		u.s.products[id].Stock = stock
	}
	for _, apply := range u.staged {
		apply()
	}
	u.s.mu.Unlock()
	return nil
}

func (u *fakeUOW) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	u.s.mu.Unlock()
	return nil
}

func (u *fakeUOW) GetActive(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := u.s.products[id]
	if !ok || p.DeletedAt != nil {
		return nil, fmt.Errorf("product %d: %w", id, database.ErrProductNotFound)
	}
	copied := *p
	copied.Stock = u.stock[id]
	return &copied, nil
}

func (u *fakeUOW) Reserve(ctx context.Context, productID int64, quantity int) error {
	p, ok := u.s.products[productID]
	if !ok || p.DeletedAt != nil {
		return fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
	}
	if u.stock[productID] < quantity {
		return fmt.Errorf("product %d: %w", productID, database.ErrInsufficientStock)
	}
	u.stock[productID] -= quantity
	return nil
}

func (u *fakeUOW) Release(ctx context.Context, productID int64, quantity int) error {
	if _, ok := u.s.products[productID]; !ok {
		return fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
	}
	u.stock[productID] += quantity
	return nil
}

func (u *fakeUOW) CreateWithItems(ctx context.Context, order *models.Order) error {
	u.s.nextOrderID++
	order.ID = u.s.nextOrderID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		u.s.nextItemID++
		order.Items[i].ID = u.s.nextItemID
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = order.CreatedAt
	}

	stored := cloneOrder(order)
	u.staged = append(u.staged, func() {
		u.s.orders[stored.ID] = stored
	})
	return nil
}

func (u *fakeUOW) GetForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, ok := u.s.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, database.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (u *fakeUOW) MarkCanceled(ctx context.Context, orderID int64, canceledAt time.Time) error {
	order, ok := u.s.orders[orderID]
	if !ok {
		return database.ErrOrderNotFound
	}
	at := canceledAt
	u.staged = append(u.staged, func() {
		order.Status = models.OrderStatusCanceled
		order.TotalAmount = decimal.Zero
		order.CanceledAt = &at
	})
	return nil
}

func cloneOrder(order *models.Order) *models.Order {
	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	return &copied
}
