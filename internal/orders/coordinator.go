package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/emranffl/gain-solutions/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LineItem is one product+quantity request within an order.
type LineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Coordinator runs order creation and cancellation as single atomic
// units of work. Each call opens a fresh UnitOfWork from the injected
// Store; nothing transactional is shared between calls.
type Coordinator struct {
	store      store.Store
	log        logrus.FieldLogger
	maxRetries int
	now        func() time.Time
}

func NewCoordinator(s store.Store, log logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		store:      s,
		log:        log,
		maxRetries: 3,
		now:        time.Now,
	}
}

// CreateOrder validates every line, reserves stock for all of them, and
// persists the order with its items in one transaction. Either every
// line's stock is reserved and the order exists, or nothing changed.
func (c *Coordinator) CreateOrder(ctx context.Context, userID int64, items []LineItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", database.ErrBadRequest)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %d", database.ErrBadRequest, item.ProductID)
		}
	}

	var order *models.Order
	err := c.run(ctx, func(uow store.UnitOfWork) error {
		products := make(map[int64]*models.Product, len(items))

		// Validate every line before touching any stock: a missing
		// product or a short line must leave zero rows and zero
		// decrements behind.
		for _, item := range items {
			product, err := uow.Products().GetActive(ctx, item.ProductID)
			if err != nil {
				return err
			}
			products[item.ProductID] = product
		}
		for _, item := range items {
			if products[item.ProductID].Stock < item.Quantity {
				return fmt.Errorf("product %d: %w", item.ProductID, database.ErrInsufficientStock)
			}
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		total := decimal.Zero
		for _, item := range items {
			if err := uow.Stock().Reserve(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			unitPrice := products[item.ProductID].Price
			linePrice := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			orderItems = append(orderItems, models.OrderItem{
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  unitPrice,
				TotalPrice: linePrice,
			})
			total = total.Add(linePrice)
		}

		order = &models.Order{
			UserID:      userID,
			OrderNumber: newOrderNumber(),
			Status:      models.OrderStatusPending,
			TotalAmount: total,
			Items:       orderItems,
		}
		return uow.Orders().CreateWithItems(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// CancelOrder transitions an order to CANCELED and releases every
// item's stock in one transaction. Orders of other users read as
// absent rather than forbidden.
func (c *Coordinator) CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := c.run(ctx, func(uow store.UnitOfWork) error {
		var err error
		order, err = uow.Orders().GetForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}

		if err := CheckCancelable(order.Status); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := uow.Stock().Release(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		canceledAt := c.now().UTC()
		if err := uow.Orders().MarkCanceled(ctx, order.ID, canceledAt); err != nil {
			return err
		}

		order.Status = models.OrderStatusCanceled
		order.TotalAmount = decimal.Zero
		order.CanceledAt = &canceledAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// run executes fn inside a unit of work, retrying serialization,
// deadlock, and lock-timeout failures with backoff. Domain failures
// are permanent and surface immediately; every failure path rolls the
// whole unit of work back first.
func (c *Coordinator) run(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		uow, err := c.store.Begin(ctx, database.DefaultTxOptions())
		if err != nil {
			return fmt.Errorf("begin unit of work: %w", err)
		}

		if err := fn(uow); err != nil {
			if rbErr := uow.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
			}
			if !database.IsRetryable(err) {
				return err
			}
			if attempt == c.maxRetries {
				return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, err)
			}
			lastErr = err
			if err := c.wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		if err := uow.Commit(); err != nil {
			if !database.IsRetryable(err) {
				return err
			}
			if attempt == c.maxRetries {
				return fmt.Errorf("max retries (%d) exceeded on commit: %w", c.maxRetries, err)
			}
			lastErr = err
			if err := c.wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		return nil
	}

	return lastErr
}

func (c *Coordinator) wait(ctx context.Context, attempt int) error {
	delay := database.Backoff(attempt)
	c.log.WithFields(logrus.Fields{
		"attempt": attempt + 1,
		"delay":   delay,
	}).Warn("retrying unit of work")

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD-%s", uuid.NewString())
}
