package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/shopspring/decimal"
)

type sqlOrders struct {
	tx *sql.Tx
}

func (r *sqlOrders) CreateWithItems(ctx context.Context, order *models.Order) error {
	err := r.tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_number, status, total_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		order.UserID, order.OrderNumber, order.Status, order.TotalAmount).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := r.tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 RETURNING id, created_at`,
			item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice).Scan(
			&item.ID,
			&item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}

	return nil
}

func (r *sqlOrders) GetForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order := &models.Order{}

	err := r.tx.QueryRowContext(ctx,
		`SELECT id, user_id, order_number, status, total_amount, created_at, updated_at, canceled_at
		 FROM orders
		 WHERE id = $1 AND user_id = $2
		 FOR UPDATE`,
		orderID, userID).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.CanceledAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := scanOrderItems(ctx, r.tx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *sqlOrders) MarkCanceled(ctx context.Context, orderID int64, canceledAt time.Time) error {
	result, err := r.tx.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1,
		     total_amount = 0,
		     canceled_at = $2,
		     updated_at = NOW()
		 WHERE id = $3`,
		models.OrderStatusCanceled, canceledAt, orderID)
	if err != nil {
		return fmt.Errorf("mark order canceled: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrOrderNotFound
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanOrderItems(ctx context.Context, q queryer, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price, total_price, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// GetOrderForUser is the read path used by the API layer. Like the
// cancel path, it scopes by owner so a foreign order reads as absent.
func GetOrderForUser(ctx context.Context, db *sql.DB, orderID, userID int64) (*models.Order, error) {
	order := &models.Order{}

	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, order_number, status, total_amount, created_at, updated_at, canceled_at
		 FROM orders
		 WHERE id = $1 AND user_id = $2`,
		orderID, userID).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.CanceledAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := scanOrderItems(ctx, db, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// OrderTotal recomputes an order's total from its line items.
func OrderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, user_id, order_number, status, total_amount, created_at, updated_at, canceled_at
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.OrderNumber,
			&order.Status,
			&order.TotalAmount,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.CanceledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
