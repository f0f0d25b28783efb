package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/shopspring/decimal"
)

// CategorySales aggregates delivered revenue per product category.
type CategorySales struct {
	Category   models.ProductCategory `json:"category"`
	TotalSales decimal.Decimal        `json:"totalSales"`
}

// SalesPerCategory sums order_items.total_price of DELIVERED orders,
// grouped by the referenced product's category.
func SalesPerCategory(ctx context.Context, db *sql.DB, page, pageSize int) ([]CategorySales, Pagination, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT p.category)
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN products p ON p.id = oi.product_id
		 WHERE o.status = $1`,
		models.OrderStatusDelivered).Scan(&total)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("count sales categories: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT p.category, COALESCE(SUM(oi.total_price), 0) AS total_sales
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN products p ON p.id = oi.product_id
		 WHERE o.status = $1
		 GROUP BY p.category
		 ORDER BY total_sales DESC, p.category
		 LIMIT $2 OFFSET $3`,
		models.OrderStatusDelivered, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("sales per category: %w", err)
	}
	defer rows.Close()

	var sales []CategorySales
	for rows.Next() {
		var s CategorySales
		if err := rows.Scan(&s.Category, &s.TotalSales); err != nil {
			return nil, Pagination{}, fmt.Errorf("scan category sales: %w", err)
		}
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, Pagination{}, fmt.Errorf("rows error: %w", err)
	}

	return sales, NewPagination(page, pageSize, total), nil
}
