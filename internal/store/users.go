package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/shopspring/decimal"
)

func CreateUser(ctx context.Context, db *sql.DB, name, email, passwordHash string) (*models.User, error) {
	user := &models.User{}

	err := db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING id, name, email, password_hash, created_at, updated_at`,
		name, email, passwordHash).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}

	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM users
		 WHERE id = $1`,
		id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// TopUser is a reporting row: a customer ranked by activity across
// their non-canceled orders.
type TopUser struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	TotalOrders int             `json:"totalOrders"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}

var topUserSortColumns = map[string]string{
	"totalOrders": "total_orders",
	"totalSpent":  "total_spent",
	"name":        "u.name",
	"createdAt":   "u.created_at",
}

// TopRankingUsers lists users holding at least one non-canceled order,
// with their order count and total spend.
func TopRankingUsers(ctx context.Context, db *sql.DB, sort, order string, page, pageSize int) ([]TopUser, Pagination, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM orders WHERE canceled_at IS NULL`).Scan(&total)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("count ranked users: %w", err)
	}

	sortColumn, ok := topUserSortColumns[sort]
	if !ok {
		sortColumn = "total_orders"
	}
	sortOrder := "DESC"
	if strings.EqualFold(order, "asc") {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.name, u.email,
		       COUNT(o.id) AS total_orders,
		       COALESCE(SUM(o.total_amount), 0) AS total_spent
		FROM users u
		JOIN orders o ON o.user_id = u.id AND o.canceled_at IS NULL
		GROUP BY u.id, u.name, u.email
		ORDER BY %s %s, u.id
		LIMIT $1 OFFSET $2`, sortColumn, sortOrder)

	rows, err := db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list top users: %w", err)
	}
	defer rows.Close()

	var users []TopUser
	for rows.Next() {
		var u TopUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.TotalOrders, &u.TotalSpent); err != nil {
			return nil, Pagination{}, fmt.Errorf("scan top user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, Pagination{}, fmt.Errorf("rows error: %w", err)
	}

	return users, NewPagination(page, pageSize, total), nil
}
