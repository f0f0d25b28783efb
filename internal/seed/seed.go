// Package seed generates development data: users, products, and
// historical orders whose stock movements match what the coordinator
// would have produced.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/shopspring/decimal"
)

const batchSize = 500

var (
	firstNames = []string{"Alice", "Bob", "Carol", "David", "Emma", "Farid", "Grace", "Hasan", "Irene", "Jamal", "Kiara", "Liam", "Mina", "Nadia", "Omar", "Priya"}
	lastNames  = []string{"Ahmed", "Brown", "Chowdhury", "Davis", "Evans", "Ferdous", "Garcia", "Hossain", "Islam", "Khan", "Lopez", "Miller", "Nguyen", "Rahman", "Smith", "Wong"}
	adjectives = []string{"Sleek", "Rustic", "Modern", "Compact", "Ergonomic", "Durable", "Handmade", "Premium", "Classic", "Smart"}
	nouns      = []string{"Chair", "Lamp", "Keyboard", "Backpack", "Blender", "Notebook", "Speaker", "Kettle", "Watch", "Bottle"}
)

func Users(ctx context.Context, db *sql.DB, count int, passwordHash string) error {
	for offset := 0; offset < count; offset += batchSize {
		n := min(batchSize, count-offset)
		err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO users (name, email, password_hash, created_at, updated_at)
				 VALUES ($1, $2, $3, NOW(), NOW())`)
			if err != nil {
				return err
			}
			defer stmt.Close()

			for i := 0; i < n; i++ {
				name := fmt.Sprintf("%s %s",
					firstNames[rand.Intn(len(firstNames))],
					lastNames[rand.Intn(len(lastNames))])
				email := fmt.Sprintf("user%d@example.com", offset+i+1)
				if _, err := stmt.ExecContext(ctx, name, email, passwordHash); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed users batch at %d: %w", offset, err)
		}
	}
	return nil
}

func Products(ctx context.Context, db *sql.DB, count int) error {
	for offset := 0; offset < count; offset += batchSize {
		n := min(batchSize, count-offset)
		err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO products (name, description, category, price, stock, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`)
			if err != nil {
				return err
			}
			defer stmt.Close()

			for i := 0; i < n; i++ {
				name := fmt.Sprintf("%s %s",
					adjectives[rand.Intn(len(adjectives))],
					nouns[rand.Intn(len(nouns))])
				price := decimal.NewFromInt(int64(rand.Intn(99900) + 100)).Div(decimal.NewFromInt(100))
				category := models.Categories[rand.Intn(len(models.Categories))]
				stock := rand.Intn(100) + 1
				if _, err := stmt.ExecContext(ctx, name, "Seeded product", category, price, stock); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed products batch at %d: %w", offset, err)
		}
	}
	return nil
}

var statuses = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
	models.OrderStatusCanceled,
}

func Orders(ctx context.Context, db *sql.DB, count int) error {
	var minUserID, maxUserID, minProductID, maxProductID int64
	if err := db.QueryRowContext(ctx, `SELECT MIN(id), MAX(id) FROM users`).Scan(&minUserID, &maxUserID); err != nil {
		return fmt.Errorf("user id range: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT MIN(id), MAX(id) FROM products`).Scan(&minProductID, &maxProductID); err != nil {
		return fmt.Errorf("product id range: %w", err)
	}

	for offset := 0; offset < count; offset += batchSize {
		n := min(batchSize, count-offset)
		err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
			for i := 0; i < n; i++ {
				if err := seedOrder(ctx, tx, minUserID, maxUserID, minProductID, maxProductID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed orders batch at %d: %w", offset, err)
		}
	}
	return nil
}

// seedOrder inserts one historical order. Non-canceled orders consume
// stock exactly as a live order would; canceled orders keep their items
// but leave stock released, matching the cancel path.
func seedOrder(ctx context.Context, tx *sql.Tx, minUserID, maxUserID, minProductID, maxProductID int64) error {
	userID := minUserID + rand.Int63n(maxUserID-minUserID+1)
	status := statuses[rand.Intn(len(statuses))]
	createdAt := time.Now().Add(-time.Duration(rand.Intn(30*24)) * time.Hour)
	consumesStock := status != models.OrderStatusCanceled

	total := decimal.Zero
	type line struct {
		productID int64
		quantity  int
		unitPrice decimal.Decimal
		linePrice decimal.Decimal
	}
	lines := make([]line, 0, 3)
	for i := 0; i < rand.Intn(3)+1; i++ {
		productID := minProductID + rand.Int63n(maxProductID-minProductID+1)
		var unitPrice decimal.Decimal
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT price, stock FROM products WHERE id = $1`, productID).Scan(&unitPrice, &stock)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return err
		}

		quantity := rand.Intn(5) + 1
		if consumesStock {
			if stock == 0 {
				continue
			}
			quantity = min(quantity, stock)
			result, err := tx.ExecContext(ctx,
				`UPDATE products
				 SET stock = stock - $1, updated_at = NOW()
				 WHERE id = $2 AND stock >= $1`,
				quantity, productID)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				continue
			}
		}

		linePrice := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		lines = append(lines, line{productID, quantity, unitPrice, linePrice})
		total = total.Add(linePrice)
	}
	if len(lines) == 0 {
		return nil
	}

	var canceledAt *time.Time
	if status == models.OrderStatusCanceled {
		t := createdAt.Add(time.Duration(rand.Intn(24)+1) * time.Hour)
		canceledAt = &t
		total = decimal.Zero
	}

	var orderID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_number, status, total_amount, created_at, updated_at, canceled_at)
		 VALUES ($1, $2, $3, $4, $5, $5, $6)
		 RETURNING id`,
		userID, fmt.Sprintf("ORD-SEED-%d-%d", createdAt.UnixNano(), rand.Intn(100000)),
		status, total, createdAt, canceledAt).Scan(&orderID)
	if err != nil {
		return err
	}

	for _, l := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, l.productID, l.quantity, l.unitPrice, l.linePrice, createdAt)
		if err != nil {
			return err
		}
	}
	return nil
}
