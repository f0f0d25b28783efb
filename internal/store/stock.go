package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emranffl/gain-solutions/internal/database"
)

type sqlStock struct {
	tx *sql.Tx
}

// Reserve checks and decrements stock in a single conditional UPDATE so
// that concurrent reservations on the same product row serialize at the
// database. A plain read-then-write here would oversell.
func (s *sqlStock) Reserve(ctx context.Context, productID int64, quantity int) error {
	result, err := s.tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND deleted_at IS NULL
		   AND stock >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	// Zero rows: either the product is gone or the stock is short.
	var stock int
	err = s.tx.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL`,
		productID).Scan(&stock)
	if err == sql.ErrNoRows {
		return fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
	}
	if err != nil {
		return fmt.Errorf("check stock: %w", err)
	}
	return fmt.Errorf("product %d: %w", productID, database.ErrInsufficientStock)
}

// Release undoes a prior successful Reserve. It never checks an upper
// bound: quantity was subtracted from this row earlier in the order's
// lifetime.
func (s *sqlStock) Release(ctx context.Context, productID int64, quantity int) error {
	result, err := s.tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock + $1,
		     updated_at = NOW()
		 WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
	}
	return nil
}
