package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
)

// Store opens transactional units of work against the persistent store.
// A UnitOfWork is constructed per call and discarded after Commit or
// Rollback; it is never shared between requests.
type Store interface {
	Begin(ctx context.Context, opts database.TxOptions) (UnitOfWork, error)
}

// UnitOfWork groups reads and writes into one atomic, all-or-nothing
// transaction. Everything touched through its repositories becomes
// visible together at Commit or not at all.
type UnitOfWork interface {
	Products() ProductRepository
	Orders() OrderRepository
	Stock() StockLedger
	Commit() error
	Rollback() error
}

type ProductRepository interface {
	// GetActive returns the product by id, excluding soft-deleted rows.
	GetActive(ctx context.Context, id int64) (*models.Product, error)
}

// StockLedger is the only component permitted to change a product's
// stock counter. Reserve and Release are atomic with respect to
// concurrent callers on the same product row.
type StockLedger interface {
	Reserve(ctx context.Context, productID int64, quantity int) error
	Release(ctx context.Context, productID int64, quantity int) error
}

type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *models.Order) error
	// GetForUser loads an order and its items scoped to the owning user.
	// A foreign or absent order is ErrOrderNotFound either way.
	GetForUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
	MarkCanceled(ctx context.Context, orderID int64, canceledAt time.Time) error
}

func NewSQL(db *sql.DB) Store {
	return &sqlStore{db: db}
}

type sqlStore struct {
	db *sql.DB
}

func (s *sqlStore) Begin(ctx context.Context, opts database.TxOptions) (UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: opts.IsolationLevel,
		ReadOnly:  opts.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqlUnitOfWork{tx: tx}, nil
}

type sqlUnitOfWork struct {
	tx *sql.Tx
}

func (u *sqlUnitOfWork) Products() ProductRepository { return &sqlProducts{tx: u.tx} }
func (u *sqlUnitOfWork) Orders() OrderRepository     { return &sqlOrders{tx: u.tx} }
func (u *sqlUnitOfWork) Stock() StockLedger          { return &sqlStock{tx: u.tx} }

func (u *sqlUnitOfWork) Commit() error {
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (u *sqlUnitOfWork) Rollback() error {
	return u.tx.Rollback()
}
