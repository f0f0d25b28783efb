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

const productColumns = `id, name, description, category, price, stock, created_at, updated_at, deleted_at`

type sqlProducts struct {
	tx *sql.Tx
}

func (r *sqlProducts) GetActive(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}

	err := r.tx.QueryRowContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE id = $1 AND deleted_at IS NULL`,
		id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %d: %w", id, database.ErrProductNotFound)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func CreateProduct(ctx context.Context, db *sql.DB, name, description string, category models.ProductCategory, price decimal.Decimal, stock int) (*models.Product, error) {
	product := &models.Product{}

	err := db.QueryRowContext(ctx,
		`INSERT INTO products (name, description, category, price, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+productColumns,
		name, description, category, price, stock).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	err := db.QueryRowContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE id = $1 AND deleted_at IS NULL`,
		id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %d: %w", id, database.ErrProductNotFound)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// ProductPatch carries partial updates; nil fields keep the stored value.
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *models.ProductCategory
	Price       *decimal.Decimal
	Stock       *int
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, patch ProductPatch) (*models.Product, error) {
	product := &models.Product{}

	err := db.QueryRowContext(ctx,
		`UPDATE products
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     category = COALESCE($4, category),
		     price = COALESCE($5, price),
		     stock = COALESCE($6, stock),
		     updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+productColumns,
		id, patch.Name, patch.Description, categoryArg(patch.Category), patch.Price, patch.Stock).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %d: %w", id, database.ErrProductNotFound)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func categoryArg(c *models.ProductCategory) interface{} {
	if c == nil {
		return nil
	}
	return string(*c)
}

// SoftDeleteProduct hides the product from the catalog and from order
// creation. Existing order items keep referencing it.
func SoftDeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, database.ErrProductNotFound)
	}
	return nil
}

// ProductFilter narrows catalog listings. Zero values mean "no filter".
type ProductFilter struct {
	Query    string
	Category models.ProductCategory
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Price    *decimal.Decimal
	Sort     string
	Order    string
}

var productSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
}

func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter, page, pageSize int) ([]models.ProductView, Pagination, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	switch {
	case filter.MinPrice != nil && filter.MaxPrice != nil:
		args = append(args, *filter.MinPrice)
		where = append(where, fmt.Sprintf("price >= $%d", len(args)))
		args = append(args, *filter.MaxPrice)
		where = append(where, fmt.Sprintf("price <= $%d", len(args)))
	case filter.MinPrice != nil:
		args = append(args, *filter.MinPrice)
		where = append(where, fmt.Sprintf("price >= $%d", len(args)))
	case filter.MaxPrice != nil:
		args = append(args, *filter.MaxPrice)
		where = append(where, fmt.Sprintf("price <= $%d", len(args)))
	case filter.Price != nil:
		args = append(args, *filter.Price)
		where = append(where, fmt.Sprintf("price = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("count products: %w", err)
	}

	sortColumn, ok := productSortColumns[filter.Sort]
	if !ok {
		sortColumn = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		sortOrder = "ASC"
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
		SELECT `+productColumns+`
		FROM products
		WHERE %s
		ORDER BY %s %s, id %s
		LIMIT $%d OFFSET $%d`,
		whereClause, sortColumn, sortOrder, sortOrder, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var views []models.ProductView
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Category,
			&product.Price,
			&product.Stock,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.DeletedAt,
		)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("scan product: %w", err)
		}
		views = append(views, product.View())
	}

	if err := rows.Err(); err != nil {
		return nil, Pagination{}, fmt.Errorf("rows error: %w", err)
	}

	return views, NewPagination(page, pageSize, total), nil
}
