package httpx

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/emranffl/gain-solutions/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	DB  *sql.DB
	Log logrus.FieldLogger
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)
		r.Group(func(r chi.Router) {
			r.Use(RequireUser(h.DB))
			r.Put("/", h.upsertProduct)
			r.Delete("/{id}", h.deleteProduct)
		})
	})
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := paginationParams(r)

	filter := store.ProductFilter{
		Query:    q.Get("q"),
		Category: models.ProductCategory(q.Get("category")),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
		MinPrice: decimalParam(q.Get("minPrice")),
		MaxPrice: decimalParam(q.Get("maxPrice")),
		Price:    decimalParam(q.Get("price")),
	}

	products, pagination, err := store.ListProducts(r.Context(), h.DB, filter, page, pageSize)
	if err != nil {
		h.Log.WithError(err).Error("list products")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products":   products,
		"pagination": pagination,
	})
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product.View())
}

type upsertProductRequest struct {
	ID          *int64                  `json:"id"`
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Category    *models.ProductCategory `json:"category"`
	Price       *decimal.Decimal        `json:"price"`
	Stock       *int                    `json:"stock"`
}

// upsertProduct creates a product when no id is given, otherwise
// applies a partial update to the existing one.
func (h *CatalogHandler) upsertProduct(w http.ResponseWriter, r *http.Request) {
	var req upsertProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Category != nil && !models.ValidCategory(*req.Category) {
		writeError(w, http.StatusBadRequest, "unknown product category")
		return
	}

	if req.ID == nil {
		if req.Name == nil || req.Category == nil || req.Price == nil || req.Stock == nil {
			writeError(w, http.StatusBadRequest, "name, category, price and stock are required")
			return
		}
		if req.Price.IsNegative() || *req.Stock < 0 {
			writeError(w, http.StatusBadRequest, "price and stock must not be negative")
			return
		}

		description := ""
		if req.Description != nil {
			description = *req.Description
		}
		product, err := store.CreateProduct(r.Context(), h.DB, *req.Name, description, *req.Category, *req.Price, *req.Stock)
		if err != nil {
			h.Log.WithError(err).Error("create product")
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product.View())
		return
	}

	if req.Price != nil && req.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	product, err := store.UpdateProduct(r.Context(), h.DB, *req.ID, store.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product.View())
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := store.SoftDeleteProduct(r.Context(), h.DB, id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func paginationParams(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(q.Get("limit"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return page, pageSize
}

func decimalParam(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}
