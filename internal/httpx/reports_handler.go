package httpx

import (
	"database/sql"
	"net/http"

	"github.com/emranffl/gain-solutions/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type ReportsHandler struct {
	DB  *sql.DB
	Log logrus.FieldLogger
}

func (h *ReportsHandler) Register(r *chi.Mux) {
	r.Get("/api/v1/users/top-ranking", h.topRankingUsers)
	r.Get("/api/v1/sales/per-product-category", h.salesPerCategory)
}

func (h *ReportsHandler) topRankingUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := paginationParams(r)

	sort := q.Get("sort")
	if sort == "" {
		sort = "totalOrders"
	}

	users, pagination, err := store.TopRankingUsers(r.Context(), h.DB, sort, q.Get("order"), page, pageSize)
	if err != nil {
		h.Log.WithError(err).Error("top ranking users")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topRankingUsers": users,
		"pagination":      pagination,
	})
}

func (h *ReportsHandler) salesPerCategory(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	sales, pagination, err := store.SalesPerCategory(r.Context(), h.DB, page, pageSize)
	if err != nil {
		h.Log.WithError(err).Error("sales per category")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"salesPerCategory": sales,
		"pagination":       pagination,
	})
}
