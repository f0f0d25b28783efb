package httpx

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/emranffl/gain-solutions/internal/events"
	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/emranffl/gain-solutions/internal/orders"
	"github.com/emranffl/gain-solutions/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// StatusCache caches order status per owning user. cache.Client is the
// production implementation.
type StatusCache interface {
	GetOrderStatus(ctx context.Context, userID, orderID int64) (models.OrderStatus, bool)
	SetOrderStatus(ctx context.Context, userID, orderID int64, status models.OrderStatus) error
}

type OrdersHandler struct {
	DB          *sql.DB
	Coordinator *orders.Coordinator
	Producer    *events.Producer
	Cache       StatusCache
	Log         logrus.FieldLogger
	Service     string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(RequireUser(h.DB))
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Get("/{id}/status", h.getOrderStatus)
		r.Delete("/{id}", h.cancelOrder)
	})
}

type createOrderRequest struct {
	Items []orders.LineItem `json:"items"`
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.Coordinator.CreateOrder(r.Context(), userID, req.Items)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", userID).Info("create order rejected")
		writeDomainError(w, err)
		return
	}

	h.cacheStatus(r, order)
	h.publish(events.TypeOrderCreated, events.OrderCreated(order), order.ID)

	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.Coordinator.CancelOrder(r.Context(), userID, orderID)
	if err != nil {
		h.Log.WithError(err).WithFields(logrus.Fields{
			"user_id":  userID,
			"order_id": orderID,
		}).Info("cancel order rejected")
		writeDomainError(w, err)
		return
	}

	h.cacheStatus(r, order)
	h.publish(events.TypeOrderCanceled, events.OrderCanceled(order), order.ID)

	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := store.GetOrderForUser(r.Context(), h.DB, orderID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.cacheStatus(r, order)
	writeJSON(w, http.StatusOK, order)
}

// getOrderStatus serves from the cache when it can; the database
// remains the source of truth on a miss. Cache keys are scoped to the
// caller, so a hit proves ownership as much as the database path does.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	if h.Cache != nil {
		if status, ok := h.Cache.GetOrderStatus(r.Context(), userID, orderID); ok {
			writeJSON(w, http.StatusOK, map[string]interface{}{"order_id": orderID, "status": status})
			return
		}
	}

	order, err := store.GetOrderForUser(r.Context(), h.DB, orderID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.cacheStatus(r, order)
	writeJSON(w, http.StatusOK, map[string]interface{}{"order_id": orderID, "status": order.Status})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	page, err := store.ListOrdersCursor(r.Context(), h.DB, userID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) cacheStatus(r *http.Request, order *models.Order) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.SetOrderStatus(r.Context(), order.UserID, order.ID, order.Status); err != nil {
		h.Log.WithError(err).WithField("order_id", order.ID).Warn("cache order status")
	}
}

func (h *OrdersHandler) publish(eventType string, payload interface{}, orderID int64) {
	if h.Producer == nil {
		return
	}
	env, err := events.NewEnvelope(eventType, h.Service, payload)
	if err != nil {
		h.Log.WithError(err).Error("build event envelope")
		return
	}
	h.Producer.Publish(events.PartitionKey(orderID), env)
}
