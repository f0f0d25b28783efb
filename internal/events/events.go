package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated  = "OrderCreated"
	TypeOrderCanceled = "OrderCanceled"
)

// Envelope wraps every published order event. Payload carries the
// type-specific body; the envelope is stable across versions.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type OrderItemPayload struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID     int64              `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      int64              `json:"user_id"`
	Items       []OrderItemPayload `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

type OrderCanceledPayload struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      int64     `json:"user_id"`
	CanceledAt  time.Time `json:"canceled_at"`
}

func NewEnvelope(eventType, producer string, payload interface{}) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producer,
		Payload:      body,
	}, nil
}

func OrderCreated(order *models.Order) OrderCreatedPayload {
	items := make([]OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return OrderCreatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
	}
}

func OrderCanceled(order *models.Order) OrderCanceledPayload {
	payload := OrderCanceledPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
	}
	if order.CanceledAt != nil {
		payload.CanceledAt = *order.CanceledAt
	}
	return payload
}

// PartitionKey keeps every event of one order on the same partition so
// consumers observe them in order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
