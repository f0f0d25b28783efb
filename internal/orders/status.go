package orders

import (
	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/models"
)

// Order lifecycle: PENDING -> SHIPPED -> DELIVERED, with PENDING and
// SHIPPED both cancelable. DELIVERED and CANCELED are terminal.
var cancelable = map[models.OrderStatus]bool{
	models.OrderStatusPending: true,
	models.OrderStatusShipped: true,
}

// CheckCancelable reports whether an order in the given status may
// transition to CANCELED, distinguishing "already canceled" from
// "past the point of no return".
func CheckCancelable(status models.OrderStatus) error {
	if cancelable[status] {
		return nil
	}
	if status == models.OrderStatusCanceled {
		return database.ErrAlreadyCanceled
	}
	return database.ErrInvalidStateTransition
}
