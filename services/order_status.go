package services

import (
	"fmt"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/models"
)

// ValidateTransition checks whether an order in status from may be moved to to.
// The lifecycle is a denylist: only the two regressions below are refused.
func ValidateTransition(from, to models.OrderStatus) error {
	if !to.IsWritable() {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("invalid status %q, expected one of %v", to, models.WritableStatuses),
		}
	}

	switch {
	case from.Canonical() == models.StatusSentToWhatsApp && to == models.StatusShipped:
		return &TransitionError{
			From:    string(from),
			To:      string(to),
			Message: "order must be confirmed before it can be shipped",
		}
	case from == models.StatusConfirmed && to == models.StatusSentToWhatsApp:
		return &TransitionError{
			From:    string(from),
			To:      string(to),
			Message: "a confirmed order cannot return to sent_to_whatsapp",
		}
	}
	return nil
}

// transitionUpdates builds the column updates for moving order to status to.
// Milestone columns are stamped only on the first entry into their status.
func transitionUpdates(order *models.Order, to models.OrderStatus, actorID uint, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"status":                 to,
		"last_status_changed_at": now,
	}

	entering := order.Status.Canonical() != to
	if !entering {
		return updates
	}

	switch to {
	case models.StatusConfirmed:
		if order.IntentConfirmedAt == nil {
			updates["intent_confirmed_at"] = now
			if actorID != 0 {
				updates["admin_confirmed_by"] = actorID
			}
		}
	case models.StatusShipped:
		if order.ShippedAt == nil {
			updates["shipped_at"] = now
		}
	case models.StatusDelivered:
		if order.DeliveredAt == nil {
			updates["delivered_at"] = now
		}
	}
	return updates
}
