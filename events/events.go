// Package events carries order lifecycle notifications to Kafka and to the
// live admin feed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// OrderEvent describes a change to one order. It never carries customer PII.
type OrderEvent struct {
	Type           string          `json:"type"`
	OrderID        uint            `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Source         string          `json:"source,omitempty"`
	ActorID        uint            `json:"actor_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Publisher delivers order events to a downstream channel
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// NopPublisher discards every event
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// MultiPublisher fans an event out to several publishers. Every publisher is
// attempted; their errors are joined.
type MultiPublisher []Publisher

// Publish implements Publisher
func (m MultiPublisher) Publish(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
