package models

import (
	"database/sql/driver"
	"fmt"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusSentToWhatsApp OrderStatus = "sent_to_whatsapp"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"

	// StatusLegacyPending appears in rows written before the WhatsApp checkout.
	// It is read as StatusSentToWhatsApp and never written.
	StatusLegacyPending OrderStatus = "pending"
)

var knownStatuses = map[OrderStatus]struct{}{
	StatusSentToWhatsApp: {},
	StatusConfirmed:      {},
	StatusShipped:        {},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusLegacyPending:  {},
}

// WritableStatuses lists the states an order may be moved into, in lifecycle order
var WritableStatuses = []OrderStatus{
	StatusSentToWhatsApp,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ParseOrderStatus converts raw input into an OrderStatus, rejecting unknown values
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if _, ok := knownStatuses[s]; !ok {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

// Canonical folds the legacy alias into its current equivalent
func (s OrderStatus) Canonical() OrderStatus {
	if s == StatusLegacyPending {
		return StatusSentToWhatsApp
	}
	return s
}

// IsWritable reports whether s may be stored as a new status
func (s OrderStatus) IsWritable() bool {
	_, known := knownStatuses[s]
	return known && s != StatusLegacyPending
}

// Equivalents returns every stored value that means the same state as s.
// Used to build status filters that match historical rows.
func (s OrderStatus) Equivalents() []OrderStatus {
	if s.Canonical() == StatusSentToWhatsApp {
		return []OrderStatus{StatusLegacyPending, StatusSentToWhatsApp}
	}
	return []OrderStatus{s}
}

func (s OrderStatus) String() string {
	return string(s)
}

// Scan implements sql.Scanner
func (s *OrderStatus) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("order status cannot be NULL")
	default:
		return fmt.Errorf("unsupported order status type %T", value)
	}

	parsed, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer
func (s OrderStatus) Value() (driver.Value, error) {
	if _, ok := knownStatuses[s]; !ok {
		return nil, fmt.Errorf("unknown order status %q", string(s))
	}
	return string(s), nil
}
