package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SelectedOptions holds the option choices a customer made for a line item,
// e.g. {"Talla": "8", "Kilataje": "14k"}. Stored as JSON text.
type SelectedOptions map[string]string

// Scan implements sql.Scanner
func (o *SelectedOptions) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*o = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported selected options type %T", value)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		*o = nil
		return nil
	}
	if err := o.UnmarshalJSON(raw); err != nil {
		return fmt.Errorf("failed to decode selected options: %w", err)
	}
	return nil
}

// UnmarshalJSON accepts an object of strings, null, or the empty array that
// older storefront builds send for items without options.
func (o *SelectedOptions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) {
		*o = nil
		return nil
	}
	var decoded map[string]string
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return fmt.Errorf("selected options must be an object of strings: %w", err)
	}
	*o = decoded
	return nil
}

// Value implements driver.Valuer
func (o SelectedOptions) Value() (driver.Value, error) {
	if len(o) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// StringList is a JSON-encoded list of strings, used for product option values
type StringList []string

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported string list type %T", value)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to decode string list: %w", err)
	}
	*l = decoded
	return nil
}

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
