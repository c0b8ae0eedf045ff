package services

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned when a login or password check fails
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports missing or malformed input. Nothing has been written
// when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a lookup that matched no row
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// TransitionError reports a status change the order lifecycle does not allow
type TransitionError struct {
	From    string
	To      string
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

// ConflictError reports a write rejected by a uniqueness rule
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// PersistenceError wraps a database failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func validationErr(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	// already classified further down the stack
	var (
		pe *PersistenceError
		ve *ValidationError
		nf *NotFoundError
		te *TransitionError
		ce *ConflictError
	)
	if errors.As(err, &pe) || errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &te) || errors.As(err, &ce) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
