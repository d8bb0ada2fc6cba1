package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrStateConflict = errors.New("state conflict")
)

// Validation error codes
const (
	CodeRequired      = "REQUIRED"
	CodeInvalidAmount = "INVALID_AMOUNT"
	CodeInvalidFormat = "INVALID_FORMAT"
	CodeInvalidValue  = "INVALID_VALUE"
	CodeNotAccepted   = "NOT_ACCEPTED"
)

// ValidationError annotates a rejected input row or field. Row is the
// 1-based source row, or 0 when the error is not tied to a row.
type ValidationError struct {
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d, field '%s': %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidationErrors is returned when a request carries several invalid rows.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (es ValidationErrors) Unwrap() error {
	return ErrValidation
}

// StateConflictError reports a transition that is not allowed from the
// current case state, or a concurrent modification.
type StateConflictError struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict on order %s: %s", e.OrderID, e.Reason)
}

func (e *StateConflictError) Unwrap() error {
	return ErrStateConflict
}

func NewStateConflict(orderID, reason string) *StateConflictError {
	return &StateConflictError{OrderID: orderID, Reason: reason}
}

// PersistenceError reports a bulk write that stopped part way. Written holds
// the records that were stored before FailedAt (a 0-based index) failed.
type PersistenceError struct {
	Written  []VerifiedReturnRecord `json:"written"`
	FailedAt int                    `json:"failed_at"`
	OrderID  string                 `json:"order_id"`
	Err      error                  `json:"-"`
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist row %d (order %s) failed after %d written: %v", e.FailedAt, e.OrderID, len(e.Written), e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
