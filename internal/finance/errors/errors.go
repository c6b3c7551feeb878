package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("transaction already exists")
	ErrNotRecurring         = NewValidationError("Transaction is not recurring")
)

// ValidationError is a client mistake in a single transaction. Index is the
// 1-based position inside a bulk request, or 0 for a single transaction.
type ValidationError struct {
	Index int
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("Validation error at transaction %d: %s", e.Index, e.Msg)
	}
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// NewIndexedValidationError tags a bulk item's failure with its position.
func NewIndexedValidationError(index int, msg string) error {
	return &ValidationError{Index: index, Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

// IsConflict reports whether err means the row was not stored because an
// equivalent one already exists.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateTransaction)
}

// ValidationErrors collects every failing item of a bulk request so the
// client can fix them in one round trip.
type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	return "multiple validation errors: " + strings.Join(ve.Messages(), "; ")
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

func (ve *ValidationErrors) Messages() []string {
	messages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// OrNil returns nil when nothing was collected.
func (ve *ValidationErrors) OrNil() error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

func IsValidationErrors(err error) bool {
	var validationErrors *ValidationErrors
	return errors.As(err, &validationErrors)
}
