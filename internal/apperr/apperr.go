// Package apperr defines the error taxonomy shared by all modules.
// Handlers map these sentinels to HTTP status codes with errors.Is;
// services wrap them with %w and attach context.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing input, rejected before any persistence.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown order, product or category.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied marks an email or token mismatch on an existing order.
	// Deliberately distinct from ErrNotFound so callers can tell
	// "does not exist" from "exists but is not yours".
	ErrAccessDenied = errors.New("access denied")

	// ErrGateway marks a payment provider rejection or timeout.
	ErrGateway = errors.New("payment gateway error")

	// ErrReconciliation marks a callback token that matches no order.
	// Indicates a data-integrity gap between the gateway and the store.
	ErrReconciliation = errors.New("payment reconciliation error")

	// ErrConflict marks an operation that is illegal in the entity's current state,
	// e.g. cancelling a shipped order.
	ErrConflict = errors.New("conflict")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// HTTPStatus maps an error to the status code its handler should respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
