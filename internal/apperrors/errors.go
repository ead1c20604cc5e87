package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the resource is not in a state that allows the requested change.
var ErrConflict = errors.New("state conflict")

// ErrUpstream indicates that an external provider could not complete a call.
var ErrUpstream = errors.New("upstream provider error")

// Escrow errors. Each wraps one of the generic sentinels above so handlers can
// map either the specific or the generic error.
var (
	ErrDuplicateOrder        = fmt.Errorf("%w: escrow already exists for order", ErrDuplicate)
	ErrInvalidAmount         = fmt.Errorf("%w: gross amount must be positive", ErrValidation)
	ErrInvalidCommissionRate = fmt.Errorf("%w: commission rate must be in [0, 1)", ErrValidation)
	ErrEscrowNotFound        = fmt.Errorf("%w: escrow record", ErrNotFound)
	ErrAlreadyReleased       = fmt.Errorf("%w: escrow already released", ErrConflict)
	ErrNotVerified           = fmt.Errorf("%w: escrow payment has not been verified", ErrConflict)

	// ErrVerificationFailed and ErrVerificationTimeout are retryable by the caller.
	ErrVerificationFailed  = errors.New("payment verification failed")
	ErrVerificationTimeout = errors.New("payment verification timed out")
)

// AppError carries an HTTP-ish status code alongside an infrastructure error.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the caller may retry the failed operation as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVerificationFailed) || errors.Is(err, ErrVerificationTimeout) || errors.Is(err, ErrUpstream)
}
