package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrInsufficientBalance is wrapped by QuoteError when the settlement service
// rejects a request for lack of funds.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ValidationError is returned for malformed input rejected at the boundary.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError is returned when a wallet, transaction or recovery id is unknown.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// QuoteError is returned when the quote or settlement service rejects or fails a request.
type QuoteError struct {
	Op  string
	Err error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// ExpiryRaceError is returned when an operation targets a wallet whose expiry just elapsed.
type ExpiryRaceError struct {
	WalletID  string
	ExpiresAt time.Time
}

func (e *ExpiryRaceError) Error() string {
	return fmt.Sprintf("wallet %s expired at %s", e.WalletID, e.ExpiresAt.Format(time.RFC3339))
}

// IsValidationError checks if error is ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFoundError checks if error is NotFoundError
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsQuoteError checks if error is QuoteError
func IsQuoteError(err error) bool {
	var target *QuoteError
	return errors.As(err, &target)
}

// IsExpiryRaceError checks if error is ExpiryRaceError
func IsExpiryRaceError(err error) bool {
	var target *ExpiryRaceError
	return errors.As(err, &target)
}
