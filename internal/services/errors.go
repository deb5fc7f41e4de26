package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrContactNotFound = &notFoundError{what: "contact"}
	ErrLedgerNotFound  = &notFoundError{what: "ledger"}

	ErrConflict         = errors.New("conflict")
	ErrAlreadyUnlocked  = &conflictError{reason: "contact already unlocked"}
	ErrConcurrentUpdate = &conflictError{reason: "ledger changed concurrently, retry"}

	ErrInsufficientFunds = errors.New("insufficient points")
	ErrInvalidInput      = errors.New("invalid input")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUploadUnavailable  = errors.New("file upload is not configured")
)

type notFoundError struct {
	what string
}

func (e *notFoundError) Error() string { return e.what + " not found" }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

type conflictError struct {
	reason string
}

func (e *conflictError) Error() string { return e.reason }

func (e *conflictError) Is(target error) bool { return target == ErrConflict }

// InsufficientFundsError reports how many points an unlock needed.
type InsufficientFundsError struct {
	Required  int
	Available int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient points: need %d more (required %d, available %d)",
		e.Shortfall(), e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// Shortfall is the number of points still missing.
func (e *InsufficientFundsError) Shortfall() int {
	if e.Available >= e.Required {
		return 0
	}
	return e.Required - e.Available
}

// InvalidInputError names the offending fields of a rejected request.
type InvalidInputError struct {
	Message string
	Fields  []string
}

func (e *InvalidInputError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(message string, fields ...string) error {
	return &InvalidInputError{Message: message, Fields: fields}
}
