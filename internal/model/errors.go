package model

import "errors"

// Error categories returned by the core operations. Concrete errors wrap one of
// these so callers can classify them with errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrOutOfStock           = errors.New("out of stock")
	ErrBalanceInconsistency = errors.New("balance inconsistency")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
)
