package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an id does not resolve. Nothing is mutated.
	ErrNotFound = errors.New("not found")

	ErrPropertyNotFound  = fmt.Errorf("property %w", ErrNotFound)
	ErrRequestNotFound   = fmt.Errorf("lease request %w", ErrNotFound)
	ErrLeaseNotFound     = fmt.Errorf("lease %w", ErrNotFound)
	ErrDraftNotFound     = fmt.Errorf("lease draft %w", ErrNotFound)
	ErrMissingField      = fmt.Errorf("%w: required field missing", ErrValidation)
	ErrMissingIdentity   = fmt.Errorf("%w: wallet address is required", ErrValidation)
	ErrDuplicatePending  = fmt.Errorf("%w: a pending lease request already exists for this property", ErrValidation)
	ErrIllegalTransition = fmt.Errorf("%w: illegal status transition", ErrValidation)
	ErrNotOwner          = fmt.Errorf("%w: address does not own this property", ErrValidation)
	ErrPropertyLeased    = fmt.Errorf("%w: property is leased", ErrValidation)
	ErrOutOfOrder        = fmt.Errorf("%w: signature out of order", ErrValidation)
	ErrWrongSigner       = fmt.Errorf("%w: signer does not match the lease party", ErrValidation)
	ErrTermsLocked       = fmt.Errorf("%w: lease terms are frozen once signed", ErrValidation)
	ErrNotReady          = fmt.Errorf("%w: both parties must sign before activation", ErrValidation)
	ErrNotAccepted       = fmt.Errorf("%w: lease request has not been accepted", ErrValidation)
	ErrAlreadyActive     = errors.New("lease already active")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string

	missing bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if e.missing {
		return ErrMissingField
	}
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "is required", missing: true}
}
