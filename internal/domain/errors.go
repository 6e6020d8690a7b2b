package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrBookingNotPending      = errors.New("booking is not pending")
	ErrUnauthorizedApprover   = errors.New("you are not authorized to act on this booking")
	ErrInfrastructure         = errors.New("an unexpected error occurred")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidReference       = errors.New("referenced user, vehicle or driver does not exist")
	ErrRejectionNotesRequired = errors.New("notes are required when rejecting a booking")
	ErrInvalidApprovalLevel   = errors.New("booking has an invalid approval level")
)

// NotPendingError carries the status the booking was found in.
type NotPendingError struct {
	Status BookingStatus
}

func (e *NotPendingError) Error() string {
	return fmt.Sprintf("%s, current status: %s", ErrBookingNotPending.Error(), e.Status.Label())
}

func (e *NotPendingError) Is(target error) bool {
	return target == ErrBookingNotPending
}

// InfrastructureError hides the underlying cause from callers. The cause is
// logged where the error is created and intentionally not unwrappable.
type InfrastructureError struct {
	Op string
}

func (e *InfrastructureError) Error() string {
	if e.Op == "" {
		return ErrInfrastructure.Error()
	}
	return fmt.Sprintf("%s while %s", ErrInfrastructure.Error(), e.Op)
}

func (e *InfrastructureError) Is(target error) bool {
	return target == ErrInfrastructure
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IsBusinessRule reports whether err is one of the expected guard failures
// that must reach the caller unchanged.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrBookingNotPending) ||
		errors.Is(err, ErrUnauthorizedApprover) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrRejectionNotesRequired)
}
