package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/repository"
	"github.com/andhikadk/smi-test/internal/service/availability"
)

const (
	defaultMaxPurposeLength = 1000
	defaultMaxNotesLength   = 500
)

// Validator checks a creation request before it reaches the workflow.
type Validator struct {
	users        repository.UserRepository
	availability availability.AvailabilityUseCase
	maxPurpose   int
	maxNotes     int
	now          func() time.Time
}

type ValidatorOption func(*Validator)

func WithLengthLimits(maxPurpose, maxNotes int) ValidatorOption {
	return func(v *Validator) {
		if maxPurpose > 0 {
			v.maxPurpose = maxPurpose
		}
		if maxNotes > 0 {
			v.maxNotes = maxNotes
		}
	}
}

func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

func NewValidator(users repository.UserRepository, checker availability.AvailabilityUseCase, opts ...ValidatorOption) *Validator {
	v := &Validator{
		users:        users,
		availability: checker,
		maxPurpose:   defaultMaxPurposeLength,
		maxNotes:     defaultMaxNotesLength,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func invalid(field, message string) error {
	return &domain.ValidationError{Field: field, Message: message}
}

// ValidateCreate returns the first rule the input breaks.
func (v *Validator) ValidateCreate(ctx context.Context, in CreateBookingInput) error {
	if err := v.validateShape(in); err != nil {
		return err
	}

	if err := v.requireRole(ctx, "actor_id", in.ActorID, domain.RoleAdmin); err != nil {
		return err
	}
	if _, err := v.user(ctx, "requester_id", in.RequesterID); err != nil {
		return err
	}
	if err := v.requireRole(ctx, "approver_1_id", in.Approver1ID, domain.RoleApprover); err != nil {
		return err
	}
	if err := v.requireRole(ctx, "approver_2_id", in.Approver2ID, domain.RoleApprover); err != nil {
		return err
	}

	ok, err := v.availability.IsVehicleAvailable(ctx, in.VehicleID, in.StartAt, in.EndAt)
	if err != nil {
		return fmt.Errorf("check vehicle availability: %w", err)
	}
	if !ok {
		return invalid("vehicle_id", "vehicle is not available for the selected time")
	}
	ok, err = v.availability.IsDriverAvailable(ctx, in.DriverID, in.StartAt, in.EndAt)
	if err != nil {
		return fmt.Errorf("check driver availability: %w", err)
	}
	if !ok {
		return invalid("driver_id", "driver is not available for the selected time")
	}
	return nil
}

func (v *Validator) validateShape(in CreateBookingInput) error {
	required := []struct {
		field string
		id    int64
	}{
		{"requester_id", in.RequesterID},
		{"vehicle_id", in.VehicleID},
		{"driver_id", in.DriverID},
		{"approver_1_id", in.Approver1ID},
		{"approver_2_id", in.Approver2ID},
	}
	for _, r := range required {
		if r.id <= 0 {
			return invalid(r.field, "is required")
		}
	}

	if in.Approver1ID == in.Approver2ID {
		return invalid("approver_2_id", "must differ from approver_1_id")
	}
	if in.Approver1ID == in.RequesterID || in.Approver2ID == in.RequesterID {
		return invalid("requester_id", "requester cannot approve their own booking")
	}

	purpose := strings.TrimSpace(in.Purpose)
	if purpose == "" {
		return invalid("purpose", "is required")
	}
	if utf8.RuneCountInString(purpose) > v.maxPurpose {
		return invalid("purpose", fmt.Sprintf("must be at most %d characters", v.maxPurpose))
	}

	if in.StartAt.IsZero() || !in.StartAt.After(v.now()) {
		return invalid("start_datetime", "must be in the future")
	}
	if !in.EndAt.After(in.StartAt) {
		return invalid("end_datetime", "must be after start_datetime")
	}
	return nil
}

// ValidateNotes applies the length limit on rejection notes.
func (v *Validator) ValidateNotes(notes string) error {
	if utf8.RuneCountInString(strings.TrimSpace(notes)) > v.maxNotes {
		return invalid("notes", fmt.Sprintf("must be at most %d characters", v.maxNotes))
	}
	return nil
}

func (v *Validator) user(ctx context.Context, field string, id int64) (*domain.User, error) {
	u, err := v.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid(field, "user does not exist")
		}
		return nil, fmt.Errorf("load %s: %w", field, err)
	}
	return u, nil
}

func (v *Validator) requireRole(ctx context.Context, field string, id int64, role domain.Role) error {
	if id <= 0 {
		return invalid(field, "is required")
	}
	u, err := v.user(ctx, field, id)
	if err != nil {
		return err
	}
	if u.Role != role {
		return invalid(field, fmt.Sprintf("user must have role %s", role))
	}
	return nil
}
