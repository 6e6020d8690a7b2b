package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/repository"
	"github.com/andhikadk/smi-test/internal/service/approval"
)

const (
	opCreate  = "creating the booking"
	opApprove = "approving the booking"
	opReject  = "rejecting the booking"
)

type WorkflowUseCase interface {
	CreateBooking(ctx context.Context, input CreateInput) (*Result, error)
	ApproveBooking(ctx context.Context, bookingID, actorID int64) (*Result, error)
	RejectBooking(ctx context.Context, bookingID, actorID int64, notes string) (*Result, error)
}

// CreateInput is trusted: availability and approver distinctness are checked
// before it gets here.
type CreateInput struct {
	ActorID     int64
	RequesterID int64
	VehicleID   int64
	DriverID    int64
	Approver1ID int64
	Approver2ID int64
	Purpose     string
	StartAt     time.Time
	EndAt       time.Time
}

// Result is the committed booking plus what the write did to it. Approval is
// zero for a creation.
type Result struct {
	Booking        *domain.Booking
	Approval       domain.Approval
	NextApproverID int64
}

func (r *Result) Final() bool {
	return r.Booking.Status.IsTerminal()
}

// Orchestrator runs each write in one transaction: the booking mutation, the
// approval record and the activity entry commit together or not at all.
// Approver lookups run on the same transaction.
type Orchestrator struct {
	tx      repository.Transactor
	machine *approval.StateMachine
}

func NewOrchestrator(tx repository.Transactor, machine *approval.StateMachine) *Orchestrator {
	return &Orchestrator{tx: tx, machine: machine}
}

func (o *Orchestrator) CreateBooking(ctx context.Context, input CreateInput) (*Result, error) {
	var result *Result
	err := o.tx.WithTx(ctx, func(uow repository.UnitOfWork) error {
		requester, err := uow.Users().GetByID(ctx, input.RequesterID)
		if err != nil {
			return reference(err, "requester")
		}
		vehicle, err := uow.Vehicles().GetByID(ctx, input.VehicleID)
		if err != nil {
			return reference(err, "vehicle")
		}

		b := &domain.Booking{
			RequesterID:          input.RequesterID,
			VehicleID:            input.VehicleID,
			DriverID:             input.DriverID,
			Approver1ID:          input.Approver1ID,
			Approver2ID:          input.Approver2ID,
			Purpose:              strings.TrimSpace(input.Purpose),
			StartAt:              input.StartAt,
			EndAt:                input.EndAt,
			Status:               domain.BookingStatusPending,
			CurrentApprovalLevel: domain.ApprovalLevelFirst,
		}
		if err := uow.Bookings().Create(ctx, b); err != nil {
			return reference(err, "booking")
		}

		first, ok, err := o.machine.ExpectedApprover(ctx, uow.Users(), b)
		if err != nil {
			return fmt.Errorf("resolve first approver: %w", err)
		}
		result = &Result{Booking: b}
		if ok {
			result.NextApproverID = first
		}

		activity := fmt.Sprintf("Admin created a booking for employee %s, vehicle %s.", requester.Name, vehicle.PlateNumber)
		if err := uow.Activities().Append(ctx, activity, actor(input.ActorID)); err != nil {
			return fmt.Errorf("append activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, surface(err, opCreate)
	}
	return result, nil
}

func (o *Orchestrator) ApproveBooking(ctx context.Context, bookingID, actorID int64) (*Result, error) {
	return o.transition(ctx, bookingID, actorID, opApprove, func(users approval.UserDirectory, b *domain.Booking) (*approval.Transition, error) {
		return o.machine.Approve(ctx, users, b, actorID)
	})
}

func (o *Orchestrator) RejectBooking(ctx context.Context, bookingID, actorID int64, notes string) (*Result, error) {
	return o.transition(ctx, bookingID, actorID, opReject, func(users approval.UserDirectory, b *domain.Booking) (*approval.Transition, error) {
		return o.machine.Reject(ctx, users, b, actorID, notes)
	})
}

func (o *Orchestrator) transition(ctx context.Context, bookingID, actorID int64, op string, decide func(approval.UserDirectory, *domain.Booking) (*approval.Transition, error)) (*Result, error) {
	var result *Result
	err := o.tx.WithTx(ctx, func(uow repository.UnitOfWork) error {
		current, err := uow.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("load booking %d: %w", bookingID, err)
		}

		t, err := decide(uow.Users(), current)
		if err != nil {
			return err
		}

		updated, err := uow.Bookings().UpdateTransition(ctx, bookingID, t.FromLevel, t.Status, t.Level)
		if errors.Is(err, repository.ErrConflict) {
			return staleTransition(ctx, uow, bookingID)
		}
		if err != nil {
			return fmt.Errorf("update booking %d: %w", bookingID, err)
		}

		record := t.Record
		if err := uow.Approvals().Create(ctx, &record); err != nil {
			return fmt.Errorf("create approval record: %w", err)
		}

		result = &Result{Booking: updated, Approval: record}
		if !t.Final() {
			next, ok, err := o.machine.ExpectedApprover(ctx, uow.Users(), updated)
			if err != nil {
				return fmt.Errorf("resolve next approver: %w", err)
			}
			if ok {
				result.NextApproverID = next
			}
		}

		activity, err := describe(ctx, uow, t, updated.ID, actorID, result.NextApproverID)
		if err != nil {
			return err
		}
		if err := uow.Activities().Append(ctx, activity, actor(actorID)); err != nil {
			return fmt.Errorf("append activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, surface(err, op)
	}
	return result, nil
}

// staleTransition is reached when another writer moved the booking after it
// was read. The fresh status decides what the caller sees.
func staleTransition(ctx context.Context, uow repository.UnitOfWork, bookingID int64) error {
	fresh, err := uow.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrBookingNotFound
		}
		return fmt.Errorf("reload booking %d: %w", bookingID, err)
	}
	return &domain.NotPendingError{Status: fresh.Status}
}

func describe(ctx context.Context, uow repository.UnitOfWork, t *approval.Transition, bookingID, actorID, nextID int64) (string, error) {
	actorName, err := userName(ctx, uow, actorID)
	if err != nil {
		return "", err
	}

	switch {
	case t.Action == approval.ActionReject:
		return fmt.Sprintf("Booking %d REJECTED by %s (level %d).", bookingID, actorName, t.FromLevel), nil
	case t.Final():
		return fmt.Sprintf("Booking %d fully approved by %s (level %d).", bookingID, actorName, t.FromLevel), nil
	default:
		nextName := "an unassigned approver"
		if nextID != 0 {
			if nextName, err = userName(ctx, uow, nextID); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("Booking %d approved by %s (level %d). Awaiting approval from %s.", bookingID, actorName, t.FromLevel, nextName), nil
	}
}

func userName(ctx context.Context, uow repository.UnitOfWork, id int64) (string, error) {
	u, err := uow.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Sprintf("user #%d", id), nil
		}
		return "", fmt.Errorf("load user %d: %w", id, err)
	}
	return u.Name, nil
}

func reference(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForeignKey) {
		return fmt.Errorf("%s: %w", what, domain.ErrInvalidReference)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func actor(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// surface lets guard failures through untouched and hides everything else
// behind a generic error after logging the detail.
func surface(err error, op string) error {
	if domain.IsBusinessRule(err) {
		return err
	}
	log.Printf("[workflow] %s: %v", op, err)
	return &domain.InfrastructureError{Op: op}
}

var _ WorkflowUseCase = (*Orchestrator)(nil)
