package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Transition is the outcome of a successful guard check. Nothing is
// persisted until the caller applies it.
type Transition struct {
	Action    Action
	FromLevel int
	Status    domain.BookingStatus
	Level     int
	Record    domain.Approval
}

// Final reports whether the transition ends the workflow.
func (t *Transition) Final() bool {
	return t.Status.IsTerminal()
}

type StateMachine struct {
	resolver     ApproverResolver
	requireNotes bool
	now          func() time.Time
}

type Option func(*StateMachine)

func WithRequiredRejectionNotes(required bool) Option {
	return func(m *StateMachine) {
		m.requireNotes = required
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *StateMachine) {
		m.now = now
	}
}

func NewStateMachine(resolver ApproverResolver, opts ...Option) *StateMachine {
	m := &StateMachine{resolver: resolver, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Approve advances a level 1 booking to level 2 and a level 2 booking to APPROVED.
func (m *StateMachine) Approve(ctx context.Context, users UserDirectory, b *domain.Booking, actorID int64) (*Transition, error) {
	if err := m.authorize(ctx, users, b, actorID, m.resolver.ExpectedApprover); err != nil {
		return nil, err
	}

	t := m.transition(ActionApprove, b, actorID, domain.ApprovalOutcomeApproved, "")
	t.Level = domain.ApprovalLevelSecond
	t.Status = domain.BookingStatusApproved
	if b.CurrentApprovalLevel == domain.ApprovalLevelFirst {
		t.Status = domain.BookingStatusPending
	}
	return t, nil
}

// Reject ends the workflow at whatever level the booking is waiting on.
func (m *StateMachine) Reject(ctx context.Context, users UserDirectory, b *domain.Booking, actorID int64, notes string) (*Transition, error) {
	if err := m.authorize(ctx, users, b, actorID, m.resolver.ExpectedApprover); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if m.requireNotes && notes == "" {
		return nil, domain.ErrRejectionNotesRequired
	}

	t := m.transition(ActionReject, b, actorID, domain.ApprovalOutcomeRejected, notes)
	t.Status = domain.BookingStatusRejected
	t.Level = b.CurrentApprovalLevel
	return t, nil
}

// CanAct reports whether actorID would pass every guard for b right now.
// It is a read-side answer and may come from a cached approver.
func (m *StateMachine) CanAct(ctx context.Context, users UserDirectory, b *domain.Booking, actorID int64) (bool, error) {
	resolve := m.resolver.ExpectedApprover
	if hinter, ok := m.resolver.(approverHinter); ok {
		resolve = hinter.ApproverHint
	}
	err := m.authorize(ctx, users, b, actorID, resolve)
	switch {
	case err == nil:
		return true, nil
	case domain.IsBusinessRule(err):
		return false, nil
	default:
		return false, err
	}
}

// ExpectedApprover resolves the approver for the booking's current level.
func (m *StateMachine) ExpectedApprover(ctx context.Context, users UserDirectory, b *domain.Booking) (int64, bool, error) {
	return m.resolver.ExpectedApprover(ctx, users, b, b.CurrentApprovalLevel)
}

type resolveFunc func(ctx context.Context, users UserDirectory, b *domain.Booking, level int) (int64, bool, error)

// authorize runs the guards in order: existence, pending status, identity.
func (m *StateMachine) authorize(ctx context.Context, users UserDirectory, b *domain.Booking, actorID int64, resolve resolveFunc) error {
	if b == nil {
		return domain.ErrBookingNotFound
	}
	if b.Status != domain.BookingStatusPending {
		return &domain.NotPendingError{Status: b.Status}
	}
	if b.CurrentApprovalLevel != domain.ApprovalLevelFirst && b.CurrentApprovalLevel != domain.ApprovalLevelSecond {
		return fmt.Errorf("booking %d at level %d: %w", b.ID, b.CurrentApprovalLevel, domain.ErrInvalidApprovalLevel)
	}

	expected, ok, err := resolve(ctx, users, b, b.CurrentApprovalLevel)
	if err != nil {
		return fmt.Errorf("resolve approver: %w", err)
	}
	if !ok || actorID == 0 || expected != actorID {
		return domain.ErrUnauthorizedApprover
	}
	return nil
}

func (m *StateMachine) transition(action Action, b *domain.Booking, actorID int64, outcome domain.ApprovalOutcome, notes string) *Transition {
	return &Transition{
		Action:    action,
		FromLevel: b.CurrentApprovalLevel,
		Record: domain.Approval{
			BookingID:  b.ID,
			ApproverID: actorID,
			Level:      b.CurrentApprovalLevel,
			Outcome:    outcome,
			Notes:      notes,
			CreatedAt:  m.now(),
		},
	}
}
