package domain

import "time"

type ApprovalOutcome string

const (
	ApprovalOutcomeApproved ApprovalOutcome = "APPROVED"
	ApprovalOutcomeRejected ApprovalOutcome = "REJECTED"
)

// Approval is an append-only record of a single approver action.
type Approval struct {
	ID         int64
	BookingID  int64
	ApproverID int64
	Level      int
	Outcome    ApprovalOutcome
	Notes      string
	CreatedAt  time.Time
}
