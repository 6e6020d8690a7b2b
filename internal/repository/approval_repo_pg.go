package repository

import (
	"context"

	"github.com/andhikadk/smi-test/internal/domain"
)

// ApprovalRepository is append-only: records are never updated or deleted.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *domain.Approval) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Approval, error)
}

type PGApprovalRepository struct {
	db DBTX
}

func NewApprovalRepository(db DBTX) ApprovalRepository {
	return &PGApprovalRepository{db: db}
}

func (r *PGApprovalRepository) Create(ctx context.Context, approval *domain.Approval) error {
	var notes *string
	if approval.Notes != "" {
		notes = &approval.Notes
	}
	err := r.db.QueryRow(ctx, `INSERT INTO approvals (booking_id, approver_id, approval_level, outcome, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		approval.BookingID, approval.ApproverID, approval.Level, approval.Outcome, notes).
		Scan(&approval.ID, &approval.CreatedAt)
	return translateWriteErr(err)
}

func (r *PGApprovalRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Approval, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, approver_id, approval_level, outcome, COALESCE(notes, ''), created_at
		FROM approvals WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approvals := make([]domain.Approval, 0)
	for rows.Next() {
		var a domain.Approval
		if err := rows.Scan(&a.ID, &a.BookingID, &a.ApproverID, &a.Level, &a.Outcome, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

var _ ApprovalRepository = (*PGApprovalRepository)(nil)
