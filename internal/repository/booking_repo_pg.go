package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// GetByIDForUpdate locks the booking row until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	// UpdateTransition moves a PENDING booking that is still at fromLevel.
	// It returns ErrConflict when the row no longer matches.
	UpdateTransition(ctx context.Context, id int64, fromLevel int, status domain.BookingStatus, level int) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	ListPendingForApprover(ctx context.Context, approverID int64) ([]domain.Booking, error)
	ListPendingAtLevel(ctx context.Context, level int) ([]domain.Booking, error)
	// ListBlocking returns PENDING and APPROVED bookings intersecting [start, end].
	ListBlocking(ctx context.Context, start, end time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, requester_id, vehicle_id, driver_id, approver_1_id, approver_2_id, purpose,
	start_at, end_at, status, current_approval_level, created_at, updated_at`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.RequesterID, &b.VehicleID, &b.DriverID, &b.Approver1ID, &b.Approver2ID, &b.Purpose,
		&b.StartAt, &b.EndAt, &b.Status, &b.CurrentApprovalLevel, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings
		(requester_id, vehicle_id, driver_id, approver_1_id, approver_2_id, purpose, start_at, end_at, status, current_approval_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		booking.RequesterID, booking.VehicleID, booking.DriverID, booking.Approver1ID, booking.Approver2ID,
		booking.Purpose, booking.StartAt, booking.EndAt, booking.Status, booking.CurrentApprovalLevel).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return translateWriteErr(err)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (r *PGBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (r *PGBookingRepository) UpdateTransition(ctx context.Context, id int64, fromLevel int, status domain.BookingStatus, level int) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$1, current_approval_level=$2, updated_at=now()
		WHERE id=$3 AND status=$4 AND current_approval_level=$5
		RETURNING `+bookingColumns,
		status, level, id, domain.BookingStatusPending, fromLevel)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE ($1::text = '' OR status = $1::text)
		  AND ($2::date IS NULL OR start_at::date >= $2::date)
		  AND ($3::date IS NULL OR end_at::date <= $3::date)
		ORDER BY created_at DESC, id DESC`,
		string(filter.Status), filter.DateFrom, filter.DateTo)
}

func (r *PGBookingRepository) ListPendingForApprover(ctx context.Context, approverID int64) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1
		  AND ((current_approval_level = 1 AND approver_1_id = $2) OR (current_approval_level = 2 AND approver_2_id = $2))
		ORDER BY created_at DESC, id DESC`,
		domain.BookingStatusPending, approverID)
}

func (r *PGBookingRepository) ListPendingAtLevel(ctx context.Context, level int) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1 AND current_approval_level = $2
		ORDER BY created_at DESC, id DESC`,
		domain.BookingStatusPending, level)
}

func (r *PGBookingRepository) ListBlocking(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status IN ($1, $2) AND start_at <= $4 AND end_at >= $3
		ORDER BY start_at`,
		domain.BookingStatusPending, domain.BookingStatusApproved, start, end)
}

func (r *PGBookingRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
