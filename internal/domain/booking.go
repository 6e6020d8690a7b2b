package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusApproved  BookingStatus = "APPROVED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

const (
	ApprovalLevelFirst  = 1
	ApprovalLevelSecond = 2
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCompleted:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// IsTerminal reports whether the workflow accepts no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusApproved || s == BookingStatusRejected || s == BookingStatusCompleted
}

// BlocksAvailability reports whether a booking in this status holds its vehicle and driver.
func (s BookingStatus) BlocksAvailability() bool {
	return s == BookingStatusPending || s == BookingStatusApproved
}

// Label is the human readable form shown next to NotPending failures.
func (s BookingStatus) Label() string {
	switch s {
	case BookingStatusPending:
		return "Awaiting approval"
	case BookingStatusApproved:
		return "Approved"
	case BookingStatusRejected:
		return "Rejected"
	case BookingStatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

type Booking struct {
	ID                   int64
	RequesterID          int64
	VehicleID            int64
	DriverID             int64
	Approver1ID          int64
	Approver2ID          int64
	Purpose              string
	StartAt              time.Time
	EndAt                time.Time
	Status               BookingStatus
	CurrentApprovalLevel int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DesignatedApprover returns the approver stored on the booking for level.
func (b *Booking) DesignatedApprover(level int) (int64, bool) {
	switch level {
	case ApprovalLevelFirst:
		return b.Approver1ID, b.Approver1ID != 0
	case ApprovalLevelSecond:
		return b.Approver2ID, b.Approver2ID != 0
	default:
		return 0, false
	}
}

// Overlaps uses inclusive bounds, so touching endpoints count as an overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return Overlaps(b.StartAt, b.EndAt, start, end)
}

// Overlaps reports whether the existing interval [existingStart, existingEnd]
// shares at least one instant with the requested window [start, end].
func Overlaps(existingStart, existingEnd, start, end time.Time) bool {
	if within(existingStart, start, end) || within(existingEnd, start, end) {
		return true
	}
	return !existingStart.After(start) && !existingEnd.Before(end)
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

type BookingFilter struct {
	Status   BookingStatus
	DateFrom *time.Time
	DateTo   *time.Time
}
