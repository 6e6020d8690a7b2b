// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateTransition(ctx context.Context, id int64, fromLevel int, status domain.BookingStatus, level int) (*domain.Booking, error) {
	args := m.Called(ctx, id, fromLevel, status, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListPendingForApprover(ctx context.Context, approverID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, approverID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListPendingAtLevel(ctx context.Context, level int) ([]domain.Booking, error) {
	args := m.Called(ctx, level)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListBlocking(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) Create(ctx context.Context, approval *domain.Approval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockApprovalRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Approval, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.Approval), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, activity string, userID *int64) error {
	args := m.Called(ctx, activity, userID)
	return args.Error(0)
}

func (m *MockActivityRepository) ListRecent(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindApproverByLevel(ctx context.Context, level int) (*domain.User, error) {
	args := m.Called(ctx, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) ListByStatus(ctx context.Context, status domain.ResourceStatus) ([]domain.Vehicle, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Vehicle), args.Error(1)
}

type MockDriverRepository struct {
	mock.Mock
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Driver), args.Error(1)
}

func (m *MockDriverRepository) ListByStatus(ctx context.Context, status domain.ResourceStatus) ([]domain.Driver, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Driver), args.Error(1)
}

// MockUnitOfWork hands out one mock per repository.
type MockUnitOfWork struct {
	BookingRepo  *MockBookingRepository
	ApprovalRepo *MockApprovalRepository
	ActivityRepo *MockActivityRepository
	UserRepo     *MockUserRepository
	VehicleRepo  *MockVehicleRepository
	DriverRepo   *MockDriverRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		BookingRepo:  &MockBookingRepository{},
		ApprovalRepo: &MockApprovalRepository{},
		ActivityRepo: &MockActivityRepository{},
		UserRepo:     &MockUserRepository{},
		VehicleRepo:  &MockVehicleRepository{},
		DriverRepo:   &MockDriverRepository{},
	}
}

func (u *MockUnitOfWork) Bookings() repository.BookingRepository   { return u.BookingRepo }
func (u *MockUnitOfWork) Approvals() repository.ApprovalRepository { return u.ApprovalRepo }
func (u *MockUnitOfWork) Activities() repository.ActivityRepository {
	return u.ActivityRepo
}
func (u *MockUnitOfWork) Users() repository.UserRepository       { return u.UserRepo }
func (u *MockUnitOfWork) Vehicles() repository.VehicleRepository { return u.VehicleRepo }
func (u *MockUnitOfWork) Drivers() repository.DriverRepository   { return u.DriverRepo }

var (
	_ repository.UnitOfWork         = (*MockUnitOfWork)(nil)
	_ repository.BookingRepository  = (*MockBookingRepository)(nil)
	_ repository.ApprovalRepository = (*MockApprovalRepository)(nil)
	_ repository.ActivityRepository = (*MockActivityRepository)(nil)
	_ repository.UserRepository     = (*MockUserRepository)(nil)
	_ repository.VehicleRepository  = (*MockVehicleRepository)(nil)
	_ repository.DriverRepository   = (*MockDriverRepository)(nil)
)
