package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/kafka"
	"github.com/andhikadk/smi-test/internal/repository"
	"github.com/andhikadk/smi-test/internal/repository/mocks"
	"github.com/andhikadk/smi-test/internal/service/approval"
	"github.com/andhikadk/smi-test/internal/service/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWorkflow struct {
	mock.Mock
}

func (m *MockWorkflow) CreateBooking(ctx context.Context, input workflow.CreateInput) (*workflow.Result, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Result), args.Error(1)
}

func (m *MockWorkflow) ApproveBooking(ctx context.Context, bookingID, actorID int64) (*workflow.Result, error) {
	args := m.Called(ctx, bookingID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Result), args.Error(1)
}

func (m *MockWorkflow) RejectBooking(ctx context.Context, bookingID, actorID int64, notes string) (*workflow.Result, error) {
	args := m.Called(ctx, bookingID, actorID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Result), args.Error(1)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) CanAct(ctx context.Context, users approval.UserDirectory, b *domain.Booking, actorID int64) (bool, error) {
	args := m.Called(ctx, users, b, actorID)
	return args.Bool(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCache) SetBooking(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockCache) InvalidateBooking(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) AvailableVehicles(ctx context.Context, start, end time.Time) ([]domain.Vehicle, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]domain.Vehicle), args.Error(1)
}

func (m *MockAvailability) AvailableDrivers(ctx context.Context, start, end time.Time) ([]domain.Driver, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]domain.Driver), args.Error(1)
}

func (m *MockAvailability) IsVehicleAvailable(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, vehicleID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailability) IsDriverAvailable(ctx context.Context, driverID int64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, driverID, start, end)
	return args.Bool(0), args.Error(1)
}

type fixture struct {
	service      *BookingService
	flow         *MockWorkflow
	authorizer   *MockAuthorizer
	store        *mocks.MockUnitOfWork
	availability *MockAvailability
	cache        *MockCache
	producer     *MockProducer
}

var testNow = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

func newFixture(opts ...BookingServiceOption) *fixture {
	f := &fixture{
		flow:         &MockWorkflow{},
		authorizer:   &MockAuthorizer{},
		store:        mocks.NewMockUnitOfWork(),
		availability: &MockAvailability{},
		cache:        &MockCache{},
		producer:     &MockProducer{},
	}
	validator := NewValidator(f.store.UserRepo, f.availability, WithValidatorClock(func() time.Time { return testNow }))
	opts = append([]BookingServiceOption{
		WithCache(f.cache),
		WithProducer(f.producer, "booking-events"),
		WithNotificationsTopic("notifications"),
	}, opts...)
	f.service = NewBookingService(f.flow, f.authorizer, f.store, validator, opts...)
	return f
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		ActorID:     1,
		RequesterID: 2,
		VehicleID:   10,
		DriverID:    20,
		Approver1ID: 3,
		Approver2ID: 4,
		Purpose:     "client meeting",
		StartAt:     testNow.Add(time.Hour),
		EndAt:       testNow.Add(3 * time.Hour),
	}
}

func (f *fixture) expectValidUsers(ctx context.Context) {
	f.store.UserRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Role: domain.RoleAdmin}, nil)
	f.store.UserRepo.On("GetByID", ctx, int64(2)).Return(&domain.User{ID: 2, Role: domain.RoleEmployee}, nil)
	f.store.UserRepo.On("GetByID", ctx, int64(3)).Return(&domain.User{ID: 3, Role: domain.RoleApprover}, nil)
	f.store.UserRepo.On("GetByID", ctx, int64(4)).Return(&domain.User{ID: 4, Role: domain.RoleApprover}, nil)
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := validInput()
	f.expectValidUsers(ctx)
	f.availability.On("IsVehicleAvailable", ctx, in.VehicleID, in.StartAt, in.EndAt).Return(true, nil)
	f.availability.On("IsDriverAvailable", ctx, in.DriverID, in.StartAt, in.EndAt).Return(true, nil)

	created := &domain.Booking{ID: 7, RequesterID: 2, Approver1ID: 3, Approver2ID: 4, Status: domain.BookingStatusPending, CurrentApprovalLevel: 1}
	f.flow.On("CreateBooking", ctx, workflow.CreateInput{
		ActorID: 1, RequesterID: 2, VehicleID: 10, DriverID: 20, Approver1ID: 3, Approver2ID: 4,
		Purpose: "client meeting", StartAt: in.StartAt, EndAt: in.EndAt,
	}).Return(&workflow.Result{Booking: created, NextApproverID: 3}, nil)
	f.cache.On("InvalidateBooking", ctx, int64(7)).Return(nil)

	isCreatedEvent := mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCreated && e.BookingID == 7 && e.NextApproverID == 3 && e.Status == "PENDING" && e.Level == 1
	})
	f.producer.On("Publish", ctx, "booking-events", "booking-7", isCreatedEvent).Return(nil).Once()
	f.producer.On("Publish", ctx, "notifications", "booking-7", isCreatedEvent).Return(nil).Once()

	booking, err := f.service.CreateBooking(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, created, booking)
	f.flow.AssertExpectations(t)
	f.producer.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestBookingService_CreateBooking_NotifiesResolvedApprover(t *testing.T) {
	f := newFixture(WithApproverStrategy(StrategyDirectory))
	ctx := context.Background()
	in := validInput()
	f.expectValidUsers(ctx)
	f.availability.On("IsVehicleAvailable", ctx, in.VehicleID, in.StartAt, in.EndAt).Return(true, nil)
	f.availability.On("IsDriverAvailable", ctx, in.DriverID, in.StartAt, in.EndAt).Return(true, nil)

	// the directory holds user 8 at level 1, not the id on the booking
	created := &domain.Booking{ID: 9, RequesterID: 2, Approver1ID: 3, Approver2ID: 4, Status: domain.BookingStatusPending, CurrentApprovalLevel: 1}
	f.flow.On("CreateBooking", ctx, mock.Anything).Return(&workflow.Result{Booking: created, NextApproverID: 8}, nil)
	f.cache.On("InvalidateBooking", ctx, int64(9)).Return(nil)

	toDirectoryApprover := mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCreated && e.NextApproverID == 8
	})
	f.producer.On("Publish", ctx, "booking-events", "booking-9", toDirectoryApprover).Return(nil).Once()
	f.producer.On("Publish", ctx, "notifications", "booking-9", toDirectoryApprover).Return(nil).Once()

	_, err := f.service.CreateBooking(ctx, in)

	require.NoError(t, err)
	f.producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationFailures(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(*CreateBookingInput)
		field  string
	}{
		{name: "end before start", mutate: func(in *CreateBookingInput) { in.EndAt = in.StartAt.Add(-time.Minute) }, field: "end_datetime"},
		{name: "end equals start", mutate: func(in *CreateBookingInput) { in.EndAt = in.StartAt }, field: "end_datetime"},
		{name: "start in the past", mutate: func(in *CreateBookingInput) { in.StartAt = testNow.Add(-time.Hour) }, field: "start_datetime"},
		{name: "same approvers", mutate: func(in *CreateBookingInput) { in.Approver2ID = in.Approver1ID }, field: "approver_2_id"},
		{name: "requester approves", mutate: func(in *CreateBookingInput) { in.Approver1ID = in.RequesterID }, field: "requester_id"},
		{name: "missing driver", mutate: func(in *CreateBookingInput) { in.DriverID = 0 }, field: "driver_id"},
		{name: "blank purpose", mutate: func(in *CreateBookingInput) { in.Purpose = "   " }, field: "purpose"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			in := validInput()
			tc.mutate(&in)

			_, err := f.service.CreateBooking(ctx, in)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
			f.flow.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_CreateBooking_RoleChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("actor is not admin", func(t *testing.T) {
		f := newFixture()
		f.store.UserRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Role: domain.RoleEmployee}, nil)

		_, err := f.service.CreateBooking(ctx, validInput())

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "actor_id", verr.Field)
	})

	t.Run("approver lacks role", func(t *testing.T) {
		f := newFixture()
		f.store.UserRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Role: domain.RoleAdmin}, nil)
		f.store.UserRepo.On("GetByID", ctx, int64(2)).Return(&domain.User{ID: 2, Role: domain.RoleEmployee}, nil)
		f.store.UserRepo.On("GetByID", ctx, int64(3)).Return(nil, repository.ErrNotFound)

		_, err := f.service.CreateBooking(ctx, validInput())

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "approver_1_id", verr.Field)
	})

	t.Run("vehicle busy", func(t *testing.T) {
		f := newFixture()
		in := validInput()
		f.expectValidUsers(ctx)
		f.availability.On("IsVehicleAvailable", ctx, in.VehicleID, in.StartAt, in.EndAt).Return(false, nil)

		_, err := f.service.CreateBooking(ctx, in)

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "vehicle_id", verr.Field)
	})

	t.Run("directory outage is generic", func(t *testing.T) {
		f := newFixture()
		f.store.UserRepo.On("GetByID", ctx, int64(1)).Return(nil, errors.New("pool exhausted"))

		_, err := f.service.CreateBooking(ctx, validInput())

		assert.ErrorIs(t, err, domain.ErrInfrastructure)
		assert.NotContains(t, err.Error(), "pool exhausted")
	})
}

func TestBookingService_ApproveBooking_Events(t *testing.T) {
	ctx := context.Background()

	t.Run("level advanced", func(t *testing.T) {
		f := newFixture()
		res := &workflow.Result{
			Booking:        &domain.Booking{ID: 5, RequesterID: 2, Status: domain.BookingStatusPending, CurrentApprovalLevel: 2},
			Approval:       domain.Approval{Level: 1, Outcome: domain.ApprovalOutcomeApproved},
			NextApproverID: 4,
		}
		f.flow.On("ApproveBooking", ctx, int64(5), int64(3)).Return(res, nil)
		f.cache.On("InvalidateBooking", ctx, int64(5)).Return(nil)
		advanced := mock.MatchedBy(func(e kafka.BookingEvent) bool {
			return e.Type == kafka.EventBookingLevelAdvanced && e.Level == 1 && e.NextApproverID == 4 && e.ActorID == 3
		})
		f.producer.On("Publish", ctx, mock.Anything, "booking-5", advanced).Return(nil).Twice()

		b, err := f.service.ApproveBooking(ctx, 5, 3)

		require.NoError(t, err)
		assert.Equal(t, res.Booking, b)
		f.producer.AssertExpectations(t)
	})

	t.Run("final approval survives publish failure", func(t *testing.T) {
		f := newFixture()
		res := &workflow.Result{
			Booking:  &domain.Booking{ID: 5, Status: domain.BookingStatusApproved, CurrentApprovalLevel: 2},
			Approval: domain.Approval{Level: 2, Outcome: domain.ApprovalOutcomeApproved},
		}
		f.flow.On("ApproveBooking", ctx, int64(5), int64(4)).Return(res, nil)
		f.cache.On("InvalidateBooking", ctx, int64(5)).Return(errors.New("redis down"))
		f.producer.On("Publish", ctx, "booking-events", "booking-5", mock.MatchedBy(func(e kafka.BookingEvent) bool {
			return e.Type == kafka.EventBookingApproved
		})).Return(errors.New("broker down")).Once()

		b, err := f.service.ApproveBooking(ctx, 5, 4)

		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusApproved, b.Status)
		f.producer.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("guard failure passes through without side effects", func(t *testing.T) {
		f := newFixture()
		f.flow.On("ApproveBooking", ctx, int64(5), int64(9)).Return(nil, domain.ErrUnauthorizedApprover)

		_, err := f.service.ApproveBooking(ctx, 5, 9)

		assert.Same(t, domain.ErrUnauthorizedApprover, err)
		f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "InvalidateBooking", mock.Anything, mock.Anything)
	})
}

func TestBookingService_RejectBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("no topic configured", func(t *testing.T) {
		f := newFixture(WithProducer(&MockProducer{}, ""))
		res := &workflow.Result{
			Booking:  &domain.Booking{ID: 8, Status: domain.BookingStatusRejected, CurrentApprovalLevel: 1},
			Approval: domain.Approval{Level: 1, Outcome: domain.ApprovalOutcomeRejected, Notes: "vehicle needed elsewhere"},
		}
		f.flow.On("RejectBooking", ctx, int64(8), int64(3), "vehicle needed elsewhere").Return(res, nil)
		f.cache.On("InvalidateBooking", ctx, int64(8)).Return(nil)

		b, err := f.service.RejectBooking(ctx, 8, 3, "vehicle needed elsewhere")

		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusRejected, b.Status)
		f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("notes too long", func(t *testing.T) {
		f := newFixture()
		long := make([]rune, defaultMaxNotesLength+1)
		for i := range long {
			long[i] = 'x'
		}

		_, err := f.service.RejectBooking(ctx, 8, 3, string(long))

		assert.ErrorIs(t, err, domain.ErrValidation)
		f.flow.AssertNotCalled(t, "RejectBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()
	b := &domain.Booking{ID: 3, Status: domain.BookingStatusPending, CurrentApprovalLevel: 1, Approver1ID: 11}
	records := []domain.Approval{}

	t.Run("cache miss loads and fills", func(t *testing.T) {
		f := newFixture()
		f.cache.On("GetBooking", ctx, int64(3)).Return(nil, nil)
		f.store.BookingRepo.On("GetByID", ctx, int64(3)).Return(b, nil)
		f.cache.On("SetBooking", ctx, b).Return(nil)
		f.store.ApprovalRepo.On("ListByBooking", ctx, int64(3)).Return(records, nil)
		f.authorizer.On("CanAct", ctx, f.store.UserRepo, b, int64(11)).Return(true, nil)

		details, err := f.service.GetBooking(ctx, 3, 11)

		require.NoError(t, err)
		assert.Equal(t, b, details.Booking)
		assert.True(t, details.CanAct)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache hit", func(t *testing.T) {
		f := newFixture()
		f.cache.On("GetBooking", ctx, int64(3)).Return(b, nil)
		f.store.ApprovalRepo.On("ListByBooking", ctx, int64(3)).Return(records, nil)

		details, err := f.service.GetBooking(ctx, 3, 0)

		require.NoError(t, err)
		assert.False(t, details.CanAct)
		f.store.BookingRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.authorizer.AssertNotCalled(t, "CanAct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.cache.On("GetBooking", ctx, int64(4)).Return(nil, errors.New("redis down"))
		f.store.BookingRepo.On("GetByID", ctx, int64(4)).Return(nil, repository.ErrNotFound)

		_, err := f.service.GetBooking(ctx, 4, 11)

		assert.Same(t, domain.ErrBookingNotFound, err)
	})
}

func TestBookingService_ListPendingForApprover(t *testing.T) {
	ctx := context.Background()
	pending := []domain.Booking{{ID: 1, Status: domain.BookingStatusPending}}

	t.Run("designated", func(t *testing.T) {
		f := newFixture()
		f.store.BookingRepo.On("ListPendingForApprover", ctx, int64(3)).Return(pending, nil)

		got, err := f.service.ListPendingForApprover(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, pending, got)
	})

	t.Run("directory", func(t *testing.T) {
		f := newFixture(WithApproverStrategy(StrategyDirectory))
		level := 2
		f.store.UserRepo.On("GetByID", ctx, int64(3)).Return(&domain.User{ID: 3, Role: domain.RoleApprover, ApprovalLevel: &level}, nil)
		f.store.BookingRepo.On("ListPendingAtLevel", ctx, 2).Return(pending, nil)

		got, err := f.service.ListPendingForApprover(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, pending, got)
	})

	t.Run("directory, not an approver", func(t *testing.T) {
		f := newFixture(WithApproverStrategy(StrategyDirectory))
		f.store.UserRepo.On("GetByID", ctx, int64(5)).Return(&domain.User{ID: 5, Role: domain.RoleEmployee}, nil)

		got, err := f.service.ListPendingForApprover(ctx, 5)

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestBookingService_ListActivities_ClampsLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.ActivityRepo.On("ListRecent", ctx, defaultActivityLimit).Return([]domain.ActivityLog{}, nil).Once()
	f.store.ActivityRepo.On("ListRecent", ctx, maxActivityLimit).Return([]domain.ActivityLog{}, nil).Once()

	_, err := f.service.ListActivities(ctx, 0)
	require.NoError(t, err)
	_, err = f.service.ListActivities(ctx, 10_000)
	require.NoError(t, err)

	f.store.ActivityRepo.AssertExpectations(t)
}

func TestBookingService_ListBookings_HidesStoreErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	filter := domain.BookingFilter{Status: domain.BookingStatusApproved}
	f.store.BookingRepo.On("List", ctx, filter).Return([]domain.Booking(nil), errors.New("syntax error at or near"))

	_, err := f.service.ListBookings(ctx, filter)

	assert.ErrorIs(t, err, domain.ErrInfrastructure)
}
