package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/kafka"
	"github.com/andhikadk/smi-test/internal/repository"
	"github.com/andhikadk/smi-test/internal/service/approval"
	"github.com/andhikadk/smi-test/internal/service/workflow"
)

const (
	StrategyDesignated = "designated"
	StrategyDirectory  = "directory"

	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ApproveBooking(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error)
	RejectBooking(ctx context.Context, bookingID, actorID int64, notes string) (*domain.Booking, error)
	GetBooking(ctx context.Context, id, viewerID int64) (*BookingDetails, error)
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	ListPendingForApprover(ctx context.Context, approverID int64) ([]domain.Booking, error)
	ListActivities(ctx context.Context, limit int) ([]domain.ActivityLog, error)
}

type Cache interface {
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	SetBooking(ctx context.Context, booking *domain.Booking) error
	InvalidateBooking(ctx context.Context, id int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Authorizer tells whether a viewer may act on a booking right now.
type Authorizer interface {
	CanAct(ctx context.Context, users approval.UserDirectory, b *domain.Booking, actorID int64) (bool, error)
}

type CreateBookingInput struct {
	ActorID     int64     `json:"-"`
	RequesterID int64     `json:"requester_id"`
	VehicleID   int64     `json:"vehicle_id"`
	DriverID    int64     `json:"driver_id"`
	Approver1ID int64     `json:"approver_1_id"`
	Approver2ID int64     `json:"approver_2_id"`
	Purpose     string    `json:"purpose"`
	StartAt     time.Time `json:"start_datetime"`
	EndAt       time.Time `json:"end_datetime"`
}

type BookingDetails struct {
	Booking   *domain.Booking
	Approvals []domain.Approval
	// CanAct is true when the viewer is the approver the booking waits on.
	CanAct bool
}

type BookingService struct {
	workflow           workflow.WorkflowUseCase
	authorizer         Authorizer
	store              repository.UnitOfWork
	validator          *Validator
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	strategy           string
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithApproverStrategy(strategy string) BookingServiceOption {
	return func(s *BookingService) {
		s.strategy = strategy
	}
}

// NewBookingService wires the request-facing use case. store is used for
// reads only; every write goes through flow.
func NewBookingService(
	flow workflow.WorkflowUseCase,
	authorizer Authorizer,
	store repository.UnitOfWork,
	validator *Validator,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		workflow:   flow,
		authorizer: authorizer,
		store:      store,
		validator:  validator,
		strategy:   StrategyDesignated,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := s.validator.ValidateCreate(ctx, input); err != nil {
		return nil, s.failure(err, "validating the booking")
	}

	res, err := s.workflow.CreateBooking(ctx, workflow.CreateInput{
		ActorID:     input.ActorID,
		RequesterID: input.RequesterID,
		VehicleID:   input.VehicleID,
		DriverID:    input.DriverID,
		Approver1ID: input.Approver1ID,
		Approver2ID: input.Approver2ID,
		Purpose:     input.Purpose,
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
	})
	if err != nil {
		return nil, err
	}

	event := kafka.NewBookingEvent(kafka.EventBookingCreated)
	event.ActorID = input.ActorID
	event.NextApproverID = res.NextApproverID
	s.afterCommit(ctx, res.Booking, event)
	return res.Booking, nil
}

func (s *BookingService) ApproveBooking(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error) {
	res, err := s.workflow.ApproveBooking(ctx, bookingID, actorID)
	if err != nil {
		return nil, err
	}

	eventType := kafka.EventBookingLevelAdvanced
	if res.Final() {
		eventType = kafka.EventBookingApproved
	}
	event := kafka.NewBookingEvent(eventType)
	event.ActorID = actorID
	event.Level = res.Approval.Level
	event.NextApproverID = res.NextApproverID
	s.afterCommit(ctx, res.Booking, event)
	return res.Booking, nil
}

func (s *BookingService) RejectBooking(ctx context.Context, bookingID, actorID int64, notes string) (*domain.Booking, error) {
	if err := s.validator.ValidateNotes(notes); err != nil {
		return nil, err
	}

	res, err := s.workflow.RejectBooking(ctx, bookingID, actorID, notes)
	if err != nil {
		return nil, err
	}

	event := kafka.NewBookingEvent(kafka.EventBookingRejected)
	event.ActorID = actorID
	event.Level = res.Approval.Level
	event.Notes = res.Approval.Notes
	s.afterCommit(ctx, res.Booking, event)
	return res.Booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id, viewerID int64) (*BookingDetails, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	approvals, err := s.store.Approvals().ListByBooking(ctx, id)
	if err != nil {
		return nil, s.failure(err, "loading the booking")
	}

	canAct := false
	if viewerID != 0 {
		if canAct, err = s.authorizer.CanAct(ctx, s.store.Users(), b, viewerID); err != nil {
			return nil, s.failure(err, "loading the booking")
		}
	}
	return &BookingDetails{Booking: b, Approvals: approvals, CanAct: canAct}, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	bookings, err := s.store.Bookings().List(ctx, filter)
	if err != nil {
		return nil, s.failure(err, "listing bookings")
	}
	return bookings, nil
}

func (s *BookingService) ListPendingForApprover(ctx context.Context, approverID int64) ([]domain.Booking, error) {
	var (
		bookings []domain.Booking
		err      error
	)
	if s.strategy == StrategyDirectory {
		bookings, err = s.pendingAtDirectoryLevel(ctx, approverID)
	} else {
		bookings, err = s.store.Bookings().ListPendingForApprover(ctx, approverID)
	}
	if err != nil {
		return nil, s.failure(err, "listing pending bookings")
	}
	return bookings, nil
}

func (s *BookingService) pendingAtDirectoryLevel(ctx context.Context, approverID int64) ([]domain.Booking, error) {
	u, err := s.store.Users().GetByID(ctx, approverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Booking{}, nil
		}
		return nil, err
	}
	if !u.IsApprover() || u.ApprovalLevel == nil {
		return []domain.Booking{}, nil
	}
	return s.store.Bookings().ListPendingAtLevel(ctx, *u.ApprovalLevel)
}

func (s *BookingService) ListActivities(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	logs, err := s.store.Activities().ListRecent(ctx, limit)
	if err != nil {
		return nil, s.failure(err, "listing activities")
	}
	return logs, nil
}

func (s *BookingService) loadBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	if s.cache != nil {
		cached, err := s.cache.GetBooking(ctx, id)
		if err != nil {
			log.Printf("[booking] cache read booking %d: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, s.failure(err, "loading the booking")
	}

	if s.cache != nil {
		if err := s.cache.SetBooking(ctx, b); err != nil {
			log.Printf("[booking] cache write booking %d: %v", id, err)
		}
	}
	return b, nil
}

// afterCommit runs side effects of an already committed write. Failures are
// logged and never reach the caller.
func (s *BookingService) afterCommit(ctx context.Context, b *domain.Booking, event kafka.BookingEvent) {
	if s.cache != nil {
		if err := s.cache.InvalidateBooking(ctx, b.ID); err != nil {
			log.Printf("[booking] WARNING: invalidate cache for booking %d: %v", b.ID, err)
		}
	}
	if err := s.publish(ctx, b, event); err != nil {
		log.Printf("[booking] WARNING: publish %s for booking %d: %v", event.Type, b.ID, err)
	}
}

func (s *BookingService) publish(ctx context.Context, b *domain.Booking, event kafka.BookingEvent) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event.BookingID = b.ID
	event.RequesterID = b.RequesterID
	event.Status = string(b.Status)
	if event.Level == 0 {
		event.Level = b.CurrentApprovalLevel
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, event.Key(), event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, event.Key(), event)
	}
	return nil
}

// failure keeps business errors and hides the rest.
func (s *BookingService) failure(err error, op string) error {
	if domain.IsBusinessRule(err) {
		return err
	}
	var infra *domain.InfrastructureError
	if errors.As(err, &infra) {
		return err
	}
	log.Printf("[booking] %s: %v", op, err)
	return &domain.InfrastructureError{Op: op}
}

var _ BookingUseCase = (*BookingService)(nil)
