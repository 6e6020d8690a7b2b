package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/repository"
)

// memStore is a transactional in-memory entity store. Transactions are
// serialized and a failed transaction restores the snapshot taken at start.
type memStore struct {
	mu    sync.Mutex
	state memState

	failAppend   error
	failApproval error
	// beforeUpdate runs inside UpdateTransition, simulating a concurrent writer.
	beforeUpdate func(st *memState)
	// directoryLookups records, per approver lookup, whether it ran inside a transaction.
	directoryLookups []bool
}

type memState struct {
	bookings   map[int64]domain.Booking
	approvals  []domain.Approval
	activities []domain.ActivityLog
	users      map[int64]domain.User
	vehicles   map[int64]domain.Vehicle
	drivers    map[int64]domain.Driver
	lastID     int64
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		bookings: map[int64]domain.Booking{},
		users:    map[int64]domain.User{},
		vehicles: map[int64]domain.Vehicle{},
		drivers:  map[int64]domain.Driver{},
	}}
}

func (st memState) clone() memState {
	c := st
	c.bookings = make(map[int64]domain.Booking, len(st.bookings))
	for k, v := range st.bookings {
		c.bookings[k] = v
	}
	c.approvals = append([]domain.Approval(nil), st.approvals...)
	c.activities = append([]domain.ActivityLog(nil), st.activities...)
	return c
}

func (st *memState) nextID() int64 {
	st.lastID++
	return st.lastID
}

func (s *memStore) WithTx(ctx context.Context, fn func(uow repository.UnitOfWork) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()
	return fn(memUnit{s: s, tx: true})
}

func (s *memStore) booking(id int64) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.bookings[id]
}

func (s *memStore) approvals(bookingID int64) []domain.Approval {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Approval
	for _, a := range s.state.approvals {
		if a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) activities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.state.activities))
	for _, a := range s.state.activities {
		out = append(out, a.Activity)
	}
	return out
}

type memUnit struct {
	s  *memStore
	tx bool
}

func (u memUnit) Bookings() repository.BookingRepository   { return memBookings(u) }
func (u memUnit) Approvals() repository.ApprovalRepository { return memApprovals(u) }
func (u memUnit) Activities() repository.ActivityRepository {
	return memActivities(u)
}
func (u memUnit) Users() repository.UserRepository       { return memUsers(u) }
func (u memUnit) Vehicles() repository.VehicleRepository { return memVehicles(u) }
func (u memUnit) Drivers() repository.DriverRepository   { return memDrivers(u) }

type memBookings memUnit

func (r memBookings) Create(_ context.Context, b *domain.Booking) error {
	st := &r.s.state
	if _, ok := st.drivers[b.DriverID]; !ok {
		return repository.ErrForeignKey
	}
	for _, id := range []int64{b.Approver1ID, b.Approver2ID} {
		if _, ok := st.users[id]; !ok {
			return repository.ErrForeignKey
		}
	}
	b.ID = st.nextID()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	st.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.s.state.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r memBookings) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) UpdateTransition(_ context.Context, id int64, fromLevel int, status domain.BookingStatus, level int) (*domain.Booking, error) {
	if r.s.beforeUpdate != nil {
		r.s.beforeUpdate(&r.s.state)
	}
	b, ok := r.s.state.bookings[id]
	if !ok || b.Status != domain.BookingStatusPending || b.CurrentApprovalLevel != fromLevel {
		return nil, repository.ErrConflict
	}
	b.Status = status
	b.CurrentApprovalLevel = level
	b.UpdatedAt = time.Now()
	r.s.state.bookings[id] = b
	return &b, nil
}

func (r memBookings) List(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.s.state.bookings {
		if filter.Status == "" || b.Status == filter.Status {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memBookings) ListPendingForApprover(_ context.Context, approverID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.s.state.bookings {
		if id, ok := b.DesignatedApprover(b.CurrentApprovalLevel); ok && id == approverID && b.Status == domain.BookingStatusPending {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBookings) ListPendingAtLevel(_ context.Context, level int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.s.state.bookings {
		if b.Status == domain.BookingStatusPending && b.CurrentApprovalLevel == level {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBookings) ListBlocking(_ context.Context, start, end time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.s.state.bookings {
		if b.Status.BlocksAvailability() && b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memApprovals memUnit

func (r memApprovals) Create(_ context.Context, a *domain.Approval) error {
	if r.s.failApproval != nil {
		return r.s.failApproval
	}
	st := &r.s.state
	for _, existing := range st.approvals {
		if existing.BookingID == a.BookingID && existing.Level == a.Level {
			return repository.ErrConflict
		}
	}
	a.ID = st.nextID()
	st.approvals = append(st.approvals, *a)
	return nil
}

func (r memApprovals) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Approval, error) {
	var out []domain.Approval
	for _, a := range r.s.state.approvals {
		if a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memActivities memUnit

func (r memActivities) Append(_ context.Context, activity string, userID *int64) error {
	if r.s.failAppend != nil {
		return r.s.failAppend
	}
	st := &r.s.state
	st.activities = append(st.activities, domain.ActivityLog{ID: st.nextID(), UserID: userID, Activity: activity, CreatedAt: time.Now()})
	return nil
}

func (r memActivities) ListRecent(_ context.Context, limit int) ([]domain.ActivityLog, error) {
	logs := r.s.state.activities
	if len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	return logs, nil
}

type memUsers memUnit

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindApproverByLevel(_ context.Context, level int) (*domain.User, error) {
	r.s.directoryLookups = append(r.s.directoryLookups, r.tx)
	for _, u := range r.s.state.users {
		if u.IsApprover() && u.ApprovalLevel != nil && *u.ApprovalLevel == level {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memVehicles memUnit

func (r memVehicles) GetByID(_ context.Context, id int64) (*domain.Vehicle, error) {
	v, ok := r.s.state.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r memVehicles) ListByStatus(_ context.Context, status domain.ResourceStatus) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for _, v := range r.s.state.vehicles {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out, nil
}

type memDrivers memUnit

func (r memDrivers) GetByID(_ context.Context, id int64) (*domain.Driver, error) {
	d, ok := r.s.state.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r memDrivers) ListByStatus(_ context.Context, status domain.ResourceStatus) ([]domain.Driver, error) {
	var out []domain.Driver
	for _, d := range r.s.state.drivers {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

var _ repository.Transactor = (*memStore)(nil)
