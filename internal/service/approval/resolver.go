package approval

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/repository"
)

// UserDirectory is the user store a lookup runs on. Inside a transaction it
// must be the transaction's own repository.
type UserDirectory interface {
	FindApproverByLevel(ctx context.Context, level int) (*domain.User, error)
}

// ApproverResolver answers who may act on a booking at a given level.
// ok is false when nobody is configured for the level.
type ApproverResolver interface {
	ExpectedApprover(ctx context.Context, users UserDirectory, booking *domain.Booking, level int) (approverID int64, ok bool, err error)
}

// approverHinter is implemented by resolvers that can answer read-side
// questions from a cache. Its answer never authorizes a transition.
type approverHinter interface {
	ApproverHint(ctx context.Context, users UserDirectory, booking *domain.Booking, level int) (int64, bool, error)
}

// DesignatedApprovers reads the two approvers fixed on the booking at creation.
type DesignatedApprovers struct{}

func NewDesignatedApprovers() DesignatedApprovers {
	return DesignatedApprovers{}
}

func (DesignatedApprovers) ExpectedApprover(_ context.Context, _ UserDirectory, booking *domain.Booking, level int) (int64, bool, error) {
	id, ok := booking.DesignatedApprover(level)
	return id, ok, nil
}

type ApproverCache interface {
	GetApprover(ctx context.Context, level int) (int64, bool, error)
	SetApprover(ctx context.Context, level int, approverID int64) error
}

// DirectoryApprovers looks up the single approver registered for a level,
// ignoring the ids stored on the booking.
type DirectoryApprovers struct {
	cache ApproverCache
}

type DirectoryOption func(*DirectoryApprovers)

// WithApproverCache lets read-side lookups answer from cache. Lookups that
// decide a transition always hit the directory and refresh the entry.
func WithApproverCache(cache ApproverCache) DirectoryOption {
	return func(d *DirectoryApprovers) {
		d.cache = cache
	}
}

func NewDirectoryApprovers(opts ...DirectoryOption) *DirectoryApprovers {
	d := &DirectoryApprovers{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DirectoryApprovers) ExpectedApprover(ctx context.Context, users UserDirectory, _ *domain.Booking, level int) (int64, bool, error) {
	user, err := users.FindApproverByLevel(ctx, level)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("find approver for level %d: %w", level, err)
	}

	if d.cache != nil {
		if err := d.cache.SetApprover(ctx, level, user.ID); err != nil {
			log.Printf("[approval] approver cache write level %d: %v", level, err)
		}
	}
	return user.ID, true, nil
}

func (d *DirectoryApprovers) ApproverHint(ctx context.Context, users UserDirectory, b *domain.Booking, level int) (int64, bool, error) {
	if d.cache != nil {
		id, hit, err := d.cache.GetApprover(ctx, level)
		if err != nil {
			log.Printf("[approval] approver cache read level %d: %v", level, err)
		} else if hit {
			return id, true, nil
		}
	}
	return d.ExpectedApprover(ctx, users, b, level)
}

var (
	_ ApproverResolver = DesignatedApprovers{}
	_ ApproverResolver = (*DirectoryApprovers)(nil)
	_ approverHinter   = (*DirectoryApprovers)(nil)
)
