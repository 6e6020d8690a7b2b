package availability

import (
	"context"
	"errors"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/repository"
)

var ErrInvalidWindow = errors.New("window end must not be before start")

type AvailabilityUseCase interface {
	AvailableVehicles(ctx context.Context, start, end time.Time) ([]domain.Vehicle, error)
	AvailableDrivers(ctx context.Context, start, end time.Time) ([]domain.Driver, error)
	IsVehicleAvailable(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error)
	IsDriverAvailable(ctx context.Context, driverID int64, start, end time.Time) (bool, error)
}

// Checker is read-only: it never writes to the store.
type Checker struct {
	bookings repository.BookingRepository
	vehicles repository.VehicleRepository
	drivers  repository.DriverRepository
}

func NewChecker(bookings repository.BookingRepository, vehicles repository.VehicleRepository, drivers repository.DriverRepository) *Checker {
	return &Checker{bookings: bookings, vehicles: vehicles, drivers: drivers}
}

func (c *Checker) AvailableVehicles(ctx context.Context, start, end time.Time) ([]domain.Vehicle, error) {
	busy, err := c.busy(ctx, start, end, func(b domain.Booking) int64 { return b.VehicleID })
	if err != nil {
		return nil, err
	}
	candidates, err := c.vehicles.ListByStatus(ctx, domain.ResourceStatusAvailable)
	if err != nil {
		return nil, err
	}

	free := make([]domain.Vehicle, 0, len(candidates))
	for _, v := range candidates {
		if !busy[v.ID] {
			free = append(free, v)
		}
	}
	return free, nil
}

func (c *Checker) AvailableDrivers(ctx context.Context, start, end time.Time) ([]domain.Driver, error) {
	busy, err := c.busy(ctx, start, end, func(b domain.Booking) int64 { return b.DriverID })
	if err != nil {
		return nil, err
	}
	candidates, err := c.drivers.ListByStatus(ctx, domain.ResourceStatusAvailable)
	if err != nil {
		return nil, err
	}

	free := make([]domain.Driver, 0, len(candidates))
	for _, d := range candidates {
		if !busy[d.ID] {
			free = append(free, d)
		}
	}
	return free, nil
}

func (c *Checker) IsVehicleAvailable(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error) {
	v, err := c.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if v.Status != domain.ResourceStatusAvailable {
		return false, nil
	}
	busy, err := c.busy(ctx, start, end, func(b domain.Booking) int64 { return b.VehicleID })
	if err != nil {
		return false, err
	}
	return !busy[vehicleID], nil
}

func (c *Checker) IsDriverAvailable(ctx context.Context, driverID int64, start, end time.Time) (bool, error) {
	d, err := c.drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if d.Status != domain.ResourceStatusAvailable {
		return false, nil
	}
	busy, err := c.busy(ctx, start, end, func(b domain.Booking) int64 { return b.DriverID })
	if err != nil {
		return false, err
	}
	return !busy[driverID], nil
}

// busy collects resource ids held by a blocking booking in the window. The
// store prefilters, the overlap rule is re-applied here so the result does not
// depend on how the store expresses it.
func (c *Checker) busy(ctx context.Context, start, end time.Time, resource func(domain.Booking) int64) (map[int64]bool, error) {
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	bookings, err := c.bookings.ListBlocking(ctx, start, end)
	if err != nil {
		return nil, err
	}

	busy := make(map[int64]bool, len(bookings))
	for _, b := range bookings {
		if !b.Status.BlocksAvailability() || !b.Overlaps(start, end) {
			continue
		}
		busy[resource(b)] = true
	}
	return busy, nil
}

var _ AvailabilityUseCase = (*Checker)(nil)
