package repository

import (
	"context"

	"github.com/andhikadk/smi-test/internal/domain"
)

type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	ListByStatus(ctx context.Context, status domain.ResourceStatus) ([]domain.Vehicle, error)
}

type DriverRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Driver, error)
	ListByStatus(ctx context.Context, status domain.ResourceStatus) ([]domain.Driver, error)
}

type PGVehicleRepository struct {
	db DBTX
}

func NewVehicleRepository(db DBTX) VehicleRepository {
	return &PGVehicleRepository{db: db}
}

const vehicleColumns = `id, plate_number, brand, model, type, status, created_at, updated_at`

func (r *PGVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1`, id).
		Scan(&v.ID, &v.PlateNumber, &v.Brand, &v.Model, &v.Type, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *PGVehicleRepository) ListByStatus(ctx context.Context, status domain.ResourceStatus) ([]domain.Vehicle, error) {
	rows, err := r.db.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE status=$1 ORDER BY plate_number`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.PlateNumber, &v.Brand, &v.Model, &v.Type, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

type PGDriverRepository struct {
	db DBTX
}

func NewDriverRepository(db DBTX) DriverRepository {
	return &PGDriverRepository{db: db}
}

const driverColumns = `id, name, license_number, phone, status, created_at, updated_at`

func (r *PGDriverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	var d domain.Driver
	if err := r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=$1`, id).
		Scan(&d.ID, &d.Name, &d.LicenseNumber, &d.Phone, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *PGDriverRepository) ListByStatus(ctx context.Context, status domain.ResourceStatus) ([]domain.Driver, error) {
	rows, err := r.db.Query(ctx, `SELECT `+driverColumns+` FROM drivers WHERE status=$1 ORDER BY name`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drivers := make([]domain.Driver, 0)
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.LicenseNumber, &d.Phone, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

var (
	_ VehicleRepository = (*PGVehicleRepository)(nil)
	_ DriverRepository  = (*PGDriverRepository)(nil)
)
