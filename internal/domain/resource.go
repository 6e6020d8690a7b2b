package domain

import "time"

type ResourceStatus string

const (
	ResourceStatusAvailable   ResourceStatus = "AVAILABLE"
	ResourceStatusInService   ResourceStatus = "IN_SERVICE"
	ResourceStatusUnavailable ResourceStatus = "UNAVAILABLE"
)

type Vehicle struct {
	ID          int64
	PlateNumber string
	Brand       string
	Model       string
	Type        string
	Status      ResourceStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Driver struct {
	ID            int64
	Name          string
	LicenseNumber string
	Phone         string
	Status        ResourceStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ActivityLog struct {
	ID        int64
	UserID    *int64
	Activity  string
	CreatedAt time.Time
}
