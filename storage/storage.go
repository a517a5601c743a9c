package storage

import (
	"context"

	"alwahis/pkg/models"
)

type IStorage interface {
	User() IUserStorage
	Car() ICarStorage
	Ride() IRideStorage
	Request() IRequestStorage
	Booking() IBookingStorage
	Stats() IStatsStorage

	// WithTx runs fn against a transactional view of the storage. Every write
	// made through tx commits together when fn returns nil and is discarded
	// otherwise.
	WithTx(ctx context.Context, fn func(tx IStorage) error) error

	Ping(ctx context.Context) error
	Close()
}

type IUserStorage interface {
	GetOrCreate(ctx context.Context, phone, name, role string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type ICarStorage interface {
	Create(ctx context.Context, car *models.Car) (*models.Car, error)
	GetByID(ctx context.Context, id int64) (*models.Car, error)
	// GetFirstByDriver returns the driver's earliest registered car.
	GetFirstByDriver(ctx context.Context, driverID int64) (*models.Car, error)
}

type IRideStorage interface {
	Create(ctx context.Context, ride *models.Ride) (*models.Ride, error)
	GetByID(ctx context.Context, id int64) (*models.Ride, error)
	List(ctx context.Context, filter RideFilter) ([]*models.Ride, error)
	Count(ctx context.Context, filter RideFilter) (int, error)
	// Reserve decrements available seats only if the ride is active and has at
	// least seats left. It returns the remaining seat count.
	Reserve(ctx context.Context, id int64, seats int) (int, error)
	// UpdateStatus moves the ride to status `to` only if its current status is
	// one of `from`.
	UpdateStatus(ctx context.Context, id int64, from []models.RideStatus, to models.RideStatus) error
	// Delete physically removes the ride and its bookings.
	Delete(ctx context.Context, id int64) error
}

type IRequestStorage interface {
	Create(ctx context.Context, req *models.RideRequest) (*models.RideRequest, error)
	GetByID(ctx context.Context, id int64) (*models.RideRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*models.RideRequest, error)
	UpdateStatus(ctx context.Context, id int64, from []models.RequestStatus, to models.RequestStatus) error
}

type IBookingStorage interface {
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	GetByRide(ctx context.Context, rideID int64) ([]*models.Booking, error)
}

type IStatsStorage interface {
	Counts(ctx context.Context) (*models.Stats, error)
	PopularRoutes(ctx context.Context, limit int) ([]models.RouteCount, error)
}
