package service

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"alwahis/pkg/events"
	"alwahis/pkg/logger"
	"alwahis/pkg/metrics"
	"alwahis/pkg/models"
	"alwahis/storage"
)

// RideListFilter narrows ListActive. Zero values mean "any".
type RideListFilter struct {
	DepartureCity   string
	DestinationCity string
	// Date keeps rides departing on this calendar day.
	Date     *time.Time
	MinSeats int
}

type RideService interface {
	Publish(ctx context.Context, req models.PublishRide) (*models.Ride, error)
	Get(ctx context.Context, id int64) (*models.Ride, error)
	// ReserveSeats atomically takes count seats from an active ride and
	// returns what is left.
	ReserveSeats(ctx context.Context, id int64, count int) (int, error)
	Cancel(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	// Delete marks the ride deleted. The row is kept.
	Delete(ctx context.Context, id int64) error
	ListActive(ctx context.Context, filter RideListFilter) iter.Seq2[*models.Ride, error]
}

type rideService struct {
	stg storage.IStorage
	log logger.ILogger
	opt Options
}

func NewRideService(stg storage.IStorage, log logger.ILogger, opts Options) RideService {
	return &rideService{
		stg: stg,
		log: log,
		opt: opts.withDefaults(),
	}
}

func (s *rideService) Publish(ctx context.Context, req models.PublishRide) (*models.Ride, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	car, err := s.stg.Car().GetByID(ctx, req.CarID)
	if err != nil {
		return nil, fmt.Errorf("car %d: %w", req.CarID, err)
	}
	if car.DriverID != req.DriverID {
		return nil, models.NewValidationError("car_id", "car does not belong to the driver")
	}

	ride, err := s.stg.Ride().Create(ctx, &models.Ride{
		DriverID:       req.DriverID,
		CarID:          req.CarID,
		Route:          req.Route,
		DepartureTime:  req.DepartureTime,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		PricePerSeat:   req.PricePerSeat,
		Status:         models.RideActive,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ride published",
		logger.Int64("ride_id", ride.ID),
		logger.Int64("driver_id", ride.DriverID),
		logger.String("from", ride.DepartureCity),
		logger.String("to", ride.DestinationCity),
	)
	metrics.RidesPublished.Inc()
	publish(ctx, s.opt.Publisher, s.log, events.New(events.RidePublished, ride.ID, ride))
	return ride, nil
}

func (s *rideService) validate(req models.PublishRide) error {
	switch {
	case strings.TrimSpace(req.Route.DepartureCity) == "":
		return models.NewValidationError("departure_city", "is required")
	case strings.TrimSpace(req.Route.DestinationCity) == "":
		return models.NewValidationError("destination_city", "is required")
	case req.TotalSeats < 1:
		return models.NewValidationError("total_seats", "must be at least 1")
	case req.PricePerSeat <= 0:
		return models.NewValidationError("price_per_seat", "must be positive")
	case req.DepartureTime.IsZero():
		return models.NewValidationError("departure_time", "is required")
	case req.DepartureTime.Before(s.opt.Now()):
		return models.NewValidationError("departure_time", "must not be in the past")
	}
	return nil
}

func (s *rideService) Get(ctx context.Context, id int64) (*models.Ride, error) {
	ride, err := s.stg.Ride().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ride %d: %w", id, err)
	}
	return ride, nil
}

func (s *rideService) ReserveSeats(ctx context.Context, id int64, count int) (int, error) {
	if count < 1 {
		return 0, models.NewValidationError("seats", "must be at least 1")
	}
	left, err := s.stg.Ride().Reserve(ctx, id, count)
	if err != nil {
		return 0, fmt.Errorf("ride %d: %w", id, err)
	}
	return left, nil
}

func (s *rideService) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, []models.RideStatus{models.RideActive}, models.RideCancelled)
}

func (s *rideService) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, []models.RideStatus{models.RideActive}, models.RideCompleted)
}

func (s *rideService) Delete(ctx context.Context, id int64) error {
	return s.transition(ctx, id,
		[]models.RideStatus{models.RideActive, models.RideCompleted, models.RideCancelled},
		models.RideDeleted,
	)
}

func (s *rideService) transition(ctx context.Context, id int64, from []models.RideStatus, to models.RideStatus) error {
	if err := s.stg.Ride().UpdateStatus(ctx, id, from, to); err != nil {
		return fmt.Errorf("ride %d -> %s: %w", id, to, err)
	}
	s.log.Info("ride status changed", logger.Int64("ride_id", id), logger.String("status", string(to)))
	return nil
}

func (s *rideService) ListActive(ctx context.Context, filter RideListFilter) iter.Seq2[*models.Ride, error] {
	f := storage.RideFilter{
		DepartureCity:     filter.DepartureCity,
		DestinationCity:   filter.DestinationCity,
		Statuses:          []models.RideStatus{models.RideActive},
		MinAvailableSeats: filter.MinSeats,
		SortBy:            storage.SortByDepartureTime,
	}
	if filter.Date != nil {
		start, end := dayRange(*filter.Date, s.opt.Location)
		f.DepartureFrom, f.DepartureBefore = &start, &end
	}

	return batched(ctx, s.opt.BatchSize, func(ctx context.Context, limit, offset int) ([]*models.Ride, error) {
		page := f
		page.Limit, page.Offset = limit, offset
		return s.stg.Ride().List(ctx, page)
	})
}
