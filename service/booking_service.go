package service

import (
	"context"
	"errors"
	"fmt"

	"alwahis/pkg/events"
	"alwahis/pkg/logger"
	"alwahis/pkg/metrics"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type BookingService interface {
	// Book reserves seats on the ride for the request and marks the request
	// matched. Either every write applies or none does.
	Book(ctx context.Context, rideID, requestID int64, seats int) (*models.BookingResult, error)
}

type bookingService struct {
	stg storage.IStorage
	log logger.ILogger
	opt Options
}

func NewBookingService(stg storage.IStorage, log logger.ILogger, opts Options) BookingService {
	return &bookingService{
		stg: stg,
		log: log,
		opt: opts.withDefaults(),
	}
}

func (s *bookingService) Book(ctx context.Context, rideID, requestID int64, seats int) (*models.BookingResult, error) {
	var result *models.BookingResult

	err := s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		req, err := tx.Request().GetByID(ctx, requestID)
		if err != nil {
			return fmt.Errorf("ride request %d: %w", requestID, err)
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("ride request %d is %s: %w", requestID, req.Status, models.ErrInvalidStateTransition)
		}
		if err := s.checkSeats(req, seats); err != nil {
			return err
		}

		ride, err := tx.Ride().GetByID(ctx, rideID)
		if err != nil {
			return fmt.Errorf("ride %d: %w", rideID, err)
		}
		if err := compatible(ride, req, s.opt.Location); err != nil {
			return err
		}
		if req.FullCarBooking && seats != ride.TotalSeats {
			return models.NewValidationError("seats", fmt.Sprintf("full car booking must take all %d seats", ride.TotalSeats))
		}

		left, err := tx.Ride().Reserve(ctx, rideID, seats)
		if err != nil {
			return fmt.Errorf("ride %d: %w", rideID, err)
		}

		err = tx.Request().UpdateStatus(ctx, requestID, []models.RequestStatus{models.RequestPending}, models.RequestMatched)
		if err != nil {
			return fmt.Errorf("ride request %d: %w", requestID, err)
		}

		booking, err := tx.Booking().Create(ctx, &models.Booking{
			RideID:     rideID,
			RequestID:  requestID,
			Seats:      seats,
			TotalPrice: int64(seats) * ride.PricePerSeat,
		})
		if err != nil {
			return err
		}

		result = &models.BookingResult{
			BookingID:      booking.ID,
			RideID:         rideID,
			RequestID:      requestID,
			Seats:          seats,
			RemainingSeats: left,
			TotalPrice:     booking.TotalPrice,
			BookedAt:       booking.CreatedAt,
		}
		return nil
	})
	if err != nil {
		s.record(rideID, requestID, err)
		return nil, err
	}

	s.log.Info("booking committed",
		logger.Int64("booking_id", result.BookingID),
		logger.Int64("ride_id", rideID),
		logger.Int64("request_id", requestID),
		logger.Int("seats", seats),
		logger.Int("remaining", result.RemainingSeats),
	)
	metrics.BookingsTotal.WithLabelValues(metrics.OutcomeCommitted).Inc()
	metrics.SeatsBooked.Add(float64(seats))
	publish(ctx, s.opt.Publisher, s.log, events.New(events.BookingCommitted, result.BookingID, result))
	return result, nil
}

func (s *bookingService) checkSeats(req *models.RideRequest, seats int) error {
	if s.opt.AllowPartialBooking {
		if seats < 1 || seats > req.SeatsNeeded {
			return models.NewValidationError("seats", fmt.Sprintf("must be between 1 and %d", req.SeatsNeeded))
		}
		return nil
	}
	if seats != req.SeatsNeeded {
		return models.NewValidationError("seats", fmt.Sprintf("must equal seats needed (%d)", req.SeatsNeeded))
	}
	return nil
}

func (s *bookingService) record(rideID, requestID int64, err error) {
	fields := []logger.Field{
		logger.Int64("ride_id", rideID),
		logger.Int64("request_id", requestID),
		logger.Error(err),
	}
	switch {
	case errors.Is(err, models.ErrInsufficientCapacity):
		metrics.BookingsTotal.WithLabelValues(metrics.OutcomeInsufficientCapacity).Inc()
		s.log.Info("booking rejected: insufficient capacity", fields...)
	case models.IsDomainError(err):
		metrics.BookingsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		s.log.Info("booking rejected", fields...)
	default:
		metrics.BookingsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.Error("booking failed", fields...)
	}
}
