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

// RequestListFilter narrows ListPending by route. Empty cities match any.
type RequestListFilter struct {
	DepartureCity   string
	DestinationCity string
}

type RequestService interface {
	Submit(ctx context.Context, req models.SubmitRequest) (*models.RideRequest, error)
	Get(ctx context.Context, id int64) (*models.RideRequest, error)
	MarkMatched(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64) error
	// ListPending yields pending requests created within maxAge, oldest
	// first. maxAge <= 0 uses the configured horizon.
	ListPending(ctx context.Context, filter RequestListFilter, maxAge time.Duration) iter.Seq2[*models.RideRequest, error]
}

type requestService struct {
	stg storage.IStorage
	log logger.ILogger
	opt Options
}

func NewRequestService(stg storage.IStorage, log logger.ILogger, opts Options) RequestService {
	return &requestService{
		stg: stg,
		log: log,
		opt: opts.withDefaults(),
	}
}

func (s *requestService) Submit(ctx context.Context, req models.SubmitRequest) (*models.RideRequest, error) {
	switch {
	case strings.TrimSpace(req.Route.DepartureCity) == "":
		return nil, models.NewValidationError("departure_city", "is required")
	case strings.TrimSpace(req.Route.DestinationCity) == "":
		return nil, models.NewValidationError("destination_city", "is required")
	case req.SeatsNeeded < 1:
		return nil, models.NewValidationError("seats_needed", "must be at least 1")
	case req.DesiredDate.IsZero():
		return nil, models.NewValidationError("desired_date", "is required")
	}

	pref := req.PreferredCarType
	if pref != nil {
		if v := strings.TrimSpace(*pref); v != "" {
			pref = &v
		} else {
			pref = nil
		}
	}

	out, err := s.stg.Request().Create(ctx, &models.RideRequest{
		RiderID:          req.RiderID,
		Route:            req.Route,
		DesiredDate:      req.DesiredDate,
		SeatsNeeded:      req.SeatsNeeded,
		PreferredCarType: pref,
		FullCarBooking:   req.FullCarBooking,
		Status:           models.RequestPending,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ride request submitted",
		logger.Int64("request_id", out.ID),
		logger.Int64("rider_id", out.RiderID),
		logger.Int("seats", out.SeatsNeeded),
	)
	metrics.RequestsSubmitted.Inc()
	publish(ctx, s.opt.Publisher, s.log, events.New(events.RequestSubmitted, out.ID, out))
	return out, nil
}

func (s *requestService) Get(ctx context.Context, id int64) (*models.RideRequest, error) {
	req, err := s.stg.Request().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ride request %d: %w", id, err)
	}
	return req, nil
}

func (s *requestService) MarkMatched(ctx context.Context, id int64) error {
	return s.transition(ctx, id, models.RequestMatched)
}

func (s *requestService) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, models.RequestCancelled)
}

func (s *requestService) transition(ctx context.Context, id int64, to models.RequestStatus) error {
	err := s.stg.Request().UpdateStatus(ctx, id, []models.RequestStatus{models.RequestPending}, to)
	if err != nil {
		return fmt.Errorf("ride request %d -> %s: %w", id, to, err)
	}
	s.log.Info("ride request status changed", logger.Int64("request_id", id), logger.String("status", string(to)))
	return nil
}

func (s *requestService) ListPending(ctx context.Context, filter RequestListFilter, maxAge time.Duration) iter.Seq2[*models.RideRequest, error] {
	if maxAge <= 0 {
		maxAge = s.opt.RequestMaxAge
	}
	since := s.opt.Now().Add(-maxAge)
	f := storage.RequestFilter{
		DepartureCity:   filter.DepartureCity,
		DestinationCity: filter.DestinationCity,
		Statuses:        []models.RequestStatus{models.RequestPending},
		CreatedSince:    &since,
	}

	return batched(ctx, s.opt.BatchSize, func(ctx context.Context, limit, offset int) ([]*models.RideRequest, error) {
		page := f
		page.Limit, page.Offset = limit, offset
		return s.stg.Request().List(ctx, page)
	})
}
