package service

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"alwahis/pkg/logger"
	"alwahis/pkg/metrics"
	"alwahis/pkg/models"
	"alwahis/storage"
)

const (
	SortDepartureTime = "departure_time"
	SortPricePerSeat  = "price_per_seat"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchOptions refines a ride search. Departure bounds are times of day
// ("15:04") applied to the searched date, both inclusive.
type SearchOptions struct {
	MinPrice          *int64 `json:"min_price"`
	MaxPrice          *int64 `json:"max_price"`
	DepartureFrom     string `json:"departure_from"`
	DepartureTo       string `json:"departure_to"`
	MinAvailableSeats int    `json:"min_available_seats"`
	SortBy            string `json:"sort_by"`
	SortOrder         string `json:"sort_order"`
	Page              int    `json:"page"`
	PerPage           int    `json:"per_page"`
}

// SearchQuery is a free search over active rides. Without a date it covers
// every ride that has not departed yet.
type SearchQuery struct {
	DepartureCity   string     `json:"departure_city"`
	DestinationCity string     `json:"destination_city"`
	Date            *time.Time `json:"date"`
	SearchOptions
}

type MatchService interface {
	// FindCompatibleRequests yields pending requests the ride could serve,
	// oldest first. It never writes.
	FindCompatibleRequests(ctx context.Context, ride *models.Ride) iter.Seq2[*models.RideRequest, error]
	FindCompatibleRides(ctx context.Context, req *models.RideRequest, opts SearchOptions) (*models.SearchResult, error)
	Search(ctx context.Context, q SearchQuery) (*models.SearchResult, error)
}

type matchService struct {
	stg storage.IStorage
	log logger.ILogger
	opt Options
}

func NewMatchService(stg storage.IStorage, log logger.ILogger, opts Options) MatchService {
	return &matchService{
		stg: stg,
		log: log,
		opt: opts.withDefaults(),
	}
}

func (s *matchService) FindCompatibleRequests(ctx context.Context, ride *models.Ride) iter.Seq2[*models.RideRequest, error] {
	if ride == nil || ride.Status != models.RideActive || ride.AvailableSeats < 1 {
		return empty[*models.RideRequest]()
	}

	start, end := dayRange(ride.DepartureTime, s.opt.Location)
	carType := ride.CarType
	f := storage.RequestFilter{
		DepartureCity:     ride.DepartureCity,
		DestinationCity:   ride.DestinationCity,
		Statuses:          []models.RequestStatus{models.RequestPending},
		DesiredFrom:       &start,
		DesiredBefore:     &end,
		MaxSeatsNeeded:    ride.AvailableSeats,
		CompatibleCarType: &carType,
		FullCarSeats:      ride.TotalSeats,
	}

	seq := batched(ctx, s.opt.BatchSize, func(ctx context.Context, limit, offset int) ([]*models.RideRequest, error) {
		defer observe("requests", time.Now())
		page := f
		page.Limit, page.Offset = limit, offset
		return s.stg.Request().List(ctx, page)
	})
	return func(yield func(*models.RideRequest, error) bool) {
		for req, err := range seq {
			if err == nil && compatible(ride, req, s.opt.Location) != nil {
				continue
			}
			if !yield(req, err) {
				return
			}
		}
	}
}

// compatible reports why req cannot ride on ride, or nil when it can. Seat
// capacity is left to the reservation guard.
func compatible(ride *models.Ride, req *models.RideRequest, loc *time.Location) error {
	if ride.Route != req.Route {
		return models.NewValidationError("ride_id", "ride and request routes differ")
	}
	start, end := dayRange(ride.DepartureTime, loc)
	if req.DesiredDate.Before(start) || !req.DesiredDate.Before(end) {
		return models.NewValidationError("ride_id", "ride departs on another day than the request's desired date")
	}
	if req.PreferredCarType != nil && !strings.EqualFold(*req.PreferredCarType, ride.CarType) {
		return models.NewValidationError("ride_id", fmt.Sprintf("ride car type %q does not match preferred %q", ride.CarType, *req.PreferredCarType))
	}
	if req.FullCarBooking && (req.SeatsNeeded != ride.TotalSeats || ride.AvailableSeats != ride.TotalSeats) {
		return models.NewValidationError("ride_id", "full car booking needs an unshared ride with exactly the seats needed")
	}
	return nil
}

func (s *matchService) FindCompatibleRides(ctx context.Context, req *models.RideRequest, opts SearchOptions) (*models.SearchResult, error) {
	if req == nil {
		return nil, models.NewValidationError("request", "is required")
	}
	f, page, perPage, err := s.searchFilter(opts)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return &models.SearchResult{Rides: []*models.Ride{}, Pagination: pagination(0, page, perPage)}, nil
	}

	f.DepartureCity = req.DepartureCity
	f.DestinationCity = req.DestinationCity
	f.MinAvailableSeats = max(f.MinAvailableSeats, req.SeatsNeeded)
	if req.PreferredCarType != nil {
		f.CarType = *req.PreferredCarType
	}
	if req.FullCarBooking {
		f.TotalSeats = req.SeatsNeeded
	}
	if err := s.applyDay(&f, req.DesiredDate, opts); err != nil {
		return nil, err
	}

	defer observe("rides", time.Now())
	return s.run(ctx, f, page, perPage)
}

func (s *matchService) Search(ctx context.Context, q SearchQuery) (*models.SearchResult, error) {
	f, page, perPage, err := s.searchFilter(q.SearchOptions)
	if err != nil {
		return nil, err
	}

	f.DepartureCity = q.DepartureCity
	f.DestinationCity = q.DestinationCity
	f.MinAvailableSeats = max(f.MinAvailableSeats, 1)

	if q.Date != nil {
		if err := s.applyDay(&f, *q.Date, q.SearchOptions); err != nil {
			return nil, err
		}
	} else {
		if q.DepartureFrom != "" || q.DepartureTo != "" {
			return nil, models.NewValidationError("date", "is required with a departure time range")
		}
		now := s.opt.Now()
		f.DepartureFrom = &now
	}

	return s.run(ctx, f, page, perPage)
}

// searchFilter validates the generic options and returns the base filter with
// the resolved page and page size.
func (s *matchService) searchFilter(o SearchOptions) (storage.RideFilter, int, int, error) {
	f := storage.RideFilter{
		Statuses:          []models.RideStatus{models.RideActive},
		MinAvailableSeats: o.MinAvailableSeats,
		MinPrice:          o.MinPrice,
		MaxPrice:          o.MaxPrice,
	}

	switch {
	case o.MinAvailableSeats < 0:
		return f, 0, 0, models.NewValidationError("min_available_seats", "must not be negative")
	case o.MinPrice != nil && *o.MinPrice < 0:
		return f, 0, 0, models.NewValidationError("min_price", "must not be negative")
	case o.MaxPrice != nil && *o.MaxPrice < 0:
		return f, 0, 0, models.NewValidationError("max_price", "must not be negative")
	case o.MinPrice != nil && o.MaxPrice != nil && *o.MinPrice > *o.MaxPrice:
		return f, 0, 0, models.NewValidationError("max_price", "must not be below min_price")
	}

	switch o.SortBy {
	case "", SortDepartureTime:
		f.SortBy = storage.SortByDepartureTime
	case SortPricePerSeat:
		f.SortBy = storage.SortByPricePerSeat
	default:
		return f, 0, 0, models.NewValidationError("sort_by", fmt.Sprintf("must be %s or %s", SortDepartureTime, SortPricePerSeat))
	}

	switch o.SortOrder {
	case "", SortAsc:
	case SortDesc:
		f.SortDesc = true
	default:
		return f, 0, 0, models.NewValidationError("sort_order", "must be asc or desc")
	}

	page, perPage, err := s.opt.paging(o.Page, o.PerPage)
	return f, page, perPage, err
}

// applyDay restricts f to the calendar day of date, narrowed by the optional
// time-of-day bounds.
func (s *matchService) applyDay(f *storage.RideFilter, date time.Time, o SearchOptions) error {
	start, end := dayRange(date, s.opt.Location)
	from, before := start, end
	f.DepartureFrom, f.DepartureBefore = &from, &before

	if o.DepartureFrom != "" {
		d, err := parseTimeOfDay(o.DepartureFrom)
		if err != nil {
			return models.NewValidationError("departure_from", err.Error())
		}
		t := start.Add(d)
		f.DepartureFrom = &t
	}
	if o.DepartureTo != "" {
		d, err := parseTimeOfDay(o.DepartureTo)
		if err != nil {
			return models.NewValidationError("departure_to", err.Error())
		}
		t := start.Add(d)
		f.DepartureTo = &t
	}
	if f.DepartureTo != nil && f.DepartureTo.Before(*f.DepartureFrom) {
		return models.NewValidationError("departure_to", "must not be before departure_from")
	}
	return nil
}

func (s *matchService) run(ctx context.Context, f storage.RideFilter, page, perPage int) (*models.SearchResult, error) {
	total, err := s.stg.Ride().Count(ctx, f)
	if err != nil {
		return nil, err
	}

	f.Limit = perPage
	f.Offset = (page - 1) * perPage
	rides, err := s.stg.Ride().List(ctx, f)
	if err != nil {
		return nil, err
	}
	if rides == nil {
		rides = []*models.Ride{}
	}

	s.log.Debug("ride search",
		logger.String("from", f.DepartureCity),
		logger.String("to", f.DestinationCity),
		logger.Int("total", total),
		logger.Int("page", page),
	)
	return &models.SearchResult{Rides: rides, Pagination: pagination(total, page, perPage)}, nil
}

func parseTimeOfDay(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func observe(side string, start time.Time) {
	metrics.MatchLatency.WithLabelValues(side).Observe(time.Since(start).Seconds())
}
