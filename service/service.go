package service

import (
	"time"

	"alwahis/config"
	"alwahis/pkg/cache"
	"alwahis/pkg/events"
	"alwahis/pkg/logger"
	"alwahis/storage"
)

type IServiceManager interface {
	User() UserService
	Car() CarService
	Ride() RideService
	Request() RequestService
	Match() MatchService
	Booking() BookingService
	Admin() AdminService
}

// Options tunes engine policy. Zero fields fall back to the defaults below.
type Options struct {
	Now                 func() time.Time
	Location            *time.Location
	RequestMaxAge       time.Duration
	AllowPartialBooking bool
	PageSize            int
	MaxPageSize         int
	BatchSize           int
	PopularRoutesLimit  int
	StatsCacheTTL       time.Duration

	Publisher events.Publisher
	// Cache is optional; admin rollups are computed on every call without it.
	Cache cache.Cache
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Location:            cfg.Location(),
		RequestMaxAge:       cfg.RequestMaxAge,
		AllowPartialBooking: cfg.AllowPartialBooking,
		PageSize:            cfg.SearchPageSize,
		MaxPageSize:         cfg.SearchMaxPageSize,
		BatchSize:           cfg.ListBatchSize,
		PopularRoutesLimit:  cfg.PopularRoutesLimit,
		StatsCacheTTL:       cfg.StatsCacheTTL,
	}
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.RequestMaxAge <= 0 {
		o.RequestMaxAge = 7 * 24 * time.Hour
	}
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.PopularRoutesLimit <= 0 {
		o.PopularRoutesLimit = 5
	}
	if o.StatsCacheTTL <= 0 {
		o.StatsCacheTTL = 30 * time.Second
	}
	if o.Publisher == nil {
		o.Publisher = events.NewNop()
	}
	return o
}

type service struct {
	userService    UserService
	carService     CarService
	rideService    RideService
	requestService RequestService
	matchService   MatchService
	bookingService BookingService
	adminService   AdminService
}

func New(stg storage.IStorage, log logger.ILogger, opts Options) IServiceManager {
	opts = opts.withDefaults()
	return &service{
		userService:    NewUserService(stg, log),
		carService:     NewCarService(stg, log),
		rideService:    NewRideService(stg, log, opts),
		requestService: NewRequestService(stg, log, opts),
		matchService:   NewMatchService(stg, log, opts),
		bookingService: NewBookingService(stg, log, opts),
		adminService:   NewAdminService(stg, log, opts),
	}
}

func (s *service) User() UserService {
	return s.userService
}

func (s *service) Car() CarService {
	return s.carService
}

func (s *service) Ride() RideService {
	return s.rideService
}

func (s *service) Request() RequestService {
	return s.requestService
}

func (s *service) Match() MatchService {
	return s.matchService
}

func (s *service) Booking() BookingService {
	return s.bookingService
}

func (s *service) Admin() AdminService {
	return s.adminService
}
