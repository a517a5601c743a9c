package service

import (
	"context"
	"fmt"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

const (
	countsCacheKey = "stats:counts"
	routesCacheKey = "stats:routes"
	// routesCacheDepth is how much of the ranking one cache entry holds.
	// Larger limits always go to storage.
	routesCacheDepth = 100
)

type AdminService interface {
	Counts(ctx context.Context) (*models.Stats, error)
	// PopularRoutes ranks city pairs by ride count. limit <= 0 uses the
	// configured default.
	PopularRoutes(ctx context.Context, limit int) ([]models.RouteCount, error)
	// PurgeRide physically removes a ride and its bookings.
	PurgeRide(ctx context.Context, id int64) error
	// ListRides pages over every ride regardless of status, newest first.
	ListRides(ctx context.Context, page, perPage int) (*models.SearchResult, error)
}

type adminService struct {
	stg storage.IStorage
	log logger.ILogger
	opt Options
}

func NewAdminService(stg storage.IStorage, log logger.ILogger, opts Options) AdminService {
	return &adminService{
		stg: stg,
		log: log,
		opt: opts.withDefaults(),
	}
}

func (s *adminService) Counts(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	if s.cached(ctx, countsCacheKey, &st) {
		return &st, nil
	}

	out, err := s.stg.Stats().Counts(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, countsCacheKey, out)
	return out, nil
}

func (s *adminService) PopularRoutes(ctx context.Context, limit int) ([]models.RouteCount, error) {
	if limit <= 0 {
		limit = s.opt.PopularRoutesLimit
	}
	if limit > routesCacheDepth {
		return s.rankRoutes(ctx, limit)
	}

	var ranking []models.RouteCount
	if !s.cached(ctx, routesCacheKey, &ranking) {
		var err error
		if ranking, err = s.rankRoutes(ctx, routesCacheDepth); err != nil {
			return nil, err
		}
		s.store(ctx, routesCacheKey, ranking)
	}
	return ranking[:min(limit, len(ranking))], nil
}

func (s *adminService) rankRoutes(ctx context.Context, limit int) ([]models.RouteCount, error) {
	routes, err := s.stg.Stats().PopularRoutes(ctx, limit)
	if err != nil {
		return nil, err
	}
	if routes == nil {
		routes = []models.RouteCount{}
	}
	return routes, nil
}

func (s *adminService) PurgeRide(ctx context.Context, id int64) error {
	if err := s.stg.Ride().Delete(ctx, id); err != nil {
		return fmt.Errorf("ride %d: %w", id, err)
	}
	s.log.Warning("ride purged", logger.Int64("ride_id", id))

	if s.opt.Cache != nil {
		if err := s.opt.Cache.Delete(ctx, countsCacheKey, routesCacheKey); err != nil {
			s.log.Warning("failed to invalidate stats cache", logger.Error(err))
		}
	}
	return nil
}

func (s *adminService) ListRides(ctx context.Context, page, perPage int) (*models.SearchResult, error) {
	page, perPage, err := s.opt.paging(page, perPage)
	if err != nil {
		return nil, err
	}

	f := storage.RideFilter{SortBy: storage.SortByCreatedAt, SortDesc: true}
	total, err := s.stg.Ride().Count(ctx, f)
	if err != nil {
		return nil, err
	}
	f.Limit, f.Offset = perPage, (page-1)*perPage
	rides, err := s.stg.Ride().List(ctx, f)
	if err != nil {
		return nil, err
	}
	if rides == nil {
		rides = []*models.Ride{}
	}
	return &models.SearchResult{Rides: rides, Pagination: pagination(total, page, perPage)}, nil
}

// cached reads key into dst. Cache failures are logged and treated as a miss.
func (s *adminService) cached(ctx context.Context, key string, dst any) bool {
	if s.opt.Cache == nil {
		return false
	}
	ok, err := s.opt.Cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warning("stats cache read failed", logger.String("key", key), logger.Error(err))
		return false
	}
	return ok
}

func (s *adminService) store(ctx context.Context, key string, v any) {
	if s.opt.Cache == nil {
		return
	}
	if err := s.opt.Cache.Set(ctx, key, v, s.opt.StatsCacheTTL); err != nil {
		s.log.Warning("stats cache write failed", logger.String("key", key), logger.Error(err))
	}
}
