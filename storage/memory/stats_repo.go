package memory

import (
	"context"
	"sort"

	"alwahis/pkg/models"
)

type statsRepo struct{ s *Store }

func (r *statsRepo) Counts(ctx context.Context) (*models.Stats, error) {
	defer r.s.lock()()

	st := &models.Stats{
		TotalRides:    len(r.s.st.rides),
		TotalUsers:    len(r.s.st.users),
		TotalRequests: len(r.s.st.requests),
	}
	for _, v := range r.s.st.rides {
		if v.Status == models.RideActive {
			st.ActiveRides++
		}
	}
	for _, u := range r.s.st.users {
		if u.Role == models.RoleDriver {
			st.TotalDrivers++
		}
	}
	return st, nil
}

func (r *statsRepo) PopularRoutes(ctx context.Context, limit int) ([]models.RouteCount, error) {
	defer r.s.lock()()

	counts := make(map[models.Route]int)
	for _, v := range r.s.st.rides {
		counts[v.Route]++
	}

	out := make([]models.RouteCount, 0, len(counts))
	for route, n := range counts {
		out = append(out, models.RouteCount{
			DepartureCity:   route.DepartureCity,
			DestinationCity: route.DestinationCity,
			RideCount:       n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RideCount != b.RideCount {
			return a.RideCount > b.RideCount
		}
		if a.DepartureCity != b.DepartureCity {
			return a.DepartureCity < b.DepartureCity
		}
		return a.DestinationCity < b.DestinationCity
	})
	return page(out, limit, 0), nil
}
