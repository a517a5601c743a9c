package postgres

import (
	"context"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type statsRepo struct {
	db  querier
	log logger.ILogger
}

func NewStatsRepo(db querier, log logger.ILogger) storage.IStatsStorage {
	return &statsRepo{db: db, log: log}
}

func (r *statsRepo) Counts(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM rides),
			(SELECT count(*) FROM rides WHERE status = 'active'),
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM users WHERE role = 'driver'),
			(SELECT count(*) FROM ride_requests)
	`).Scan(&st.TotalRides, &st.ActiveRides, &st.TotalUsers, &st.TotalDrivers, &st.TotalRequests)
	if err != nil {
		r.log.Error("failed to get stats", logger.Error(err))
		return nil, mapErr("counts", err)
	}
	return &st, nil
}

// PopularRoutes groups rides by city pair. COLLATE "C" keeps the tie order
// byte-wise, independent of the database locale.
func (r *statsRepo) PopularRoutes(ctx context.Context, limit int) ([]models.RouteCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT departure_city, destination_city, count(*) AS cnt
		FROM rides
		GROUP BY departure_city, destination_city
		ORDER BY cnt DESC, departure_city COLLATE "C", destination_city COLLATE "C"
		LIMIT $1
	`, limit)
	if err != nil {
		r.log.Error("failed to get popular routes", logger.Error(err))
		return nil, mapErr("popular routes", err)
	}
	defer rows.Close()

	var out []models.RouteCount
	for rows.Next() {
		var rc models.RouteCount
		if err := rows.Scan(&rc.DepartureCity, &rc.DestinationCity, &rc.RideCount); err != nil {
			return nil, mapErr("scan popular route", err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("popular routes", err)
	}
	return out, nil
}
