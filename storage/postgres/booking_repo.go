package postgres

import (
	"context"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type bookingRepo struct {
	db  querier
	log logger.ILogger
}

func NewBookingRepo(db querier, log logger.ILogger) storage.IBookingStorage {
	return &bookingRepo{db: db, log: log}
}

func (r *bookingRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	b := *booking
	query := `
		INSERT INTO bookings (ride_id, request_id, seats, total_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, b.RideID, b.RequestID, b.Seats, b.TotalPrice).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		r.log.Error("failed to create booking",
			logger.Int64("ride_id", b.RideID),
			logger.Int64("request_id", b.RequestID),
			logger.Error(err),
		)
		return nil, mapErr("create booking", err)
	}
	return &b, nil
}

func (r *bookingRepo) GetByRide(ctx context.Context, rideID int64) ([]*models.Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ride_id, request_id, seats, total_price, created_at
		FROM bookings
		WHERE ride_id = $1
		ORDER BY id
	`, rideID)
	if err != nil {
		r.log.Error("failed to get bookings", logger.Int64("ride_id", rideID), logger.Error(err))
		return nil, mapErr("get bookings", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.RideID, &b.RequestID, &b.Seats, &b.TotalPrice, &b.CreatedAt); err != nil {
			return nil, mapErr("scan booking", err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("get bookings", err)
	}
	return bookings, nil
}
