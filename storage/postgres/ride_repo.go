package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type rideRepo struct {
	db  querier
	log logger.ILogger
}

func NewRideRepo(db querier, log logger.ILogger) storage.IRideStorage {
	return &rideRepo{db: db, log: log}
}

const rideSelect = `
	SELECT r.id, r.driver_id, r.car_id, c.category, r.departure_city, r.destination_city,
	       r.departure_time, r.total_seats, r.available_seats, r.price_per_seat, r.status,
	       r.created_at, r.updated_at
	FROM rides r
	JOIN cars c ON c.id = r.car_id`

func (r *rideRepo) Create(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	query := `
		WITH r AS (
			INSERT INTO rides (driver_id, car_id, departure_city, destination_city, departure_time,
			                   total_seats, available_seats, price_per_seat, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)
		SELECT r.id, r.driver_id, r.car_id, c.category, r.departure_city, r.destination_city,
		       r.departure_time, r.total_seats, r.available_seats, r.price_per_seat, r.status,
		       r.created_at, r.updated_at
		FROM r
		JOIN cars c ON c.id = r.car_id
	`
	row := r.db.QueryRow(ctx, query,
		ride.DriverID,
		ride.CarID,
		ride.DepartureCity,
		ride.DestinationCity,
		ride.DepartureTime,
		ride.TotalSeats,
		ride.AvailableSeats,
		ride.PricePerSeat,
		string(ride.Status),
	)
	out, err := scanRide(row)
	if err != nil {
		r.log.Error("failed to create ride", logger.Int64("driver_id", ride.DriverID), logger.Error(err))
		return nil, mapErr("create ride", err)
	}
	return out, nil
}

func (r *rideRepo) GetByID(ctx context.Context, id int64) (*models.Ride, error) {
	out, err := scanRide(r.db.QueryRow(ctx, rideSelect+` WHERE r.id = $1`, id))
	if err != nil {
		err = mapErr("get ride", err)
		if !models.IsDomainError(err) {
			r.log.Error("failed to get ride by id", logger.Int64("id", id), logger.Error(err))
		}
		return nil, err
	}
	return out, nil
}

func (r *rideRepo) List(ctx context.Context, f storage.RideFilter) ([]*models.Ride, error) {
	w := rideWhere(f)
	query := rideSelect + w.String() + rideOrder(f.SortBy, f.SortDesc) + w.limitOffset(f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		r.log.Error("failed to list rides", logger.Error(err))
		return nil, mapErr("list rides", err)
	}
	defer rows.Close()

	var rides []*models.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, mapErr("scan ride", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list rides", err)
	}
	return rides, nil
}

func (r *rideRepo) Count(ctx context.Context, f storage.RideFilter) (int, error) {
	w := rideWhere(f)
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM rides r JOIN cars c ON c.id = r.car_id`+w.String(), w.args...).Scan(&n)
	if err != nil {
		r.log.Error("failed to count rides", logger.Error(err))
		return 0, mapErr("count rides", err)
	}
	return n, nil
}

// Reserve is a single guarded UPDATE. Row locking makes concurrent callers
// re-evaluate the guard against the committed seat count.
func (r *rideRepo) Reserve(ctx context.Context, id int64, seats int) (int, error) {
	var left int
	err := r.db.QueryRow(ctx, `
		UPDATE rides
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND available_seats >= $2
		RETURNING available_seats
	`, id, seats).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.missing(ctx, id, models.ErrInsufficientCapacity)
	}
	if err != nil {
		r.log.Error("failed to reserve seats", logger.Int64("id", id), logger.Error(err))
		return 0, mapErr("reserve seats", err)
	}
	return left, nil
}

func (r *rideRepo) UpdateStatus(ctx context.Context, id int64, from []models.RideStatus, to models.RideStatus) error {
	res, err := r.db.Exec(ctx,
		"UPDATE rides SET status=$1, updated_at=NOW() WHERE id=$2 AND status = ANY($3)",
		string(to), id, toStrings(from),
	)
	if err != nil {
		r.log.Error("failed to update ride status", logger.Int64("id", id), logger.Error(err))
		return mapErr("update ride status", err)
	}
	if res.RowsAffected() == 0 {
		return r.missing(ctx, id, models.ErrInvalidStateTransition)
	}
	return nil
}

// Delete removes the ride row; bookings go with it through ON DELETE CASCADE.
func (r *rideRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, "DELETE FROM rides WHERE id=$1", id)
	if err != nil {
		r.log.Error("failed to delete ride", logger.Int64("id", id), logger.Error(err))
		return mapErr("delete ride", err)
	}
	if res.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// missing tells an unknown id apart from a failed guard.
func (r *rideRepo) missing(ctx context.Context, id int64, guardErr error) error {
	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM rides WHERE id=$1)", id).Scan(&exists); err != nil {
		r.log.Error("failed to probe ride", logger.Int64("id", id), logger.Error(err))
		return mapErr("probe ride", err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return guardErr
}

func rideWhere(f storage.RideFilter) *where {
	w := &where{}
	if f.DepartureCity != "" {
		w.add("r.departure_city = ?", f.DepartureCity)
	}
	if f.DestinationCity != "" {
		w.add("r.destination_city = ?", f.DestinationCity)
	}
	if len(f.Statuses) > 0 {
		w.add("r.status = ANY(?)", toStrings(f.Statuses))
	}
	if f.DepartureFrom != nil {
		w.add("r.departure_time >= ?", *f.DepartureFrom)
	}
	if f.DepartureBefore != nil {
		w.add("r.departure_time < ?", *f.DepartureBefore)
	}
	if f.DepartureTo != nil {
		w.add("r.departure_time <= ?", *f.DepartureTo)
	}
	if f.MinAvailableSeats > 0 {
		w.add("r.available_seats >= ?", f.MinAvailableSeats)
	}
	if f.MinPrice != nil {
		w.add("r.price_per_seat >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("r.price_per_seat <= ?", *f.MaxPrice)
	}
	if f.CarType != "" {
		w.add("LOWER(c.category) = LOWER(?)", f.CarType)
	}
	if f.TotalSeats > 0 {
		w.add("r.total_seats = ?", f.TotalSeats)
	}
	return w
}

func rideOrder(key storage.RideSortKey, desc bool) string {
	col := "r.departure_time"
	switch key {
	case storage.SortByPricePerSeat:
		col = "r.price_per_seat"
	case storage.SortByCreatedAt:
		col = "r.created_at"
	}
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir + ", r.id ASC"
}

func scanRide(row pgx.Row) (*models.Ride, error) {
	var (
		ride   models.Ride
		status string
	)
	err := row.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.CarID,
		&ride.CarType,
		&ride.DepartureCity,
		&ride.DestinationCity,
		&ride.DepartureTime,
		&ride.TotalSeats,
		&ride.AvailableSeats,
		&ride.PricePerSeat,
		&status,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ride.Status = models.RideStatus(status)
	return &ride, nil
}
