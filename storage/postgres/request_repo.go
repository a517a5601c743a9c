package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type requestRepo struct {
	db  querier
	log logger.ILogger
}

func NewRequestRepo(db querier, log logger.ILogger) storage.IRequestStorage {
	return &requestRepo{db: db, log: log}
}

const requestColumns = `id, rider_id, departure_city, destination_city, desired_date, seats_needed,
	preferred_car_type, full_car_booking, status, created_at, updated_at`

func (r *requestRepo) Create(ctx context.Context, req *models.RideRequest) (*models.RideRequest, error) {
	query := `
		INSERT INTO ride_requests (rider_id, departure_city, destination_city, desired_date,
		                           seats_needed, preferred_car_type, full_car_booking, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + requestColumns
	row := r.db.QueryRow(ctx, query,
		req.RiderID,
		req.DepartureCity,
		req.DestinationCity,
		req.DesiredDate,
		req.SeatsNeeded,
		req.PreferredCarType,
		req.FullCarBooking,
		string(req.Status),
	)
	out, err := scanRequest(row)
	if err != nil {
		r.log.Error("failed to create ride request", logger.Int64("rider_id", req.RiderID), logger.Error(err))
		return nil, mapErr("create ride request", err)
	}
	return out, nil
}

func (r *requestRepo) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	out, err := scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM ride_requests WHERE id = $1`, id))
	if err != nil {
		err = mapErr("get ride request", err)
		if !models.IsDomainError(err) {
			r.log.Error("failed to get ride request by id", logger.Int64("id", id), logger.Error(err))
		}
		return nil, err
	}
	return out, nil
}

func (r *requestRepo) List(ctx context.Context, f storage.RequestFilter) ([]*models.RideRequest, error) {
	w := requestWhere(f)
	query := `SELECT ` + requestColumns + ` FROM ride_requests` + w.String() +
		` ORDER BY created_at ASC, id ASC` + w.limitOffset(f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		r.log.Error("failed to list ride requests", logger.Error(err))
		return nil, mapErr("list ride requests", err)
	}
	defer rows.Close()

	var reqs []*models.RideRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, mapErr("scan ride request", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list ride requests", err)
	}
	return reqs, nil
}

func (r *requestRepo) UpdateStatus(ctx context.Context, id int64, from []models.RequestStatus, to models.RequestStatus) error {
	res, err := r.db.Exec(ctx,
		"UPDATE ride_requests SET status=$1, updated_at=NOW() WHERE id=$2 AND status = ANY($3)",
		string(to), id, toStrings(from),
	)
	if err != nil {
		r.log.Error("failed to update ride request status", logger.Int64("id", id), logger.Error(err))
		return mapErr("update ride request status", err)
	}
	if res.RowsAffected() == 0 {
		var exists bool
		err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM ride_requests WHERE id=$1)", id).Scan(&exists)
		switch {
		case err != nil:
			return mapErr("probe ride request", err)
		case !exists:
			return models.ErrNotFound
		}
		return models.ErrInvalidStateTransition
	}
	return nil
}

func requestWhere(f storage.RequestFilter) *where {
	w := &where{}
	if f.DepartureCity != "" {
		w.add("departure_city = ?", f.DepartureCity)
	}
	if f.DestinationCity != "" {
		w.add("destination_city = ?", f.DestinationCity)
	}
	if len(f.Statuses) > 0 {
		w.add("status = ANY(?)", toStrings(f.Statuses))
	}
	if f.DesiredFrom != nil {
		w.add("desired_date >= ?", *f.DesiredFrom)
	}
	if f.DesiredBefore != nil {
		w.add("desired_date < ?", *f.DesiredBefore)
	}
	if f.CreatedSince != nil {
		w.add("created_at >= ?", *f.CreatedSince)
	}
	if f.MaxSeatsNeeded > 0 {
		w.add("seats_needed <= ?", f.MaxSeatsNeeded)
	}
	if f.CompatibleCarType != nil {
		w.add("(preferred_car_type IS NULL OR LOWER(preferred_car_type) = LOWER(?))", *f.CompatibleCarType)
	}
	if f.FullCarSeats > 0 {
		w.add("(NOT full_car_booking OR seats_needed = ?)", f.FullCarSeats)
	}
	return w
}

func scanRequest(row pgx.Row) (*models.RideRequest, error) {
	var (
		req    models.RideRequest
		status string
	)
	err := row.Scan(
		&req.ID,
		&req.RiderID,
		&req.DepartureCity,
		&req.DestinationCity,
		&req.DesiredDate,
		&req.SeatsNeeded,
		&req.PreferredCarType,
		&req.FullCarBooking,
		&status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestStatus(status)
	return &req, nil
}

