package postgres

import (
	"context"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type carRepo struct {
	db  querier
	log logger.ILogger
}

func NewCarRepo(db querier, log logger.ILogger) storage.ICarStorage {
	return &carRepo{db: db, log: log}
}

func (r *carRepo) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	c := *car
	query := `
		INSERT INTO cars (driver_id, category, details, photo_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, c.DriverID, c.Category, c.Details, c.PhotoURL).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.log.Error("failed to create car", logger.Int64("driver_id", c.DriverID), logger.Error(err))
		return nil, mapErr("create car", err)
	}
	return &c, nil
}

func (r *carRepo) GetByID(ctx context.Context, id int64) (*models.Car, error) {
	return r.scanOne(ctx, `SELECT id, driver_id, category, details, photo_url, created_at FROM cars WHERE id = $1`, id)
}

func (r *carRepo) GetFirstByDriver(ctx context.Context, driverID int64) (*models.Car, error) {
	return r.scanOne(ctx, `
		SELECT id, driver_id, category, details, photo_url, created_at
		FROM cars
		WHERE driver_id = $1
		ORDER BY id
		LIMIT 1
	`, driverID)
}

func (r *carRepo) scanOne(ctx context.Context, query string, arg int64) (*models.Car, error) {
	var c models.Car
	err := r.db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.DriverID, &c.Category, &c.Details, &c.PhotoURL, &c.CreatedAt)
	if err != nil {
		err = mapErr("get car", err)
		if !models.IsDomainError(err) {
			r.log.Error("failed to get car", logger.Int64("id", arg), logger.Error(err))
		}
		return nil, err
	}
	return &c, nil
}
