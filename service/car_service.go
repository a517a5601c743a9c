package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type CarService interface {
	// Resolve returns the car a driver's next ride should use: the driver's
	// first car, or a newly registered one when none exists or nc.ForceNew is
	// set.
	Resolve(ctx context.Context, driverID int64, nc *models.NewCar) (*models.Car, error)
	Get(ctx context.Context, id int64) (*models.Car, error)
}

type carService struct {
	stg storage.ICarStorage
	log logger.ILogger
}

func NewCarService(stg storage.IStorage, log logger.ILogger) CarService {
	return &carService{
		stg: stg.Car(),
		log: log,
	}
}

func (s *carService) Resolve(ctx context.Context, driverID int64, nc *models.NewCar) (*models.Car, error) {
	if nc == nil || !nc.ForceNew {
		car, err := s.stg.GetFirstByDriver(ctx, driverID)
		if err == nil {
			return car, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	if nc == nil || strings.TrimSpace(nc.Category) == "" {
		return nil, models.NewValidationError("car.category", "is required to register a car")
	}

	photo := strings.TrimSpace(nc.PhotoURL)
	if photo == "" {
		photo = models.DefaultCarPhoto
	}
	car, err := s.stg.Create(ctx, &models.Car{
		DriverID: driverID,
		Category: strings.TrimSpace(nc.Category),
		Details:  strings.TrimSpace(nc.Details),
		PhotoURL: photo,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("car registered", logger.Int64("driver_id", driverID), logger.Int64("car_id", car.ID))
	return car, nil
}

func (s *carService) Get(ctx context.Context, id int64) (*models.Car, error) {
	car, err := s.stg.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("car %d: %w", id, err)
	}
	return car, nil
}
