package memory

import (
	"context"

	"alwahis/pkg/models"
)

type carRepo struct{ s *Store }

func (r *carRepo) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	defer r.s.lock()()

	if _, ok := r.s.st.users[car.DriverID]; !ok {
		return nil, models.ErrNotFound
	}
	r.s.st.carSeq++
	c := *car
	c.ID = r.s.st.carSeq
	c.CreatedAt = r.s.now()
	r.s.st.cars[c.ID] = c
	return &c, nil
}

func (r *carRepo) GetByID(ctx context.Context, id int64) (*models.Car, error) {
	defer r.s.lock()()

	c, ok := r.s.st.cars[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (r *carRepo) GetFirstByDriver(ctx context.Context, driverID int64) (*models.Car, error) {
	defer r.s.lock()()

	var first *models.Car
	for _, c := range r.s.st.cars {
		if c.DriverID != driverID {
			continue
		}
		if first == nil || c.ID < first.ID {
			c := c
			first = &c
		}
	}
	if first == nil {
		return nil, models.ErrNotFound
	}
	return first, nil
}
