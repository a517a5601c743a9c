package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"alwahis/pkg/models"
	"alwahis/storage"
)

type rideRepo struct{ s *Store }

func (r *rideRepo) Create(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	defer r.s.lock()()

	if _, ok := r.s.st.users[ride.DriverID]; !ok {
		return nil, models.ErrNotFound
	}
	if _, ok := r.s.st.cars[ride.CarID]; !ok {
		return nil, models.ErrNotFound
	}

	r.s.st.rideSeq++
	now := r.s.now()
	v := *ride
	v.ID = r.s.st.rideSeq
	v.CreatedAt = now
	v.UpdatedAt = now
	v.CarType = ""
	r.s.st.rides[v.ID] = v
	return r.withCar(v), nil
}

func (r *rideRepo) GetByID(ctx context.Context, id int64) (*models.Ride, error) {
	defer r.s.lock()()

	v, ok := r.s.st.rides[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r.withCar(v), nil
}

func (r *rideRepo) List(ctx context.Context, f storage.RideFilter) ([]*models.Ride, error) {
	defer r.s.lock()()

	out := r.filter(f)
	sortRides(out, f.SortBy, f.SortDesc)
	return page(out, f.Limit, f.Offset), nil
}

func (r *rideRepo) Count(ctx context.Context, f storage.RideFilter) (int, error) {
	defer r.s.lock()()

	return len(r.filter(f)), nil
}

func (r *rideRepo) Reserve(ctx context.Context, id int64, seats int) (int, error) {
	defer r.s.lock()()

	v, ok := r.s.st.rides[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	if v.Status != models.RideActive || v.AvailableSeats < seats {
		return v.AvailableSeats, models.ErrInsufficientCapacity
	}
	v.AvailableSeats -= seats
	v.UpdatedAt = r.s.now()
	r.s.st.rides[id] = v
	return v.AvailableSeats, nil
}

func (r *rideRepo) UpdateStatus(ctx context.Context, id int64, from []models.RideStatus, to models.RideStatus) error {
	defer r.s.lock()()

	v, ok := r.s.st.rides[id]
	if !ok {
		return models.ErrNotFound
	}
	if !slices.Contains(from, v.Status) {
		return models.ErrInvalidStateTransition
	}
	v.Status = to
	v.UpdatedAt = r.s.now()
	r.s.st.rides[id] = v
	return nil
}

func (r *rideRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock()()

	if _, ok := r.s.st.rides[id]; !ok {
		return models.ErrNotFound
	}
	for bid, b := range r.s.st.bookings {
		if b.RideID == id {
			delete(r.s.st.bookings, bid)
		}
	}
	delete(r.s.st.rides, id)
	return nil
}

func (r *rideRepo) withCar(v models.Ride) *models.Ride {
	if c, ok := r.s.st.cars[v.CarID]; ok {
		v.CarType = c.Category
	}
	return &v
}

func (r *rideRepo) filter(f storage.RideFilter) []*models.Ride {
	var out []*models.Ride
	for _, v := range r.s.st.rides {
		ride := r.withCar(v)
		if matchRide(ride, f) {
			out = append(out, ride)
		}
	}
	return out
}

func matchRide(r *models.Ride, f storage.RideFilter) bool {
	switch {
	case f.DepartureCity != "" && r.DepartureCity != f.DepartureCity:
		return false
	case f.DestinationCity != "" && r.DestinationCity != f.DestinationCity:
		return false
	case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status):
		return false
	case f.DepartureFrom != nil && r.DepartureTime.Before(*f.DepartureFrom):
		return false
	case f.DepartureBefore != nil && !r.DepartureTime.Before(*f.DepartureBefore):
		return false
	case f.DepartureTo != nil && r.DepartureTime.After(*f.DepartureTo):
		return false
	case f.MinAvailableSeats > 0 && r.AvailableSeats < f.MinAvailableSeats:
		return false
	case f.MinPrice != nil && r.PricePerSeat < *f.MinPrice:
		return false
	case f.MaxPrice != nil && r.PricePerSeat > *f.MaxPrice:
		return false
	case f.CarType != "" && !strings.EqualFold(r.CarType, f.CarType):
		return false
	case f.TotalSeats > 0 && r.TotalSeats != f.TotalSeats:
		return false
	}
	return true
}

func sortRides(rides []*models.Ride, key storage.RideSortKey, desc bool) {
	less := func(a, b *models.Ride) int {
		switch key {
		case storage.SortByPricePerSeat:
			return cmpInt64(a.PricePerSeat, b.PricePerSeat)
		case storage.SortByCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return a.DepartureTime.Compare(b.DepartureTime)
		}
	}
	sort.SliceStable(rides, func(i, j int) bool {
		c := less(rides[i], rides[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return rides[i].ID < rides[j].ID
	})
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
