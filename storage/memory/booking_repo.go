package memory

import (
	"context"
	"fmt"
	"sort"

	"alwahis/pkg/models"
)

type bookingRepo struct{ s *Store }

func (r *bookingRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	defer r.s.lock()()

	if _, ok := r.s.st.rides[booking.RideID]; !ok {
		return nil, models.ErrNotFound
	}
	if _, ok := r.s.st.requests[booking.RequestID]; !ok {
		return nil, models.ErrNotFound
	}
	for _, b := range r.s.st.bookings {
		if b.RequestID == booking.RequestID {
			return nil, &models.StorageError{
				Op:  "create booking",
				Err: fmt.Errorf("request %d already booked", booking.RequestID),
			}
		}
	}

	r.s.st.bookingSeq++
	v := *booking
	v.ID = r.s.st.bookingSeq
	v.CreatedAt = r.s.now()
	r.s.st.bookings[v.ID] = v
	return &v, nil
}

func (r *bookingRepo) GetByRide(ctx context.Context, rideID int64) ([]*models.Booking, error) {
	defer r.s.lock()()

	var out []*models.Booking
	for _, b := range r.s.st.bookings {
		if b.RideID == rideID {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
