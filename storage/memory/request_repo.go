package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"alwahis/pkg/models"
	"alwahis/storage"
)

type requestRepo struct{ s *Store }

func (r *requestRepo) Create(ctx context.Context, req *models.RideRequest) (*models.RideRequest, error) {
	defer r.s.lock()()

	if _, ok := r.s.st.users[req.RiderID]; !ok {
		return nil, models.ErrNotFound
	}

	r.s.st.requestSeq++
	now := r.s.now()
	v := detach(*req)
	v.ID = r.s.st.requestSeq
	v.CreatedAt = now
	v.UpdatedAt = now
	r.s.st.requests[v.ID] = v
	out := detach(v)
	return &out, nil
}

// detach copies the request so the stored value shares no pointers with
// callers.
func detach(v models.RideRequest) models.RideRequest {
	if v.PreferredCarType != nil {
		ct := *v.PreferredCarType
		v.PreferredCarType = &ct
	}
	return v
}

func (r *requestRepo) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	defer r.s.lock()()

	v, ok := r.s.st.requests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	v = detach(v)
	return &v, nil
}

func (r *requestRepo) List(ctx context.Context, f storage.RequestFilter) ([]*models.RideRequest, error) {
	defer r.s.lock()()

	var out []*models.RideRequest
	for _, v := range r.s.st.requests {
		if matchRequest(&v, f) {
			c := detach(v)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CreatedAt.Compare(out[j].CreatedAt); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *requestRepo) UpdateStatus(ctx context.Context, id int64, from []models.RequestStatus, to models.RequestStatus) error {
	defer r.s.lock()()

	v, ok := r.s.st.requests[id]
	if !ok {
		return models.ErrNotFound
	}
	if !slices.Contains(from, v.Status) {
		return models.ErrInvalidStateTransition
	}
	v.Status = to
	v.UpdatedAt = r.s.now()
	r.s.st.requests[id] = v
	return nil
}

func matchRequest(r *models.RideRequest, f storage.RequestFilter) bool {
	switch {
	case f.DepartureCity != "" && r.DepartureCity != f.DepartureCity:
		return false
	case f.DestinationCity != "" && r.DestinationCity != f.DestinationCity:
		return false
	case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status):
		return false
	case f.DesiredFrom != nil && r.DesiredDate.Before(*f.DesiredFrom):
		return false
	case f.DesiredBefore != nil && !r.DesiredDate.Before(*f.DesiredBefore):
		return false
	case f.CreatedSince != nil && r.CreatedAt.Before(*f.CreatedSince):
		return false
	case f.MaxSeatsNeeded > 0 && r.SeatsNeeded > f.MaxSeatsNeeded:
		return false
	case f.CompatibleCarType != nil && r.PreferredCarType != nil &&
		!strings.EqualFold(*r.PreferredCarType, *f.CompatibleCarType):
		return false
	case f.FullCarSeats > 0 && r.FullCarBooking && r.SeatsNeeded != f.FullCarSeats:
		return false
	}
	return true
}
