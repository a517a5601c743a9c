package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"alwahis/pkg/events"
	"alwahis/pkg/logger"
	"alwahis/pkg/models"
)

func TestBaghdadBasraScenario(t *testing.T) {
	f := newFixture(t)
	ride := f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 4, 25000)
	rider := f.user("+9647700000030", models.RoleRider)
	req := f.submit(rider, "Baghdad", "Basra", f.tomorrow(0, 0), 2)

	got := collect(t, f.svc.Match().FindCompatibleRequests(f.ctx, ride))
	if diff := cmp.Diff([]int64{req.ID}, requestIDs(got)); diff != "" {
		t.Fatalf("compatible requests (-want +got):\n%s", diff)
	}

	res, err := f.svc.Booking().Book(f.ctx, ride.ID, req.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.RemainingSeats != 2 || res.TotalPrice != 50000 || res.Seats != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := f.ride(ride.ID); got.AvailableSeats != 2 {
		t.Fatalf("AvailableSeats = %d, want 2", got.AvailableSeats)
	}
	if got := f.request(req.ID); got.Status != models.RequestMatched {
		t.Fatalf("request status = %s, want matched", got.Status)
	}

	bookings, err := f.store.Booking().GetByRide(f.ctx, ride.ID)
	if err != nil || len(bookings) != 1 || bookings[0].RequestID != req.ID {
		t.Fatalf("bookings = %+v, %v", bookings, err)
	}

	want := []string{events.RidePublished, events.RequestSubmitted, events.BookingCommitted}
	if diff := cmp.Diff(want, f.events.types()); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
}

func TestConcurrentBookingsOnLastSeat(t *testing.T) {
	f := newFixture(t)
	ride := f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 1, 25000)
	a := f.submit(f.user("+9647700000031", models.RoleRider), "Baghdad", "Basra", f.tomorrow(0, 0), 1)
	b := f.submit(f.user("+9647700000032", models.RoleRider), "Baghdad", "Basra", f.tomorrow(0, 0), 1)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, req := range []*models.RideRequest{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Booking().Book(f.ctx, ride.ID, req.ID, 1)
		}()
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrInsufficientCapacity):
			full++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || full != 1 {
		t.Fatalf("successes=%d capacity failures=%d", ok, full)
	}
	if got := f.ride(ride.ID); got.AvailableSeats != 0 || got.Status != models.RideActive {
		t.Fatalf("ride after race: %+v", got)
	}

	statuses := []models.RequestStatus{f.request(a.ID).Status, f.request(b.ID).Status}
	if (statuses[0] == models.RequestMatched) == (statuses[1] == models.RequestMatched) {
		t.Fatalf("exactly one request must be matched: %v", statuses)
	}
}

func TestFailedBookingLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ride := f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 2, 25000)
	rider := f.user("+9647700000033", models.RoleRider)
	big := f.submit(rider, "Baghdad", "Basra", f.tomorrow(0, 0), 3)
	other := f.submit(rider, "Baghdad", "Mosul", f.tomorrow(0, 0), 1)
	later := f.submit(rider, "Baghdad", "Basra", f.tomorrow(0, 0).AddDate(0, 0, 6), 1)
	sedan := models.CarTypeSedan
	sedanOnly := f.submit(rider, "Baghdad", "Basra", f.tomorrow(0, 0), 1, func(r *models.SubmitRequest) { r.PreferredCarType = &sedan })

	shared := f.publish("Baghdad", "Basra", f.tomorrow(14, 0), 4, 25000)
	sharer := f.submit(f.user("+9647700000037", models.RoleRider), "Baghdad", "Basra", f.tomorrow(0, 0), 1)
	if _, err := f.svc.Booking().Book(f.ctx, shared.ID, sharer.ID, 1); err != nil {
		t.Fatal(err)
	}
	wholeCar := func(r *models.SubmitRequest) { r.FullCarBooking = true }
	fullCar := f.submit(rider, "Baghdad", "Basra", f.tomorrow(0, 0), 4, wholeCar)
	halfCar := f.submit(rider, "Baghdad", "Basra", f.tomorrow(0, 0), 2, wholeCar)

	cases := []struct {
		name    string
		rideID  int64
		reqID   int64
		seats   int
		wantErr error
	}{
		{"over capacity", ride.ID, big.ID, 3, models.ErrInsufficientCapacity},
		{"seat mismatch", ride.ID, big.ID, 2, models.ErrValidation},
		{"route mismatch", ride.ID, other.ID, 1, models.ErrValidation},
		{"different day", ride.ID, later.ID, 1, models.ErrValidation},
		{"car type mismatch", ride.ID, sedanOnly.ID, 1, models.ErrValidation},
		{"full car on shared ride", shared.ID, fullCar.ID, 4, models.ErrValidation},
		{"full car smaller than ride", shared.ID, halfCar.ID, 2, models.ErrValidation},
		{"unknown request", ride.ID, 999, 1, models.ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.svc.Booking().Book(f.ctx, c.rideID, c.reqID, c.seats)
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("expected %v, got %v", c.wantErr, err)
			}
		})
	}

	if got := f.ride(ride.ID); got.AvailableSeats != 2 {
		t.Fatalf("AvailableSeats = %d after failures", got.AvailableSeats)
	}
	if got := f.ride(shared.ID); got.AvailableSeats != 3 {
		t.Fatalf("shared ride AvailableSeats = %d after failures", got.AvailableSeats)
	}
	for _, req := range []*models.RideRequest{big, other, later, sedanOnly, fullCar, halfCar} {
		if got := f.request(req.ID); got.Status != models.RequestPending {
			t.Fatalf("request %d is %s after failed bookings", req.ID, got.Status)
		}
	}
}

func TestFullCarBookingTakesWholeRide(t *testing.T) {
	f := newFixture(t)
	ride := f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 3, 25000)
	suv := "suv"
	req := f.submit(f.user("+9647700000038", models.RoleRider), "Baghdad", "Basra", f.tomorrow(0, 0), 3,
		func(r *models.SubmitRequest) { r.FullCarBooking = true; r.PreferredCarType = &suv })

	res, err := f.svc.Booking().Book(f.ctx, ride.ID, req.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.RemainingSeats != 0 {
		t.Fatalf("RemainingSeats = %d", res.RemainingSeats)
	}
}

func TestBookingRollsBackOnStorageFault(t *testing.T) {
	f := newFixture(t)
	ride := f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 4, 25000)
	req := f.submit(f.user("+9647700000034", models.RoleRider), "Baghdad", "Basra", f.tomorrow(0, 0), 2)

	broken := NewBookingService(failingRequests{f.store}, logger.NewNop(), Options{})
	_, err := broken.Book(f.ctx, ride.ID, req.ID, 2)

	var se *models.StorageError
	if !errors.As(err, &se) || models.IsDomainError(err) {
		t.Fatalf("expected opaque storage error, got %v", err)
	}
	if got := f.ride(ride.ID); got.AvailableSeats != 4 {
		t.Fatalf("reservation leaked: AvailableSeats = %d", got.AvailableSeats)
	}
	if got := f.request(req.ID); got.Status != models.RequestPending {
		t.Fatalf("request status = %s", got.Status)
	}
}

func TestBookingRequiresPendingRequest(t *testing.T) {
	f := newFixture(t)
	ride := f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 4, 25000)
	req := f.submit(f.user("+9647700000035", models.RoleRider), "Baghdad", "Basra", f.tomorrow(0, 0), 1)

	if _, err := f.svc.Booking().Book(f.ctx, ride.ID, req.ID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Booking().Book(f.ctx, ride.ID, req.ID, 1); !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("rebooking a matched request: %v", err)
	}
	if got := f.ride(ride.ID); got.AvailableSeats != 3 {
		t.Fatalf("AvailableSeats = %d", got.AvailableSeats)
	}
}

func TestPartialBooking(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AllowPartialBooking = true })
	ride := f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 4, 1000)
	req := f.submit(f.user("+9647700000036", models.RoleRider), "Baghdad", "Basra", f.tomorrow(0, 0), 3)

	if _, err := f.svc.Booking().Book(f.ctx, ride.ID, req.ID, 4); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("more than needed: %v", err)
	}
	res, err := f.svc.Booking().Book(f.ctx, ride.ID, req.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.RemainingSeats != 2 || res.TotalPrice != 2000 {
		t.Fatalf("unexpected result %+v", res)
	}
}
