//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"alwahis/config"
	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/service"
	"alwahis/storage"
	"alwahis/storage/postgres"
)

// Run with: POSTGRES_HOST=localhost go test -tags integration ./storage/postgres/
func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("POSTGRES_HOST not set")
	}
	// migrations are resolved from the working directory
	t.Chdir("../..")

	ctx := context.Background()
	store, err := postgres.New(ctx, config.Load(), logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Close)

	_, err = store.GetPool().Exec(ctx, "TRUNCATE TABLE bookings, ride_requests, rides, cars, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatal(err)
	}
	return store
}

type world struct {
	t     *testing.T
	ctx   context.Context
	svc   service.IServiceManager
	store *postgres.Store
	dep   time.Time
}

func newWorld(t *testing.T) *world {
	store := newStore(t)
	return &world{
		t:     t,
		ctx:   context.Background(),
		svc:   service.New(store, logger.NewNop(), service.Options{Location: time.UTC}),
		store: store,
		dep:   time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute),
	}
}

func (w *world) ride(seats int) *models.Ride {
	w.t.Helper()
	driver, err := w.svc.User().Register(w.ctx, "+9647700000500", "Ali", models.RoleDriver)
	if err != nil {
		w.t.Fatal(err)
	}
	car, err := w.svc.Car().Resolve(w.ctx, driver.ID, &models.NewCar{Category: models.CarTypeSUV})
	if err != nil {
		w.t.Fatal(err)
	}
	ride, err := w.svc.Ride().Publish(w.ctx, models.PublishRide{
		DriverID:      driver.ID,
		CarID:         car.ID,
		Route:         models.Route{DepartureCity: "Baghdad", DestinationCity: "Basra"},
		DepartureTime: w.dep,
		TotalSeats:    seats,
		PricePerSeat:  25000,
	})
	if err != nil {
		w.t.Fatal(err)
	}
	return ride
}

func (w *world) request(n int) *models.RideRequest {
	w.t.Helper()
	rider, err := w.svc.User().Register(w.ctx, fmt.Sprintf("+96477000006%02d", n), "", models.RoleRider)
	if err != nil {
		w.t.Fatal(err)
	}
	req, err := w.svc.Request().Submit(w.ctx, models.SubmitRequest{
		RiderID:     rider.ID,
		Route:       models.Route{DepartureCity: "Baghdad", DestinationCity: "Basra"},
		DesiredDate: w.dep,
		SeatsNeeded: 1,
	})
	if err != nil {
		w.t.Fatal(err)
	}
	return req
}

func TestConcurrentBookingsOnLastSeat(t *testing.T) {
	w := newWorld(t)
	ride := w.ride(1)
	reqs := []*models.RideRequest{w.request(1), w.request(2)}

	var wg sync.WaitGroup
	errs := make([]error, len(reqs))
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = w.svc.Booking().Book(w.ctx, ride.ID, req.ID, 1)
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, models.ErrInsufficientCapacity):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("won=%d lost=%d", won, lost)
	}

	got, err := w.svc.Ride().Get(w.ctx, ride.ID)
	if err != nil || got.AvailableSeats != 0 {
		t.Fatalf("ride = %+v, %v", got, err)
	}
	bookings, err := w.store.Booking().GetByRide(w.ctx, ride.ID)
	if err != nil || len(bookings) != 1 {
		t.Fatalf("bookings = %+v, %v", bookings, err)
	}

	pending := 0
	for _, req := range reqs {
		r, err := w.svc.Request().Get(w.ctx, req.ID)
		if err != nil {
			t.Fatal(err)
		}
		if r.Status == models.RequestPending {
			pending++
		}
	}
	if pending != 1 {
		t.Fatalf("losing request must stay pending, %d pending", pending)
	}
}

func TestReserveNeverOversells(t *testing.T) {
	w := newWorld(t)
	ride := w.ride(5)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.store.Ride().Reserve(w.ctx, ride.ID, 1)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, models.ErrInsufficientCapacity) {
				t.Errorf("reserve: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := w.store.Ride().GetByID(w.ctx, ride.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok != 5 || got.AvailableSeats != 0 {
		t.Fatalf("reserved %d, AvailableSeats = %d", ok, got.AvailableSeats)
	}
	if _, err := w.store.Ride().Reserve(w.ctx, 9999, 1); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("reserve on unknown ride: %v", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	w := newWorld(t)
	ride := w.ride(3)
	boom := errors.New("boom")

	err := w.store.WithTx(w.ctx, func(tx storage.IStorage) error {
		if _, err := tx.Ride().Reserve(w.ctx, ride.ID, 2); err != nil {
			return err
		}
		if _, err := tx.User().GetOrCreate(w.ctx, "+9647700000599", "", models.RoleRider); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx returned %v", err)
	}

	got, err := w.store.Ride().GetByID(w.ctx, ride.ID)
	if err != nil || got.AvailableSeats != 3 {
		t.Fatalf("reservation survived rollback: %+v, %v", got, err)
	}
	if _, err := w.store.User().GetByPhone(w.ctx, "+9647700000599"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("user survived rollback: %v", err)
	}
}
