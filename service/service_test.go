package service

import (
	"context"
	"iter"
	"sync"
	"testing"
	"time"

	"alwahis/pkg/events"
	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
	"alwahis/storage/memory"
)

var baghdad = time.FixedZone("AST", 3*60*60)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	clock  *testClock
	store  *memory.Store
	svc    IServiceManager
	events *recordingPublisher

	driver *models.User
	car    *models.Car
}

func newFixture(t *testing.T, tune ...func(*Options)) *fixture {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, baghdad)}
	store := memory.New(memory.WithClock(clock.Now))
	pub := &recordingPublisher{}

	opts := Options{
		Now:       clock.Now,
		Location:  baghdad,
		Publisher: pub,
	}
	for _, fn := range tune {
		fn(&opts)
	}

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		clock:  clock,
		store:  store,
		svc:    New(store, logger.NewNop(), opts),
		events: pub,
	}
	f.driver = f.user("+9647700000001", models.RoleDriver)
	car, err := f.svc.Car().Resolve(f.ctx, f.driver.ID, &models.NewCar{Category: models.CarTypeSUV})
	if err != nil {
		t.Fatal(err)
	}
	f.car = car
	return f
}

func (f *fixture) user(phone, role string) *models.User {
	f.t.Helper()
	u, err := f.svc.User().Register(f.ctx, phone, "user "+phone, role)
	if err != nil {
		f.t.Fatal(err)
	}
	return u
}

// tomorrow returns the next calendar day at hh:mm in Baghdad time.
func (f *fixture) tomorrow(hh, mm int) time.Time {
	now := f.clock.Now().In(baghdad)
	return time.Date(now.Year(), now.Month(), now.Day()+1, hh, mm, 0, 0, baghdad)
}

func (f *fixture) publish(from, to string, dep time.Time, seats int, price int64) *models.Ride {
	f.t.Helper()
	ride, err := f.svc.Ride().Publish(f.ctx, models.PublishRide{
		DriverID:      f.driver.ID,
		CarID:         f.car.ID,
		Route:         models.Route{DepartureCity: from, DestinationCity: to},
		DepartureTime: dep,
		TotalSeats:    seats,
		PricePerSeat:  price,
	})
	if err != nil {
		f.t.Fatal(err)
	}
	return ride
}

func (f *fixture) submit(rider *models.User, from, to string, date time.Time, seats int, mod ...func(*models.SubmitRequest)) *models.RideRequest {
	f.t.Helper()
	in := models.SubmitRequest{
		RiderID:     rider.ID,
		Route:       models.Route{DepartureCity: from, DestinationCity: to},
		DesiredDate: date,
		SeatsNeeded: seats,
	}
	for _, fn := range mod {
		fn(&in)
	}
	req, err := f.svc.Request().Submit(f.ctx, in)
	if err != nil {
		f.t.Fatal(err)
	}
	return req
}

func (f *fixture) ride(id int64) *models.Ride {
	f.t.Helper()
	r, err := f.svc.Ride().Get(f.ctx, id)
	if err != nil {
		f.t.Fatal(err)
	}
	return r
}

func (f *fixture) request(id int64) *models.RideRequest {
	f.t.Helper()
	r, err := f.svc.Request().Get(f.ctx, id)
	if err != nil {
		f.t.Fatal(err)
	}
	return r
}

func collect[T any](t *testing.T, seq iter.Seq2[T, error]) []T {
	t.Helper()
	var out []T
	for v, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, v)
	}
	return out
}

func requestIDs(reqs []*models.RideRequest) []int64 {
	out := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ID)
	}
	return out
}

func rideIDs(rides []*models.Ride) []int64 {
	out := make([]int64, 0, len(rides))
	for _, r := range rides {
		out = append(out, r.ID)
	}
	return out
}

// failingRequests makes every request status update fail inside transactions.
type failingRequests struct{ storage.IStorage }

func (s failingRequests) WithTx(ctx context.Context, fn func(tx storage.IStorage) error) error {
	return s.IStorage.WithTx(ctx, func(tx storage.IStorage) error {
		return fn(failingRequests{tx})
	})
}

func (s failingRequests) Request() storage.IRequestStorage {
	return brokenStatus{s.IStorage.Request()}
}

type brokenStatus struct{ storage.IRequestStorage }

func (brokenStatus) UpdateStatus(context.Context, int64, []models.RequestStatus, models.RequestStatus) error {
	return &models.StorageError{Op: "update ride request status", Err: context.DeadlineExceeded}
}
