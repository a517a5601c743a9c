package memory

import (
	"context"
	"sync"
	"time"

	"alwahis/pkg/models"
	"alwahis/storage"
)

// Store keeps everything in process memory behind a single mutex. It honours
// the same contract as the postgres store and is used for local runs and
// tests.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
	now  func() time.Time
}

type state struct {
	users    map[int64]models.User
	cars     map[int64]models.Car
	rides    map[int64]models.Ride
	requests map[int64]models.RideRequest
	bookings map[int64]models.Booking

	userSeq, carSeq, rideSeq, requestSeq, bookingSeq int64
}

func newState() *state {
	return &state{
		users:    make(map[int64]models.User),
		cars:     make(map[int64]models.Car),
		rides:    make(map[int64]models.Ride),
		requests: make(map[int64]models.RideRequest),
		bookings: make(map[int64]models.Booking),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.cars {
		c.cars[k] = v
	}
	for k, v := range s.rides {
		c.rides[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	c.userSeq, c.carSeq, c.rideSeq, c.requestSeq, c.bookingSeq =
		s.userSeq, s.carSeq, s.rideSeq, s.requestSeq, s.bookingSeq
	return c
}

type Option func(*Store)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		mu:  &sync.Mutex{},
		st:  newState(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock takes the store mutex unless the caller already holds it through
// WithTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.IStorage) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() {}

func (s *Store) User() storage.IUserStorage       { return &userRepo{s: s} }
func (s *Store) Car() storage.ICarStorage         { return &carRepo{s: s} }
func (s *Store) Ride() storage.IRideStorage       { return &rideRepo{s: s} }
func (s *Store) Request() storage.IRequestStorage { return &requestRepo{s: s} }
func (s *Store) Booking() storage.IBookingStorage { return &bookingRepo{s: s} }
func (s *Store) Stats() storage.IStatsStorage     { return &statsRepo{s: s} }

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
