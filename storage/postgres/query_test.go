package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"alwahis/pkg/models"
	"alwahis/storage"
)

func TestRideWhereBuildsPlaceholders(t *testing.T) {
	from := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	before := from.Add(24 * time.Hour)
	maxPrice := int64(30000)

	w := rideWhere(storage.RideFilter{
		DepartureCity:     "Baghdad",
		DestinationCity:   "Basra",
		Statuses:          []models.RideStatus{models.RideActive},
		DepartureFrom:     &from,
		DepartureBefore:   &before,
		MinAvailableSeats: 2,
		MaxPrice:          &maxPrice,
		CarType:           "suv",
	})

	want := " WHERE r.departure_city = $1 AND r.destination_city = $2 AND r.status = ANY($3)" +
		" AND r.departure_time >= $4 AND r.departure_time < $5 AND r.available_seats >= $6" +
		" AND r.price_per_seat <= $7 AND LOWER(c.category) = LOWER($8)"
	if got := w.String(); got != want {
		t.Fatalf("where mismatch:\n got: %s\nwant: %s", got, want)
	}
	wantArgs := []any{"Baghdad", "Basra", []string{"active"}, from, before, 2, maxPrice, "suv"}
	if diff := cmp.Diff(wantArgs, w.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}

	if got := w.limitOffset(10, 20); got != " LIMIT $9 OFFSET $10" {
		t.Fatalf("limitOffset = %q", got)
	}
}

func TestRequestWhereCompatibility(t *testing.T) {
	suv := "SUV"
	w := requestWhere(storage.RequestFilter{
		Statuses:          []models.RequestStatus{models.RequestPending},
		MaxSeatsNeeded:    3,
		CompatibleCarType: &suv,
		FullCarSeats:      4,
	})
	want := " WHERE status = ANY($1) AND seats_needed <= $2" +
		" AND (preferred_car_type IS NULL OR LOWER(preferred_car_type) = LOWER($3))" +
		" AND (NOT full_car_booking OR seats_needed = $4)"
	if got := w.String(); got != want {
		t.Fatalf("where mismatch:\n got: %s\nwant: %s", got, want)
	}
	if (&where{}).String() != "" {
		t.Fatalf("empty filter must not emit WHERE")
	}
}

func TestRideOrder(t *testing.T) {
	cases := []struct {
		key  storage.RideSortKey
		desc bool
		want string
	}{
		{"", false, " ORDER BY r.departure_time ASC, r.id ASC"},
		{storage.SortByPricePerSeat, true, " ORDER BY r.price_per_seat DESC, r.id ASC"},
		{storage.SortByCreatedAt, true, " ORDER BY r.created_at DESC, r.id ASC"},
		{"drop table", false, " ORDER BY r.departure_time ASC, r.id ASC"},
	}
	for _, c := range cases {
		if got := rideOrder(c.key, c.desc); got != c.want {
			t.Errorf("rideOrder(%q, %v) = %q, want %q", c.key, c.desc, got, c.want)
		}
	}
}

func TestMapErr(t *testing.T) {
	if err := mapErr("get", pgx.ErrNoRows); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("no rows: %v", err)
	}
	fk := &pgconn.PgError{Code: pgForeignKeyViolation}
	if err := mapErr("create ride", fk); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("fk violation: %v", err)
	}

	uniq := &pgconn.PgError{Code: pgUniqueViolation}
	err := mapErr("create booking", uniq)
	var se *models.StorageError
	if !errors.As(err, &se) || se.Op != "create booking" {
		t.Fatalf("unique violation should be opaque, got %v", err)
	}
	if models.IsDomainError(err) {
		t.Fatalf("storage fault classified as domain error")
	}
}
