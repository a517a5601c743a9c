package storage

import (
	"time"

	"alwahis/pkg/models"
)

type RideSortKey string

const (
	SortByDepartureTime RideSortKey = "departure_time"
	SortByPricePerSeat  RideSortKey = "price_per_seat"
	SortByCreatedAt     RideSortKey = "created_at"
)

// RideFilter is pushed down to the store. Zero values mean "no constraint".
type RideFilter struct {
	DepartureCity   string
	DestinationCity string
	Statuses        []models.RideStatus

	DepartureFrom   *time.Time // >=
	DepartureBefore *time.Time // <
	DepartureTo     *time.Time // <=

	MinAvailableSeats int
	MinPrice          *int64
	MaxPrice          *int64
	// CarType matches the ride's car category case-insensitively.
	CarType    string
	TotalSeats int

	SortBy   RideSortKey
	SortDesc bool
	Limit    int
	Offset   int
}

// RequestFilter is pushed down to the store. Results are always ordered by
// creation time, oldest first.
type RequestFilter struct {
	DepartureCity   string
	DestinationCity string
	Statuses        []models.RequestStatus

	DesiredFrom   *time.Time // >=
	DesiredBefore *time.Time // <
	CreatedSince  *time.Time // >=

	MaxSeatsNeeded int
	// CompatibleCarType keeps requests without a preference or whose
	// preference equals it case-insensitively.
	CompatibleCarType *string
	// FullCarSeats keeps requests that either do not ask for the whole car or
	// need exactly this many seats.
	FullCarSeats int

	Limit  int
	Offset int
}
