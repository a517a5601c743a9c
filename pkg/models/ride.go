package models

import "time"

type RideStatus string

const (
	RideActive    RideStatus = "active"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
	RideDeleted   RideStatus = "deleted"
)

// Route is an ordered city pair. Cities are compared by exact string equality.
type Route struct {
	DepartureCity   string `json:"departure_city"`
	DestinationCity string `json:"destination_city"`
}

type Ride struct {
	ID             int64      `json:"id"`
	DriverID       int64      `json:"driver_id"`
	CarID          int64      `json:"car_id"`
	CarType        string     `json:"car_type"`
	Route                     // departure_city, destination_city
	DepartureTime  time.Time  `json:"departure_time"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	PricePerSeat   int64      `json:"price_per_seat"`
	Status         RideStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type PublishRide struct {
	DriverID      int64
	CarID         int64
	Route         Route
	DepartureTime time.Time
	TotalSeats    int
	PricePerSeat  int64
}
