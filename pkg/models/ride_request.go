package models

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestMatched   RequestStatus = "matched"
	RequestCancelled RequestStatus = "cancelled"
)

type RideRequest struct {
	ID               int64         `json:"id"`
	RiderID          int64         `json:"rider_id"`
	Route                          // departure_city, destination_city
	DesiredDate      time.Time     `json:"desired_date"`
	SeatsNeeded      int           `json:"seats_needed"`
	PreferredCarType *string       `json:"preferred_car_type"`
	FullCarBooking   bool          `json:"full_car_booking"`
	Status           RequestStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type SubmitRequest struct {
	RiderID          int64
	Route            Route
	DesiredDate      time.Time
	SeatsNeeded      int
	PreferredCarType *string
	FullCarBooking   bool
}
