package models

import "time"

type Booking struct {
	ID         int64     `json:"id"`
	RideID     int64     `json:"ride_id"`
	RequestID  int64     `json:"request_id"`
	Seats      int       `json:"seats"`
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookingResult struct {
	BookingID      int64     `json:"booking_id"`
	RideID         int64     `json:"ride_id"`
	RequestID      int64     `json:"request_id"`
	Seats          int       `json:"seats"`
	RemainingSeats int       `json:"remaining_seats"`
	TotalPrice     int64     `json:"total_price"`
	BookedAt       time.Time `json:"booked_at"`
}
