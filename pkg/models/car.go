package models

import "time"

const (
	CarTypeSedan = "sedan"
	CarTypeSUV   = "SUV"

	DefaultCarPhoto = "default_car.jpg"
)

type Car struct {
	ID        int64     `json:"id"`
	DriverID  int64     `json:"driver_id"`
	Category  string    `json:"category"`
	Details   string    `json:"details"`
	PhotoURL  string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCar describes a car to register for a driver. ForceNew registers it even
// when the driver already owns one.
type NewCar struct {
	Category string `json:"category"`
	Details  string `json:"details"`
	PhotoURL string `json:"photo_url"`
	ForceNew bool   `json:"force_new"`
}
