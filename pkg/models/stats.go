package models

type Stats struct {
	TotalRides    int `json:"total_rides"`
	ActiveRides   int `json:"active_rides"`
	TotalUsers    int `json:"total_users"`
	TotalDrivers  int `json:"total_drivers"`
	TotalRequests int `json:"total_requests"`
}

type RouteCount struct {
	DepartureCity   string `json:"departure_city"`
	DestinationCity string `json:"destination_city"`
	RideCount       int    `json:"count"`
}
