package models

type Pagination struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

type SearchResult struct {
	Rides      []*Ride    `json:"rides"`
	Pagination Pagination `json:"pagination"`
}
