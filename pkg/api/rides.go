package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alwahis/pkg/models"
	"alwahis/service"
)

type publishRideBody struct {
	DriverPhone     string         `json:"driver_phone" binding:"required"`
	DriverName      string         `json:"driver_name"`
	Car             *models.NewCar `json:"car"`
	DepartureCity   string         `json:"departure_city" binding:"required"`
	DestinationCity string         `json:"destination_city" binding:"required"`
	DepartureTime   time.Time      `json:"departure_time" binding:"required"`
	TotalSeats      int            `json:"total_seats"`
	PricePerSeat    int64          `json:"price_per_seat"`
}

// PublishRide registers the driver and car on first use, publishes the ride
// and returns the requests it could serve right away.
func (h *Handler) PublishRide(c *gin.Context) {
	var body publishRideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "body", err)
		return
	}
	ctx := c.Request.Context()

	driver, err := h.svc.User().Register(ctx, body.DriverPhone, body.DriverName, models.RoleDriver)
	if err != nil {
		h.handleError(c, err)
		return
	}
	car, err := h.svc.Car().Resolve(ctx, driver.ID, body.Car)
	if err != nil {
		h.handleError(c, err)
		return
	}

	ride, err := h.svc.Ride().Publish(ctx, models.PublishRide{
		DriverID:      driver.ID,
		CarID:         car.ID,
		Route:         models.Route{DepartureCity: body.DepartureCity, DestinationCity: body.DestinationCity},
		DepartureTime: body.DepartureTime,
		TotalSeats:    body.TotalSeats,
		PricePerSeat:  body.PricePerSeat,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	matches, err := take(h.svc.Match().FindCompatibleRequests(ctx, ride), defaultListLimit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ride": ride, "matching_requests": matches})
}

func (h *Handler) ListRides(c *gin.Context) {
	filter := service.RideListFilter{
		DepartureCity:   c.Query("departure_city"),
		DestinationCity: c.Query("destination_city"),
	}
	if v := c.Query("date"); v != "" {
		d, err := parseDate(v, h.loc)
		if err != nil {
			badRequest(c, "date", err)
			return
		}
		filter.Date = &d
	}
	minSeats, err := queryInt(c, "min_seats", 0)
	if err != nil {
		badRequest(c, "min_seats", err)
		return
	}
	filter.MinSeats = minSeats
	limit, err := queryLimit(c)
	if err != nil {
		badRequest(c, "limit", err)
		return
	}

	rides, err := take(h.svc.Ride().ListActive(c.Request.Context(), filter), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides, "count": len(rides)})
}

func (h *Handler) GetRide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ride, err := h.svc.Ride().Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ride)
}

type searchBody struct {
	DepartureCity   string `json:"departure_city"`
	DestinationCity string `json:"destination_city"`
	Date            string `json:"date"`
	service.SearchOptions
}

func (h *Handler) SearchRides(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "body", err)
		return
	}
	q := service.SearchQuery{
		DepartureCity:   body.DepartureCity,
		DestinationCity: body.DestinationCity,
		SearchOptions:   body.SearchOptions,
	}
	if body.Date != "" {
		d, err := parseDate(body.Date, h.loc)
		if err != nil {
			badRequest(c, "date", err)
			return
		}
		q.Date = &d
	}

	res, err := h.svc.Match().Search(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MatchingRequests(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		badRequest(c, "limit", err)
		return
	}
	ctx := c.Request.Context()

	ride, err := h.svc.Ride().Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	reqs, err := take(h.svc.Match().FindCompatibleRequests(ctx, ride), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride_id": ride.ID, "requests": reqs, "count": len(reqs)})
}

func (h *Handler) CancelRide(c *gin.Context) {
	h.rideTransition(c, h.svc.Ride().Cancel)
}

func (h *Handler) CompleteRide(c *gin.Context) {
	h.rideTransition(c, h.svc.Ride().Complete)
}
