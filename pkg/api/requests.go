package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alwahis/pkg/models"
	"alwahis/service"
)

type submitRequestBody struct {
	RiderPhone       string  `json:"rider_phone" binding:"required"`
	RiderName        string  `json:"rider_name"`
	DepartureCity    string  `json:"departure_city" binding:"required"`
	DestinationCity  string  `json:"destination_city" binding:"required"`
	DesiredDate      string  `json:"desired_date" binding:"required"`
	SeatsNeeded      int     `json:"seats_needed"`
	PreferredCarType *string `json:"preferred_car_type"`
	FullCarBooking   bool    `json:"full_car_booking"`
}

type searchParams struct {
	MinPrice          *int64 `form:"min_price"`
	MaxPrice          *int64 `form:"max_price"`
	DepartureFrom     string `form:"departure_from"`
	DepartureTo       string `form:"departure_to"`
	MinAvailableSeats int    `form:"min_available_seats"`
	SortBy            string `form:"sort_by"`
	SortOrder         string `form:"sort_order"`
	Page              int    `form:"page"`
	PerPage           int    `form:"per_page"`
}

func (p searchParams) options() service.SearchOptions {
	return service.SearchOptions{
		MinPrice:          p.MinPrice,
		MaxPrice:          p.MaxPrice,
		DepartureFrom:     p.DepartureFrom,
		DepartureTo:       p.DepartureTo,
		MinAvailableSeats: p.MinAvailableSeats,
		SortBy:            p.SortBy,
		SortOrder:         p.SortOrder,
		Page:              p.Page,
		PerPage:           p.PerPage,
	}
}

// SubmitRequest registers the rider on first use, stores the request and
// returns the first page of rides that could carry it.
func (h *Handler) SubmitRequest(c *gin.Context) {
	var body submitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "body", err)
		return
	}
	desired, err := parseDate(body.DesiredDate, h.loc)
	if err != nil {
		badRequest(c, "desired_date", err)
		return
	}
	ctx := c.Request.Context()

	rider, err := h.svc.User().Register(ctx, body.RiderPhone, body.RiderName, models.RoleRider)
	if err != nil {
		h.handleError(c, err)
		return
	}
	req, err := h.svc.Request().Submit(ctx, models.SubmitRequest{
		RiderID:          rider.ID,
		Route:            models.Route{DepartureCity: body.DepartureCity, DestinationCity: body.DestinationCity},
		DesiredDate:      desired,
		SeatsNeeded:      body.SeatsNeeded,
		PreferredCarType: body.PreferredCarType,
		FullCarBooking:   body.FullCarBooking,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	rides, err := h.svc.Match().FindCompatibleRides(ctx, req, service.SearchOptions{})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req, "matching_rides": rides})
}

func (h *Handler) ListRequests(c *gin.Context) {
	var maxAge time.Duration
	if v := c.Query("max_age"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			badRequest(c, "max_age", err)
			return
		}
		maxAge = d
	}
	limit, err := queryLimit(c)
	if err != nil {
		badRequest(c, "limit", err)
		return
	}

	filter := service.RequestListFilter{
		DepartureCity:   c.Query("departure_city"),
		DestinationCity: c.Query("destination_city"),
	}
	reqs, err := take(h.svc.Request().ListPending(c.Request.Context(), filter, maxAge), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs, "count": len(reqs)})
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := h.svc.Request().Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) MatchingRides(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var params searchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "query", err)
		return
	}
	ctx := c.Request.Context()

	req, err := h.svc.Request().Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	res, err := h.svc.Match().FindCompatibleRides(ctx, req, params.options())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CancelRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Request().Cancel(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": models.RequestCancelled})
}

func (h *Handler) rideTransition(c *gin.Context, fn func(ctx context.Context, id int64) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	ride, err := h.svc.Ride().Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ride)
}
