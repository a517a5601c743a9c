package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type bookBody struct {
	RideID    int64 `json:"ride_id" binding:"required"`
	RequestID int64 `json:"request_id" binding:"required"`
	Seats     int   `json:"seats" binding:"required"`
}

func (h *Handler) Book(c *gin.Context) {
	var body bookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "body", err)
		return
	}
	res, err := h.svc.Booking().Book(c.Request.Context(), body.RideID, body.RequestID, body.Seats)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
