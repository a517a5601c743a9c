package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AdminStats(c *gin.Context) {
	limit, err := queryInt(c, "routes", 0)
	if err != nil {
		badRequest(c, "routes", err)
		return
	}
	ctx := c.Request.Context()

	stats, err := h.svc.Admin().Counts(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	routes, err := h.svc.Admin().PopularRoutes(ctx, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "popular_routes": routes})
}

func (h *Handler) AdminListRides(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		badRequest(c, "page", err)
		return
	}
	perPage, err := queryInt(c, "per_page", 0)
	if err != nil {
		badRequest(c, "per_page", err)
		return
	}

	res, err := h.svc.Admin().ListRides(c.Request.Context(), page, perPage)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdminDeleteRide soft deletes: the ride stays stored with status deleted.
func (h *Handler) AdminDeleteRide(c *gin.Context) {
	h.rideTransition(c, h.svc.Ride().Delete)
}

func (h *Handler) AdminPurgeRide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Admin().PurgeRide(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
