package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
)

func (h *Handler) handleError(c *gin.Context, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, models.ErrInsufficientCapacity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "insufficient_capacity"})
	case errors.Is(err, models.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_state_transition"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			logger.String("route", c.FullPath()),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, field string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": field})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "field": "id"})
		return 0, false
	}
	return id, true
}
