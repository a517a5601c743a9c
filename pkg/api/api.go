package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alwahis/pkg/logger"
	"alwahis/service"
)

type Options struct {
	Service   service.IServiceManager
	Log       logger.ILogger
	JWTSecret string
	Location  *time.Location
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
}

type Handler struct {
	svc    service.IServiceManager
	log    logger.ILogger
	loc    *time.Location
	health func(ctx context.Context) error
}

func NewRouter(o Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	h := &Handler{svc: o.Service, log: o.Log, loc: o.Location, health: o.Health}
	if h.loc == nil {
		h.loc = time.UTC
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog(o.Log))
	r.Use(cors())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.POST("/rides", h.PublishRide)
		api.GET("/rides", h.ListRides)
		api.POST("/rides/search", h.SearchRides)
		api.GET("/rides/:id", h.GetRide)
		api.GET("/rides/:id/matching-requests", h.MatchingRequests)
		api.PUT("/rides/:id/cancel", h.CancelRide)
		api.PUT("/rides/:id/complete", h.CompleteRide)

		api.POST("/ride-requests", h.SubmitRequest)
		api.GET("/ride-requests", h.ListRequests)
		api.GET("/ride-requests/:id", h.GetRequest)
		api.GET("/ride-requests/:id/matching-rides", h.MatchingRides)
		api.PUT("/ride-requests/:id/cancel", h.CancelRequest)

		api.POST("/bookings", h.Book)
	}

	if o.JWTSecret == "" {
		o.Log.Warning("JWT_SECRET is empty, admin API disabled")
		return r
	}

	admin := r.Group("/api/admin")
	admin.Use(AdminRequired(o.JWTSecret))
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/rides", h.AdminListRides)
		admin.DELETE("/rides/:id", h.AdminDeleteRide)
		admin.DELETE("/rides/:id/purge", h.AdminPurgeRide)
	}

	return r
}

func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.Error("health check failed", logger.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunServer serves handler on addr until ctx is cancelled, then drains
// in-flight requests.
func RunServer(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration, handler http.Handler, log logger.ILogger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("HTTP server shutting down")
	return srv.Shutdown(shutdownCtx)
}
