package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "alwahis"

var (
	RidesPublished    = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rides_published_total", Help: "Rides published by drivers"})
	RequestsSubmitted = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "requests_submitted_total", Help: "Ride requests submitted by riders"})
	SeatsBooked       = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "seats_booked_total", Help: "Seats reserved by committed bookings"})

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_total", Help: "Booking attempts by outcome"},
		[]string{"outcome"},
	)
	MatchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_latency_seconds",
			Help:      "Time spent computing compatible sets",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"side"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Booking outcomes.
const (
	OutcomeCommitted            = "committed"
	OutcomeInsufficientCapacity = "insufficient_capacity"
	OutcomeRejected             = "rejected"
	OutcomeError                = "error"
)
